// Package observe provides OpenTelemetry metrics for the transcript viewer
// and HTTP middleware that records request latency and logs completion.
//
// Tests should use [NewMetrics] with a [sdkmetric.ManualReader]-backed
// provider to inspect recorded values.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

const meterName = "github.com/sjawhar/transcript-viewer"

// Metrics holds the application's metric instruments. It satisfies
// session.Observer.
type Metrics struct {
	SessionsStarted    metric.Int64Counter
	ActiveSessions     metric.Int64UpDownCounter
	UtterancesRevealed metric.Int64Counter

	// TagsAdded and TagsRemoved carry attribute.String("tag", ...).
	TagsAdded   metric.Int64Counter
	TagsRemoved metric.Int64Counter

	// QALinks counts link operations; QALinkedAnswers counts answers linked.
	QALinks         metric.Int64Counter
	QALinkedAnswers metric.Int64Counter

	// HTTPRequestDuration carries attribute.String("method", ...),
	// attribute.String("route", ...) and attribute.Int("status", ...).
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates every instrument on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SessionsStarted, err = m.Int64Counter("transcript_viewer.sessions.started",
		metric.WithDescription("Mock recordings started."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("transcript_viewer.sessions.active",
		metric.WithDescription("Recordings currently waiting or recording."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesRevealed, err = m.Int64Counter("transcript_viewer.utterances.revealed",
		metric.WithDescription("Scripted utterances appended to the transcript."),
	); err != nil {
		return nil, err
	}
	if met.TagsAdded, err = m.Int64Counter("transcript_viewer.tags.added",
		metric.WithDescription("Tags added to utterances by tag type."),
	); err != nil {
		return nil, err
	}
	if met.TagsRemoved, err = m.Int64Counter("transcript_viewer.tags.removed",
		metric.WithDescription("Tags removed from utterances by tag type."),
	); err != nil {
		return nil, err
	}
	if met.QALinks, err = m.Int64Counter("transcript_viewer.qa.links",
		metric.WithDescription("Question to answer link operations."),
	); err != nil {
		return nil, err
	}
	if met.QALinkedAnswers, err = m.Int64Counter("transcript_viewer.qa.linked_answers",
		metric.WithDescription("Answers linked across all link operations."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("transcript_viewer.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) SessionStarted() {
	m.SessionsStarted.Add(context.Background(), 1)
}

func (m *Metrics) SessionActive(delta int64) {
	m.ActiveSessions.Add(context.Background(), delta)
}

func (m *Metrics) UtteranceRevealed() {
	m.UtterancesRevealed.Add(context.Background(), 1)
}

func (m *Metrics) TagAdded(t meeting.TagType) {
	m.TagsAdded.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tag", t.String())))
}

func (m *Metrics) TagRemoved(t meeting.TagType) {
	m.TagsRemoved.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tag", t.String())))
}

func (m *Metrics) QALinked(answers int) {
	ctx := context.Background()
	m.QALinks.Add(ctx, 1)
	m.QALinkedAnswers.Add(ctx, int64(answers))
}
