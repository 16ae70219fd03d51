package session

import (
	"context"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateWaiting   State = "waiting"
	StateRecording State = "recording"
	StateCompleted State = "completed"
)

// Snapshot is the read-only view the controller exposes to presenters.
type Snapshot struct {
	SessionID     string             `json:"session_id,omitempty"`
	State         State              `json:"state"`
	MeetingTarget string             `json:"meeting_target"`
	Transcript    meeting.Transcript `json:"transcript"`
}

// Intents is the mutation surface the controller offers to presenters.
type Intents interface {
	Start(target string)
	End()
	Reset()
	AddTag(utteranceID string, tagType meeting.TagType)
	RemoveTag(utteranceID string, tagType meeting.TagType)
	LinkQA(questionID string, answerIDs []string)
	Snapshot() Snapshot
}

// SummaryStatus tracks summary generation for an archived session.
type SummaryStatus string

const (
	SummaryPending   SummaryStatus = "pending"
	SummaryRunning   SummaryStatus = "running"
	SummaryCompleted SummaryStatus = "completed"
	SummaryFailed    SummaryStatus = "failed"
)

type EventBroadcaster interface {
	BroadcastStateChanged(sessionID string, state State, target string)
	BroadcastUtteranceRevealed(sessionID string, u meeting.Utterance, index int)
	BroadcastUtterancesUpdated(sessionID string, us []meeting.Utterance)
	BroadcastTranscriptReset()
	BroadcastSummaryReady(sessionID, summary string, status SummaryStatus)
}

// Observer receives counters for metrics. Implementations must not block.
type Observer interface {
	SessionStarted()
	SessionActive(delta int64)
	UtteranceRevealed()
	TagAdded(t meeting.TagType)
	TagRemoved(t meeting.TagType)
	QALinked(answers int)
}

// Store archives completed sessions.
type Store interface {
	ArchiveSession(id, target string, startedAt, endedAt time.Time, transcript meeting.Transcript) error
	UpdateSummary(id, summary string, status SummaryStatus) error
}

// Exporter writes a completed transcript somewhere durable and returns its location.
type Exporter interface {
	Export(id, target string, endedAt time.Time, transcript meeting.Transcript) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}
