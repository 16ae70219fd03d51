package server

import (
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/presenter"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

const EventVersion = 1

const (
	EventConnection        = "connection"
	EventStateChanged      = "state_changed"
	EventUtteranceRevealed = "utterance_revealed"
	EventUtteranceUpdated  = "utterance_updated"
	EventTranscriptReset   = "transcript_reset"
	EventSummaryReady      = "summary_ready"
	EventRender            = "render"
	EventError             = "error"
)

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type StateChangedEvent struct {
	Event
	SessionID     string        `json:"session_id,omitempty"`
	State         session.State `json:"state"`
	MeetingTarget string        `json:"meeting_target"`
}

type UtteranceRevealedEvent struct {
	Event
	SessionID string            `json:"session_id"`
	Index     int               `json:"index"`
	Utterance meeting.Utterance `json:"utterance"`
}

// UtteranceUpdatedEvent carries every utterance touched by one intent, so a
// Q&A link arrives as a single frame.
type UtteranceUpdatedEvent struct {
	Event
	SessionID  string              `json:"session_id"`
	Utterances []meeting.Utterance `json:"utterances"`
}

type TranscriptResetEvent struct {
	Event
}

type SummaryReadyEvent struct {
	Event
	SessionID string                `json:"session_id"`
	Summary   string                `json:"summary"`
	Status    session.SummaryStatus `json:"status"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

type RenderEvent struct {
	Event
	View presenter.View `json:"view"`
}

type ErrorEvent struct {
	Event
	Message string `json:"message"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
