package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

var _ session.EventBroadcaster = (*Hub)(nil)

// Hub fans controller events out to websocket subscribers. Slow subscribers
// miss events rather than block the controller; every frame is followed by a
// fresh render, so a missed event is repaired by the next one.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			slog.Debug("hub: subscriber buffer full, dropping event")
		}
	}
}

func (h *Hub) BroadcastStateChanged(sessionID string, state session.State, target string) {
	h.broadcastEvent(StateChangedEvent{
		Event:         newEvent(EventStateChanged, h.now()),
		SessionID:     sessionID,
		State:         state,
		MeetingTarget: target,
	})
}

func (h *Hub) BroadcastUtteranceRevealed(sessionID string, u meeting.Utterance, index int) {
	h.broadcastEvent(UtteranceRevealedEvent{
		Event:     newEvent(EventUtteranceRevealed, h.now()),
		SessionID: sessionID,
		Index:     index,
		Utterance: u,
	})
}

func (h *Hub) BroadcastUtterancesUpdated(sessionID string, us []meeting.Utterance) {
	h.broadcastEvent(UtteranceUpdatedEvent{
		Event:      newEvent(EventUtteranceUpdated, h.now()),
		SessionID:  sessionID,
		Utterances: us,
	})
}

func (h *Hub) BroadcastTranscriptReset() {
	h.broadcastEvent(TranscriptResetEvent{Event: newEvent(EventTranscriptReset, h.now())})
}

func (h *Hub) BroadcastSummaryReady(sessionID, summary string, status session.SummaryStatus) {
	h.broadcastEvent(SummaryReadyEvent{
		Event:     newEvent(EventSummaryReady, h.now()),
		SessionID: sessionID,
		Summary:   summary,
		Status:    status,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("hub: event marshal failed", "error", err)
		return
	}
	h.Broadcast(payload)
}
