package server

import (
	"encoding/json"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sjawhar/transcript-viewer/internal/presenter"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

type frame struct {
	Type    string         `json:"type"`
	Version int            `json:"version"`
	View    presenter.View `json:"view"`
	Message string         `json:"message"`
}

func dialWS(t *testing.T, hub *Hub, intents session.Intents) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(Handler(Options{Hub: hub, Intents: intents}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal failed: %v (%s)", err, data)
	}
	return f
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev clientEvent) {
	t.Helper()
	if err := conn.WriteJSON(ev); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func selectedIDs(v presenter.View) []string {
	var ids []string
	for _, u := range v.Utterances {
		if u.Selected {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func TestWSConnectionAndInitialRender(t *testing.T) {
	conn := dialWS(t, NewHub(), newIntentsStub(session.StateRecording, 3))

	if f := readFrame(t, conn); f.Type != EventConnection || f.Version != EventVersion {
		t.Fatalf("expected connection frame, got %+v", f)
	}
	f := readFrame(t, conn)
	if f.Type != EventRender {
		t.Fatalf("expected render frame, got %q", f.Type)
	}
	if len(f.View.Utterances) != 3 || !f.View.Controls.CanEnd || !f.View.ScrollToBottom {
		t.Fatalf("unexpected initial view %+v", f.View)
	}
}

func TestWSClientEventsDrivePresenter(t *testing.T) {
	intents := newIntentsStub(session.StateRecording, 3)
	conn := dialWS(t, NewHub(), intents)
	readFrame(t, conn)
	readFrame(t, conn)

	sendEvent(t, conn, clientEvent{Type: "click", ID: "2"})
	f := readFrame(t, conn)
	if !slices.Equal(selectedIDs(f.View), []string{"2"}) {
		t.Fatalf("expected utterance 2 selected, got %v", selectedIDs(f.View))
	}

	sendEvent(t, conn, clientEvent{Type: "pick_tag", ID: "2", Tag: "tool"})
	readFrame(t, conn)

	sendEvent(t, conn, clientEvent{Type: "start_link", ID: "1"})
	f = readFrame(t, conn)
	if f.View.Mode != presenter.ModeLinking {
		t.Fatalf("expected linking mode, got %q", f.View.Mode)
	}
	sendEvent(t, conn, clientEvent{Type: "click", ID: "3"})
	readFrame(t, conn)
	sendEvent(t, conn, clientEvent{Type: "confirm_link"})
	readFrame(t, conn)

	want := []string{"add:2:tool", "add:1:question", "link:1:3"}
	if got := intents.Calls(); !slices.Equal(got, want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
}

func TestWSRejectsUnknownEvents(t *testing.T) {
	intents := newIntentsStub(session.StateRecording, 1)
	conn := dialWS(t, NewHub(), intents)
	readFrame(t, conn)
	readFrame(t, conn)

	sendEvent(t, conn, clientEvent{Type: "teleport"})
	if f := readFrame(t, conn); f.Type != EventError || !strings.Contains(f.Message, "teleport") {
		t.Fatalf("expected error frame, got %+v", f)
	}

	sendEvent(t, conn, clientEvent{Type: "select_tag_type", Tag: "budget"})
	if f := readFrame(t, conn); f.Type != EventError {
		t.Fatalf("expected error frame for unknown tag, got %+v", f)
	}
	if len(intents.Calls()) != 0 {
		t.Fatalf("expected no intents, got %v", intents.Calls())
	}
}

func TestWSForwardsHubEventsWithRender(t *testing.T) {
	hub := NewHub()
	conn := dialWS(t, hub, newIntentsStub(session.StateCompleted, 2))
	readFrame(t, conn)
	readFrame(t, conn)

	hub.BroadcastSummaryReady("sess-1", "## Summary", "completed")

	if f := readFrame(t, conn); f.Type != EventSummaryReady {
		t.Fatalf("expected summary_ready, got %q", f.Type)
	}
	f := readFrame(t, conn)
	if f.Type != EventRender || !f.View.Controls.CanReset {
		t.Fatalf("expected render after event, got %+v", f)
	}
}
