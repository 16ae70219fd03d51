package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/presenter"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientEvent is a UI event sent by the browser over the websocket.
type clientEvent struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Tag      string `json:"tag,omitempty"`
	AtBottom bool   `json:"at_bottom,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) writeEvent(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return c.write(payload)
}

func serveWS(hub *Hub, intents session.Intents) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("ws: upgrade failed", "error", err)
			return
		}
		defer func() { _ = conn.Close() }()

		c := &wsConn{conn: conn}
		view := presenter.New(intents)
		render := func() error {
			return c.writeEvent(RenderEvent{
				Event: newEvent(EventRender, time.Now().UTC()),
				View:  view.Render(intents.Snapshot()),
			})
		}

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		if err := c.writeEvent(ConnectionEvent{
			Event:     newEvent(EventConnection, time.Now().UTC()),
			Connected: true,
		}); err != nil {
			return
		}
		if err := render(); err != nil {
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var ev clientEvent
				if err := json.Unmarshal(data, &ev); err != nil {
					_ = c.writeEvent(errorEvent(fmt.Sprintf("decode event: %v", err)))
					continue
				}
				if err := dispatch(view, ev); err != nil {
					slog.Debug("ws: rejected client event", "type", ev.Type, "error", err)
					_ = c.writeEvent(errorEvent(err.Error()))
					continue
				}
				if err := render(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := c.write(msg); err != nil {
					return
				}
				if err := render(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

func dispatch(p *presenter.Presenter, ev clientEvent) error {
	switch ev.Type {
	case "click":
		p.Click(ev.ID)
	case "hover":
		p.Hover(ev.ID)
	case "leave":
		p.Leave(ev.ID)
	case "select_tag_type":
		t, err := meeting.ParseTagType(ev.Tag)
		if err != nil {
			return err
		}
		p.SelectTagType(t)
	case "pick_tag":
		t, err := meeting.ParseTagType(ev.Tag)
		if err != nil {
			return err
		}
		p.PickTag(ev.ID, t)
	case "remove_tag":
		t, err := meeting.ParseTagType(ev.Tag)
		if err != nil {
			return err
		}
		p.RemoveTag(ev.ID, t)
	case "start_link":
		p.StartLink(ev.ID)
	case "confirm_link":
		p.ConfirmLink()
	case "cancel_link":
		p.CancelLink()
	case "click_outside":
		p.ClickOutside()
	case "scroll":
		p.Scroll(ev.AtBottom)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

func errorEvent(msg string) ErrorEvent {
	return ErrorEvent{Event: newEvent(EventError, time.Now().UTC()), Message: msg}
}
