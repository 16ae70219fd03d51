package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
	"github.com/sjawhar/transcript-viewer/internal/storage"
)

type intentsStub struct {
	mu    sync.Mutex
	snap  session.Snapshot
	calls []string
}

func newIntentsStub(state session.State, n int) *intentsStub {
	return &intentsStub{snap: session.Snapshot{
		SessionID:     "sess-1",
		State:         state,
		MeetingTarget: "Acme discovery call",
		Transcript:    meeting.Transcript(meeting.Script()[:n]),
	}}
}

func (s *intentsStub) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *intentsStub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *intentsStub) Start(target string) { s.record("start:" + target) }
func (s *intentsStub) End()                { s.record("end") }
func (s *intentsStub) Reset()              { s.record("reset") }

func (s *intentsStub) AddTag(id string, t meeting.TagType) {
	s.record("add:" + id + ":" + t.String())
}

func (s *intentsStub) RemoveTag(id string, t meeting.TagType) {
	s.record("remove:" + id + ":" + t.String())
}

func (s *intentsStub) LinkQA(q string, answers []string) {
	call := "link:" + q
	for _, a := range answers {
		call += ":" + a
	}
	s.record(call)
}

func (s *intentsStub) Snapshot() session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Transcript = s.snap.Transcript.Clone()
	return snap
}

type archiveStub struct {
	sessions    map[string]storage.Session
	transcripts map[string]meeting.Transcript
}

func (s archiveStub) ListSessions() ([]storage.Session, error) {
	out := make([]storage.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (s archiveStub) GetSession(id string) (storage.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return storage.Session{}, storage.ErrNotFound
}

func (s archiveStub) GetTranscript(id string) (meeting.Transcript, error) {
	return s.transcripts[id], nil
}

func testStaticFS(t *testing.T) fs.FS {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>ok</html>"), 0o644); err != nil {
		t.Fatalf("write index.html failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write app.js failed: %v", err)
	}
	return os.DirFS(dir)
}
