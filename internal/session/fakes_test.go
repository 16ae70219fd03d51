package session

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

// fakeScheduler fires callbacks only when Advance moves its clock past them.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	s     *fakeScheduler
	id    int
	at    time.Duration
	fn    func()
	fired bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: map[int]*fakeTimer{}}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &fakeTimer{s: s, id: s.nextID, at: s.now + d, fn: f}
	s.timers[t.id] = t
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.timers[t.id]; !ok {
		return false
	}
	delete(t.s.timers, t.id)
	return true
}

// Advance moves the clock forward, firing due timers in order. Timers armed
// by a callback fire in the same call if they fall inside the window.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due []*fakeTimer
		for _, t := range s.timers {
			if t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at == due[j].at {
				return due[i].id < due[j].id
			}
			return due[i].at < due[j].at
		})
		next := due[0]
		delete(s.timers, next.id)
		s.now = next.at
		s.mu.Unlock()

		next.fn()
	}
}

// Fire runs a timer's callback even if it was stopped, simulating a callback
// that was already in flight when its state was left.
func (t *fakeTimer) Fire() {
	t.fn()
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type hubMock struct {
	mu        sync.Mutex
	states    []State
	revealed  []string
	updated   [][]meeting.Utterance
	resets    int
	summaries chan string
}

func newHubMock() *hubMock {
	return &hubMock{summaries: make(chan string, 4)}
}

func (h *hubMock) BroadcastStateChanged(_ string, state State, _ string) {
	h.mu.Lock()
	h.states = append(h.states, state)
	h.mu.Unlock()
}

func (h *hubMock) BroadcastUtteranceRevealed(_ string, u meeting.Utterance, _ int) {
	h.mu.Lock()
	h.revealed = append(h.revealed, u.ID)
	h.mu.Unlock()
}

func (h *hubMock) BroadcastUtterancesUpdated(_ string, us []meeting.Utterance) {
	h.mu.Lock()
	h.updated = append(h.updated, us)
	h.mu.Unlock()
}

func (h *hubMock) BroadcastTranscriptReset() {
	h.mu.Lock()
	h.resets++
	h.mu.Unlock()
}

func (h *hubMock) BroadcastSummaryReady(_, summary string, status SummaryStatus) {
	h.summaries <- string(status) + ":" + summary
}

type observerMock struct {
	mu       sync.Mutex
	started  int
	active   int64
	revealed int
	added    []meeting.TagType
	removed  []meeting.TagType
	links    []int
}

func (o *observerMock) SessionStarted()           { o.mu.Lock(); o.started++; o.mu.Unlock() }
func (o *observerMock) SessionActive(delta int64) { o.mu.Lock(); o.active += delta; o.mu.Unlock() }
func (o *observerMock) UtteranceRevealed()        { o.mu.Lock(); o.revealed++; o.mu.Unlock() }
func (o *observerMock) TagAdded(t meeting.TagType) {
	o.mu.Lock()
	o.added = append(o.added, t)
	o.mu.Unlock()
}
func (o *observerMock) TagRemoved(t meeting.TagType) {
	o.mu.Lock()
	o.removed = append(o.removed, t)
	o.mu.Unlock()
}
func (o *observerMock) QALinked(n int) { o.mu.Lock(); o.links = append(o.links, n); o.mu.Unlock() }

type storeMock struct {
	mu        sync.Mutex
	archived  map[string]meeting.Transcript
	targets   map[string]string
	summary   map[string]string
	status    map[string]SummaryStatus
	archiveFn func() error
}

func newStoreMock() *storeMock {
	return &storeMock{
		archived: map[string]meeting.Transcript{},
		targets:  map[string]string{},
		summary:  map[string]string{},
		status:   map[string]SummaryStatus{},
	}
}

func (s *storeMock) ArchiveSession(id, target string, _, _ time.Time, transcript meeting.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveFn != nil {
		if err := s.archiveFn(); err != nil {
			return err
		}
	}
	s.archived[id] = transcript
	s.targets[id] = target
	return nil
}

func (s *storeMock) UpdateSummary(id, summary string, status SummaryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary[id] = summary
	s.status[id] = status
	return nil
}

type exporterMock struct {
	mu    sync.Mutex
	calls int
}

func (e *exporterMock) Export(id, _ string, _ time.Time, _ meeting.Transcript) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return "exports/" + id + ".md", nil
}

type summarizerMock struct {
	err error
}

func (s summarizerMock) Summarize(_ context.Context, transcript string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "## Summary\n- " + transcript[:10], nil
}

// blockingSummarizer holds until its context is done.
type blockingSummarizer struct {
	started chan struct{}
}

func (s blockingSummarizer) Summarize(ctx context.Context, _ string) (string, error) {
	close(s.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
