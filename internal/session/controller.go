package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

const (
	DefaultStartDelay     = 2 * time.Second
	DefaultRevealInterval = 2 * time.Second
)

// Options configures a Controller. Every collaborator is optional.
type Options struct {
	StartDelay     time.Duration
	RevealInterval time.Duration
	Scheduler      Scheduler
	Broadcaster    EventBroadcaster
	Observer       Observer
	Store          Store
	Exporter       Exporter
	Summarizer     Summarizer
	Logger         *slog.Logger
	// Script produces the utterances played back while recording.
	Script func() []meeting.Utterance
	Now    func() time.Time
}

// Controller owns the recorder state machine and the transcript.
//
// Broadcasts and observer calls happen while mu is held so that events leave
// in mutation order; implementations must not call back into the controller.
type Controller struct {
	startDelay     time.Duration
	revealInterval time.Duration
	scheduler      Scheduler
	hub            EventBroadcaster
	observer       Observer
	store          Store
	exporter       Exporter
	summarizer     Summarizer
	logger         *slog.Logger
	script         func() []meeting.Utterance
	now            func() time.Time

	mu         sync.Mutex
	state      State
	sessionID  string
	target     string
	startedAt  time.Time
	transcript meeting.Transcript
	pending    []meeting.Utterance
	revealed   int
	timer      Timer
	// generation invalidates callbacks armed before the latest transition.
	generation uint64

	// ctx bounds completion work; Close cancels it.
	ctx         context.Context
	cancel      context.CancelFunc
	completions sync.WaitGroup
}

func NewController(opts Options) *Controller {
	if opts.StartDelay <= 0 {
		opts.StartDelay = DefaultStartDelay
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = DefaultRevealInterval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Script == nil {
		opts.Script = meeting.Script
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		ctx:            ctx,
		cancel:         cancel,
		startDelay:     opts.StartDelay,
		revealInterval: opts.RevealInterval,
		scheduler:      opts.Scheduler,
		hub:            opts.Broadcaster,
		observer:       opts.Observer,
		store:          opts.Store,
		exporter:       opts.Exporter,
		summarizer:     opts.Summarizer,
		logger:         opts.Logger,
		script:         opts.Script,
		now:            opts.Now,
		state:          StateIdle,
		transcript:     meeting.Transcript{},
	}
}

// Snapshot returns a deep copy of the presenter-visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID:     c.sessionID,
		State:         c.state,
		MeetingTarget: c.target,
		Transcript:    c.transcript.Clone(),
	}
}

// Start begins a mock recording of target. Blank targets are ignored, as is
// any call outside the idle state.
func (c *Controller) Start(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(target) == "" {
		c.logger.Debug("session: ignoring blank meeting target")
		return
	}
	if c.state != StateIdle {
		c.logger.Debug("session: ignoring start", "state", c.state)
		return
	}

	c.sessionID = uuid.NewString()
	c.target = target
	c.startedAt = c.now().UTC()
	c.transcript = meeting.Transcript{}
	c.pending = nil
	c.revealed = 0
	if c.observer != nil {
		c.observer.SessionStarted()
		c.observer.SessionActive(1)
	}
	c.transition(StateWaiting)

	gen := c.generation
	c.timer = c.scheduler.AfterFunc(c.startDelay, func() { c.beginRecording(gen) })
}

func (c *Controller) beginRecording(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateWaiting {
		return
	}
	c.timer = nil
	c.pending = meeting.Dedupe(c.script())
	c.transition(StateRecording)

	if len(c.pending) > 0 {
		c.revealNext()
	}
	c.armReveal()
}

func (c *Controller) revealTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateRecording {
		return
	}
	c.timer = nil
	if c.revealed < len(c.pending) {
		c.revealNext()
	}
	c.armReveal()
}

// armReveal schedules the next tick, or leaves the timer disarmed once the
// script is exhausted.
func (c *Controller) armReveal() {
	if c.revealed >= len(c.pending) {
		return
	}
	gen := c.generation
	c.timer = c.scheduler.AfterFunc(c.revealInterval, func() { c.revealTick(gen) })
}

// revealNext appends pending[revealed] unless it is already present. The
// counter advances either way.
func (c *Controller) revealNext() {
	c.appendIfAbsent(c.pending[c.revealed])
	c.revealed++
}

func (c *Controller) appendIfAbsent(u meeting.Utterance) {
	if c.transcript.Contains(u.Key()) {
		return
	}
	u = u.Clone()
	c.transcript = append(c.transcript, u)
	if c.observer != nil {
		c.observer.UtteranceRevealed()
	}
	if c.hub != nil {
		c.hub.BroadcastUtteranceRevealed(c.sessionID, u.Clone(), len(c.transcript)-1)
	}
}

// End flushes every unrevealed scripted utterance and completes the session.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateWaiting && c.state != StateRecording {
		c.logger.Debug("session: ignoring end", "state", c.state)
		return
	}

	c.disarm()
	for ; c.revealed < len(c.pending); c.revealed++ {
		c.appendIfAbsent(c.pending[c.revealed])
	}
	c.transition(StateCompleted)
	if c.observer != nil {
		c.observer.SessionActive(-1)
	}

	c.completions.Add(1)
	go c.complete(completedSession{
		id:         c.sessionID,
		target:     c.target,
		startedAt:  c.startedAt,
		endedAt:    c.now().UTC(),
		transcript: c.transcript.Clone(),
	})
}

// Reset discards everything and returns to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.observer != nil && (c.state == StateWaiting || c.state == StateRecording) {
		c.observer.SessionActive(-1)
	}
	c.disarm()
	c.sessionID = ""
	c.target = ""
	c.startedAt = time.Time{}
	c.transcript = meeting.Transcript{}
	c.pending = nil
	c.revealed = 0
	if c.hub != nil {
		c.hub.BroadcastTranscriptReset()
	}
	c.transition(StateIdle)
}

// Close disarms any pending timer, cancels in-flight completion work and waits
// for it to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.disarm()
	c.mu.Unlock()
	c.cancel()
	c.completions.Wait()
}

// AddTag replaces any tag of the same type on the utterance with a fresh one.
func (c *Controller) AddTag(utteranceID string, tagType meeting.TagType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !tagType.Valid() {
		c.logger.Debug("session: ignoring invalid tag type", "tag", tagType)
		return
	}
	i := c.transcript.Index(utteranceID)
	if i < 0 {
		c.logger.Debug("session: add tag on unknown utterance", "utterance_id", utteranceID)
		return
	}

	c.transcript[i].SetTag(tagType)
	if c.observer != nil {
		c.observer.TagAdded(tagType)
	}
	c.broadcastUpdated(i)
}

// RemoveTag drops every tag of tagType from the utterance.
func (c *Controller) RemoveTag(utteranceID string, tagType meeting.TagType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.transcript.Index(utteranceID)
	if i < 0 {
		c.logger.Debug("session: remove tag on unknown utterance", "utterance_id", utteranceID)
		return
	}

	c.transcript[i].RemoveTag(tagType)
	if c.observer != nil {
		c.observer.TagRemoved(tagType)
	}
	c.broadcastUpdated(i)
}

// LinkQA rebuilds the link between a question and its answers. Earlier links
// of the same utterances are overwritten, not merged; answers dropped from a
// question keep their stale answer tag and back-link.
func (c *Controller) LinkQA(questionID string, answerIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.transcript.Index(questionID)
	if q < 0 {
		c.logger.Debug("session: link on unknown question", "utterance_id", questionID)
		return
	}

	c.transcript[q].SetTag(meeting.TagQuestion)
	c.transcript[q].LinkedUtterances = slices.Clone(answerIDs)
	changed := []int{q}
	tagged := 0

	for i := range c.transcript {
		if !slices.Contains(answerIDs, c.transcript[i].ID) {
			continue
		}
		c.transcript[i].SetTag(meeting.TagAnswer)
		c.transcript[i].LinkedUtterances = []string{questionID}
		tagged++
		if i != q {
			changed = append(changed, i)
		}
	}

	if c.observer != nil {
		c.observer.QALinked(tagged)
	}
	c.broadcastUpdated(changed...)
}

func (c *Controller) broadcastUpdated(indexes ...int) {
	if c.hub == nil {
		return
	}
	us := make([]meeting.Utterance, 0, len(indexes))
	for _, i := range indexes {
		us = append(us, c.transcript[i].Clone())
	}
	c.hub.BroadcastUtterancesUpdated(c.sessionID, us)
}

// transition moves to next and invalidates every timer armed for the
// previous state.
func (c *Controller) transition(next State) {
	prev := c.state
	c.state = next
	c.generation++
	c.logger.Info("session: state changed", "from", prev, "to", next, "target", c.target, "session_id", c.sessionID)
	if c.hub != nil {
		c.hub.BroadcastStateChanged(c.sessionID, next, c.target)
	}
}

func (c *Controller) disarm() {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
