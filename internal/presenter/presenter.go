// Package presenter holds the transient interaction state of one transcript
// viewer: hover, selection, the tag picker, Q&A link mode and auto-follow
// scrolling. It never owns transcript data; mutations are emitted as intents
// and the view is rebuilt from each controller snapshot.
package presenter

import (
	"slices"
	"sync"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

// Intents is the subset of the session controller a presenter drives.
type Intents interface {
	AddTag(utteranceID string, tagType meeting.TagType)
	RemoveTag(utteranceID string, tagType meeting.TagType)
	LinkQA(questionID string, answerIDs []string)
}

type linkMode struct {
	active  bool
	source  string
	targets []string
}

type Presenter struct {
	intents Intents

	mu         sync.Mutex
	hovered    string
	selected   string
	pendingTag meeting.TagType
	hasPending bool
	link       linkMode
	follow     bool
	lastLen    int
}

func New(intents Intents) *Presenter {
	return &Presenter{intents: intents, follow: true}
}

func (p *Presenter) Hover(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hovered = id
}

// Leave clears the hover highlight if it is still on id.
func (p *Presenter) Leave(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hovered == id {
		p.hovered = ""
	}
}

// Click handles a click on an utterance. In link mode it toggles the
// utterance as an answer target; with a pending tag type it applies that tag;
// otherwise it toggles selection.
func (p *Presenter) Click(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.link.active:
		if id == p.link.source {
			return
		}
		if i := slices.Index(p.link.targets, id); i >= 0 {
			p.link.targets = slices.Delete(p.link.targets, i, i+1)
		} else {
			p.link.targets = append(p.link.targets, id)
		}
	case p.hasPending:
		p.intents.AddTag(id, p.pendingTag)
		p.hasPending = false
	default:
		if p.selected == id {
			p.selected = ""
		} else {
			p.selected = id
		}
	}
}

// SelectTagType arms a tag type to be applied by the next utterance click.
func (p *Presenter) SelectTagType(t meeting.TagType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingTag = t
	p.hasPending = true
}

// PickTag applies a tag chosen from the picker of utterance id.
func (p *Presenter) PickTag(id string, t meeting.TagType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents.AddTag(id, t)
	p.hasPending = false
	p.selected = id
}

func (p *Presenter) RemoveTag(id string, t meeting.TagType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents.RemoveTag(id, t)
}

// StartLink enters link mode with id as the question.
func (p *Presenter) StartLink(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.link = linkMode{active: true, source: id}
	p.intents.AddTag(id, meeting.TagQuestion)
}

// ConfirmLink links the source to the chosen targets and leaves link mode.
// With no targets chosen it does nothing and link mode stays active.
func (p *Presenter) ConfirmLink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.link.active || len(p.link.targets) == 0 {
		return
	}
	p.intents.LinkQA(p.link.source, slices.Clone(p.link.targets))
	p.link = linkMode{}
}

func (p *Presenter) CancelLink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.link = linkMode{}
}

// ClickOutside clears the selection unless a link or a pending tag is in
// progress.
func (p *Presenter) ClickOutside() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.link.active || p.hasPending {
		return
	}
	p.selected = ""
}

// Scroll records whether the viewer is at the bottom of the transcript.
// Scrolling away disables auto-follow until the view returns to the bottom.
func (p *Presenter) Scroll(atBottom bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follow = atBottom
}
