package presenter

import (
	"slices"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

type View struct {
	SessionID      string          `json:"session_id,omitempty"`
	State          session.State   `json:"state"`
	MeetingTarget  string          `json:"meeting_target"`
	Controls       Controls        `json:"controls"`
	Mode           string          `json:"mode"`
	PendingTag     string          `json:"pending_tag,omitempty"`
	Link           *LinkView       `json:"link,omitempty"`
	TagOptions     []meeting.Tag   `json:"tag_options"`
	Utterances     []UtteranceView `json:"utterances"`
	ScrollToBottom bool            `json:"scroll_to_bottom"`
}

type Controls struct {
	CanStart bool `json:"can_start"`
	CanEnd   bool `json:"can_end"`
	CanReset bool `json:"can_reset"`
}

type LinkView struct {
	SourceID   string   `json:"source_id"`
	TargetIDs  []string `json:"target_ids"`
	CanConfirm bool     `json:"can_confirm"`
}

type UtteranceView struct {
	meeting.Utterance
	Position      int    `json:"position"`
	Hovered       bool   `json:"hovered"`
	Selected      bool   `json:"selected"`
	ShowTagPicker bool   `json:"show_tag_picker"`
	LinkSource    bool   `json:"link_source"`
	LinkTarget    bool   `json:"link_target"`
	LinkCaption   string `json:"link_caption,omitempty"`
}

const (
	ModeNormal  = "normal"
	ModeLinking = "linking"
)

// Render builds the view for snap. Transient ids that no longer exist in the
// transcript are dropped, and ScrollToBottom is set when the transcript grew
// while auto-follow is on.
func (p *Presenter) Render(snap session.Snapshot) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune(snap.Transcript)

	grew := len(snap.Transcript) > p.lastLen
	p.lastLen = len(snap.Transcript)

	v := View{
		SessionID:     snap.SessionID,
		State:         snap.State,
		MeetingTarget: snap.MeetingTarget,
		Controls: Controls{
			CanStart: snap.State == session.StateIdle,
			CanEnd:   snap.State == session.StateWaiting || snap.State == session.StateRecording,
			CanReset: snap.State == session.StateCompleted,
		},
		Mode:           ModeNormal,
		TagOptions:     tagOptions(),
		Utterances:     make([]UtteranceView, 0, len(snap.Transcript)),
		ScrollToBottom: grew && p.follow,
	}
	if p.hasPending {
		v.PendingTag = p.pendingTag.String()
	}
	if p.link.active {
		v.Mode = ModeLinking
		v.Link = &LinkView{
			SourceID:   p.link.source,
			TargetIDs:  slices.Clone(p.link.targets),
			CanConfirm: len(p.link.targets) > 0,
		}
	}

	for i, u := range snap.Transcript {
		selected := !p.link.active && p.selected == u.ID
		v.Utterances = append(v.Utterances, UtteranceView{
			Utterance:     u,
			Position:      i + 1,
			Hovered:       p.hovered == u.ID,
			Selected:      selected,
			ShowTagPicker: selected,
			LinkSource:    p.link.active && p.link.source == u.ID,
			LinkTarget:    p.link.active && slices.Contains(p.link.targets, u.ID),
			LinkCaption:   snap.Transcript.LinkCaption(i),
		})
	}

	return v
}

func (p *Presenter) prune(tr meeting.Transcript) {
	present := func(id string) bool { return id != "" && tr.Index(id) >= 0 }

	if !present(p.hovered) {
		p.hovered = ""
	}
	if !present(p.selected) {
		p.selected = ""
	}
	if p.link.active && !present(p.link.source) {
		p.link = linkMode{}
	}
	if p.link.active {
		p.link.targets = slices.DeleteFunc(p.link.targets, func(id string) bool { return !present(id) })
	}
	if len(tr) < p.lastLen {
		// Transcript was reset; the next growth starts from the top.
		p.lastLen = 0
		p.follow = true
	}
}

func tagOptions() []meeting.Tag {
	types := meeting.TagTypes()
	out := make([]meeting.Tag, 0, len(types))
	for _, t := range types {
		out = append(out, meeting.NewTag(t))
	}
	return out
}
