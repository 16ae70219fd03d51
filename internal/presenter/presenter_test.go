package presenter

import (
	"slices"
	"testing"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

type intentCall struct {
	op      string
	id      string
	tag     meeting.TagType
	answers []string
}

type intentsMock struct {
	calls []intentCall
}

func (m *intentsMock) AddTag(id string, t meeting.TagType) {
	m.calls = append(m.calls, intentCall{op: "add", id: id, tag: t})
}

func (m *intentsMock) RemoveTag(id string, t meeting.TagType) {
	m.calls = append(m.calls, intentCall{op: "remove", id: id, tag: t})
}

func (m *intentsMock) LinkQA(q string, answers []string) {
	m.calls = append(m.calls, intentCall{op: "link", id: q, answers: answers})
}

func sameCall(got, want intentCall) bool {
	return got.op == want.op && got.id == want.id && got.tag == want.tag && slices.Equal(got.answers, want.answers)
}

func snapshot(n int) session.Snapshot {
	return session.Snapshot{
		State:      session.StateRecording,
		Transcript: meeting.Transcript(meeting.Script()[:n]),
	}
}

func findUtterance(t *testing.T, v View, id string) UtteranceView {
	t.Helper()
	for _, u := range v.Utterances {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("utterance %s not rendered", id)
	return UtteranceView{}
}

func TestClickTogglesSelection(t *testing.T) {
	p := New(&intentsMock{})
	snap := snapshot(3)

	p.Click("2")
	if u := findUtterance(t, p.Render(snap), "2"); !u.Selected || !u.ShowTagPicker {
		t.Fatalf("expected 2 selected with picker, got %+v", u)
	}

	p.Click("3")
	v := p.Render(snap)
	if findUtterance(t, v, "2").Selected || !findUtterance(t, v, "3").Selected {
		t.Fatal("expected selection to move to 3")
	}

	p.Click("3")
	if findUtterance(t, p.Render(snap), "3").Selected {
		t.Fatal("expected second click to deselect")
	}
}

func TestPickTagAddsTagAndKeepsSelection(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	p.SelectTagType(meeting.TagTool)

	p.PickTag("1", meeting.TagCompetitor)

	if len(intents.calls) != 1 || !sameCall(intents.calls[0], intentCall{op: "add", id: "1", tag: meeting.TagCompetitor}) {
		t.Fatalf("unexpected intents %+v", intents.calls)
	}
	v := p.Render(snapshot(2))
	if v.PendingTag != "" {
		t.Fatalf("expected pending tag cleared, got %q", v.PendingTag)
	}
	if !findUtterance(t, v, "1").Selected {
		t.Fatal("expected picked utterance to stay selected")
	}
}

func TestPendingTagAppliesOnNextClick(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)

	p.SelectTagType(meeting.TagPainPoint)
	if got := p.Render(snapshot(2)).PendingTag; got != "pain-point" {
		t.Fatalf("expected pending pain-point, got %q", got)
	}

	p.Click("2")
	if len(intents.calls) != 1 || intents.calls[0].tag != meeting.TagPainPoint || intents.calls[0].id != "2" {
		t.Fatalf("unexpected intents %+v", intents.calls)
	}

	p.Click("2")
	if len(intents.calls) != 1 {
		t.Fatal("expected pending tag to be consumed by first click")
	}
	if !findUtterance(t, p.Render(snapshot(2)), "2").Selected {
		t.Fatal("expected second click to select")
	}
}

func TestRemoveTagEmitsIntent(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	p.RemoveTag("1", meeting.TagTool)
	if len(intents.calls) != 1 || intents.calls[0].op != "remove" {
		t.Fatalf("unexpected intents %+v", intents.calls)
	}
}

func TestLinkFlow(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	snap := snapshot(6)

	p.StartLink("1")
	if len(intents.calls) != 1 || !sameCall(intents.calls[0], intentCall{op: "add", id: "1", tag: meeting.TagQuestion}) {
		t.Fatalf("expected question tag on start, got %+v", intents.calls)
	}

	p.Click("1")
	p.Click("4")
	p.Click("2")
	p.Click("6")
	p.Click("6")

	v := p.Render(snap)
	if v.Mode != ModeLinking || v.Link == nil {
		t.Fatalf("expected linking mode, got %q", v.Mode)
	}
	if !slices.Equal(v.Link.TargetIDs, []string{"4", "2"}) || !v.Link.CanConfirm {
		t.Fatalf("unexpected link view %+v", v.Link)
	}
	if !findUtterance(t, v, "1").LinkSource || !findUtterance(t, v, "4").LinkTarget || findUtterance(t, v, "6").LinkTarget {
		t.Fatal("unexpected link highlighting")
	}

	p.ConfirmLink()
	last := intents.calls[len(intents.calls)-1]
	if last.op != "link" || last.id != "1" || !slices.Equal(last.answers, []string{"4", "2"}) {
		t.Fatalf("unexpected link intent %+v", last)
	}
	if v := p.Render(snap); v.Mode != ModeNormal || v.Link != nil {
		t.Fatalf("expected normal mode after confirm, got %+v", v.Link)
	}
}

func TestConfirmWithoutTargetsDoesNothing(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	p.StartLink("1")
	p.ConfirmLink()

	if len(intents.calls) != 1 {
		t.Fatalf("expected only the question tag intent, got %+v", intents.calls)
	}
	if p.Render(snapshot(2)).Mode != ModeLinking {
		t.Fatal("expected link mode to remain active")
	}
}

func TestCancelLinkSkipsIntent(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	p.StartLink("1")
	p.Click("2")
	p.CancelLink()
	p.ConfirmLink()

	for _, c := range intents.calls {
		if c.op == "link" {
			t.Fatalf("unexpected link intent after cancel: %+v", c)
		}
	}
	if p.Render(snapshot(2)).Mode != ModeNormal {
		t.Fatal("expected normal mode after cancel")
	}
}

func TestClickOutside(t *testing.T) {
	p := New(&intentsMock{})
	snap := snapshot(3)

	p.Click("2")
	p.ClickOutside()
	if findUtterance(t, p.Render(snap), "2").Selected {
		t.Fatal("expected click outside to clear selection")
	}

	p.StartLink("1")
	p.Click("3")
	p.ClickOutside()
	v := p.Render(snap)
	if v.Mode != ModeLinking || !slices.Equal(v.Link.TargetIDs, []string{"3"}) {
		t.Fatalf("click outside must not cancel linking, got %+v", v.Link)
	}
}

func TestClickOutsideKeepsSelectionWhileTagPending(t *testing.T) {
	p := New(&intentsMock{})
	p.Click("2")
	p.SelectTagType(meeting.TagTool)
	p.ClickOutside()
	if !findUtterance(t, p.Render(snapshot(3)), "2").Selected {
		t.Fatal("expected selection kept while a tag type is pending")
	}
}

func TestHoverAndLeave(t *testing.T) {
	p := New(&intentsMock{})
	p.Hover("1")
	p.Leave("2")
	if !findUtterance(t, p.Render(snapshot(2)), "1").Hovered {
		t.Fatal("leaving another utterance must keep hover")
	}
	p.Leave("1")
	if findUtterance(t, p.Render(snapshot(2)), "1").Hovered {
		t.Fatal("expected hover cleared")
	}
}

func TestAutoFollow(t *testing.T) {
	p := New(&intentsMock{})

	if !p.Render(snapshot(1)).ScrollToBottom {
		t.Fatal("expected first utterance to scroll into view")
	}
	if p.Render(snapshot(1)).ScrollToBottom {
		t.Fatal("expected no scroll without growth")
	}

	p.Scroll(false)
	if p.Render(snapshot(2)).ScrollToBottom {
		t.Fatal("expected no auto-scroll after user scrolled up")
	}

	p.Scroll(true)
	if !p.Render(snapshot(3)).ScrollToBottom {
		t.Fatal("expected auto-follow to resume at bottom")
	}
}

func TestRenderPrunesStaleStateAfterReset(t *testing.T) {
	p := New(&intentsMock{})
	p.Render(snapshot(4))
	p.Click("2")
	p.Hover("3")
	p.Scroll(false)

	idle := session.Snapshot{State: session.StateIdle, Transcript: meeting.Transcript{}}
	v := p.Render(idle)
	if len(v.Utterances) != 0 || v.ScrollToBottom {
		t.Fatalf("unexpected idle view %+v", v)
	}
	if !v.Controls.CanStart || v.Controls.CanEnd || v.Controls.CanReset {
		t.Fatalf("unexpected idle controls %+v", v.Controls)
	}

	v = p.Render(snapshot(1))
	if !v.ScrollToBottom {
		t.Fatal("expected follow to restart after reset")
	}
	if findUtterance(t, v, "1").Selected || findUtterance(t, v, "1").Hovered {
		t.Fatal("expected stale selection to be dropped")
	}
}

func TestRenderDropsLinkWhenSourceDisappears(t *testing.T) {
	p := New(&intentsMock{})
	p.StartLink("3")
	p.Click("4")

	v := p.Render(snapshot(2))
	if v.Mode != ModeNormal {
		t.Fatalf("expected link mode dropped, got %q", v.Mode)
	}
}

func TestRenderCaptionsAndControls(t *testing.T) {
	tr := meeting.Transcript(meeting.Script()[:3])
	tr[0].SetTag(meeting.TagQuestion)
	tr[0].LinkedUtterances = []string{"2", "3"}
	tr[1].SetTag(meeting.TagAnswer)
	tr[1].LinkedUtterances = []string{"1"}

	p := New(&intentsMock{})
	v := p.Render(session.Snapshot{State: session.StateCompleted, MeetingTarget: "m", Transcript: tr})

	if !v.Controls.CanReset || v.Controls.CanEnd || v.Controls.CanStart {
		t.Fatalf("unexpected completed controls %+v", v.Controls)
	}
	if got := findUtterance(t, v, "1").LinkCaption; got != "Linked to 2 answer(s)" {
		t.Fatalf("unexpected question caption %q", got)
	}
	if got := findUtterance(t, v, "2").LinkCaption; got != "Answer to question #1" {
		t.Fatalf("unexpected answer caption %q", got)
	}
	if findUtterance(t, v, "3").Position != 3 {
		t.Fatal("expected 1-based positions")
	}
	if len(v.TagOptions) != 7 || v.TagOptions[4].Label != "Pain Point" {
		t.Fatalf("unexpected tag options %+v", v.TagOptions)
	}
}

func TestClickOnLinkSourceIsIgnored(t *testing.T) {
	intents := &intentsMock{}
	p := New(intents)
	p.StartLink("1")
	p.Click("1")

	v := p.Render(snapshot(3))
	if len(v.Link.TargetIDs) != 0 || v.Link.CanConfirm {
		t.Fatalf("expected source click to be ignored, got %+v", v.Link)
	}
	if !sameCall(intents.calls[0], intentCall{op: "add", id: "1", tag: meeting.TagQuestion}) || len(intents.calls) != 1 {
		t.Fatalf("unexpected intents %+v", intents.calls)
	}
}
