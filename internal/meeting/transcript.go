package meeting

import (
	"fmt"
	"strings"
)

// Transcript is an ordered list of utterances in reveal order.
type Transcript []Utterance

// Index returns the position of the utterance with id, or -1.
func (t Transcript) Index(id string) int {
	for i := range t {
		if t[i].ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether an utterance with the same (id, timestamp) exists.
func (t Transcript) Contains(k Key) bool {
	for i := range t {
		if t[i].Key() == k {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of t. A nil transcript clones to an empty one.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	for i := range t {
		out[i] = t[i].Clone()
	}
	return out
}

// Dedupe removes utterances whose (id, timestamp) repeats an earlier entry.
func Dedupe(in []Utterance) []Utterance {
	seen := make(map[Key]struct{}, len(in))
	out := make([]Utterance, 0, len(in))
	for _, u := range in {
		if _, ok := seen[u.Key()]; ok {
			continue
		}
		seen[u.Key()] = struct{}{}
		out = append(out, u)
	}
	return out
}

// FormatMarkdown renders the transcript with tags and Q&A links.
func (t Transcript) FormatMarkdown(title string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	for i, u := range t {
		fmt.Fprintf(&b, "**[%s] %s:** %s\n", u.Timestamp, u.SpeakerName, strings.TrimSpace(u.Text))
		if len(u.Tags) > 0 {
			labels := make([]string, 0, len(u.Tags))
			for _, tag := range u.Tags {
				labels = append(labels, tag.Label)
			}
			fmt.Fprintf(&b, "_Tags: %s_\n", strings.Join(labels, ", "))
		}
		if caption := t.LinkCaption(i); caption != "" {
			fmt.Fprintf(&b, "_%s_\n", caption)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// LinkCaption describes the Q&A link of the utterance at position i.
// Questions report their answer count; answers report the 1-based
// position of their question, or 0 when it is not in the transcript.
func (t Transcript) LinkCaption(i int) string {
	u := t[i]
	if len(u.LinkedUtterances) == 0 {
		return ""
	}
	if u.HasTag(TagQuestion) {
		return fmt.Sprintf("Linked to %d answer(s)", len(u.LinkedUtterances))
	}
	return fmt.Sprintf("Answer to question #%d", t.Index(u.LinkedUtterances[0])+1)
}
