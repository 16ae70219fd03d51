package meeting

import "slices"

// Speaker identifies a meeting participant.
type Speaker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Utterance is one spoken segment of the transcript.
//
// For a question, LinkedUtterances holds the linked answer ids. For an
// answer it holds the single linked question id.
type Utterance struct {
	ID               string   `json:"id"`
	SpeakerID        string   `json:"speaker_id"`
	SpeakerName      string   `json:"speaker_name"`
	Text             string   `json:"text"`
	Timestamp        string   `json:"timestamp"`
	Tags             []Tag    `json:"tags"`
	LinkedUtterances []string `json:"linked_utterances,omitempty"`
}

// Key identifies an utterance for duplicate suppression.
type Key struct {
	ID        string
	Timestamp string
}

func (u Utterance) Key() Key {
	return Key{ID: u.ID, Timestamp: u.Timestamp}
}

// Clone returns a deep copy of u.
func (u Utterance) Clone() Utterance {
	out := u
	out.Tags = slices.Clone(u.Tags)
	if out.Tags == nil {
		out.Tags = []Tag{}
	}
	out.LinkedUtterances = slices.Clone(u.LinkedUtterances)
	return out
}

// HasTag reports whether u carries a tag of type t.
func (u Utterance) HasTag(t TagType) bool {
	return slices.ContainsFunc(u.Tags, func(tag Tag) bool { return tag.Type == t })
}

// SetTag removes any tag of type t and appends a fresh one.
func (u *Utterance) SetTag(t TagType) {
	u.RemoveTag(t)
	u.Tags = append(u.Tags, NewTag(t))
}

// RemoveTag drops every tag of type t.
func (u *Utterance) RemoveTag(t TagType) {
	u.Tags = slices.DeleteFunc(u.Tags, func(tag Tag) bool { return tag.Type == t })
	if u.Tags == nil {
		u.Tags = []Tag{}
	}
}
