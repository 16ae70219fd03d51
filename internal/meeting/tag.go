package meeting

import "fmt"

// TagType is the closed set of semantic labels an utterance can carry.
type TagType uint8

const (
	TagQuestion TagType = iota
	TagAnswer
	TagCompetitor
	TagTool
	TagPainPoint
	TagCurrentProcess
	TagIdealProcess

	tagTypeCount
)

var tagNames = [tagTypeCount]string{
	TagQuestion:       "question",
	TagAnswer:         "answer",
	TagCompetitor:     "competitor",
	TagTool:           "tool",
	TagPainPoint:      "pain-point",
	TagCurrentProcess: "current-process",
	TagIdealProcess:   "ideal-process",
}

var tagLabels = [tagTypeCount]string{
	TagQuestion:       "Question",
	TagAnswer:         "Answer",
	TagCompetitor:     "Competitor",
	TagTool:           "Tool",
	TagPainPoint:      "Pain Point",
	TagCurrentProcess: "Current Process",
	TagIdealProcess:   "Ideal Process",
}

// Tag is a semantic label attached to an utterance.
type Tag struct {
	Type  TagType `json:"type"`
	Label string  `json:"label"`
}

// NewTag returns the tag for t with its display label.
func NewTag(t TagType) Tag {
	return Tag{Type: t, Label: t.Label()}
}

// TagTypes returns every tag type in declaration order.
func TagTypes() []TagType {
	out := make([]TagType, 0, tagTypeCount)
	for t := TagType(0); t < tagTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t TagType) Valid() bool {
	return t < tagTypeCount
}

func (t TagType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TagType(%d)", uint8(t))
	}
	return tagNames[t]
}

// Label returns the display label for t.
func (t TagType) Label() string {
	if !t.Valid() {
		return ""
	}
	return tagLabels[t]
}

// ParseTagType maps the wire name ("pain-point", ...) to a TagType.
func ParseTagType(s string) (TagType, error) {
	for i, name := range tagNames {
		if name == s {
			return TagType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tag type %q", s)
}

func (t TagType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tag type %d", uint8(t))
	}
	return []byte(tagNames[t]), nil
}

func (t *TagType) UnmarshalText(text []byte) error {
	parsed, err := ParseTagType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
