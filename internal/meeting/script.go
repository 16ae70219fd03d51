package meeting

// ScriptSpeakers are the two participants of the canned interview.
var ScriptSpeakers = []Speaker{
	{ID: "1", Name: "John (Host)"},
	{ID: "2", Name: "Sarah (Client)"},
}

// Script returns the canned interview played back during a mock recording.
// Each call returns fresh values so callers may mutate them.
func Script() []Utterance {
	host, client := ScriptSpeakers[0], ScriptSpeakers[1]
	lines := []struct {
		id, ts  string
		speaker Speaker
		text    string
	}{
		{"1", "00:00:15", host, "Thanks for joining today. Could you tell us about your current workflow for managing customer data?"},
		{"2", "00:00:30", client, "Currently we're using Excel spreadsheets and it's becoming a nightmare as we scale. We have data scattered across multiple files and it's hard to keep track of everything."},
		{"3", "00:01:05", host, "I see. What's the biggest pain point with your current system?"},
		{"4", "00:01:20", client, "Definitely the lack of real-time collaboration. We've tried Google Sheets but it doesn't have the advanced features we need. We looked at Salesforce but it's too expensive for our small team."},
		{"5", "00:02:00", host, "What would an ideal solution look like for your team?"},
		{"6", "00:02:15", client, "We need something cloud-based with good collaboration features, custom fields for our industry-specific data, and ideally some automation for follow-ups. We're currently using Zapier for some automation but it's not integrated well with our spreadsheets."},
	}

	out := make([]Utterance, 0, len(lines))
	for _, l := range lines {
		out = append(out, Utterance{
			ID:          l.id,
			SpeakerID:   l.speaker.ID,
			SpeakerName: l.speaker.Name,
			Text:        l.text,
			Timestamp:   l.ts,
			Tags:        []Tag{},
		})
	}
	return out
}
