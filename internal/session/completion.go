package session

import (
	"context"
	"strings"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

const completionTimeout = 2 * time.Minute

type completedSession struct {
	id         string
	target     string
	startedAt  time.Time
	endedAt    time.Time
	transcript meeting.Transcript
}

// complete archives, exports and summarizes a finished session. It never
// touches controller state.
func (c *Controller) complete(s completedSession) {
	defer c.completions.Done()

	ctx, cancel := context.WithTimeout(c.ctx, completionTimeout)
	defer cancel()

	archived := false
	if c.store != nil {
		if err := c.store.ArchiveSession(s.id, s.target, s.startedAt, s.endedAt, s.transcript); err != nil {
			c.logger.Warn("session: archive failed", "session_id", s.id, "error", err)
		} else {
			archived = true
		}
	}

	if c.exporter != nil {
		path, err := c.exporter.Export(s.id, s.target, s.endedAt, s.transcript)
		if err != nil {
			c.logger.Warn("session: export failed", "session_id", s.id, "error", err)
		} else {
			c.logger.Info("session: transcript exported", "session_id", s.id, "path", path)
		}
	}

	c.generateSummary(ctx, s, archived)
}

func (c *Controller) generateSummary(ctx context.Context, s completedSession, archived bool) {
	updateSummary := func(summary string, status SummaryStatus) {
		if !archived {
			return
		}
		if err := c.store.UpdateSummary(s.id, summary, status); err != nil {
			c.logger.Warn("session: update summary failed", "session_id", s.id, "error", err)
		}
	}

	if c.summarizer == nil {
		updateSummary("", SummaryCompleted)
		return
	}

	updateSummary("", SummaryRunning)

	var b strings.Builder
	for _, u := range s.transcript {
		if strings.TrimSpace(u.Text) == "" {
			continue
		}
		b.WriteString(u.SpeakerName)
		b.WriteString(": ")
		b.WriteString(u.Text)
		b.WriteString("\n")
	}

	summary, err := c.summarizer.Summarize(ctx, b.String())
	if err != nil {
		c.logger.Warn("session: summary failed", "session_id", s.id, "error", err)
		updateSummary("", SummaryFailed)
		c.broadcastSummary(s.id, "", SummaryFailed)
		return
	}

	updateSummary(summary, SummaryCompleted)
	c.broadcastSummary(s.id, summary, SummaryCompleted)
}

func (c *Controller) broadcastSummary(sessionID, summary string, status SummaryStatus) {
	if c.hub != nil {
		c.hub.BroadcastSummaryReady(sessionID, summary, status)
	}
}
