package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/llm"
)

const systemPrompt = "Summarize the following customer interview transcript concisely in markdown. " +
	"Include the customer's current process, pain points, tools and competitors mentioned, " +
	"and what their ideal solution looks like."

// minWords is the shortest transcript worth summarizing.
const minWords = 20

const truncatedNote = "\n\n_Summary truncated at the token limit._"

var defaultBackoff = []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}

// Summarizer turns a completed transcript into a markdown summary using any
// llm.Client.
type Summarizer struct {
	client  llm.Client
	backoff []time.Duration
	wait    func(context.Context, time.Duration) error
}

func New(client llm.Client) *Summarizer {
	return &Summarizer{
		client:  client,
		backoff: defaultBackoff,
		wait:    wait,
	}
}

// Summarize returns "" without calling the model when the transcript is too
// short to say anything useful.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(strings.Fields(transcript)) < minWords {
		return "", nil
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: transcript},
	}

	var lastErr error
	for attempt := range s.backoff {
		out, err := s.client.Complete(ctx, messages)
		if err == nil {
			return out, nil
		}
		// Truncated output is kept, not retried.
		if errors.Is(err, llm.ErrTruncated) && out != "" {
			return out + truncatedNote, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt == len(s.backoff)-1 {
			break
		}
		if err := s.wait(ctx, s.backoff[attempt]); err != nil {
			break
		}
	}

	return "", fmt.Errorf("summary failed after retries: %w", lastErr)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
