package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

func newScriptCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Print the canned meeting script as markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript := meeting.Transcript(meeting.Dedupe(meeting.Script()))
			_, err := fmt.Fprint(cmd.OutOrStdout(), transcript.FormatMarkdown(title))
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "Meeting Transcript", "markdown heading")

	return cmd
}
