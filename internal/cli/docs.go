package cli

import (
	"fmt"
	"os"

	"datewheel/internal/docs"
	"datewheel/internal/tui"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type docsTopic struct {
	Topic string `json:"topic"`
	Title string `json:"title"`
}

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show the embedded documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics := []docsTopic{}
				for _, t := range docs.Topics() {
					topics = append(topics, docsTopic{Topic: t, Title: docs.Title(t)})
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": topics}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return errors.Errorf("unknown docs topic: %q (run `datewheel docs` to list topics)", topic)
			}

			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if app.OutputIsTerminal() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.RenderMarkdown(body, terminalWidth()))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"topic": topic, "markdown": body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope, no styling)")
	return cmd
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	if w > 100 {
		return 100
	}
	return w
}
