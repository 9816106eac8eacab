package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datewheel/internal/config"
	"datewheel/internal/locale"
	"datewheel/internal/tui"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errCancelled = errors.New("cancelled: nothing was sent")

type pickFlags struct {
	at    string
	empty bool
}

type pickResult struct {
	Sent    bool   `json:"sent"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	RFC3339 string `json:"rfc3339,omitempty"`
	Payload string `json:"payload,omitempty"`
}

func addPickFlags(cmd *cobra.Command, f *pickFlags) {
	cmd.Flags().StringVar(&f.at, "at", "", "Start the wheels here (RFC3339, YYYY-MM-DD[THH:MM] or DD/MM/YYYY[ HH:MM])")
	cmd.Flags().BoolVar(&f.empty, "empty", false, "Start with every wheel unselected")
}

func newPickCmd(app *App) *cobra.Command {
	var f pickFlags
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a date and time in the terminal and print the payload",
		Long: strings.TrimSpace(`
Open the wheel picker in the terminal. Confirming prints the payload the
chat host would receive ({"date":"DD/MM/YYYY","time":"HH:MM"}); quitting
prints {"sent":false} and exits non-zero.

The picker draws on stderr so stdout can be piped.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, app, f)
		},
	}
	addPickFlags(cmd, &f)
	return cmd
}

func runPick(cmd *cobra.Command, app *App, f pickFlags) error {
	now := app.Now()
	start := now
	if f.empty {
		start = time.Time{}
	}
	if strings.TrimSpace(f.at) != "" {
		t, err := parseAt(f.at, now)
		if err != nil {
			return err
		}
		start = t
	}

	cfg := app.Config
	lo, hi := cfg.YearRange(now)
	cat := locale.New(cfg.Locale)

	log, closeLog := pickLogger(cfg.Debug)
	defer closeLog()

	wopts := cfg.WheelOptions()
	wopts.Logger = log
	res, err := app.runPicker(cmd.Context(), tui.Options{
		Calendar:    cat.Calendar(lo, hi),
		Catalog:     cat,
		Wheel:       wopts,
		Debounce:    cfg.Debounce(),
		Start:       start,
		Interactive: app.Interactive(),
		Logger:      log,
		Now:         app.Now,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if !res.Sent {
		if werr := writeOut(cmd, app, map[string]any{"data": pickResult{}}); werr != nil {
			return werr
		}
		return errCancelled
	}

	out := pickResult{Sent: true, Date: res.Payload.Date, Time: res.Payload.Time, Payload: res.Raw}
	if at, err := res.Payload.At(now.Location()); err == nil {
		out.RFC3339 = at.Format(time.RFC3339)
	}
	return writeOut(cmd, app, map[string]any{"data": out})
}

// pickLogger writes to ~/.datewheel/datewheel.log while the picker owns the
// terminal. Logs are dropped when the file cannot be opened.
func pickLogger(debug bool) (*slog.Logger, func()) {
	dir := config.DefaultDir()
	if dir == "" {
		return newLogger(io.Discard, debug), func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newLogger(io.Discard, debug), func() {}
	}
	fh, err := os.OpenFile(filepath.Join(dir, "datewheel.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return newLogger(io.Discard, debug), func() {}
	}
	return newLogger(fh, debug), func() { _ = fh.Close() }
}
