// Package cli wires the datewheel commands: the terminal picker, the chat
// mini-app web host, the browser terminal and a few receiver-side helpers.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"datewheel/internal/config"
	"datewheel/internal/format"
	"datewheel/internal/tui"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

type App struct {
	ConfigPath string

	v      *viper.Viper
	Config config.Config
	Log    *slog.Logger

	// Interactive reports whether the picker can own the terminal.
	Interactive func() bool
	// OutputIsTerminal reports whether stdout is a terminal.
	OutputIsTerminal func() bool
	Now              func() time.Time

	runPicker func(ctx context.Context, opts tui.Options) (tui.Result, error)
}

func newApp() *App {
	return &App{
		v:   config.New(),
		Log: slog.Default(),
		Interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
		},
		OutputIsTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		Now:              time.Now,
		runPicker:        tui.Run,
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(app *App) *cobra.Command {
	var pf pickFlags

	cmd := &cobra.Command{
		Use:           "datewheel",
		Short:         "Wheel-style date and time picker for the terminal and chat mini-apps",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Pick a date and time in the terminal (prints the payload)
  datewheel

  # Start the wheels on a given date
  datewheel 19/11/2025
  datewheel pick --at 2025-11-19T14:30

  # Serve the chat mini-app page
  datewheel web --addr :8080

  # Decode a payload received from the picker
  datewheel payload decode '{"date":"19/11/2025","time":"14:25"}'
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, app, pf)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.v, app.ConfigPath)
		if err != nil {
			return err
		}
		app.Config = cfg
		app.Log = newLogger(cmd.ErrOrStderr(), cfg.Debug)
		slog.SetDefault(app.Log)
		if cfg.File != "" {
			app.Log.Debug("config loaded", "file", cfg.File)
		}
		return nil
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.ConfigPath, "config", "", "Config file (default: ~/.datewheel/config.{json,yaml,toml})")
	flags.String("locale", app.v.GetString(config.KeyLocale), "Month names and messages (en|es)")
	flags.String("format", app.v.GetString(config.KeyFormat), "Output format ("+strings.Join(format.Formats(), "|")+")")
	flags.Bool("pretty", false, "Pretty-print output")
	flags.Bool("debug", false, "Debug logging")
	bindFlag(app, config.KeyLocale, flags.Lookup("locale"))
	bindFlag(app, config.KeyFormat, flags.Lookup("format"))
	bindFlag(app, config.KeyPretty, flags.Lookup("pretty"))
	bindFlag(app, config.KeyDebug, flags.Lookup("debug"))

	addPickFlags(cmd, &pf)

	cmd.AddCommand(newPickCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newPayloadCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Config.Format, app.Config.Pretty)
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// bindFlag lets an explicitly set flag override the file and environment.
func bindFlag(app *App, key string, f *pflag.Flag) {
	if err := app.v.BindPFlag(key, f); err != nil {
		panic(errors.Wrapf(err, "bind --%s", key))
	}
}
