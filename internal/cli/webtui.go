package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"datewheel/internal/config"
	"datewheel/internal/webtui"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the terminal picker in your browser (pty + websocket)",
		Long: strings.TrimSpace(`
Serve the terminal picker over the web: each browser tab starts a
` + "`datewheel pick`" + ` subprocess on a server-side pty and streams it to xterm.js.

No authentication; bind to localhost.
`),
		Example: strings.TrimSpace(`
datewheel webtui --addr 127.0.0.1:8081
datewheel --locale es webtui
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:   app.Config.WebTUI.Addr,
				Args:   childPickArgs(app),
				Logger: app.Log,
			})
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return errors.Wrap(err, "webtui: listen")
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":   ln.Addr().String(),
					"locale": app.Config.Locale,
				},
				"_hints": []string{"open http://" + ln.Addr().String()},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "datewheel webtui running at http://%s\n", ln.Addr().String())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().String("addr", app.v.GetString(config.KeyWebTUIAddr), "Bind address (host:port or :port)")
	bindFlag(app, config.KeyWebTUIAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

// childPickArgs carries the effective settings over to the pty subprocess.
func childPickArgs(app *App) []string {
	args := []string{"--locale", app.Config.Locale}
	if app.ConfigPath != "" {
		args = append(args, "--config", app.ConfigPath)
	}
	if app.Config.Debug {
		args = append(args, "--debug")
	}
	return args
}
