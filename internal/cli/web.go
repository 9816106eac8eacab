package cli

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"datewheel/internal/config"
	"datewheel/internal/web"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var open bool
	var browserHost bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the picker as a chat mini-app page",
		Long: strings.TrimSpace(`
Serve the wheel picker over HTTP for a chat app's mini-app webview.

The page talks to the chat runtime (Telegram.WebApp) for its main button,
alerts, sending the payload and closing. Opened outside the chat app it
shows an error instead, unless --browser-host is set for local testing.

With web.bot_token configured, launch parameters must carry a valid
signature from the chat app.
`),
		Example: strings.TrimSpace(`
# Serve on localhost and try it in a browser
datewheel web --addr 127.0.0.1:8080 --browser-host --open

# Serve behind a reverse proxy for the bot
DATEWHEEL_WEB_BOT_TOKEN=123:abc datewheel web --addr :8080
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			now := app.Now()
			lo, hi := cfg.YearRange(now)
			wopts := cfg.WheelOptions()
			wopts.Logger = app.Log

			srv, err := web.NewServer(web.ServerConfig{
				Addr:              cfg.Web.Addr,
				Locale:            cfg.Locale,
				YearMin:           lo,
				YearMax:           hi,
				Wheel:             wopts,
				Debounce:          cfg.Debounce(),
				BotToken:          cfg.Web.BotToken,
				CloseDelay:        cfg.Web.CloseDelay,
				SessionTTL:        cfg.Web.SessionTTL,
				SessionsPerMinute: cfg.Web.SessionsPerMinute,
				BrowserHost:       browserHost,
				Logger:            app.Log,
			})
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return errors.Wrap(err, "web: listen")
			}
			url := "http://" + ln.Addr().String() + "/"

			opened := false
			openErr := ""
			if open {
				if err := openURL(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}
			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":        ln.Addr().String(),
					"url":         url,
					"locale":      cfg.Locale,
					"signed":      strings.TrimSpace(cfg.Web.BotToken) != "",
					"browserHost": browserHost,
					"opened":      opened,
					"openError":   openErr,
					"startedAt":   now.UTC().Format(time.RFC3339),
				},
				"_hints": hints,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "datewheel web running at %s\n", url)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().String("addr", app.v.GetString(config.KeyWebAddr), "Bind address (host:port or :port)")
	bindFlag(app, config.KeyWebAddr, cmd.Flags().Lookup("addr"))
	cmd.Flags().BoolVar(&open, "open", false, "Open the page in your default browser")
	cmd.Flags().BoolVar(&browserHost, "browser-host", false, "Let a plain browser stand in for the chat app (testing only)")
	return cmd
}

func openURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Run()
	default:
		return exec.Command("xdg-open", url).Run()
	}
}
