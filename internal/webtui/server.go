// Package webtui serves the terminal picker in a browser: xterm.js on the
// page, a websocket to the server, and `datewheel pick` running on a pty.
package webtui

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// Executable runs the picker; it defaults to the current binary.
	Executable string
	// Args are passed after the "pick" subcommand (e.g. --locale es).
	Args   []string
	Logger *slog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "webtui: parse templates")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log.With("component", "webtui")}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))

	return mux
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type terminalVM struct {
	Command string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{Command: strings.Join(append([]string{"datewheel", "pick"}, s.cfg.Args...), " ")}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", vm); err != nil {
		s.log.Error("render terminal", "error", err)
	}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return errors.Wrap(err, "webtui: listen")
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "webtui: serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
