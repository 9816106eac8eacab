package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"datewheel/internal/docs"
	"datewheel/internal/host"
	"datewheel/internal/locale"
	"datewheel/internal/model"
	"datewheel/internal/picker"
	"datewheel/internal/wheel"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr     string
	Locale   string
	YearMin  int
	YearMax  int
	Wheel    wheel.Options
	Debounce time.Duration

	// BotToken, when set, requires signed launch parameters from the chat app.
	BotToken   string
	InitMaxAge time.Duration
	CloseDelay time.Duration
	SessionTTL time.Duration
	// SessionsPerMinute bounds how fast GET / may open new sessions.
	SessionsPerMinute int
	// BrowserHost lets a plain browser stand in for the chat-app runtime
	// with an in-page button. Local testing only.
	BrowserHost bool

	Logger *slog.Logger
	Now    func() time.Time
	After  wheel.AfterFunc
}

type Server struct {
	cfg      ServerConfig
	tmpl     *template.Template
	sessions *sessionStore
	limiter  *rate.Limiter
	help     helpCache
	log      *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.YearMin <= 0 || cfg.YearMax < cfg.YearMin {
		return nil, errors.Errorf("web: invalid year range %d-%d", cfg.YearMin, cfg.YearMax)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InitMaxAge == 0 {
		cfg.InitMaxAge = 24 * time.Hour
	}
	cfg.Wheel.Repetitions = wheel.NormalizeRepetitions(cfg.Wheel.Repetitions)
	cfg.Wheel.Geometry = cfg.Wheel.Geometry.Normalized()

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "web: parse templates")
	}

	limit := rate.Inf
	burst := 0
	if cfg.SessionsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.SessionsPerMinute) / 60)
		burst = cfg.SessionsPerMinute
	}
	return &Server{
		cfg:      cfg,
		tmpl:     tmpl,
		sessions: newSessionStore(cfg.SessionTTL, cfg.Now),
		limiter:  rate.NewLimiter(limit, burst),
		log:      cfg.Logger.With("component", "web"),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "application/javascript; charset=utf-8"))
	mux.HandleFunc("GET /help", s.handleHelp)
	mux.HandleFunc("GET /help/{topic}", s.handleHelp)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /s/{sid}/events", s.handleEvents)
	mux.HandleFunc("POST /s/{sid}/start", s.handleStart)
	mux.HandleFunc("POST /s/{sid}/scroll", s.handleScroll)
	mux.HandleFunc("POST /s/{sid}/pick", s.handlePick)
	mux.HandleFunc("POST /s/{sid}/meridiem", s.handleMeridiem)
	mux.HandleFunc("POST /s/{sid}/confirm", s.handleConfirm)
	return mux
}

// ListenAndServe serves until ctx is cancelled, reaping idle sessions.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return errors.Wrap(err, "web: listen")
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

	go s.reapLoop(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "web: serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) reapLoop(ctx context.Context) {
	every := time.Minute
	if ttl := s.cfg.SessionTTL; ttl > 0 && ttl < every {
		every = ttl
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.reap(); n > 0 {
				s.log.Debug("reaped sessions", "count", n, "open", s.sessions.len())
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatic(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(name)
		if err != nil || len(b) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

type columnVM struct {
	Field   string
	Title   string
	Entries []string
}

type pageVM struct {
	SessionID      string
	Lang           string
	Columns        []columnVM
	EntryHeight    int
	ViewportHeight int
	CloseDelayMS   int64
	BrowserHost    bool
	Summary        summaryVM
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "too many sessions", http.StatusTooManyRequests)
		return
	}
	lang := strings.TrimSpace(r.URL.Query().Get("lang"))
	if lang == "" {
		lang = s.cfg.Locale
	}
	cat := locale.New(lang)
	cal := cat.Calendar(s.cfg.YearMin, s.cfg.YearMax)
	sess := s.sessions.create(cat, cal, s.cfg.Logger)

	geo := s.cfg.Wheel.Geometry
	vm := pageVM{
		SessionID:      sess.id,
		Lang:           cat.Language(),
		EntryHeight:    geo.EntryHeight,
		ViewportHeight: geo.ViewportHeight,
		CloseDelayMS:   s.cfg.CloseDelay.Milliseconds(),
		BrowserHost:    s.cfg.BrowserHost,
		Summary:        summaryVM{Label: cat.Msg(locale.MsgStatusIncomplete)},
	}
	for _, f := range model.Fields() {
		vm.Columns = append(vm.Columns, columnVM{
			Field:   f.String(),
			Title:   cat.FieldTitle(f),
			Entries: wheel.BuildSequence(cal.Tokens(f), s.cfg.Wheel.Repetitions),
		})
	}
	s.log.Debug("session opened", "session", sess.id, "lang", vm.Lang)
	s.writeHTMLTemplate(w, "picker.html", vm)
}

type helpVM struct {
	Topic  string
	Title  string
	Body   template.HTML
	Topics []string
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.PathValue("topic"))
	if topic == "" {
		topic = "picker"
	}
	body, ok := s.help.page(topic)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeHTMLTemplate(w, "help.html", helpVM{
		Topic:  topic,
		Title:  docs.Title(topic),
		Body:   body,
		Topics: docs.Topics(),
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(r.PathValue("sid"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

type startRequest struct {
	// Host reports whether the chat-app runtime is present on the page.
	Host     bool   `json:"host"`
	InitData string `json:"initData"`
	// Now is the page's local wall clock (YYYY-MM-DDTHH:MM); the server
	// clock is used when it is missing.
	Now string `json:"now"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	hostOK := req.Host
	var user *telegramUser
	if hostOK && s.cfg.BotToken != "" {
		u, err := verifyInitData(s.cfg.BotToken, req.InitData, s.cfg.InitMaxAge, s.cfg.Now())
		if err != nil {
			s.log.Warn("init data rejected", "session", sess.id, "error", err)
			hostOK = false
			status = http.StatusForbidden
		}
		user = u
	}

	now := s.cfg.Now()
	if t, err := time.Parse("2006-01-02T15:04", strings.TrimSpace(req.Now)); err == nil {
		now = t
	}

	err := sess.start(startParams{
		HostAvailable: hostOK,
		User:          user,
		Now:           now,
		Wheel:         s.cfg.Wheel,
		Debounce:      s.cfg.Debounce,
		After:         s.cfg.After,
		CloseDelay:    s.cfg.CloseDelay,
	})
	if errors.Is(err, errSessionStarted) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	// A degraded start is not an HTTP error: the page already has the message.
	writeJSON(w, status, map[string]any{"ok": err == nil, "host": hostOK})
}

type scrollRequest struct {
	Field  string `json:"field"`
	Offset int    `json:"offset"`
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req scrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	f, ok := model.ParseField(req.Field)
	if !ok {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}
	if err := sess.scroll(f, req.Offset); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pickRequest struct {
	Field string `json:"field"`
	Index int    `json:"index"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	f, ok := model.ParseField(req.Field)
	if !ok {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}
	if err := sess.pick(f, req.Index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meridiemRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleMeridiem(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req meridiemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	m, ok := model.ParseMeridiem(req.Value)
	if !ok {
		http.Error(w, "unknown meridiem", http.StatusBadRequest)
		return
	}
	if err := sess.setMeridiem(m); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sent, err := sess.confirm()
	if err != nil && !errors.Is(err, model.ErrIncompleteSelection) {
		writeError(w, err)
		return
	}
	if sent {
		sess.log.Info("payload confirmed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": sent})
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidSelection):
		code = http.StatusBadRequest
	case errors.Is(err, errSessionNotStarted), errors.Is(err, errSessionStarted),
		errors.Is(err, host.ErrHostUnavailable), errors.Is(err, picker.ErrAlreadySent):
		code = http.StatusConflict
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}
