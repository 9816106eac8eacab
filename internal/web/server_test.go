package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"datewheel/internal/model"
	"datewheel/internal/wheel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTimers struct {
	mu  sync.Mutex
	fns []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (m *manualTimers) after(_ time.Duration, f func()) wheel.Timer {
	m.mu.Lock()
	m.fns = append(m.fns, f)
	m.mu.Unlock()
	return noopTimer{}
}

func (m *manualTimers) fireLast() {
	m.mu.Lock()
	f := m.fns[len(m.fns)-1]
	m.mu.Unlock()
	f()
}

var fixedNow = time.Date(2025, 11, 19, 2, 25, 0, 0, time.UTC)

func newTestServer(t *testing.T, mut func(*ServerConfig)) (*Server, *manualTimers) {
	t.Helper()
	timers := &manualTimers{}
	cfg := ServerConfig{
		Addr:       "127.0.0.1:0",
		Locale:     "en",
		YearMin:    2025,
		YearMax:    2035,
		CloseDelay: 1500 * time.Millisecond,
		SessionTTL: time.Minute,
		Now:        func() time.Time { return fixedNow },
		After:      timers.after,
	}
	if mut != nil {
		mut(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv, timers
}

var sidRe = regexp.MustCompile(`data-session="([0-9a-f-]+)"`)

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	m := sidRe.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "session id in page")
	return m[1]
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func commandsOf(t *testing.T, srv *Server, sid string, kind commandKind) []command {
	t.Helper()
	sess, ok := srv.sessions.get(sid)
	require.True(t, ok)
	var out []command
	for _, c := range sess.box.drain() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestHome_RendersReplicatedWheels(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=es", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `id="wheel-day"`)
	assert.Contains(t, body, `lang="es"`)
	assert.Contains(t, body, "Dic")
	assert.Contains(t, body, "--entry: 40px")
	// 31 days x 5 repetitions: the last day entry has index 154.
	assert.Contains(t, body, `<li data-index="154">31</li>`)
	assert.Equal(t, 1, srv.sessions.len())
}

func TestHome_RateLimited(t *testing.T) {
	srv, _ := newTestServer(t, func(c *ServerConfig) { c.SessionsPerMinute = 1 })
	h := srv.Handler()
	openSession(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestConfirmFlow(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	sid := openSession(t, h)

	rec := postJSON(t, h, "/s/"+sid+"/start", `{"host":true,"now":"2025-11-19T02:25"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	buttons := commandsOf(t, srv, sid, cmdButton)
	require.NotEmpty(t, buttons)
	last := buttons[len(buttons)-1].Button
	assert.True(t, last.Visible)
	assert.True(t, last.Enabled)
	assert.Equal(t, "✅ Confirm appointment", last.Label)

	rec = postJSON(t, h, "/s/"+sid+"/meridiem", `{"value":"PM"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(t, h, "/s/"+sid+"/confirm", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":true}`, rec.Body.String())

	sess, _ := srv.sessions.get(sid)
	var sends, closes []command
	for _, c := range sess.box.drain() {
		switch c.Kind {
		case cmdSend:
			sends = append(sends, c)
		case cmdClose:
			closes = append(closes, c)
		}
	}
	require.Len(t, sends, 1)
	assert.JSONEq(t, `{"date":"19/11/2025","time":"14:25"}`, sends[0].Payload)
	require.Len(t, closes, 1)
	assert.Equal(t, int64(1500), closes[0].DelayMS)

	rec = postJSON(t, h, "/s/"+sid+"/confirm", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirm_IncompleteAlerts(t *testing.T) {
	srv, _ := newTestServer(t, func(c *ServerConfig) { c.Now = func() time.Time { return time.Time{} } })
	h := srv.Handler()
	sid := openSession(t, h)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)

	rec := postJSON(t, h, "/s/"+sid+"/confirm", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":false}`, rec.Body.String())
	alerts := commandsOf(t, srv, sid, cmdAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "⚠️ Please select the date and time.", alerts[0].Text)
}

func TestStart_WithoutHostDegrades(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	sid := openSession(t, h)

	rec := postJSON(t, h, "/s/"+sid+"/start", `{"host":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":false,"host":false}`, rec.Body.String())

	errs := commandsOf(t, srv, sid, cmdError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Text, "chat app")
	assert.Empty(t, commandsOf(t, srv, sid, cmdButton))

	rec = postJSON(t, h, "/s/"+sid+"/confirm", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStart_Twice(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	sid := openSession(t, h)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)
}

func TestStart_BotTokenRequiresSignedInitData(t *testing.T) {
	const token = "123:abc"
	srv, _ := newTestServer(t, func(c *ServerConfig) { c.BotToken = token })
	h := srv.Handler()

	sid := openSession(t, h)
	rec := postJSON(t, h, "/s/"+sid+"/start", `{"host":true,"initData":"user=%7B%7D&hash=00"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, commandsOf(t, srv, sid, cmdError))

	vals := url.Values{}
	vals.Set("auth_date", strconv.FormatInt(fixedNow.Unix(), 10))
	vals.Set("user", `{"id":42,"first_name":"Ana","language_code":"es"}`)
	vals.Set("hash", signInitData(token, vals))
	body, _ := json.Marshal(map[string]any{"host": true, "initData": vals.Encode()})

	sid = openSession(t, h)
	rec = postJSON(t, h, "/s/"+sid+"/start", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	sess, _ := srv.sessions.get(sid)
	require.NotNil(t, sess.user)
	assert.Equal(t, int64(42), sess.user.ID)
}

func TestScroll_SettlesAfterDebounce(t *testing.T) {
	srv, timers := newTestServer(t, nil)
	h := srv.Handler()
	sid := openSession(t, h)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)

	// Day 19 sits at index 80 (offset 3120); one entry further is day 20.
	rec := postJSON(t, h, "/s/"+sid+"/scroll", `{"field":"day","offset":3160}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	sess, _ := srv.sessions.get(sid)
	tok, _ := sess.ctrl.Model().Token(model.FieldDay)
	assert.Equal(t, "19", tok, "nothing commits before the quiet period")

	timers.fireLast()
	tok, _ = sess.ctrl.Model().Token(model.FieldDay)
	assert.Equal(t, "20", tok)
}

func TestPick_SelectsTappedEntry(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()
	sid := openSession(t, h)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)

	rec := postJSON(t, h, "/s/"+sid+"/pick", `{"field":"month","index":26}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	sess, _ := srv.sessions.get(sid)
	tok, _ := sess.ctrl.Model().Token(model.FieldMonth)
	assert.Equal(t, "Mar", tok)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, h, "/s/"+sid+"/pick", `{"field":"month","index":999}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, h, "/s/"+sid+"/pick", `{"field":"second","index":1}`).Code)
}

func TestSessionLogs_OneComponentPerLine(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv, _ := newTestServer(t, func(c *ServerConfig) { c.Logger = logger })
	h := srv.Handler()
	sid := openSession(t, h)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/start", `{"host":true}`).Code)
	require.Equal(t, http.StatusNoContent, postJSON(t, h, "/s/"+sid+"/pick", `{"field":"month","index":26}`).Code)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/s/"+sid+"/confirm", `{}`).Code)

	out := buf.String()
	for _, component := range []string{"component=web", "component=picker", "component=wheel"} {
		assert.Contains(t, out, component)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.LessOrEqual(t, strings.Count(line, "component="), 1, line)
		if strings.Contains(line, "component=picker") || strings.Contains(line, "component=wheel") {
			assert.Contains(t, line, "session="+sid, line)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := postJSON(t, srv.Handler(), "/s/not-a-uuid/start", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_StreamStartsWithSnapshot(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sid := openSession(t, srv.Handler())
	require.Equal(t, http.StatusOK, postJSON(t, srv.Handler(), "/s/"+sid+"/start", `{"host":true}`).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/s/"+sid+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	stream := readStreamUntil(t, resp.Body, `id="summary"`)
	assert.Contains(t, stream, "datastar-patch-signals")
	assert.Contains(t, stream, `"enabled":true`)
	assert.Contains(t, stream, "DW.apply(")
	assert.Contains(t, stream, "19 Nov 2025 - 02:25 AM")
	cancel()
	_, _ = io.Copy(io.Discard, resp.Body)
}

func readStreamUntil(t *testing.T, body io.Reader, marker string) string {
	t.Helper()
	var seen []string
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		line := sc.Text()
		seen = append(seen, line)
		if strings.Contains(line, marker) {
			break
		}
	}
	return strings.Join(seen, "\n")
}

func TestEvents_ReconnectReplaysSendBeforeClose(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sid := openSession(t, srv.Handler())
	require.Equal(t, http.StatusOK, postJSON(t, srv.Handler(), "/s/"+sid+"/start", `{"host":true,"now":"2025-11-19T14:25"}`).Code)
	rec := postJSON(t, srv.Handler(), "/s/"+sid+"/confirm", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":true}`, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/s/"+sid+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	stream := readStreamUntil(t, resp.Body, `"kind":"close"`)
	send := strings.Index(stream, `"kind":"send"`)
	closing := strings.Index(stream, `"kind":"close"`)
	require.NotEqual(t, -1, send, "send replayed")
	require.NotEqual(t, -1, closing, "close replayed")
	assert.Less(t, send, closing)
	assert.Contains(t, stream, `14:25`)
	cancel()
	_, _ = io.Copy(io.Discard, resp.Body)

	sess, _ := srv.sessions.get(sid)
	assert.Empty(t, sess.box.resync().oneShots, "written send is not replayed again")
}

func TestOutbox_OneShotsSurviveResyncUntilAcked(t *testing.T) {
	box := newOutbox()
	h := &pageHost{box: box, available: true, closeDelay: 1500}
	v := pageView{box: box}

	v.ScrollTo(model.FieldHour, 120)
	h.Alert("pick a time")
	require.NoError(t, h.SendPayload(`{"date":"19/11/2025","time":"14:25"}`))
	h.Close()

	snap := box.resync()
	assert.True(t, snap.closed)
	assert.Equal(t, 120, snap.offsets[model.FieldHour])
	require.Len(t, snap.oneShots, 2)
	assert.Equal(t, cmdAlert, snap.oneShots[0].Kind)
	assert.Equal(t, cmdSend, snap.oneShots[1].Kind)
	assert.Empty(t, box.drain())

	box.ack(snap.oneShots[0])
	snap = box.resync()
	require.Len(t, snap.oneShots, 1)
	assert.Equal(t, cmdSend, snap.oneShots[0].Kind)

	box.ack(snap.oneShots[0])
	assert.Empty(t, box.resync().oneShots)
}

func TestStaticScript_CountsOnlyEffectiveProgrammaticScrolls(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	js := rec.Body.String()

	// The scroll handler swallows one event per counted programmatic scroll,
	// so the counter may only move when scrollTop actually changed.
	incs := strings.Count(js, "w.programmatic++")
	require.Equal(t, 1, incs)
	assert.Contains(t, js, "if (w.el.scrollTop !== before) w.programmatic++;")
	assert.Less(t, strings.Index(js, "const before = w.el.scrollTop;"), strings.Index(js, "w.programmatic++"))
}

func TestHelp(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/help/payload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Payload format</h1>")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/help/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReap(t *testing.T) {
	now := fixedNow
	srv, _ := newTestServer(t, func(c *ServerConfig) { c.Now = func() time.Time { return now } })
	openSession(t, srv.Handler())
	assert.Equal(t, 0, srv.sessions.reap())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, srv.sessions.reap())
	assert.Equal(t, 0, srv.sessions.len())
}
