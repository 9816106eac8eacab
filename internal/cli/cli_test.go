package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"datewheel/internal/model"
	"datewheel/internal/tui"
)

type fakePicker struct {
	got    tui.Options
	calls  int
	result tui.Result
	err    error
}

func (f *fakePicker) run(_ context.Context, opts tui.Options) (tui.Result, error) {
	f.calls++
	f.got = opts
	return f.result, f.err
}

var testNow = time.Date(2025, 11, 3, 9, 41, 0, 0, time.UTC)

func newTestApp(p *fakePicker) *App {
	app := newApp()
	app.Now = func() time.Time { return testNow }
	app.Interactive = func() bool { return true }
	app.OutputIsTerminal = func() bool { return false }
	app.runPicker = p.run
	return app
}

func sentResult() tui.Result {
	p := model.Payload{Date: "19/11/2025", Time: "14:25"}
	raw, _ := p.Encode()
	return tui.Result{Sent: true, Payload: p, Raw: raw}
}

func runCLI(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeData(t *testing.T, out string) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data envelope: %s", out)
	}
	return data
}

func TestPick_PrintsPayload(t *testing.T) {
	p := &fakePicker{result: sentResult()}
	out, _, err := runCLI(t, newTestApp(p), "pick", "--at", "19/11/2025 14:00")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("expected picker to run once, got %d", p.calls)
	}
	if want := time.Date(2025, 11, 19, 14, 0, 0, 0, time.UTC); !p.got.Start.Equal(want) {
		t.Fatalf("start: got %v want %v", p.got.Start, want)
	}
	if !p.got.Interactive {
		t.Fatalf("expected interactive picker")
	}
	if p.got.Calendar.YearMin != 2025 || p.got.Calendar.YearMax != 2035 {
		t.Fatalf("year range: %d-%d", p.got.Calendar.YearMin, p.got.Calendar.YearMax)
	}

	data := decodeData(t, out)
	if data["sent"] != true || data["date"] != "19/11/2025" || data["time"] != "14:25" {
		t.Fatalf("unexpected data: %#v", data)
	}
	if data["rfc3339"] != "2025-11-19T14:25:00Z" {
		t.Fatalf("rfc3339: %v", data["rfc3339"])
	}
	if data["payload"] != `{"date":"19/11/2025","time":"14:25"}` {
		t.Fatalf("payload: %v", data["payload"])
	}
}

func TestRoot_DefaultsToPickAtNow(t *testing.T) {
	p := &fakePicker{result: sentResult()}
	if _, _, err := runCLI(t, newTestApp(p)); err != nil {
		t.Fatalf("root: %v", err)
	}
	if !p.got.Start.Equal(testNow) {
		t.Fatalf("start: got %v want %v", p.got.Start, testNow)
	}
}

func TestPick_Empty(t *testing.T) {
	p := &fakePicker{result: sentResult()}
	if _, _, err := runCLI(t, newTestApp(p), "pick", "--empty"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !p.got.Start.IsZero() {
		t.Fatalf("expected zero start, got %v", p.got.Start)
	}
}

func TestPick_Cancelled(t *testing.T) {
	p := &fakePicker{}
	out, _, err := runCLI(t, newTestApp(p), "pick")
	if !errors.Is(err, errCancelled) {
		t.Fatalf("expected errCancelled, got %v", err)
	}
	data := decodeData(t, out)
	if data["sent"] != false || data["date"] != nil {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestPick_InvalidAt(t *testing.T) {
	p := &fakePicker{}
	_, _, err := runCLI(t, newTestApp(p), "pick", "--at", "next tuesday")
	if !errors.Is(err, errInvalidAt) {
		t.Fatalf("expected errInvalidAt, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("picker must not run on bad input")
	}
}

func TestPick_LocaleFlag(t *testing.T) {
	p := &fakePicker{result: sentResult()}
	if _, _, err := runCLI(t, newTestApp(p), "--locale", "es", "pick"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got := p.got.Catalog.Language(); got != "es" {
		t.Fatalf("catalog language: %q", got)
	}
	if got := p.got.Calendar.Months[0]; got != "Ene" {
		t.Fatalf("first month: %q", got)
	}
}

func TestPick_EDN(t *testing.T) {
	p := &fakePicker{result: sentResult()}
	out, _, err := runCLI(t, newTestApp(p), "--format", "edn", "pick")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !strings.Contains(out, `:date "19/11/2025"`) || !strings.Contains(out, ":sent true") {
		t.Fatalf("unexpected edn: %s", out)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	p := &fakePicker{}
	_, _, err := runCLI(t, newTestApp(p), "--format", "yaml", "config")
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPayloadDecode(t *testing.T) {
	out, _, err := runCLI(t, newTestApp(&fakePicker{}), "payload", "decode", "--tz", "UTC", `{"date":"19/11/2025","time":"14:25"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := decodeData(t, out)
	if data["rfc3339"] != "2025-11-19T14:25:00Z" || data["weekday"] != "Wednesday" {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestPayloadDecode_Stdin(t *testing.T) {
	app := newTestApp(&fakePicker{})
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"date":"01/01/2030","time":"00:05"}` + "\n"))
	cmd.SetArgs([]string{"payload", "decode", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data := decodeData(t, out.String()); data["time"] != "00:05" {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestPayloadDecode_RejectsImpossibleDate(t *testing.T) {
	_, _, err := runCLI(t, newTestApp(&fakePicker{}), "payload", "decode", `{"date":"31/02/2025","time":"10:00"}`)
	if !errors.Is(err, model.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDocs(t *testing.T) {
	app := newTestApp(&fakePicker{})
	out, _, err := runCLI(t, app, "docs")
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	if !strings.Contains(out, `"topic":"payload"`) {
		t.Fatalf("missing payload topic: %s", out)
	}

	out, _, err = runCLI(t, app, "docs", "payload", "--raw")
	if err != nil {
		t.Fatalf("docs payload: %v", err)
	}
	if !strings.HasPrefix(out, "# ") {
		t.Fatalf("expected raw markdown, got %q", out)
	}

	if _, _, err := runCLI(t, app, "docs", "nope"); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("DATEWHEEL_WEB_ADDR", "0.0.0.0:9999")
	t.Setenv("DATEWHEEL_WEB_BOT_TOKEN", "123:secret")
	out, _, err := runCLI(t, newTestApp(&fakePicker{}), "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, `"addr":"0.0.0.0:9999"`) {
		t.Fatalf("env override not applied: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("bot token leaked: %s", out)
	}
}

func TestChildPickArgs(t *testing.T) {
	app := newTestApp(&fakePicker{})
	app.Config.Locale = "es"
	app.ConfigPath = "/etc/datewheel.yaml"
	app.Config.Debug = true
	got := strings.Join(childPickArgs(app), " ")
	if got != "--locale es --config /etc/datewheel.yaml --debug" {
		t.Fatalf("unexpected args: %q", got)
	}
}

func TestParseAt(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 41, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-11-19T14:30", time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)},
		{"2025-11-19 14:30", time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)},
		{"19/11/2025 14:30", time.Date(2025, 11, 19, 14, 30, 0, 0, time.UTC)},
		{"19/11/2025", time.Date(2025, 11, 19, 9, 41, 0, 0, time.UTC)},
		{"2025-11-19", time.Date(2025, 11, 19, 9, 41, 0, 0, time.UTC)},
		{"2025-11-19T14:30:00-04:00", time.Date(2025, 11, 19, 18, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseAt(tt.in, now)
		if err != nil {
			t.Fatalf("parseAt(%q): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("parseAt(%q): got %v want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "31/02/2025", "tomorrow", "19-11-2025"} {
		if _, err := parseAt(bad, now); err == nil {
			t.Fatalf("parseAt(%q): expected error", bad)
		}
	}
}
