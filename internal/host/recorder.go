package host

import (
	"strings"
	"sync"
)

// Recorder is an in-memory Host that records every call. It backs tests and
// dry runs where there is no real embedding runtime.
type Recorder struct {
	mu sync.Mutex

	Calls    []string
	Label    string
	Visible  bool
	Enabled  bool
	Busy     bool
	Payloads []string
	Alerts   []string
	Closed   bool
	// SendErr, when set, is returned by SendPayload.
	SendErr error

	onClick func()
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(call string) {
	r.Calls = append(r.Calls, call)
}

func (r *Recorder) Ready() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("ready")
}

func (r *Recorder) SetButtonLabel(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Label = text
	r.record("label:" + text)
}

func (r *Recorder) ShowButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Visible = true
	r.record("show")
}

func (r *Recorder) HideButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Visible = false
	r.record("hide")
}

func (r *Recorder) EnableButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Enabled = true
	r.record("enable")
}

func (r *Recorder) DisableButton() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Enabled = false
	r.record("disable")
}

func (r *Recorder) OnButtonClick(handler func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClick = handler
	r.record("onclick")
}

func (r *Recorder) ShowProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy = true
	r.record("progress:on")
}

func (r *Recorder) HideProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy = false
	r.record("progress:off")
}

func (r *Recorder) SendPayload(data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("send")
	if r.SendErr != nil {
		return r.SendErr
	}
	r.Payloads = append(r.Payloads, data)
	return nil
}

func (r *Recorder) Alert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, message)
	r.record("alert")
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	r.record("close")
}

// Click simulates a press of the primary button. Disabled or hidden buttons
// do nothing, like a real host.
func (r *Recorder) Click() bool {
	r.mu.Lock()
	fn := r.onClick
	ok := r.Enabled && r.Visible && fn != nil
	r.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}

// Trace returns the recorded calls joined with spaces.
func (r *Recorder) Trace() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.Calls, " ")
}
