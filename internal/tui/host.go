package tui

import (
	"datewheel/internal/model"
)

// termHost is the terminal rendition of the host runtime. The controller
// calls it synchronously from inside Update, so it needs no locking.
type termHost struct {
	interactive bool

	label   string
	visible bool
	enabled bool
	busy    bool
	onClick func()

	alert  string
	raw    string
	sent   *model.Payload
	closed bool
}

func newTermHost(interactive bool) *termHost {
	return &termHost{interactive: interactive}
}

func (h *termHost) Available() bool { return h.interactive }

func (h *termHost) Ready()                     {}
func (h *termHost) SetButtonLabel(text string) { h.label = text }
func (h *termHost) ShowButton()                { h.visible = true }
func (h *termHost) HideButton()                { h.visible = false }
func (h *termHost) EnableButton()              { h.enabled = true }
func (h *termHost) DisableButton()             { h.enabled = false }
func (h *termHost) OnButtonClick(fn func())    { h.onClick = fn }
func (h *termHost) ShowProgress()              { h.busy = true }
func (h *termHost) HideProgress()              { h.busy = false }
func (h *termHost) Alert(message string)       { h.alert = message }
func (h *termHost) Close()                     { h.closed = true }

func (h *termHost) SendPayload(data string) error {
	p, err := model.ParsePayload(data)
	if err != nil {
		return err
	}
	h.raw = data
	h.sent = &p
	return nil
}

// press fires the primary button if it is visible and enabled.
func (h *termHost) press() bool {
	if !h.visible || !h.enabled || h.busy || h.onClick == nil {
		return false
	}
	h.onClick()
	return true
}
