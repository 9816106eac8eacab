package web

import (
	"sync"

	"datewheel/internal/model"
)

type commandKind string

const (
	cmdScroll   commandKind = "scroll"
	cmdMark     commandKind = "mark"
	cmdMeridiem commandKind = "meridiem"
	cmdSummary  commandKind = "summary"
	cmdError    commandKind = "error"
	cmdButton   commandKind = "button"
	cmdAlert    commandKind = "alert"
	cmdSend     commandKind = "send"
	cmdClose    commandKind = "close"
)

// command is one page update queued for the session's event stream.
type command struct {
	Kind    commandKind `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Offset  int         `json:"offset,omitempty"`
	Index   int         `json:"index,omitempty"`
	Text    string      `json:"text,omitempty"`
	Payload string      `json:"payload,omitempty"`
	DelayMS int64       `json:"delayMs,omitempty"`

	Complete bool         `json:"complete,omitempty"`
	Button   *buttonState `json:"button,omitempty"`

	seq uint64
}

// oneShot reports whether the command carries an action rather than state.
// Such commands cannot be rebuilt from a snapshot.
func (c command) oneShot() bool { return c.Kind == cmdSend || c.Kind == cmdAlert }

// buttonState mirrors the host's primary button; it is pushed as signals.
type buttonState struct {
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Busy    bool   `json:"busy"`
}

// outbox queues commands for the SSE stream and remembers the latest page
// state so a (re)connecting stream can start from a snapshot. Send and alert
// commands stay in unacked until a stream reports them written.
type outbox struct {
	mu      sync.Mutex
	pending []command
	unacked []command
	seq     uint64
	notify  chan struct{}

	offsets  map[model.Field]int
	selected map[model.Field]int
	meridiem model.Meridiem
	summary  model.Summary
	err      string
	button   buttonState
	closed   bool
}

func newOutbox() *outbox {
	return &outbox{
		notify:   make(chan struct{}, 1),
		offsets:  map[model.Field]int{},
		selected: map[model.Field]int{},
	}
}

// push records a state change and queues the command describing it. build
// runs under the outbox lock.
func (o *outbox) push(build func() command) {
	o.mu.Lock()
	c := build()
	o.seq++
	c.seq = o.seq
	o.pending = append(o.pending, c)
	if c.oneShot() {
		o.unacked = append(o.unacked, c)
	}
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []command {
	o.mu.Lock()
	out := o.pending
	o.pending = nil
	o.mu.Unlock()
	return out
}

// ack marks a command as written to the page.
func (o *outbox) ack(c command) {
	if !c.oneShot() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, u := range o.unacked {
		if u.seq == c.seq {
			o.unacked = append(o.unacked[:i], o.unacked[i+1:]...)
			return
		}
	}
}

type snapshot struct {
	offsets  map[model.Field]int
	selected map[model.Field]int
	meridiem model.Meridiem
	summary  model.Summary
	err      string
	button   buttonState
	closed   bool
	oneShots []command
}

// resync drops queued commands and returns the current state. State commands
// are covered by the snapshot; unacknowledged send and alert commands are
// returned in order for replay.
func (o *outbox) resync() snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
	s := snapshot{
		offsets:  make(map[model.Field]int, len(o.offsets)),
		selected: make(map[model.Field]int, len(o.selected)),
		meridiem: o.meridiem,
		summary:  o.summary,
		err:      o.err,
		button:   o.button,
		closed:   o.closed,
		oneShots: append([]command(nil), o.unacked...),
	}
	for k, v := range o.offsets {
		s.offsets[k] = v
	}
	for k, v := range o.selected {
		s.selected[k] = v
	}
	return s
}

// pageView is the wheel.View of a browser page.
type pageView struct{ box *outbox }

func (v pageView) ScrollTo(f model.Field, offset int) {
	v.box.push(func() command {
		v.box.offsets[f] = offset
		return command{Kind: cmdScroll, Field: f.String(), Offset: offset}
	})
}

func (v pageView) MarkSelected(f model.Field, index int) {
	v.box.push(func() command {
		v.box.selected[f] = index
		return command{Kind: cmdMark, Field: f.String(), Index: index}
	})
}

func (v pageView) MarkMeridiem(m model.Meridiem) {
	v.box.push(func() command {
		v.box.meridiem = m
		return command{Kind: cmdMeridiem, Text: m.String()}
	})
}

func (v pageView) ShowSummary(s model.Summary) {
	v.box.push(func() command {
		v.box.summary = s
		return command{Kind: cmdSummary, Text: s.Text, Complete: s.Complete}
	})
}

func (v pageView) ShowError(msg string) {
	v.box.push(func() command {
		v.box.err = msg
		return command{Kind: cmdError, Text: msg}
	})
}

// pageHost forwards host calls to the page's chat-app runtime. Button state
// is tracked here so clicks can be checked server-side.
type pageHost struct {
	box        *outbox
	available  bool
	closeDelay int64

	onClick func()
}

func (h *pageHost) Available() bool { return h.available }

func (h *pageHost) button(mut func(b *buttonState)) {
	h.box.push(func() command {
		mut(&h.box.button)
		b := h.box.button
		return command{Kind: cmdButton, Button: &b}
	})
}

func (h *pageHost) Ready()                     {}
func (h *pageHost) SetButtonLabel(text string) { h.button(func(b *buttonState) { b.Label = text }) }
func (h *pageHost) ShowButton()                { h.button(func(b *buttonState) { b.Visible = true }) }
func (h *pageHost) HideButton()                { h.button(func(b *buttonState) { b.Visible = false }) }
func (h *pageHost) EnableButton()              { h.button(func(b *buttonState) { b.Enabled = true }) }
func (h *pageHost) DisableButton()             { h.button(func(b *buttonState) { b.Enabled = false }) }
func (h *pageHost) ShowProgress()              { h.button(func(b *buttonState) { b.Busy = true }) }
func (h *pageHost) HideProgress()              { h.button(func(b *buttonState) { b.Busy = false }) }
func (h *pageHost) OnButtonClick(fn func())    { h.onClick = fn }

func (h *pageHost) SendPayload(data string) error {
	h.box.push(func() command { return command{Kind: cmdSend, Payload: data} })
	return nil
}

func (h *pageHost) Alert(message string) {
	h.box.push(func() command { return command{Kind: cmdAlert, Text: message} })
}

func (h *pageHost) Close() {
	h.box.push(func() command {
		h.box.closed = true
		return command{Kind: cmdClose, DelayMS: h.closeDelay}
	})
}

// click fires the button handler when the tracked state allows it.
func (h *pageHost) click() bool {
	h.box.mu.Lock()
	b := h.box.button
	h.box.mu.Unlock()
	if !b.Visible || !b.Enabled || b.Busy || h.onClick == nil {
		return false
	}
	h.onClick()
	return true
}
