package picker

import (
	"log/slog"
	"time"

	"datewheel/internal/host"
	"datewheel/internal/locale"
	"datewheel/internal/model"
	"datewheel/internal/wheel"

	"github.com/pkg/errors"
)

// ErrAlreadySent is returned by Confirm once the payload has been delivered.
var ErrAlreadySent = errors.New("payload already sent")

type Messages struct {
	ButtonLabel     string
	AlertIncomplete string
	HostUnavailable string
}

func DefaultMessages() Messages {
	return Messages{
		ButtonLabel:     "Confirm",
		AlertIncomplete: "Please select the date and time.",
		HostUnavailable: "Host unavailable.",
	}
}

type Options struct {
	Wheel    wheel.Options
	Messages Messages
	Logger   *slog.Logger
}

// ErrorView is implemented by views that can show a degraded-mode message.
type ErrorView interface {
	ShowError(message string)
}

// Controller wires the TimeModel and wheel presenter to the host: the primary
// button follows summary completeness and confirming sends the payload once
// and closes the session.
type Controller struct {
	host    host.Host
	hostErr error

	view wheel.View
	tm   *model.TimeModel
	p    *wheel.Presenter
	msgs Messages
	log  *slog.Logger

	buttonKnown   bool
	buttonEnabled bool
	sent          bool
}

// New resolves the host once. With no host the controller is degraded: it
// never calls into the host and Start reports host.ErrHostUnavailable.
func New(h host.Host, view wheel.View, tm *model.TimeModel, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	msgs := opts.Messages
	def := DefaultMessages()
	if msgs.ButtonLabel == "" {
		msgs.ButtonLabel = def.ButtonLabel
	}
	if msgs.AlertIncomplete == "" {
		msgs.AlertIncomplete = def.AlertIncomplete
	}
	if msgs.HostUnavailable == "" {
		msgs.HostUnavailable = def.HostUnavailable
	}

	resolved, err := host.Require(h)
	c := &Controller{
		host:    resolved,
		hostErr: err,
		view:    view,
		tm:      tm,
		msgs:    msgs,
		log:     log.With("component", "picker"),
	}
	wopts := opts.Wheel
	if wopts.Logger == nil {
		wopts.Logger = log
	}
	c.p = wheel.NewPresenter(tm, summaryTap{View: view, c: c}, wopts)
	return c
}

func (c *Controller) Presenter() *wheel.Presenter { return c.p }

func (c *Controller) Model() *model.TimeModel { return c.tm }

// HostErr is host.ErrHostUnavailable when the controller is degraded.
func (c *Controller) HostErr() error { return c.hostErr }

func (c *Controller) Sent() bool { return c.sent }

// Start signals readiness, configures the primary button and seeds the wheels
// from now (a zero time leaves every field unset).
func (c *Controller) Start(now time.Time) error {
	if c.hostErr != nil {
		c.log.Warn("host unavailable; picker degraded")
		if ev, ok := c.view.(ErrorView); ok {
			ev.ShowError(c.msgs.HostUnavailable)
		}
		return c.hostErr
	}

	c.host.Ready()
	c.host.SetButtonLabel(c.msgs.ButtonLabel)
	c.host.OnButtonClick(c.onClick)
	c.host.ShowButton()

	if !now.IsZero() {
		c.tm.SetTime(now)
	}
	c.p.CenterOnSelection()
	c.refreshButton(c.tm.Summary())
	return nil
}

// Confirm sends the payload and closes the host session. An incomplete
// selection raises an alert and sends nothing.
func (c *Controller) Confirm() error {
	if c.hostErr != nil {
		return c.hostErr
	}
	if c.sent {
		return ErrAlreadySent
	}
	p, err := c.tm.Payload()
	if err != nil {
		c.host.Alert(c.msgs.AlertIncomplete)
		return err
	}
	data, err := p.Encode()
	if err != nil {
		return err
	}

	c.host.ShowProgress()
	err = c.host.SendPayload(data)
	c.host.HideProgress()
	if err != nil {
		c.log.Error("send payload failed", "error", err)
		return errors.Wrap(err, "send payload")
	}
	c.sent = true
	c.log.Info("payload sent", "date", p.Date, "time", p.Time)
	c.host.Close()
	return nil
}

func (c *Controller) onClick() {
	if err := c.Confirm(); err != nil {
		c.log.Debug("confirm rejected", "error", err)
	}
}

func (c *Controller) refreshButton(s model.Summary) {
	if c.host == nil {
		return
	}
	if c.buttonKnown && c.buttonEnabled == s.Complete {
		return
	}
	c.buttonKnown = true
	c.buttonEnabled = s.Complete
	if s.Complete {
		c.host.EnableButton()
	} else {
		c.host.DisableButton()
	}
}

type summaryTap struct {
	wheel.View
	c *Controller
}

func (t summaryTap) ShowSummary(s model.Summary) {
	t.View.ShowSummary(s)
	t.c.refreshButton(s)
}

// MessagesFrom pulls the host-facing strings from a locale catalog.
func MessagesFrom(cat *locale.Catalog) Messages {
	return Messages{
		ButtonLabel:     cat.Msg(locale.MsgButtonConfirm),
		AlertIncomplete: cat.Msg(locale.MsgAlertIncomplete),
		HostUnavailable: cat.Msg(locale.MsgHostUnavailable),
	}
}
