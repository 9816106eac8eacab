package tui

import (
	"log/slog"
	"time"

	"datewheel/internal/locale"
	"datewheel/internal/model"
	"datewheel/internal/picker"
	"datewheel/internal/wheel"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Layout, in terminal cells.
const (
	marginLeft = 2
	colWidth   = 8
	colGap     = 1
	// Rows above the first wheel row: title, rule, column titles.
	headerRows = 3
)

// meridiemColumn is the focus index of the AM/PM toggle, after the fields.
var meridiemColumn = len(model.Fields())

type settleMsg struct {
	field model.Field
	gen   uint64
}

type pickerModel struct {
	ctrl *picker.Controller
	view *wheelView
	host *termHost
	cat  *locale.Catalog
	log  *slog.Logger

	keys     keyMap
	help     help.Model
	debounce time.Duration
	now      func() time.Time

	focus  int
	width  int
	height int

	startErr  error
	cancelled bool
}

func newPickerModel(opts Options) pickerModel {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = locale.New(locale.DefaultLanguage)
	}
	cal := opts.Calendar
	if len(cal.Tokens(model.FieldYear)) == 0 {
		y := time.Now().Year()
		cal = cat.Calendar(y, y+10)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = wheel.DefaultDebounce
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	v := newWheelView()
	h := newTermHost(opts.Interactive)
	wopts := opts.Wheel
	wopts.Logger = log
	ctrl := picker.New(h, v, model.NewTimeModel(cal), picker.Options{
		Wheel:    wopts,
		Messages: picker.MessagesFrom(cat),
		Logger:   log,
	})

	m := pickerModel{
		ctrl:     ctrl,
		view:     v,
		host:     h,
		cat:      cat,
		log:      log.With("component", "tui"),
		keys:     defaultKeyMap(),
		help:     help.New(),
		debounce: debounce,
		now:      now,
	}
	m.startErr = ctrl.Start(opts.Start)
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) presenter() *wheel.Presenter { return m.ctrl.Presenter() }

func (m pickerModel) focusedField() (model.Field, bool) {
	fields := model.Fields()
	if m.focus < 0 || m.focus >= len(fields) {
		return 0, false
	}
	return fields[m.focus], true
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case settleMsg:
		m.presenter().Settle(msg.field, msg.gen)
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m pickerModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An alert blocks until dismissed, like the host's modal alert.
	if m.host.alert != "" {
		m.host.alert = ""
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Left):
		m.focus = (m.focus + meridiemColumn) % (meridiemColumn + 1)
	case key.Matches(msg, m.keys.Right):
		m.focus = (m.focus + 1) % (meridiemColumn + 1)
	case key.Matches(msg, m.keys.AM):
		m.presenter().SetMeridiem(model.AM)
	case key.Matches(msg, m.keys.PM):
		m.presenter().SetMeridiem(model.PM)
	case key.Matches(msg, m.keys.Toggle):
		m.presenter().ToggleMeridiem()
	case key.Matches(msg, m.keys.Now):
		m.ctrl.Model().SetTime(m.now())
		m.presenter().CenterOnSelection()
	case key.Matches(msg, m.keys.Confirm):
		if !m.host.press() && !m.host.busy {
			// Disabled button: say why instead of silently ignoring enter.
			if err := m.ctrl.Confirm(); err != nil {
				m.log.Debug("confirm rejected", "error", err)
			}
		}
		if m.host.closed {
			return m, tea.Quit
		}
	case key.Matches(msg, m.keys.Up):
		return m.scrollFocused(-1)
	case key.Matches(msg, m.keys.Down):
		return m.scrollFocused(1)
	case key.Matches(msg, m.keys.PageUp):
		return m.scrollFocused(-m.rows())
	case key.Matches(msg, m.keys.PageDown):
		return m.scrollFocused(m.rows())
	}
	return m, nil
}

func (m pickerModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	col, ok := m.columnAt(msg.X)
	if !ok {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		m.focus = col
		if col == meridiemColumn {
			m.presenter().ToggleMeridiem()
			return m, nil
		}
		delta := 1
		if msg.Button == tea.MouseButtonWheelUp {
			delta = -1
		}
		return m.scrollFocused(delta)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		m.focus = col
		row := msg.Y - headerRows
		if row < 0 || row >= m.rows() {
			return m, nil
		}
		if col == meridiemColumn {
			if row < m.rows()/2 {
				m.presenter().SetMeridiem(model.AM)
			} else {
				m.presenter().SetMeridiem(model.PM)
			}
			return m, nil
		}
		m.pickRow(model.Fields()[col], row)
	}
	return m, nil
}

// scrollFocused moves the focused column by delta entries and arms its
// settle timer.
func (m pickerModel) scrollFocused(delta int) (tea.Model, tea.Cmd) {
	if m.focus == meridiemColumn {
		m.presenter().ToggleMeridiem()
		return m, nil
	}
	f, ok := m.focusedField()
	if !ok {
		return m, nil
	}
	p := m.presenter()
	col := p.Column(f)
	if len(col.Seq) == 0 {
		return m, nil
	}
	geo := p.Geometry()
	off := col.Offset + delta*geo.EntryHeight
	if off < 0 {
		off = 0
	}
	if hi := geo.MaxOffset(len(col.Seq)); off > hi {
		off = hi
	}
	m.view.ScrollTo(f, off)
	gen := p.Scroll(f, off)
	p.Arm(f, gen)
	return m, tea.Tick(m.debounce, func(time.Time) tea.Msg { return settleMsg{field: f, gen: gen} })
}

// pickRow selects the entry on a visible row by scrolling it to the centre
// and settling at once.
func (m pickerModel) pickRow(f model.Field, row int) {
	p := m.presenter()
	col := p.Column(f)
	geo := p.Geometry()
	idx := col.Offset/geo.EntryHeight + row
	if idx < 0 || idx >= len(col.Seq) {
		return
	}
	off := geo.OffsetFor(idx, len(col.Seq))
	m.view.ScrollTo(f, off)
	p.Settle(f, p.Scroll(f, off))
}

func (m pickerModel) columnAt(x int) (int, bool) {
	x -= marginLeft
	if x < 0 {
		return 0, false
	}
	col := x / (colWidth + colGap)
	if col > meridiemColumn {
		return 0, false
	}
	return col, true
}

func (m pickerModel) rows() int {
	geo := m.presenter().Geometry()
	return geo.ViewportHeight / geo.EntryHeight
}

func (m pickerModel) result() Result {
	if m.host.sent == nil {
		return Result{}
	}
	return Result{Sent: true, Payload: *m.host.sent, Raw: m.host.raw}
}
