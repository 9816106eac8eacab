package wheel

import (
	"log/slog"
	"strconv"

	"datewheel/internal/model"

	"github.com/pkg/errors"
)

// View is the rendering side of the picker. Implementations must not call
// back into the Presenter from these methods.
type View interface {
	ScrollTo(f model.Field, offset int)
	MarkSelected(f model.Field, index int)
	MarkMeridiem(m model.Meridiem)
	ShowSummary(s model.Summary)
}

// ColumnState tracks a column through a scroll burst:
// Idle -> Scrolling (Scroll) -> Settling (Arm) -> Idle (Settle).
// A scroll while Settling goes back to Scrolling with a new generation.
type ColumnState int

const (
	ColumnIdle ColumnState = iota
	// ColumnScrolling means an offset was reported and no settle timer is
	// armed for it yet.
	ColumnScrolling
	// ColumnSettling means the settle timer for the latest offset is armed.
	ColumnSettling
)

func (s ColumnState) String() string {
	switch s {
	case ColumnScrolling:
		return "scrolling"
	case ColumnSettling:
		return "settling"
	}
	return "idle"
}

// Column is the per-field scroll state.
type Column struct {
	Field    model.Field
	Seq      []string
	Cycle    int
	Offset   int
	Selected int
	State    ColumnState

	gen uint64
}

type Options struct {
	Repetitions int
	Geometry    Geometry
	Logger      *slog.Logger
}

// Presenter drives the five wheel columns and funnels every selection into
// the TimeModel. It is not safe for concurrent use; hosts serialize calls.
type Presenter struct {
	tm   *model.TimeModel
	view View
	geo  Geometry
	reps int
	log  *slog.Logger

	cols map[model.Field]*Column
}

func NewPresenter(tm *model.TimeModel, view View, opts Options) *Presenter {
	reps := NormalizeRepetitions(opts.Repetitions)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	p := &Presenter{
		tm:   tm,
		view: view,
		geo:  opts.Geometry.Normalized(),
		reps: reps,
		log:  log.With("component", "wheel"),
		cols: map[model.Field]*Column{},
	}
	cal := tm.Calendar()
	for _, f := range model.Fields() {
		natural := cal.Tokens(f)
		seq := []string{}
		if len(natural) > 0 {
			seq = BuildSequence(natural, reps)
		}
		p.cols[f] = &Column{Field: f, Seq: seq, Cycle: len(natural), Selected: -1}
	}
	return p
}

func (p *Presenter) Geometry() Geometry { return p.geo }

func (p *Presenter) Repetitions() int { return p.reps }

func (p *Presenter) Model() *model.TimeModel { return p.tm }

// Column returns a copy of a field's column state.
func (p *Presenter) Column(f model.Field) Column {
	c := p.cols[f]
	if c == nil {
		return Column{Field: f, Selected: -1}
	}
	return *c
}

// Centered reports the entry currently under the viewport midpoint.
func (p *Presenter) Centered(f model.Field) (int, string, bool) {
	c := p.cols[f]
	if c == nil {
		return 0, "", false
	}
	i, ok := p.geo.CenterIndex(c.Offset, len(c.Seq))
	if !ok {
		return 0, "", false
	}
	return i, c.Seq[i], true
}

// CenterOn scrolls the occurrence of token in the middle repetition to the
// central slot and selects it.
func (p *Presenter) CenterOn(f model.Field, token string) error {
	c := p.cols[f]
	if c == nil || len(c.Seq) == 0 {
		return nil
	}
	idx := -1
	block := p.reps / 2
	for pos := 0; pos < c.Cycle; pos++ {
		if c.Seq[pos] == token {
			idx = block*c.Cycle + pos
			break
		}
	}
	if idx < 0 || idx >= len(c.Seq) || c.Seq[idx] != token {
		idx = indexOf(c.Seq, token)
	}
	if idx < 0 {
		return errors.Wrapf(model.ErrInvalidSelection, "%s: %q not in wheel", f, token)
	}
	c.Offset = p.geo.OffsetFor(idx, len(c.Seq))
	p.view.ScrollTo(f, c.Offset)
	return p.Pick(f, idx)
}

// CenterOnSelection recentres every column whose field is set.
func (p *Presenter) CenterOnSelection() {
	for _, f := range model.Fields() {
		tok, ok := p.tm.Token(f)
		if !ok {
			continue
		}
		if err := p.CenterOn(f, tok); err != nil {
			p.log.Warn("center failed", "field", f.String(), "error", err)
		}
	}
	p.view.MarkMeridiem(p.tm.Meridiem())
	p.render()
}

// Pick applies an explicit selection of the entry at index.
func (p *Presenter) Pick(f model.Field, index int) error {
	c := p.cols[f]
	if c == nil || len(c.Seq) == 0 {
		return nil
	}
	if index < 0 || index >= len(c.Seq) {
		return errors.Wrapf(model.ErrInvalidSelection, "%s: index %d out of range", f, index)
	}
	if err := p.apply(f, c.Seq[index]); err != nil {
		return err
	}
	c.Selected = index
	p.view.MarkSelected(f, index)
	p.render()
	return nil
}

// Scroll records a scroll position reported by the view and starts a new
// settle window. The returned generation must be passed to Arm and Settle.
func (p *Presenter) Scroll(f model.Field, offset int) uint64 {
	c := p.cols[f]
	if c == nil {
		return 0
	}
	c.Offset = offset
	c.State = ColumnScrolling
	c.gen++
	return c.gen
}

// Arm records that the host armed the settle timer for gen. It reports false
// when a later scroll has superseded gen.
func (p *Presenter) Arm(f model.Field, gen uint64) bool {
	c := p.cols[f]
	if c == nil || c.State != ColumnScrolling || gen != c.gen {
		return false
	}
	c.State = ColumnSettling
	return true
}

// Settle commits the centred entry once scrolling has been quiet for the
// debounce window. Stale generations are ignored (last write wins). A tap
// settles straight from Scrolling without arming a timer.
func (p *Presenter) Settle(f model.Field, gen uint64) bool {
	c := p.cols[f]
	if c == nil || c.State == ColumnIdle || gen != c.gen {
		return false
	}
	c.State = ColumnIdle
	if len(c.Seq) == 0 {
		return false
	}
	idx, ok := p.geo.CenterIndex(c.Offset, len(c.Seq))
	if !ok {
		return false
	}
	if err := p.Pick(f, idx); err != nil {
		p.log.Error("settle pick failed", "field", f.String(), "index", idx, "error", err)
		return false
	}
	p.log.Debug("settled", "field", f.String(), "index", idx, "value", c.Seq[idx])
	// Rebase only after the value has been read.
	p.RebaseIfNearEdge(f)
	return true
}

// RebaseIfNearEdge teleports the scroll offset to an equivalent position near
// the RebaseTarget point of the list when it is within RebaseEntries of
// either end. The centred value is unchanged.
func (p *Presenter) RebaseIfNearEdge(f model.Field) bool {
	c := p.cols[f]
	if c == nil || len(c.Seq) == 0 || c.Cycle == 0 {
		return false
	}
	n := len(c.Seq)
	threshold := p.geo.RebaseEntries * p.geo.EntryHeight
	hi := p.geo.MaxOffset(n)
	// Lists too short to leave a band between the two edges never rebase.
	if hi < 2*threshold {
		return false
	}
	if c.Offset >= threshold && c.Offset <= hi-threshold {
		return false
	}
	cur, ok := p.geo.CenterIndex(c.Offset, n)
	if !ok {
		return false
	}
	block := int(float64(n)*p.geo.RebaseTarget) / c.Cycle
	target := block*c.Cycle + cur%c.Cycle
	if target >= n || target == cur {
		return false
	}
	off := c.Offset + (target-cur)*p.geo.EntryHeight
	if off < 0 || off > hi {
		return false
	}
	c.Offset = off
	if c.Selected == cur {
		c.Selected = target
	}
	p.log.Debug("rebased", "field", f.String(), "from", cur, "to", target)
	p.view.ScrollTo(f, c.Offset)
	if c.Selected >= 0 {
		p.view.MarkSelected(f, c.Selected)
	}
	return true
}

// SetMeridiem updates the AM/PM toggle. When it changes, the hour column is
// recentred since its 12h token stays the same while the backing hour moves.
func (p *Presenter) SetMeridiem(m model.Meridiem) {
	changed := p.tm.SetMeridiem(m)
	p.view.MarkMeridiem(p.tm.Meridiem())
	if !changed {
		return
	}
	if tok, ok := p.tm.Token(model.FieldHour); ok {
		if err := p.CenterOn(model.FieldHour, tok); err != nil {
			p.log.Error("hour recenter failed", "error", err)
		}
		return
	}
	p.render()
}

func (p *Presenter) ToggleMeridiem() {
	p.SetMeridiem(p.tm.Meridiem().Other())
}

func (p *Presenter) Summary() model.Summary { return p.tm.Summary() }

func (p *Presenter) apply(f model.Field, token string) error {
	if f == model.FieldHour {
		h, err := strconv.Atoi(token)
		if err != nil {
			return errors.Wrapf(model.ErrInvalidSelection, "hour: %q", token)
		}
		return p.tm.SetHour12(h, p.tm.Meridiem())
	}
	return p.tm.SetField(f, token)
}

func (p *Presenter) render() {
	p.view.ShowSummary(p.tm.Summary())
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
