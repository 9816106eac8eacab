package wheel

// Geometry holds the layout constants shared between the rendering layer and
// the centre/rebase math. All values are in the same abstract units as the
// scroll offset (pixels in the web page, EntryHeight units per row in the TUI).
type Geometry struct {
	EntryHeight    int
	ViewportHeight int
	// RebaseEntries is the distance from either end, in entries, that
	// triggers an edge rebase.
	RebaseEntries int
	// RebaseTarget is the fraction of the list length the offset is moved
	// to when rebasing.
	RebaseTarget float64
}

const (
	DefaultEntryHeight     = 40
	DefaultViewportEntries = 5
	DefaultRebaseEntries   = 5
	DefaultRebaseTarget    = 0.4
)

func DefaultGeometry() Geometry {
	return Geometry{
		EntryHeight:    DefaultEntryHeight,
		ViewportHeight: DefaultEntryHeight * DefaultViewportEntries,
		RebaseEntries:  DefaultRebaseEntries,
		RebaseTarget:   DefaultRebaseTarget,
	}
}

// Normalized fills zero or out-of-range values with the defaults.
func (g Geometry) Normalized() Geometry {
	def := DefaultGeometry()
	if g.EntryHeight <= 0 {
		g.EntryHeight = def.EntryHeight
	}
	if g.ViewportHeight <= 0 {
		g.ViewportHeight = g.EntryHeight * DefaultViewportEntries
	}
	if g.RebaseEntries <= 0 {
		g.RebaseEntries = def.RebaseEntries
	}
	if g.RebaseTarget <= 0 || g.RebaseTarget >= 1 {
		g.RebaseTarget = def.RebaseTarget
	}
	return g
}

// MaxOffset is the largest scroll offset for a list of n entries.
func (g Geometry) MaxOffset(n int) int {
	max := n*g.EntryHeight - g.ViewportHeight
	if max < 0 {
		return 0
	}
	return max
}

// OffsetFor returns the scroll offset that puts entry index in the central
// slot of the viewport, clamped to the scrollable range.
func (g Geometry) OffsetFor(index, n int) int {
	off := index*g.EntryHeight + g.EntryHeight/2 - g.ViewportHeight/2
	if off < 0 {
		off = 0
	}
	if max := g.MaxOffset(n); off > max {
		off = max
	}
	return off
}

// CenterIndex returns the entry whose midpoint is nearest the viewport
// midpoint, provided it lies within half an entry of it.
func (g Geometry) CenterIndex(offset, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	center := offset + g.ViewportHeight/2
	if center < 0 {
		return 0, false
	}
	i := center / g.EntryHeight
	if i >= n {
		i = n - 1
	}
	mid := i*g.EntryHeight + g.EntryHeight/2
	dist := mid - center
	if dist < 0 {
		dist = -dist
	}
	if 2*dist > g.EntryHeight {
		return 0, false
	}
	return i, true
}
