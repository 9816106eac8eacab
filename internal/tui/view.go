package tui

import (
	"datewheel/internal/model"
)

// wheelView is the terminal's render state. Offsets are in the wheel's
// abstract units; one terminal row shows one entry.
type wheelView struct {
	offsets  map[model.Field]int
	selected map[model.Field]int
	meridiem model.Meridiem
	summary  model.Summary
	err      string
}

func newWheelView() *wheelView {
	return &wheelView{offsets: map[model.Field]int{}, selected: map[model.Field]int{}}
}

func (v *wheelView) ScrollTo(f model.Field, offset int)    { v.offsets[f] = offset }
func (v *wheelView) MarkSelected(f model.Field, index int) { v.selected[f] = index }
func (v *wheelView) MarkMeridiem(m model.Meridiem)         { v.meridiem = m }
func (v *wheelView) ShowSummary(s model.Summary)           { v.summary = s }
func (v *wheelView) ShowError(msg string)                  { v.err = msg }

func (v *wheelView) selectedIndex(f model.Field) int {
	if i, ok := v.selected[f]; ok {
		return i
	}
	return -1
}
