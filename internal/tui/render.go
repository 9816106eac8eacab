package tui

import (
	"strconv"
	"strings"
	"time"

	"datewheel/internal/locale"
	"datewheel/internal/model"

	"github.com/charmbracelet/lipgloss"
)

func (m pickerModel) View() string {
	if m.view.err != "" {
		return styleError().Render(m.view.err) + "\n"
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", marginLeft))
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("datewheel"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", marginLeft))
	b.WriteString(styleMuted().Render(strings.Repeat(glyphHRule(), 6*(colWidth+colGap))))
	b.WriteString("\n")

	cols := make([]string, 0, meridiemColumn+2)
	cols = append(cols, strings.Repeat(" ", marginLeft))
	for i, f := range model.Fields() {
		cols = append(cols, m.renderColumn(i, f), " ")
	}
	cols = append(cols, m.renderMeridiem())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n\n")

	pad := strings.Repeat(" ", marginLeft)
	b.WriteString(pad + m.renderSummary() + "\n\n")
	b.WriteString(pad + m.renderButton() + "\n")
	if m.host.alert != "" {
		b.WriteString("\n" + pad + styleError().Render(m.host.alert) + "\n")
	}
	b.WriteString("\n" + pad + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m pickerModel) renderColumn(focusIdx int, f model.Field) string {
	p := m.presenter()
	col := p.Column(f)
	geo := p.Geometry()
	rows := m.rows()

	lines := make([]string, 0, rows+1)
	lines = append(lines, styleHeader(m.focus == focusIdx).Render(fitCell(m.cat.FieldTitle(f), colWidth)))

	offset := m.view.offsets[f]
	first := offset / geo.EntryHeight
	selected := m.view.selectedIndex(f)
	snap := m.ctrl.Model().Snapshot()
	for r := 0; r < rows; r++ {
		idx := first + r
		if idx < 0 || idx >= len(col.Seq) {
			lines = append(lines, fitCell("", colWidth))
			continue
		}
		tok := col.Seq[idx]
		text := tok
		if r == rows/2 {
			text = glyphPointer() + " " + tok
		}
		cell := fitCell(text, colWidth)
		switch {
		case idx == selected:
			cell = styleSelected().Render(cell)
		case r == rows/2:
			cell = styleCenter().Render(cell)
		case f == model.FieldDay && !tokenDayExists(tok, snap):
			cell = faintIfDark(styleMuted().Strikethrough(true)).Render(cell)
		default:
			cell = styleMuted().Render(cell)
		}
		lines = append(lines, cell)
	}
	return fitBlock(strings.Join(lines, "\n"), colWidth, rows+1)
}

func (m pickerModel) renderMeridiem() string {
	rows := m.rows()
	lines := []string{styleHeader(m.focus == meridiemColumn).Render(fitCell("AM/PM", colWidth))}
	for r := 0; r < rows; r++ {
		var mer model.Meridiem
		switch r {
		case rows/2 - 1:
			mer = model.AM
		case rows / 2:
			mer = model.PM
		default:
			lines = append(lines, fitCell("", colWidth))
			continue
		}
		cell := fitCell(mer.String(), colWidth)
		if m.view.meridiem == mer {
			cell = styleSelected().Render(cell)
		} else {
			cell = styleMuted().Render(cell)
		}
		lines = append(lines, cell)
	}
	return strings.Join(lines, "\n")
}

func (m pickerModel) renderSummary() string {
	if m.host.sent != nil {
		return styleOK().Render(m.cat.Msg(locale.MsgStatusSent))
	}
	s := m.view.summary
	if !s.Complete {
		return styleError().Render(m.cat.Msg(locale.MsgStatusIncomplete)) + "  " + styleMuted().Render(s.Text)
	}
	return m.cat.Msg(locale.MsgStatusSelected) + " " + lipgloss.NewStyle().Bold(true).Render(s.Text)
}

func (m pickerModel) renderButton() string {
	if !m.host.visible {
		return ""
	}
	label := m.host.label
	if m.host.busy {
		label += " " + glyphBusy()
	}
	return styleButton(m.host.enabled).Render(label)
}

func tokenDayExists(tok string, snap model.Snapshot) bool {
	d, err := strconv.Atoi(tok)
	if err != nil {
		return true
	}
	month := time.Month(0)
	if snap.Set[model.FieldMonth] {
		month = time.Month(snap.Month)
	}
	year := 0
	if snap.Set[model.FieldYear] {
		year = snap.Year
	}
	return dayExists(year, month, d)
}
