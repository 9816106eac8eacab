package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimeModel owns the canonical picker selection.
//
// The hour is stored once, as a 0-23 value. The 12h display value is always
// derived through Hour12, and the meridiem is re-derived from the canonical
// hour on every mutation that touches either of them.
type TimeModel struct {
	cal Calendar

	day      int
	month    int
	year     int
	hour     int
	minute   int
	meridiem Meridiem

	set map[Field]bool
}

func NewTimeModel(cal Calendar) *TimeModel {
	return &TimeModel{cal: cal, set: map[Field]bool{}}
}

func (m *TimeModel) Calendar() Calendar { return m.cal }

// SetField assigns day, month, year or minute from one of the field's tokens.
func (m *TimeModel) SetField(f Field, token string) error {
	token = strings.TrimSpace(token)
	switch f {
	case FieldDay:
		n, ok := parseToken(token, 1, 31, 2)
		if !ok {
			return invalid(f, token)
		}
		m.day = n
	case FieldMonth:
		n := m.cal.monthIndex(token)
		if n == 0 {
			return invalid(f, token)
		}
		m.month = n
	case FieldYear:
		n, ok := parseToken(token, m.cal.YearMin, m.cal.YearMax, 4)
		if !ok {
			return invalid(f, token)
		}
		m.year = n
	case FieldMinute:
		n, ok := parseToken(token, 0, 59, 2)
		if !ok {
			return invalid(f, token)
		}
		m.minute = n
	case FieldHour:
		return errors.Wrap(ErrInvalidSelection, "hour must be set through SetHour12")
	default:
		return invalid(f, token)
	}
	m.set[f] = true
	return nil
}

// SetHour12 converts a 1-12 display hour to the canonical 24h hour.
// 12 AM is midnight (0) and 12 PM is noon (12).
func (m *TimeModel) SetHour12(hour12 int, mer Meridiem) error {
	if hour12 < 1 || hour12 > 12 {
		return invalid(FieldHour, strconv.Itoa(hour12))
	}
	h := hour12 % 12
	if mer == PM {
		h += 12
	}
	m.hour = h
	m.meridiem = MeridiemFor(h)
	m.set[FieldHour] = true
	return nil
}

// SetMeridiem moves the canonical hour across the noon boundary while keeping
// the clock face position. It reports whether anything changed.
func (m *TimeModel) SetMeridiem(mer Meridiem) bool {
	if mer == m.meridiem {
		return false
	}
	m.meridiem = mer
	if !m.set[FieldHour] {
		return true
	}
	if mer == PM {
		m.hour += 12
	} else {
		m.hour -= 12
	}
	return true
}

func (m *TimeModel) Meridiem() Meridiem { return m.meridiem }

// Hour returns the canonical 0-23 hour.
func (m *TimeModel) Hour() (int, bool) { return m.hour, m.set[FieldHour] }

// Hour12 is the only place the 12h display hour is computed.
func (m *TimeModel) Hour12() (int, bool) {
	if !m.set[FieldHour] {
		return 0, false
	}
	h := m.hour % 12
	if h == 0 {
		h = 12
	}
	return h, true
}

func (m *TimeModel) IsSet(f Field) bool { return m.set[f] }

func (m *TimeModel) Complete() bool {
	for _, f := range Fields() {
		if !m.set[f] {
			return false
		}
	}
	return true
}

// Token returns the display token currently selected for a field.
func (m *TimeModel) Token(f Field) (string, bool) {
	if !m.set[f] {
		return "", false
	}
	switch f {
	case FieldDay:
		return pad(m.day, 2), true
	case FieldMonth:
		return m.cal.Months[m.month-1], true
	case FieldYear:
		return pad(m.year, 4), true
	case FieldHour:
		h, _ := m.Hour12()
		return pad(h, 2), true
	case FieldMinute:
		return pad(m.minute, 2), true
	}
	return "", false
}

// SetTime seeds every field from a wall-clock time. Years outside the
// calendar range are clamped to the nearest bound.
func (m *TimeModel) SetTime(t time.Time) {
	y := t.Year()
	if y < m.cal.YearMin {
		y = m.cal.YearMin
	}
	if y > m.cal.YearMax {
		y = m.cal.YearMax
	}
	m.day = t.Day()
	m.month = int(t.Month())
	m.year = y
	m.hour = t.Hour()
	m.minute = t.Minute()
	m.meridiem = MeridiemFor(m.hour)
	for _, f := range Fields() {
		m.set[f] = true
	}
}

type Summary struct {
	Text     string
	Complete bool
}

// Summary renders "<day> <month> <year> - <hour12>:<minute> <meridiem>".
// Missing fields render as "--"; callers must check Complete rather than
// inspect the text.
func (m *TimeModel) Summary() Summary {
	tok := func(f Field) string {
		if s, ok := m.Token(f); ok {
			return s
		}
		return "--"
	}
	text := fmt.Sprintf("%s %s %s - %s:%s %s",
		tok(FieldDay), tok(FieldMonth), tok(FieldYear),
		tok(FieldHour), tok(FieldMinute), m.meridiem)
	return Summary{Text: text, Complete: m.Complete()}
}

// Payload serializes the canonical fields. The time is always 24h.
func (m *TimeModel) Payload() (Payload, error) {
	if !m.Complete() {
		var missing []string
		for _, f := range Fields() {
			if !m.set[f] {
				missing = append(missing, f.String())
			}
		}
		return Payload{}, errors.Wrapf(ErrIncompleteSelection, "missing %s", strings.Join(missing, ", "))
	}
	return Payload{
		Date: pad(m.day, 2) + "/" + pad(m.month, 2) + "/" + pad(m.year, 4),
		Time: pad(m.hour, 2) + ":" + pad(m.minute, 2),
	}, nil
}

type Snapshot struct {
	Day      int
	Month    int
	Year     int
	Hour     int
	Minute   int
	Meridiem Meridiem
	Set      map[Field]bool
}

func (m *TimeModel) Snapshot() Snapshot {
	set := make(map[Field]bool, len(m.set))
	for k, v := range m.set {
		set[k] = v
	}
	return Snapshot{
		Day:      m.day,
		Month:    m.month,
		Year:     m.year,
		Hour:     m.hour,
		Minute:   m.minute,
		Meridiem: m.meridiem,
		Set:      set,
	}
}

func parseToken(s string, lo, hi, width int) (int, bool) {
	if len(s) != width {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func invalid(f Field, token string) error {
	return errors.Wrapf(ErrInvalidSelection, "%s: %q", f, token)
}
