package model

import (
	"strconv"
	"strings"
)

type Field int

const (
	FieldDay Field = iota
	FieldMonth
	FieldYear
	FieldHour
	FieldMinute
)

var fieldNames = [...]string{
	FieldDay:    "day",
	FieldMonth:  "month",
	FieldYear:   "year",
	FieldHour:   "hour",
	FieldMinute: "minute",
}

// Fields returns every picker field in display order.
func Fields() []Field {
	return []Field{FieldDay, FieldMonth, FieldYear, FieldHour, FieldMinute}
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

func (f Field) Valid() bool {
	return f >= FieldDay && f <= FieldMinute
}

func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range fieldNames {
		if name == s {
			return Field(i), true
		}
	}
	return 0, false
}

type Meridiem int

const (
	AM Meridiem = iota
	PM
)

func (m Meridiem) String() string {
	if m == PM {
		return "PM"
	}
	return "AM"
}

func (m Meridiem) Other() Meridiem {
	if m == PM {
		return AM
	}
	return PM
}

// MeridiemFor derives the meridiem of a canonical (0-23) hour.
func MeridiemFor(hour24 int) Meridiem {
	if hour24 < 12 {
		return AM
	}
	return PM
}

func ParseMeridiem(s string) (Meridiem, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AM", "A":
		return AM, true
	case "PM", "P":
		return PM, true
	default:
		return AM, false
	}
}

// Calendar describes the valid token set of every field.
type Calendar struct {
	// Months holds the twelve month tokens in calendar order (locale specific).
	Months  [12]string
	YearMin int
	YearMax int
}

// DefaultMonths are the English three-letter month tokens.
var DefaultMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func DefaultCalendar(yearMin, yearMax int) Calendar {
	return Calendar{Months: DefaultMonths, YearMin: yearMin, YearMax: yearMax}
}

// Tokens returns the natural cycle of a field. The hour cycle is the 12h
// display cycle (01..12).
func (c Calendar) Tokens(f Field) []string {
	switch f {
	case FieldDay:
		return numberTokens(1, 31, 2)
	case FieldMonth:
		out := make([]string, len(c.Months))
		copy(out, c.Months[:])
		return out
	case FieldYear:
		if c.YearMax < c.YearMin {
			return nil
		}
		return numberTokens(c.YearMin, c.YearMax, 4)
	case FieldHour:
		return numberTokens(1, 12, 2)
	case FieldMinute:
		return numberTokens(0, 59, 2)
	default:
		return nil
	}
}

func (c Calendar) monthIndex(token string) int {
	token = strings.TrimSpace(token)
	for i, m := range c.Months {
		if m == token {
			return i + 1
		}
	}
	return 0
}

func numberTokens(from, to, width int) []string {
	out := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, pad(n, width))
	}
	return out
}

func pad(n, width int) string {
	if n < 0 {
		n = 0
	}
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// Fmt2 formats n as a zero-padded two digit token.
func Fmt2(n int) string { return pad(n, 2) }
