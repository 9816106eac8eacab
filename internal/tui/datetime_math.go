package tui

import "time"

func daysInMonth(y int, m time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dayExists reports whether day d fits the month and year. Unknown months
// accept every day; the picker never rejects a day, it only dims it.
func dayExists(y int, m time.Month, d int) bool {
	if m < time.January || m > time.December {
		return true
	}
	if y <= 0 {
		y = 2000 // leap year: 29 Feb stays valid until a year is chosen
	}
	return d >= 1 && d <= daysInMonth(y, m)
}
