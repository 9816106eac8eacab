package cli

import (
	"strings"
	"time"

	"datewheel/internal/model"

	"github.com/pkg/errors"
)

var errInvalidAt = errors.New("invalid --at")

var (
	atDateTimeLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		model.PayloadDateLayout + " " + model.PayloadTimeLayout,
	}
	atDateLayouts = []string{
		"2006-01-02",
		model.PayloadDateLayout,
	}
)

// parseAt reads a starting position for the wheels:
//   - RFC3339 (converted to now's location)
//   - YYYY-MM-DDTHH:MM, YYYY-MM-DD HH:MM, DD/MM/YYYY HH:MM
//   - YYYY-MM-DD or DD/MM/YYYY, keeping the clock of now
func parseAt(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := now.Location()
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range atDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range atDateLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), 0, 0, loc), nil
		}
	}
	return time.Time{}, errors.Wrapf(errInvalidAt, "%q (want RFC3339, YYYY-MM-DD[THH:MM] or DD/MM/YYYY[ HH:MM])", s)
}

// IsStartArg reports whether a bare argument is a start date for the picker.
func IsStartArg(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return false
	}
	_, err := parseAt(s, time.Now())
	return err == nil
}
