package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	PayloadDateLayout = "02/01/2006"
	PayloadTimeLayout = "15:04"
)

// Payload is the message handed to the host: a DD/MM/YYYY date and a
// 24h HH:MM time.
type Payload struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "encode payload")
	}
	return string(b), nil
}

// At resolves the payload to a wall-clock time in loc. Impossible calendar
// dates (31/02) are rejected rather than normalized.
func (p Payload) At(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(PayloadDateLayout+" "+PayloadTimeLayout, p.Date+" "+p.Time, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidPayload, "%s %s: %v", p.Date, p.Time, err)
	}
	return t, nil
}

// ParsePayload decodes a payload received from the host.
func ParsePayload(data string) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, errors.Wrapf(ErrInvalidPayload, "decode: %v", err)
	}
	p.Date = strings.TrimSpace(p.Date)
	p.Time = strings.TrimSpace(p.Time)
	if len(p.Date) != len("DD/MM/YYYY") || len(p.Time) != len("HH:MM") {
		return Payload{}, errors.Wrapf(ErrInvalidPayload, "unexpected shape %q %q", p.Date, p.Time)
	}
	if _, err := p.At(time.UTC); err != nil {
		return Payload{}, err
	}
	return p, nil
}
