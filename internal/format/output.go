// Package format writes CLI results as json or edn.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	JSON = "json"
	EDN  = "edn"
)

var ErrUnknownFormat = errors.New("unknown format")

// Formats lists the accepted --format values.
func Formats() []string { return []string{JSON, EDN} }

// Validate normalizes a --format value, treating empty as json.
func Validate(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		return JSON, nil
	case JSON, EDN:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q (want %s)", format, strings.Join(Formats(), "|"))
}

// Write encodes v in the requested format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, err := Validate(format)
	if err != nil {
		return err
	}
	if f == EDN {
		return WriteEDN(w, v, pretty)
	}
	return WriteJSON(w, v, pretty)
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
