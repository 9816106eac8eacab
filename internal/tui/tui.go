// Package tui is the terminal host for the wheel picker: five scrollable
// columns plus an AM/PM toggle, with the primary button bound to enter.
package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"datewheel/internal/locale"
	"datewheel/internal/model"
	"datewheel/internal/wheel"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Calendar model.Calendar
	Catalog  *locale.Catalog
	Wheel    wheel.Options
	Debounce time.Duration
	// Start seeds the wheels; the zero time leaves every field unset.
	Start time.Time
	// Interactive is false when stdin/stdout are not a terminal, in which
	// case the picker refuses to start.
	Interactive bool
	Logger      *slog.Logger
	Now         func() time.Time

	Input  io.Reader
	Output io.Writer
}

// Result is what the picker delivered. Sent is false when the user cancelled.
type Result struct {
	Sent    bool
	Payload model.Payload
	Raw     string
}

func Run(ctx context.Context, opts Options) (Result, error) {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	m := newPickerModel(opts)
	if m.startErr != nil {
		return Result{}, m.startErr
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	final, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil {
		return Result{}, err
	}
	if fm, ok := final.(pickerModel); ok {
		return fm.result(), nil
	}
	return Result{}, nil
}
