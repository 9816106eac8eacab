package host

import "errors"

// ErrHostUnavailable is returned when the embedding host capability is
// missing (for example the page was opened outside its chat client, or the
// terminal is not interactive).
var ErrHostUnavailable = errors.New("host unavailable")

// Host is the embedding runtime: a single primary button, a busy indicator,
// a one-shot payload channel, blocking alerts and session close.
type Host interface {
	Ready()

	SetButtonLabel(text string)
	ShowButton()
	HideButton()
	EnableButton()
	DisableButton()
	OnButtonClick(handler func())

	ShowProgress()
	HideProgress()

	SendPayload(data string) error
	Alert(message string)
	Close()
}

// Require resolves the host capability once. A nil host is unavailable.
func Require(h Host) (Host, error) {
	if h == nil {
		return nil, ErrHostUnavailable
	}
	if p, ok := h.(interface{ Available() bool }); ok && !p.Available() {
		return nil, ErrHostUnavailable
	}
	return h, nil
}
