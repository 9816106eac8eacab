package cli

import (
	"io"
	"strings"
	"time"

	"datewheel/internal/model"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPayloadCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Work with picker payloads on the receiving side",
	}
	cmd.AddCommand(newPayloadDecodeCmd(app))
	return cmd
}

type decodedPayload struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	RFC3339 string `json:"rfc3339"`
	Weekday string `json:"weekday"`
	Unix    int64  `json:"unix"`
}

func newPayloadDecodeCmd(app *App) *cobra.Command {
	var tz string
	cmd := &cobra.Command{
		Use:   "decode [json|-]",
		Short: "Validate a payload and resolve it to a point in time",
		Long: strings.TrimSpace(`
Decode the message a chat bot receives from the picker
({"date":"DD/MM/YYYY","time":"HH:MM"}). Impossible dates such as 31/02 are
rejected. Reads stdin when the argument is omitted or "-".
`),
		Example: strings.TrimSpace(`
datewheel payload decode '{"date":"19/11/2025","time":"14:25"}'
echo '{"date":"19/11/2025","time":"14:25"}' | datewheel payload decode --tz America/Caracas
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 && args[0] != "-" {
				raw = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "read payload")
				}
				raw = string(b)
			}

			loc := app.Now().Location()
			if tz = strings.TrimSpace(tz); tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return errors.Wrapf(err, "--tz %q", tz)
				}
				loc = l
			}

			p, err := model.ParsePayload(raw)
			if err != nil {
				return err
			}
			at, err := p.At(loc)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": decodedPayload{
				Date:    p.Date,
				Time:    p.Time,
				RFC3339: at.Format(time.RFC3339),
				Weekday: at.Weekday().String(),
				Unix:    at.Unix(),
			}})
		},
	}
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone for the wall-clock payload (default: local)")
	return cmd
}
