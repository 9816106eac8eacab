package webtui

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	initialCols = 100
	initialRows = 30
	writeWait   = 10 * time.Second
)

// controlMsg is a JSON text frame from the page. Any other frame is input.
type controlMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	return strings.HasSuffix(origin, "://"+strings.TrimSpace(r.Host))
}

// pickerProcess is one `datewheel pick` child attached to a pty.
type pickerProcess struct {
	cmd *exec.Cmd
	tty *os.File
}

func (s *Server) command() (*exec.Cmd, error) {
	exe := strings.TrimSpace(s.cfg.Executable)
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, errors.Wrap(err, "locate executable")
		}
	}
	cmd := exec.Command(exe, append([]string{"pick"}, s.cfg.Args...)...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
	return cmd, nil
}

func (s *Server) startPicker() (*pickerProcess, error) {
	cmd, err := s.command()
	if err != nil {
		return nil, err
	}
	tty, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: initialCols, Rows: initialRows})
	if err != nil {
		return nil, errors.Wrap(err, "start pty")
	}
	return &pickerProcess{cmd: cmd, tty: tty}, nil
}

func (p *pickerProcess) resize(cols, rows int) {
	if cols <= 0 || rows <= 0 || cols > 1000 || rows > 1000 {
		return
	}
	_ = pty.Setsize(p.tty, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// stop kills the child if it is still running and reaps it.
func (p *pickerProcess) stop() {
	_ = p.tty.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_, _ = p.cmd.Process.Wait()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		return
	}
	defer conn.Close()

	proc, err := s.startPicker()
	if err != nil {
		s.log.Error("start picker", "error", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start picker: "+err.Error()+"\r\n"))
		return
	}
	defer proc.stop()
	log := s.log.With("pid", proc.cmd.Process.Pid)
	log.Info("terminal session started")

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return copyOutput(conn, proc.tty) })
	g.Go(func() error { return copyInput(ctx, conn, proc) })
	// The first side to finish ends the session: stopping the child unblocks
	// the pty read and closing the socket unblocks the websocket read.
	g.Go(func() error {
		<-ctx.Done()
		proc.stop()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "picker exited"),
			time.Now().Add(time.Second))
		return conn.Close()
	})
	if err := g.Wait(); err != nil {
		log.Debug("terminal session ended", "error", err)
	}
}

// copyOutput streams pty output to the page until the child exits; the read
// error (EIO or EOF) ends the session.
func copyOutput(conn *websocket.Conn, tty io.Reader) error {
	buf := make([]byte, 16*1024)
	for {
		n, err := tty.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}
}

func copyInput(ctx context.Context, conn *websocket.Conn, proc *pickerProcess) error {
	for ctx.Err() == nil {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		if mt == websocket.TextMessage && data[0] == '{' {
			var m controlMsg
			if json.Unmarshal(data, &m) == nil && strings.EqualFold(m.Type, "resize") {
				proc.resize(m.Cols, m.Rows)
				continue
			}
		}
		if _, err := proc.tty.Write(data); err != nil {
			return err
		}
	}
	return ctx.Err()
}
