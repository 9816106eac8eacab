package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"datewheel/internal/locale"
	"datewheel/internal/model"

	"github.com/starfederation/datastar-go/datastar"
)

type summaryVM struct {
	Label    string
	Text     string
	Complete bool
	Error    string
}

// handleEvents streams page updates for one session. A new stream starts
// from a snapshot of the current state, then follows queued commands.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sse := datastar.NewSSE(w, r)

	snap := sess.box.resync()
	s.emitSnapshot(sse, sess, snap)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-sess.box.notify:
			for _, c := range sess.box.drain() {
				if err := s.emit(sse, sess, c); err != nil {
					sess.log.Debug("event stream write failed", "error", err)
					return
				}
				sess.box.ack(c)
			}
		}
	}
}

func (s *Server) emitSnapshot(sse *datastar.ServerSentEventGenerator, sess *session, snap snapshot) {
	b := snap.button
	_ = s.emit(sse, sess, command{Kind: cmdButton, Button: &b})
	for _, f := range model.Fields() {
		if off, ok := snap.offsets[f]; ok {
			_ = s.emit(sse, sess, command{Kind: cmdScroll, Field: f.String(), Offset: off})
		}
		if idx, ok := snap.selected[f]; ok {
			_ = s.emit(sse, sess, command{Kind: cmdMark, Field: f.String(), Index: idx})
		}
	}
	_ = s.emit(sse, sess, command{Kind: cmdMeridiem, Text: snap.meridiem.String()})
	if snap.err != "" {
		_ = s.emit(sse, sess, command{Kind: cmdError, Text: snap.err})
	} else {
		_ = s.emit(sse, sess, command{Kind: cmdSummary, Text: snap.summary.Text, Complete: snap.summary.Complete})
	}
	for _, c := range snap.oneShots {
		if err := s.emit(sse, sess, c); err != nil {
			return
		}
		sess.box.ack(c)
	}
	if snap.closed {
		_ = s.emit(sse, sess, command{Kind: cmdClose, DelayMS: s.cfg.CloseDelay.Milliseconds()})
	}
}

func (s *Server) emit(sse *datastar.ServerSentEventGenerator, sess *session, c command) error {
	switch c.Kind {
	case cmdSummary, cmdError:
		vm := summaryVM{Text: c.Text, Complete: c.Complete}
		switch {
		case c.Kind == cmdError:
			vm = summaryVM{Error: c.Text}
		case c.Complete:
			vm.Label = sess.cat.Msg(locale.MsgStatusSelected)
		default:
			vm.Label = sess.cat.Msg(locale.MsgStatusIncomplete)
		}
		html, err := s.renderTemplate("summary", vm)
		if err != nil {
			return sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
		}
		return sse.PatchElements(html, datastar.WithSelector("#summary"), datastar.WithMode(datastar.ElementPatchModeOuter))
	case cmdButton:
		if c.Button == nil {
			return nil
		}
		return sse.MarshalAndPatchSignals(map[string]any{"button": c.Button})
	case cmdSend:
		c.Text = sess.cat.Msg(locale.MsgStatusSent)
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return sse.ExecuteScript(fmt.Sprintf("DW.apply(%s)", b))
}
