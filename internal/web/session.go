package web

import (
	"log/slog"
	"sync"
	"time"

	"datewheel/internal/host"
	"datewheel/internal/locale"
	"datewheel/internal/model"
	"datewheel/internal/picker"
	"datewheel/internal/wheel"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	errSessionStarted    = errors.New("session already started")
	errSessionNotStarted = errors.New("session not started")
)

// session is one open picker page. mu serializes every presenter call,
// including those made from debounce timers.
type session struct {
	id   string
	cat  *locale.Catalog
	cal  model.Calendar
	box  *outbox
	log  *slog.Logger
	base *slog.Logger

	mu      sync.Mutex
	ctrl    *picker.Controller
	host    *pageHost
	deb     *wheel.Debouncer
	user    *telegramUser
	created time.Time
	touched time.Time
}

type startParams struct {
	HostAvailable bool
	User          *telegramUser
	Now           time.Time
	Wheel         wheel.Options
	Debounce      time.Duration
	After         wheel.AfterFunc
	CloseDelay    time.Duration
}

// start binds the controller once the page reports whether the chat-app
// runtime is present. Without it the page shows the host-unavailable error.
func (s *session) start(p startParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl != nil {
		return errSessionStarted
	}

	var h host.Host
	if p.HostAvailable {
		s.host = &pageHost{box: s.box, available: true, closeDelay: p.CloseDelay.Milliseconds()}
		h = s.host
	}
	s.user = p.User
	s.deb = wheel.NewDebouncer(p.Debounce, p.After)

	wopts := p.Wheel
	wopts.Logger = s.base
	s.ctrl = picker.New(h, pageView{box: s.box}, model.NewTimeModel(s.cal), picker.Options{
		Wheel:    wopts,
		Messages: picker.MessagesFrom(s.cat),
		Logger:   s.base,
	})
	return s.ctrl.Start(p.Now)
}

func (s *session) presenter() (*wheel.Presenter, error) {
	if s.ctrl == nil {
		return nil, errSessionNotStarted
	}
	return s.ctrl.Presenter(), nil
}

// scroll records a user scroll and (re)arms the column's settle timer.
func (s *session) scroll(f model.Field, offset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.presenter()
	if err != nil {
		return err
	}
	gen := p.Scroll(f, offset)
	s.deb.Notify(f, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		p.Settle(f, gen)
	})
	p.Arm(f, gen)
	return nil
}

// pick selects a tapped entry: it is scrolled to the centre and settled now.
func (s *session) pick(f model.Field, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.presenter()
	if err != nil {
		return err
	}
	col := p.Column(f)
	if index < 0 || index >= len(col.Seq) {
		return errors.Wrapf(model.ErrInvalidSelection, "%s: index %d out of range", f, index)
	}
	off := p.Geometry().OffsetFor(index, len(col.Seq))
	pageView{box: s.box}.ScrollTo(f, off)
	p.Settle(f, p.Scroll(f, off))
	return nil
}

func (s *session) setMeridiem(m model.Meridiem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.presenter()
	if err != nil {
		return err
	}
	p.SetMeridiem(m)
	return nil
}

// confirm presses the primary button. A disabled button still runs the
// confirm path so the incomplete-selection alert reaches the user.
func (s *session) confirm() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return false, errSessionNotStarted
	}
	if s.ctrl.Sent() {
		return true, picker.ErrAlreadySent
	}
	if s.host != nil && s.host.click() {
		return s.ctrl.Sent(), nil
	}
	err := s.ctrl.Confirm()
	return s.ctrl.Sent(), err
}

func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deb != nil {
		s.deb.Stop()
	}
}

type sessionStore struct {
	mu  sync.Mutex
	m   map[string]*session
	ttl time.Duration
	now func() time.Time
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{m: map[string]*session{}, ttl: ttl, now: now}
}

// create opens a session. log must not carry a component key: the session's
// base logger is handed to picker and wheel, which add their own.
func (st *sessionStore) create(cat *locale.Catalog, cal model.Calendar, log *slog.Logger) *session {
	id := uuid.NewString()
	now := st.now()
	base := log.With("session", id)
	s := &session{
		id:      id,
		cat:     cat,
		cal:     cal,
		box:     newOutbox(),
		log:     base.With("component", "web"),
		base:    base,
		created: now,
		touched: now,
	}
	st.mu.Lock()
	st.m[id] = s
	st.mu.Unlock()
	return s
}

func (st *sessionStore) get(id string) (*session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.m[id]
	if ok {
		s.touched = st.now()
	}
	return s, ok
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.m)
}

// reap drops sessions idle for longer than the TTL.
func (st *sessionStore) reap() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)
	var dead []*session
	st.mu.Lock()
	for id, s := range st.m {
		if s.touched.Before(cutoff) {
			dead = append(dead, s)
			delete(st.m, id)
		}
	}
	st.mu.Unlock()
	for _, s := range dead {
		s.stop()
	}
	return len(dead)
}
