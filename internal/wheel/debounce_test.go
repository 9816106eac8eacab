package wheel

import (
	"testing"
	"time"

	"datewheel/internal/model"

	"github.com/stretchr/testify/assert"
)

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualScheduler struct {
	timers []*manualTimer
	delays []time.Duration
}

func (s *manualScheduler) after(d time.Duration, fn func()) Timer {
	t := &manualTimer{fn: fn}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

func (s *manualScheduler) fireLive() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
			n++
		}
	}
	return n
}

func TestDebouncer_LastWriteWins(t *testing.T) {
	s := &manualScheduler{}
	d := NewDebouncer(0, s.after)

	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		d.Notify(model.FieldDay, func() { got = append(got, i) })
	}
	d.Notify(model.FieldHour, func() { got = append(got, 99) })

	assert.Equal(t, 2, s.fireLive())
	assert.ElementsMatch(t, []int{3, 99}, got)
	assert.Equal(t, DefaultDebounce, s.delays[0])
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	s := &manualScheduler{}
	d := NewDebouncer(50*time.Millisecond, s.after)
	fired := false
	d.Notify(model.FieldMinute, func() { fired = true })
	d.Stop()
	d.Notify(model.FieldMinute, func() { fired = true })

	assert.Equal(t, 0, s.fireLive())
	assert.False(t, fired)
}

func TestDebouncer_DrivesSettle(t *testing.T) {
	s := &manualScheduler{}
	d := NewDebouncer(0, s.after)
	p, tm, _ := newTestPresenter()

	for _, off := range []int{1000, 1040, 1080} {
		gen := p.Scroll(model.FieldMinute, off)
		d.Notify(model.FieldMinute, func() { p.Settle(model.FieldMinute, gen) })
	}
	s.fireLive()

	_, tok, _ := p.Centered(model.FieldMinute)
	got, ok := tm.Token(model.FieldMinute)
	assert.True(t, ok)
	assert.Equal(t, tok, got)
}
