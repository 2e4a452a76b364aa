package balance

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

var errScriptDone = errors.New("script exhausted")

// step is one Read result. An empty data step is a read timeout and moves the
// clock by wait (one read timeout when zero).
type step struct {
	data string
	wait time.Duration
	err  error
}

func data(s string) step { return step{data: s} }

func idle() step { return step{} }

func idleFor(d time.Duration) step { return step{wait: d} }

func failWith(err error) step { return step{err: err} }

func frame(lines ...string) []step {
	var steps []step
	for _, l := range lines {
		steps = append(steps, data(l+"\r\n"))
	}
	return append(steps, idle())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedPort replays steps on Read and records everything written
type scriptedPort struct {
	clock       *fakeClock
	readTimeout time.Duration
	steps       []step

	written  bytes.Buffer
	writeErr error
	flushes  int
}

func newScriptedPort(clock *fakeClock, steps ...step) *scriptedPort {
	return &scriptedPort{clock: clock, readTimeout: 100 * time.Millisecond, steps: steps}
}

func (p *scriptedPort) push(steps ...step) {
	p.steps = append(p.steps, steps...)
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if len(p.steps) == 0 {
		return 0, errScriptDone
	}
	s := p.steps[0]

	if s.err != nil {
		p.steps = p.steps[1:]
		return 0, s.err
	}
	if s.data == "" {
		p.steps = p.steps[1:]
		wait := s.wait
		if wait == 0 {
			wait = p.readTimeout
		}
		p.clock.Advance(wait)
		return 0, nil
	}

	n := copy(b, s.data)
	if n < len(s.data) {
		p.steps[0].data = s.data[n:]
	} else {
		p.steps = p.steps[1:]
	}
	p.clock.Advance(time.Millisecond)
	return n, nil
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.Write(b)
}

func (p *scriptedPort) FlushInput() error {
	p.flushes++
	return nil
}
