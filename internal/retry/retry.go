// Package retry drives idempotent reads through an explicit attempt/wait
// state machine with a fixed exponential schedule (no jitter).
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// State of a retry machine
type State int

const (
	Attempting State = iota
	Waiting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Waiting:
		return "waiting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Schedule is the backoff plan: MaxRetries+1 attempts, waiting
// InitialDelay*2^n after failed attempt n (zero-based)
type Schedule struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// Attempts is the total number of attempts the schedule allows
func (s Schedule) Attempts() int {
	if s.MaxRetries < 0 {
		return 1
	}
	return s.MaxRetries + 1
}

// Delay is the wait after failed attempt n
func (s Schedule) Delay(attempt int) time.Duration {
	return s.InitialDelay * time.Duration(uint64(1)<<uint(attempt))
}

// Machine tracks one retry loop. It does no I/O and never sleeps; callers
// report outcomes and perform the waits it asks for.
type Machine struct {
	schedule Schedule
	state    State
	attempt  int
	delay    time.Duration
	err      error
}

// NewMachine starts in Attempting(0)
func NewMachine(s Schedule) *Machine {
	return &Machine{schedule: s, state: Attempting}
}

// State returns the current state
func (m *Machine) State() State { return m.state }

// Attempt returns the zero-based index of the current (or last) attempt
func (m *Machine) Attempt() int { return m.attempt }

// Delay returns the wait requested in the Waiting state
func (m *Machine) Delay() time.Duration { return m.delay }

// Err returns the error of the last failed attempt
func (m *Machine) Err() error { return m.err }

// Succeed records a successful attempt
func (m *Machine) Succeed() State {
	if m.state == Attempting {
		m.state = Succeeded
		m.err = nil
	}
	return m.state
}

// Fail records a failed attempt. Non-retryable errors and the last allowed
// attempt go to Failed; anything else goes to Waiting.
func (m *Machine) Fail(err error, retryable bool) State {
	if m.state != Attempting {
		return m.state
	}
	m.err = err

	if !retryable || m.attempt+1 >= m.schedule.Attempts() {
		m.state = Failed
		return m.state
	}

	m.delay = m.schedule.Delay(m.attempt)
	m.state = Waiting
	return m.state
}

// Resume leaves Waiting for the next attempt
func (m *Machine) Resume() State {
	if m.state == Waiting {
		m.attempt++
		m.delay = 0
		m.state = Attempting
	}
	return m.state
}

// Policy configures Run
type Policy struct {
	Schedule  Schedule
	Retryable func(error) bool
	Clock     clockwork.Clock
	OnRetry   func(attempt int, err error, delay time.Duration)
}

// Run executes op under the machine. It returns op's value on success, or the
// error of the final failed attempt. A cancelled context during a wait ends
// the loop with the context's error.
func Run[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(error) bool { return false }
	}

	var zero T
	m := NewMachine(p.Schedule)

	for {
		switch m.State() {
		case Attempting:
			val, err := op(ctx)
			if err == nil {
				m.Succeed()
				return val, nil
			}
			m.Fail(err, retryable(err))

		case Waiting:
			if p.OnRetry != nil {
				p.OnRetry(m.Attempt(), m.Err(), m.Delay())
			}
			select {
			case <-clock.After(m.Delay()):
				m.Resume()
			case <-ctx.Done():
				return zero, ctx.Err()
			}

		case Failed:
			return zero, m.Err()

		default:
			return zero, fmt.Errorf("retry: unexpected state %s", m.State())
		}
	}
}
