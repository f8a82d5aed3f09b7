// Package session holds the single live FTP handle of a connection
// manager behind an exclusive-access guard.
//
// A Slot is the only place the handle lives.  Callers reach it through
// [Slot.Do], which serializes every access: at most one callback runs
// at a time, and the handle's presence always reflects whether a
// session is active.
package session

import (
	"context"

	"golang.org/x/sync/semaphore"

	"ftpc/internal/transport"
)

// Slot is a mutex-guarded optional transport.Conn.  The zero value is
// not usable; call [New].
type Slot struct {
	sem  *semaphore.Weighted
	conn transport.Conn
}

// New returns an empty slot.
func New() *Slot {
	return &Slot{sem: semaphore.NewWeighted(1)}
}

// Guard is the view of a Slot handed to a [Slot.Do] callback.  It must
// not be retained past the callback's return.
type Guard struct {
	s *Slot
}

// Conn returns the current handle, or nil.
func (g *Guard) Conn() transport.Conn { return g.s.conn }

// Active reports whether a handle is present.
func (g *Guard) Active() bool { return g.s.conn != nil }

// Store installs c as the handle.
func (g *Guard) Store(c transport.Conn) { g.s.conn = c }

// Take removes and returns the handle, leaving the slot empty.
func (g *Guard) Take() transport.Conn {
	c := g.s.conn
	g.s.conn = nil
	return c
}

// Do acquires exclusive access, runs fn, and releases.  Waiters are
// admitted in FIFO order.
//
// fn runs on its own goroutine.  If ctx ends while waiting for the
// lock, fn never runs and ctx.Err() is returned.  If ctx ends while fn
// is running, Do returns ctx.Err() immediately but the lock stays held
// until fn returns: an in-flight network call is never preempted.
func (s *Slot) Do(ctx context.Context, fn func(g *Guard) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer s.sem.Release(1)
		done <- fn(&Guard{s: s})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		default:
			return ctx.Err()
		}
	}
}

// Active reports whether a handle is present.  It waits for any running
// operation to finish.
func (s *Slot) Active() bool {
	var active bool
	// Background never ends, so Do cannot fail here.
	_ = s.Do(context.Background(), func(g *Guard) error {
		active = g.Active()
		return nil
	})
	return active
}
