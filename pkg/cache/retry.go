package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnreachable marks a cluster host that could not be dialed. Listings
// behind such a host are served from the cache or reported empty.
var ErrUnreachable = errors.New("host unreachable")

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth another attempt. Nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked by
// [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Backoff retries transient failures with a doubling delay.
type Backoff struct {
	Attempts int           // total calls, including the first; <1 means 3
	Delay    time.Duration // wait before the second call
}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. A cancelled ctx ends the wait with ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 3
	}
	delay := b.Delay

	err := fn()
	for n := 1; n < attempts && IsTransient(err); n++ {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		err = fn()
	}
	return err
}
