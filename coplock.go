package ecscore

import "context"

// coopLock is a channel-based mutex that supports context-cancellable
// acquisition. It is the Go analogue of async_simple's cooperative spin
// lock: acquiring it only ever suspends the calling goroutine while
// blocked on the channel send/receive, it is never held across any other
// suspension point, and a cancelled context leaves no side effect as long
// as the cancellation is observed before the critical section runs.
type coopLock chan struct{}

func newCoopLock() coopLock {
	return make(coopLock, 1)
}

// lock blocks until the lock is acquired or ctx is done, whichever comes
// first. On success it returns a release function that must be called
// exactly once.
func (l coopLock) lock(ctx context.Context) (func(), error) {
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lockBlocking acquires the lock unconditionally, for the synchronous API
// that has no context to respect.
func (l coopLock) lockBlocking() func() {
	l <- struct{}{}
	return func() { <-l }
}
