// Package governor bounds all remote-facing concurrency in one place.
// Nothing in this codebase may call a remote API without going through it.
package governor

import (
	"context"
	"runtime"
	"sync"
)

// SerialGuard optionally serializes remote calls. On platforms where the
// shared TLS transport corrupts state under parallel use it collapses to a
// mutex; everywhere else it is a no-op so interactive requests are never
// starved by background sync.
type SerialGuard interface {
	Lock()
	Unlock()
}

type noopGuard struct{}

func (noopGuard) Lock()   {}
func (noopGuard) Unlock() {}

type mutexGuard struct {
	mu sync.Mutex
}

func (g *mutexGuard) Lock()   { g.mu.Lock() }
func (g *mutexGuard) Unlock() { g.mu.Unlock() }

// Governor owns the process-wide limits:
// a user slot pool for deep syncs and an in-flight cap for remote calls.
type Governor struct {
	userSlots chan struct{}
	apiSlots  chan struct{}
	guard     SerialGuard
}

// New builds a Governor with the given limits. The serialization guard is
// selected once at startup based on the runtime environment.
func New(deepSyncLimit, apiCallLimit int) *Governor {
	if deepSyncLimit <= 0 {
		deepSyncLimit = 5
	}
	if apiCallLimit <= 0 {
		apiCallLimit = 10
	}
	return &Governor{
		userSlots: make(chan struct{}, deepSyncLimit),
		apiSlots:  make(chan struct{}, apiCallLimit),
		guard:     guardForPlatform(runtime.GOOS),
	}
}

// NewWithGuard is New with an explicit guard, used by tests.
func NewWithGuard(deepSyncLimit, apiCallLimit int, guard SerialGuard) *Governor {
	g := New(deepSyncLimit, apiCallLimit)
	g.guard = guard
	return g
}

func guardForPlatform(goos string) SerialGuard {
	// darwin is the one environment where the shared TLS state is known to
	// corrupt under parallel Google API calls.
	if goos == "darwin" {
		return &mutexGuard{}
	}
	return noopGuard{}
}

// AcquireUser claims a deep-sync slot, blocking until one is free or the
// context is cancelled. The returned release function must always be called.
func (g *Governor) AcquireUser(ctx context.Context) (func(), error) {
	select {
	case g.userSlots <- struct{}{}:
		return func() { <-g.userSlots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do runs fn while holding a transport slot and the serialization guard.
// The slot is released unconditionally, including when fn fails.
func (g *Governor) Do(ctx context.Context, fn func() error) error {
	select {
	case g.apiSlots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.apiSlots }()

	g.guard.Lock()
	defer g.guard.Unlock()

	return fn()
}

// UserSlotsInUse reports how many deep-sync slots are currently held.
func (g *Governor) UserSlotsInUse() int {
	return len(g.userSlots)
}
