package governor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquireUserCeiling(t *testing.T) {
	const limit = 3
	g := New(limit, 10)

	var running, peak int64
	var wg sync.WaitGroup

	for i := 0; i < limit+5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.AcquireUser(context.Background())
			if err != nil {
				t.Errorf("AcquireUser error: %v", err)
				return
			}
			defer release()

			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&peak); got > limit {
		t.Fatalf("peak concurrency %d exceeds limit %d", got, limit)
	}
}

func TestAcquireUserRespectsContext(t *testing.T) {
	g := New(1, 1)

	release, err := g.AcquireUser(context.Background())
	if err != nil {
		t.Fatalf("AcquireUser error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := g.AcquireUser(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestDoReleasesSlotOnError(t *testing.T) {
	g := New(1, 1)
	boom := errors.New("boom")

	if err := g.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}

	// Slot must be free again: a second call should not block.
	done := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("transport slot leaked after error")
	}
}

func TestSerialGuardCollapsesToMutex(t *testing.T) {
	g := NewWithGuard(5, 5, &mutexGuard{})

	var inside, overlaps int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(context.Background(), func() error {
				if atomic.AddInt64(&inside, 1) > 1 {
					atomic.AddInt64(&overlaps, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if overlaps != 0 {
		t.Fatalf("serialized guard allowed %d overlapping calls", overlaps)
	}
}

func TestGuardForPlatform(t *testing.T) {
	if _, ok := guardForPlatform("darwin").(*mutexGuard); !ok {
		t.Fatal("darwin should serialize remote calls")
	}
	if _, ok := guardForPlatform("linux").(noopGuard); !ok {
		t.Fatal("linux should not serialize remote calls")
	}
}
