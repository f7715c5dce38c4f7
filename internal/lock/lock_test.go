package lock

import (
	"context"
	"sync"
	"testing"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	l := NewLocalLocker()

	var mu sync.Mutex
	var active, maxActive int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "notes")
			if err != nil {
				t.Errorf("acquire error: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("lock admitted %d concurrent holders for one key", maxActive)
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()

	releaseA, err := l.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	// A held lock on one key must not block another key.
	releaseB, err := l.Acquire(context.Background(), "b")
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	releaseB()
	releaseA()
}

func TestLocalLockerCleansUpIdleEntries(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "notes")
	if err != nil {
		t.Fatalf("acquire error: %v", err)
	}
	release()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) != 0 {
		t.Fatalf("expected idle entries to be removed, found %d", len(l.entries))
	}
}
