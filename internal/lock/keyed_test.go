package lock

import (
	"sync"
	"testing"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	k := NewKeyed()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d", counter, workers)
	}
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := NewKeyed()

	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()

	// Holding "a" must not block "b".
	<-done
	unlockA()
}

func TestKeyedReleaseAllowsReacquire(t *testing.T) {
	k := NewKeyed()

	unlock := k.Lock("a")
	unlock()
	unlock = k.Lock("a")
	unlock()
}

func TestKeyedEvictsIdleEntries(t *testing.T) {
	k := NewKeyed()

	for i := 0; i < 100; i++ {
		unlock := k.Lock(string(rune('a' + i%26)))
		unlock()
	}

	k.mu.Lock()
	size := len(k.locks)
	k.mu.Unlock()
	if size != 0 {
		t.Errorf("locks map holds %d idle entries, want 0", size)
	}
}

func TestKeyedKeepsEntryWhileContended(t *testing.T) {
	k := NewKeyed()

	unlockA := k.Lock("a")
	acquired := make(chan func())
	go func() {
		acquired <- k.Lock("a")
	}()

	// Wait until the second locker is registered as a waiter.
	for {
		k.mu.Lock()
		e, ok := k.locks["a"]
		waiting := ok && e.refs == 2
		k.mu.Unlock()
		if waiting {
			break
		}
	}

	unlockA()
	unlockB := <-acquired
	unlockB()

	k.mu.Lock()
	_, ok := k.locks["a"]
	k.mu.Unlock()
	if ok {
		t.Error("entry survived after its last holder released")
	}
}
