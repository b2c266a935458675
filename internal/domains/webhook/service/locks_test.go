package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLocksSerializeSameKey(t *testing.T) {
	locks := newKeyedLocks()

	const goroutines = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire(7)
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)

	// All entries were refcounted away.
	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}

func TestKeyedLocksIndependentKeysDoNotBlock(t *testing.T) {
	locks := newKeyedLocks()

	release := locks.Acquire(1)
	defer release()

	done := make(chan struct{})
	go func() {
		other := locks.Acquire(2)
		other()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unrelated key blocked behind a held lock")
	}
}

func TestKeyedLocksBlockUntilReleased(t *testing.T) {
	locks := newKeyedLocks()

	release := locks.Acquire(1)

	acquired := make(chan struct{})
	go func() {
		second := locks.Acquire(1)
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never woke up after release")
	}
}
