package keymutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_KeyedMutex_SameKeyIsSerialized(t *testing.T) {

	mutexes := New()

	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := mutexes.Lock("APP-001")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
	assert.Equal(t, 1, mutexes.Len())
}

func Test_KeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {

	mutexes := New()

	unlockFirst := mutexes.Lock("APP-001")
	defer unlockFirst()

	done := make(chan struct{})
	go func() {
		unlock := mutexes.Lock("APP-002")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "lock for a different key blocked")
	}

	assert.Equal(t, 2, mutexes.Len())
}
