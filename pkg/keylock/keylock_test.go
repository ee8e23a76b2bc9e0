package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	var (
		l       KeyLock
		wg      sync.WaitGroup
		counter int
	)

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("customer")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, l.size())
}

func TestKeyLockIndependentKeys(t *testing.T) {
	var l KeyLock

	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	assert.Zero(t, l.size())
}

func TestKeyLockUnlockIsIdempotent(t *testing.T) {
	var l KeyLock

	unlock := l.Lock("a")
	unlock()
	unlock()

	unlock = l.Lock("a")
	unlock()
	assert.Zero(t, l.size())
}
