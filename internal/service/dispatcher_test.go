package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherExecutesTasks(t *testing.T) {
	d := NewDispatcher(4, 64)

	var ran int64
	for i := 0; i < 20; i++ {
		d.Enqueue("count", func() error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}
	d.Stop()

	assert.Equal(t, int64(20), atomic.LoadInt64(&ran))
}

func TestDispatcherEnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, 1)

	block := make(chan struct{})
	d.Enqueue("blocker", func() error {
		<-block
		return nil
	})

	// Fill the queue and keep going; the extras must be dropped, not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Enqueue("overflow", func() error { return nil })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a saturated queue")
	}

	close(block)
	d.Stop()
}

func TestDispatcherEnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(1, 4)
	d.Stop()

	// A late producer drops its task instead of panicking on the closed queue
	assert.NotPanics(t, func() {
		d.Enqueue("late", func() error { return nil })
	})
}

func TestDispatcherSurvivesPanicsAndErrors(t *testing.T) {
	d := NewDispatcher(1, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	d.Enqueue("panics", func() error {
		panic("boom")
	})
	d.Enqueue("fails", func() error {
		return errors.New("task error")
	})
	d.Enqueue("runs", func() error {
		wg.Done()
		return nil
	})

	wg.Wait()
	d.Stop()
}
