package service

import (
	"log"
	"sync"
)

// sideEffectTask is one queued side effect (notification, virality check,
// reconciliation pass, ...)
type sideEffectTask struct {
	name string
	run  func() error
}

// Dispatcher decouples interactive operations from their side effects. The
// producer hands off an intent and returns immediately; worker goroutines own
// execution and all failure handling. Delivery is at-most-once: a failed or
// dropped task is logged, never retried, and never reaches the caller.
type Dispatcher struct {
	tasks   chan sideEffectTask
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}

	d := &Dispatcher{
		tasks: make(chan sideEffectTask, queueSize),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Enqueue hands a side effect to the workers. Never blocks: when the queue is
// saturated, or the dispatcher is already stopped, the task is dropped and
// logged. The read lock spans the send so Stop cannot close the channel while
// a send is in flight.
func (d *Dispatcher) Enqueue(name string, run func() error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		log.Printf("Dispatcher stopped, dropping task: %s", name)
		return
	}
	select {
	case d.tasks <- sideEffectTask{name: name, run: run}:
	default:
		log.Printf("Side-effect queue full, dropping task: %s", name)
	}
}

// Stop drains the queue and waits for the workers to finish. Enqueue calls
// racing or following Stop drop their task instead of panicking on the closed
// channel.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.tasks)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.tasks {
		d.execute(task)
	}
}

func (d *Dispatcher) execute(task sideEffectTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Side effect %s panicked: %v", task.name, r)
		}
	}()

	if err := task.run(); err != nil {
		log.Printf("Side effect %s failed: %v", task.name, err)
	}
}
