package cart

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is one best-effort remote reconciliation step.
type Task struct {
	Label string
	Do    func(ctx context.Context) error
}

// Outbox runs mirror-sync tasks on a single worker. Local cart state is
// authoritative: a task that fails is logged and dropped, never retried
// and never rolled back into the cart.
type Outbox struct {
	tasks   chan Task
	timeout time.Duration
	pending sync.WaitGroup
	once    sync.Once
	done    chan struct{}
}

func NewOutbox(buffer int, timeout time.Duration) *Outbox {
	if buffer <= 0 {
		buffer = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	o := &Outbox{
		tasks:   make(chan Task, buffer),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *Outbox) run() {
	for t := range o.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		if err := t.Do(ctx); err != nil {
			log.Printf("[cart] sync %s failed: %v", t.Label, err)
		}
		cancel()
		o.pending.Done()
	}
	close(o.done)
}

// Enqueue schedules a task. When the queue is full the task is dropped,
// matching the fire-and-forget contract; the next full sync reconciles.
func (o *Outbox) Enqueue(t Task) {
	o.pending.Add(1)
	select {
	case o.tasks <- t:
	default:
		o.pending.Done()
		log.Printf("[cart] sync queue full, dropping %s", t.Label)
	}
}

// Flush blocks until every enqueued task has finished. Test hook.
func (o *Outbox) Flush() {
	o.pending.Wait()
}

// Close drains the queue and stops the worker.
func (o *Outbox) Close() {
	o.once.Do(func() {
		o.pending.Wait()
		close(o.tasks)
		<-o.done
	})
}
