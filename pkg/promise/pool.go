package promise

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool is a small fixed-size worker pool that runs Promise computations off
// the interpreter's goroutine. Each worker delivers the result of the task
// it ran by calling p.deliver itself, so delivery callbacks run on that
// worker's goroutine; there is no separate delivery goroutine and no
// delivery queue. Each Promise serializes its own delivery under its mutex.
type Pool struct {
	tasks chan func()
	group *errgroup.Group
	stop  context.CancelFunc
}

// NewPool starts a pool with the given number of worker goroutines.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	p := &Pool{tasks: make(chan func(), 64), group: group, stop: cancel}

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case task, ok := <-p.tasks:
					if !ok {
						return nil
					}
					task()
				}
			}
		})
	}
	return p
}

func (p *Pool) submit(task func()) {
	p.tasks <- task
}

// Close stops accepting new work and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.stop()
	_ = p.group.Wait()
}
