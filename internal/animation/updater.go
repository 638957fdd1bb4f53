package animation

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Updater advances animators in parallel on a persistent worker pool. Each
// Update call is a fork-join: it returns only after every animator has
// finished, so bone matrices are complete before any render pass reads them.
type Updater struct {
	pool worker.DynamicWorkerPool
	// Animators below this count are updated inline.
	serialBelow int
}

// NewUpdater creates an updater with up to workers goroutines.
func NewUpdater(workers int) *Updater {
	if workers < 1 {
		workers = 1
	}
	return &Updater{
		pool:        worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		serialBelow: 2,
	}
}

// Update advances every animator by dt and waits for all of them.
func (u *Updater) Update(animators []*Animator, dt float32) {
	if len(animators) < u.serialBelow {
		for _, a := range animators {
			a.Update(dt)
		}
		return
	}

	// pool.Wait blocks until workers idle out, so the barrier is a WaitGroup.
	var wg sync.WaitGroup
	for i, a := range animators {
		wg.Add(1)
		u.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				a.Update(dt)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
