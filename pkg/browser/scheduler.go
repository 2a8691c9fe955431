package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/Peripli/service-manager/pkg/log"
)

//TaskScheduler schedules tasks to be executed in parallel
type TaskScheduler struct {
	ctx context.Context

	mutex  sync.Mutex
	failed []string

	waitGroupLimit chan struct{}
	wg             sync.WaitGroup
}

//NewScheduler return a new task scheduler configured to execute a maximum of maxParallelTasks concurrently
func NewScheduler(ctx context.Context, maxParallelTasks int) *TaskScheduler {
	if maxParallelTasks < 1 {
		maxParallelTasks = 1
	}
	return &TaskScheduler{
		ctx:            ctx,
		waitGroupLimit: make(chan struct{}, maxParallelTasks),
	}
}

//Schedule schedules the named task to be executed. It blocks while the maximum number of tasks is running.
func (state *TaskScheduler) Schedule(name string, f func(context.Context) error) error {
	if err := state.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-state.ctx.Done():
		return state.ctx.Err()
	case state.waitGroupLimit <- struct{}{}:
	}
	state.wg.Add(1)
	go func() {
		defer func() {
			<-state.waitGroupLimit
			state.wg.Done()
		}()

		if err := f(state.ctx); err != nil {
			log.C(state.ctx).WithError(err).Errorf("Task %s failed", name)
			state.mutex.Lock()
			state.failed = append(state.failed, name)
			state.mutex.Unlock()
		}
	}()

	return nil
}

//Await waits for the completion of all scheduled tasks
func (state *TaskScheduler) Await() error {
	state.wg.Wait()
	state.mutex.Lock()
	defer state.mutex.Unlock()
	if len(state.failed) > 0 {
		return fmt.Errorf("%d errors occurred: %v", len(state.failed), state.failed)
	}

	return nil
}
