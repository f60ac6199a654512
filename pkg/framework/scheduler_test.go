package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	lock   sync.Mutex
	levels []int
}

func (r *recorder) task(err error) Task {
	return TaskFunc(func(ctx TaskContext) error {
		r.lock.Lock()
		r.levels = append(r.levels, ctx.PriorityLevel())
		r.lock.Unlock()
		return err
	})
}

func (r *recorder) snapshot() []int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]int(nil), r.levels...)
}

type runnableTask struct {
	TaskFunc
	started chan struct{}
}

func (t *runnableTask) Run(ctx context.Context) error {
	close(t.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestSchedulerPriorityOrder(t *testing.T) {
	var rec recorder
	s := NewScheduler()
	s.Interval = time.Hour
	s.AddTask(PrLvIdle, rec.task(nil)).
		AddTask(PrLvTop, rec.task(errors.New("ignored"))).
		AddTask(PrLvControl, rec.task(nil), rec.task(nil))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	s.TriggerNext()
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 4
	}, time.Second, time.Millisecond)
	require.Equal(t, []int{PrLvTop, PrLvControl, PrLvControl, PrLvIdle}, rec.snapshot())

	s.TriggerNext()
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 8
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler not stopped")
	}
}

func TestSchedulerInterval(t *testing.T) {
	var rec recorder
	s := NewScheduler()
	s.Interval = time.Millisecond
	s.AddTask(PrLvNormal, rec.task(nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 3
	}, time.Second, time.Millisecond)
}

func TestSchedulerStartsRunnableTasks(t *testing.T) {
	task := &runnableTask{
		TaskFunc: func(TaskContext) error { return nil },
		started:  make(chan struct{}),
	}
	s := NewScheduler().AddTask(PrLvTelemetry, task)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	select {
	case <-task.started:
	case <-time.After(time.Second):
		t.Fatal("runnable task not started")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
