package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Scheduler runs tasks by priority level at a fixed interval.
type Scheduler struct {
	Interval time.Duration

	tasks   [PriorityLevels][]Task
	runners []Runnable
	lock    sync.Mutex

	wakeUpCh chan struct{}
}

// SchedulerAdder provides specific logic to add components to scheduler.
type SchedulerAdder interface {
	AddToScheduler(*Scheduler)
}

type iteration struct {
	*Scheduler
	ctx           context.Context
	time          time.Time
	priorityLevel int
}

// NewScheduler creates a Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		Interval: 100 * time.Millisecond,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds SchedulerAdders.
func (s *Scheduler) Add(adders ...SchedulerAdder) *Scheduler {
	for _, adder := range adders {
		adder.AddToScheduler(s)
	}
	return s
}

// AddTask registers tasks at a priority level. Tasks which are also
// Runnable are started with the scheduler.
func (s *Scheduler) AddTask(priorityLevel int, tasks ...Task) *Scheduler {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tasks[priorityLevel] = append(s.tasks[priorityLevel], tasks...)
	for _, task := range tasks {
		if runner, ok := task.(Runnable); ok {
			s.runners = append(s.runners, runner)
		}
	}
	return s
}

// AddRunnable adds Runnable implementions.
func (s *Scheduler) AddRunnable(runnables ...Runnable) *Scheduler {
	s.lock.Lock()
	s.runners = append(s.runners, runnables...)
	s.lock.Unlock()
	return s
}

// Run implements Runnable.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.wakeUpCh == nil {
		s.wakeUpCh = make(chan struct{}, 1)
	}

	s.lock.Lock()
	runners := s.runners
	s.lock.Unlock()
	runner := NewRunnerWith(ctx)
	runner.Go(runners...)

	interval := s.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case t := <-ticker.C:
			s.runIteration(ctx, t)
		case <-s.wakeUpCh:
			s.runIteration(ctx, time.Now())
		}
	}
}

// TriggerNext implements TaskContext.
func (s *Scheduler) TriggerNext() {
	select {
	case s.wakeUpCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) runIteration(ctx context.Context, t time.Time) {
	iter := &iteration{Scheduler: s, ctx: ctx, time: t}
	for i := 0; i < PriorityLevels; i++ {
		s.lock.Lock()
		tasks := s.tasks[i]
		s.lock.Unlock()
		iter.priorityLevel = i
		for _, task := range tasks {
			if err := task.RunTask(iter); err != nil {
				glog.Errorf("task error at priority %d: %v", i, err)
			}
		}
	}
}

func (t *iteration) Context() context.Context {
	return t.ctx
}

func (t *iteration) Time() time.Time {
	return t.time
}

func (t *iteration) PriorityLevel() int {
	return t.priorityLevel
}
