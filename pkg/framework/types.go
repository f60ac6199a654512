package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Task is a periodic piece of work run by the Scheduler.
type Task interface {
	RunTask(TaskContext) error
}

// TaskFunc is the func form of Task.
type TaskFunc func(TaskContext) error

// RunTask implements Task.
func (f TaskFunc) RunTask(ctx TaskContext) error {
	return f(ctx)
}

// TaskContext provides the context of current scheduler iteration.
type TaskContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is the alias of priority level for sensor sampling.
	PrLvSense = PrLvHigh
	// PrLvControl is the alias of priority level for control loops.
	PrLvControl = PrLvNormal
	// PrLvTelemetry is the alias of priority level for telemetry producers.
	PrLvTelemetry = PrLvLow
)
