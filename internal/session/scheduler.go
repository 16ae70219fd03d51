package session

import "time"

// Timer is a cancellable handle to a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules callbacks on the runtime timer heap.
func RealScheduler() Scheduler {
	return realScheduler{}
}
