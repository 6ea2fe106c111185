package service

import (
	"time"

	"task-recurrence/internal/model"
)

// Clock abstracts the current time so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func today(c Clock) time.Time {
	return model.DateOnly(c.Now())
}
