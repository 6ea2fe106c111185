package model

import "time"

// TaskOccurrence is one scheduled calendar-date instance of a recurring task.
// At most one occurrence exists per task per calendar date; the composite
// unique index is what keeps concurrent generation runs from duplicating rows.
type TaskOccurrence struct {
	ID             uint      `gorm:"primaryKey"`
	TaskID         uint      `gorm:"uniqueIndex:idx_task_occurrence_date"`
	OccurrenceDate time.Time `gorm:"uniqueIndex:idx_task_occurrence_date"`
	Completed      bool      `gorm:"default:false"`
	CompletedAt    *time.Time
	CompletedBy    *uint
	Skipped        bool `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Pending reports whether the occurrence has neither been completed nor
// explicitly skipped.
func (o *TaskOccurrence) Pending() bool {
	return !o.Completed && !o.Skipped
}

// DateOnly normalizes a timestamp to its calendar date: midnight UTC.
// Every occurrence date stored or compared goes through this, so date
// equality in queries is exact.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ISOWeekday returns the ISO-8601 weekday number of a date, 1=Monday through
// 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsWeekend reports whether a date falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return ISOWeekday(t) >= 6
}
