package model

import "time"

// RuleType selects the repetition policy of a RepeatRule.
type RuleType string

const (
	RuleDaily   RuleType = "daily"
	RuleWeekly  RuleType = "weekly"
	RuleMonthly RuleType = "monthly"
	// RuleCustom exists in stored data from earlier versions but is rejected
	// on create/update: no custom rule language is defined.
	RuleCustom RuleType = "custom"
)

// RepeatRule is the declarative repetition policy attached to exactly one task.
type RepeatRule struct {
	ID       uint     `gorm:"primaryKey"`
	TaskID   uint     `gorm:"uniqueIndex"`
	Type     RuleType `gorm:"type:text"`
	Interval int      `gorm:"default:1"`
	// DaysOfWeek holds ISO weekday numbers (1=Monday .. 7=Sunday); only
	// meaningful for weekly rules. Empty means the rule never fires.
	DaysOfWeek     []int `gorm:"serializer:json"`
	DayOfMonth     int
	EndDate        *time.Time
	MaxOccurrences int
	SkipWeekends   bool `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasCap reports whether the rule carries a cumulative occurrence cap.
func (r *RepeatRule) HasCap() bool {
	return r.MaxOccurrences > 0
}
