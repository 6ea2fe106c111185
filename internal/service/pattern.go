package service

import (
	"fmt"
	"time"

	"task-recurrence/internal/model"
)

// pattern is the compiled form of a rule's repetition policy. Each variant
// carries only the fields its rule type uses, so a weekly rule cannot be
// influenced by a stray day-of-month value or vice versa.
type pattern interface {
	// matches reports whether the date satisfies the policy.
	matches(date time.Time) bool
	// step is the walk increment in days. Daily rules advance by their
	// interval; weekly and monthly rules test every single date against the
	// predicate rather than jumping, which sidesteps the usual off-by-one
	// traps around variable-length months.
	step() int
	// align returns the first candidate date on or after from. Daily rules
	// snap to their anchored grid; the others start the walk at from itself.
	align(from time.Time) time.Time
}

// dailyPattern spaces dates by interval days from the rule's anchor (its
// creation date). The anchor belongs to the rule, not the generation call:
// successive sweeps share one grid instead of each day's run starting a new
// one.
type dailyPattern struct {
	interval int
	anchor   time.Time
}

func (dailyPattern) matches(time.Time) bool { return true }
func (p dailyPattern) step() int            { return p.interval }

func (p dailyPattern) align(from time.Time) time.Time {
	offset := daysBetween(p.anchor, from) % p.interval
	if offset < 0 {
		offset += p.interval
	}
	if offset == 0 {
		return from
	}
	return from.AddDate(0, 0, p.interval-offset)
}

type weeklyPattern struct {
	days map[int]bool
}

func (p weeklyPattern) matches(date time.Time) bool  { return p.days[model.ISOWeekday(date)] }
func (weeklyPattern) step() int                      { return 1 }
func (weeklyPattern) align(from time.Time) time.Time { return from }

type monthlyPattern struct {
	day int
}

// A month shorter than the configured day simply never matches; there is no
// rollover to the first of the next month.
func (p monthlyPattern) matches(date time.Time) bool  { return p.day > 0 && date.Day() == p.day }
func (monthlyPattern) step() int                      { return 1 }
func (monthlyPattern) align(from time.Time) time.Time { return from }

// compilePattern turns a stored rule into its pattern variant. Paused shapes
// (weekly with an empty weekday set, monthly without a day) compile fine and
// match nothing. Custom rules have no defined policy and fail here, so a
// legacy custom row cannot silently generate as daily.
func compilePattern(rule *model.RepeatRule) (pattern, error) {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	switch rule.Type {
	case model.RuleDaily:
		return dailyPattern{interval: interval, anchor: model.DateOnly(rule.CreatedAt)}, nil
	case model.RuleWeekly:
		days := make(map[int]bool, len(rule.DaysOfWeek))
		for _, d := range rule.DaysOfWeek {
			days[d] = true
		}
		return weeklyPattern{days: days}, nil
	case model.RuleMonthly:
		return monthlyPattern{day: rule.DayOfMonth}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidRuleSpec, rule.Type)
	}
}

// daysBetween counts whole calendar days from a to b. Both arguments are
// normalized midnights, so the division is exact; Unix seconds avoid the
// Duration overflow a Sub across distant anchors would hit.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / 86400)
}
