package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task-recurrence/internal/model"
	"task-recurrence/internal/repository"
)

// DefaultHorizonWeeks bounds how far ahead occurrences are materialized when
// the caller does not say otherwise.
const DefaultHorizonWeeks = 8

// GeneratorService materializes a rolling window of future occurrences for a
// task's repeat rule. Generation is idempotent: re-running it with no rule
// change creates nothing new.
type GeneratorService struct {
	ruleRepo       *repository.RuleRepository
	occurrenceRepo *repository.OccurrenceRepository
	clock          Clock
}

func NewGeneratorService(ruleRepo *repository.RuleRepository, occurrenceRepo *repository.OccurrenceRepository, clock Clock) *GeneratorService {
	return &GeneratorService{ruleRepo: ruleRepo, occurrenceRepo: occurrenceRepo, clock: clock}
}

// Generate materializes occurrences for the task from today through
// horizonWeeks weeks ahead, clamped to the rule's end date, and returns the
// newly created rows. A rule whose end date already passed is a no-op.
func (s *GeneratorService) Generate(ctx context.Context, taskID uint, horizonWeeks int) ([]model.TaskOccurrence, error) {
	rule, err := s.ruleRepo.FindByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRule
		}
		return nil, err
	}
	return s.generateForRule(ctx, rule, horizonWeeks)
}

func (s *GeneratorService) generateForRule(ctx context.Context, rule *model.RepeatRule, horizonWeeks int) ([]model.TaskOccurrence, error) {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}

	// The window covers exactly horizonWeeks*7 calendar days starting today,
	// so a two-week horizon holds two of each weekday.
	windowStart := today(s.clock)
	windowEnd := windowStart.AddDate(0, 0, horizonWeeks*7-1)
	if rule.EndDate != nil {
		end := model.DateOnly(*rule.EndDate)
		if end.Before(windowStart) {
			// Rule already ran out; nothing to do.
			return nil, nil
		}
		if end.Before(windowEnd) {
			windowEnd = end
		}
	}

	pat, err := compilePattern(rule)
	if err != nil {
		return nil, err
	}

	existing, err := s.occurrenceRepo.ExistingDatesInRange(ctx, rule.TaskID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	// The cap counts every occurrence ever materialized for the task, not
	// just this window.
	var total int64
	if rule.HasCap() {
		total, err = s.occurrenceRepo.CountByTask(ctx, rule.TaskID)
		if err != nil {
			return nil, err
		}
	}

	var created []model.TaskOccurrence
	for date := pat.align(windowStart); !date.After(windowEnd); date = date.AddDate(0, 0, pat.step()) {
		if !pat.matches(date) {
			continue
		}
		if rule.SkipWeekends && model.IsWeekend(date) {
			continue
		}
		if existing[date] {
			continue
		}
		if rule.HasCap() && total >= int64(rule.MaxOccurrences) {
			break
		}
		created = append(created, model.TaskOccurrence{
			TaskID:         rule.TaskID,
			OccurrenceDate: date,
		})
		total++
	}

	if len(created) == 0 {
		return nil, nil
	}
	inserted, err := s.occurrenceRepo.CreateBatch(ctx, created)
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		// A concurrent generation call won the whole batch.
		return nil, nil
	}

	// Re-read the candidate dates so callers get the persisted rows, IDs and
	// all, rather than the in-memory candidates.
	wanted := make(map[time.Time]bool, len(created))
	for _, occ := range created {
		wanted[occ.OccurrenceDate] = true
	}
	rows, err := s.occurrenceRepo.ListInRange(ctx, rule.TaskID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	result := make([]model.TaskOccurrence, 0, len(created))
	for _, row := range rows {
		if wanted[model.DateOnly(row.OccurrenceDate)] {
			result = append(result, row)
		}
	}
	return result, nil
}
