package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-recurrence/internal/model"
	"task-recurrence/internal/repository"
)

// RuleInput carries the fields of a new repeat rule.
type RuleInput struct {
	Type           model.RuleType
	Interval       int
	DaysOfWeek     []int
	DayOfMonth     int
	EndDate        *time.Time
	MaxOccurrences int
	SkipWeekends   bool
}

// RulePatch is a partial rule update; nil fields are left unchanged.
type RulePatch struct {
	Type           *model.RuleType
	Interval       *int
	DaysOfWeek     *[]int
	DayOfMonth     *int
	EndDate        *time.Time
	MaxOccurrences *int
	SkipWeekends   *bool
}

// RuleService owns the repeat-rule lifecycle: create, update, delete. Updates
// and deletes discard the task's future pending occurrences so the new policy
// takes effect going forward, while completed and skipped history stays put.
type RuleService struct {
	ruleRepo       *repository.RuleRepository
	occurrenceRepo *repository.OccurrenceRepository
	generator      *GeneratorService
	clock          Clock
	horizonWeeks   int
}

func NewRuleService(ruleRepo *repository.RuleRepository, occurrenceRepo *repository.OccurrenceRepository, generator *GeneratorService, clock Clock, horizonWeeks int) *RuleService {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	return &RuleService{
		ruleRepo:       ruleRepo,
		occurrenceRepo: occurrenceRepo,
		generator:      generator,
		clock:          clock,
		horizonWeeks:   horizonWeeks,
	}
}

// CreateRule validates and persists a rule for the task, then materializes
// its first occurrence window. At most one rule exists per task.
func (s *RuleService) CreateRule(ctx context.Context, taskID uint, input RuleInput) (*model.RepeatRule, error) {
	rule := &model.RepeatRule{
		TaskID:         taskID,
		Type:           input.Type,
		Interval:       input.Interval,
		DaysOfWeek:     input.DaysOfWeek,
		DayOfMonth:     input.DayOfMonth,
		MaxOccurrences: input.MaxOccurrences,
		SkipWeekends:   input.SkipWeekends,
		// Stamped through the injected clock: the creation date anchors
		// daily-interval spacing, so it must follow the same "today" the
		// generator sees.
		CreatedAt: s.clock.Now(),
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if input.EndDate != nil {
		end := model.DateOnly(*input.EndDate)
		rule.EndDate = &end
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if _, err := s.ruleRepo.FindByTask(ctx, taskID); err == nil {
		return nil, ErrDuplicateRule
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		// Two near-simultaneous creates can both pass the pre-check; the
		// unique index decides the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRule
		}
		return nil, err
	}

	if _, err := s.generator.Generate(ctx, taskID, s.horizonWeeks); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule merges the patch into the existing rule, drops future pending
// occurrences in the same transaction as the rule change, and regenerates
// under the new policy.
func (s *RuleService) UpdateRule(ctx context.Context, taskID uint, patch RulePatch) (*model.RepeatRule, error) {
	rule, err := s.ruleRepo.FindByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRule
		}
		return nil, err
	}

	applyPatch(rule, patch)
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.ReplaceWithCleanup(ctx, rule, today(s.clock)); err != nil {
		return nil, err
	}

	if _, err := s.generator.Generate(ctx, taskID, s.horizonWeeks); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes the task's rule and its future pending occurrences.
// Completion history is preserved.
func (s *RuleService) DeleteRule(ctx context.Context, taskID uint) error {
	if _, err := s.ruleRepo.FindByTask(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoRule
		}
		return err
	}
	return s.ruleRepo.DeleteWithCleanup(ctx, taskID, today(s.clock))
}

func applyPatch(rule *model.RepeatRule, patch RulePatch) {
	if patch.Type != nil {
		rule.Type = *patch.Type
	}
	if patch.Interval != nil {
		rule.Interval = *patch.Interval
	}
	if patch.DaysOfWeek != nil {
		rule.DaysOfWeek = *patch.DaysOfWeek
	}
	if patch.DayOfMonth != nil {
		rule.DayOfMonth = *patch.DayOfMonth
	}
	if patch.EndDate != nil {
		end := model.DateOnly(*patch.EndDate)
		rule.EndDate = &end
	}
	if patch.MaxOccurrences != nil {
		rule.MaxOccurrences = *patch.MaxOccurrences
	}
	if patch.SkipWeekends != nil {
		rule.SkipWeekends = *patch.SkipWeekends
	}
}

// validateRule enforces the spec shape before anything touches storage.
// Paused shapes (weekly with no weekdays, monthly with no day) are valid and
// just never fire.
func validateRule(rule *model.RepeatRule) error {
	switch rule.Type {
	case model.RuleDaily, model.RuleWeekly, model.RuleMonthly:
	case model.RuleCustom:
		return fmt.Errorf("%w: custom rules are not supported", ErrInvalidRuleSpec)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRuleSpec, rule.Type)
	}
	if rule.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRuleSpec, rule.Interval)
	}
	if rule.DayOfMonth < 0 || rule.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d out of range", ErrInvalidRuleSpec, rule.DayOfMonth)
	}
	for _, d := range rule.DaysOfWeek {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRuleSpec, d)
		}
	}
	if rule.MaxOccurrences < 0 {
		return fmt.Errorf("%w: max occurrences must not be negative", ErrInvalidRuleSpec)
	}
	return nil
}
