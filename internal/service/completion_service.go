package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task-recurrence/internal/model"
	"task-recurrence/internal/repository"
)

// CompletionStats aggregates a task's occurrence history over a trailing
// window. Missed is derived: a past date that was neither completed nor
// skipped.
type CompletionStats struct {
	Total          int
	Completed      int
	Skipped        int
	Missed         int
	CompletionRate float64
}

// CompletionService tracks per-occurrence completion state and derives
// completion statistics.
type CompletionService struct {
	occurrenceRepo *repository.OccurrenceRepository
	clock          Clock
}

func NewCompletionService(occurrenceRepo *repository.OccurrenceRepository, clock Clock) *CompletionService {
	return &CompletionService{occurrenceRepo: occurrenceRepo, clock: clock}
}

// Complete marks the occurrence on the given date as done by the actor. If
// the date has not been materialized yet (completing "today" before the
// nightly run), the occurrence is created directly in the completed state.
// CompletedAt is stamped only on the pending-to-completed transition.
func (s *CompletionService) Complete(ctx context.Context, taskID uint, date time.Time, actorID uint) error {
	date = model.DateOnly(date)
	now := s.clock.Now()

	occ, err := s.occurrenceRepo.FindByTaskAndDate(ctx, taskID, date)
	switch {
	case err == nil:
		// Fall through to the update below.
	case errors.Is(err, gorm.ErrRecordNotFound):
		occ = &model.TaskOccurrence{
			TaskID:         taskID,
			OccurrenceDate: date,
			Completed:      true,
			CompletedAt:    &now,
			CompletedBy:    &actorID,
		}
		createErr := s.occurrenceRepo.Create(ctx, occ)
		if createErr == nil {
			return nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return createErr
		}
		// Lost a race with generation; the row exists now, update it.
		occ, err = s.occurrenceRepo.FindByTaskAndDate(ctx, taskID, date)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if !occ.Completed {
		occ.CompletedAt = &now
	}
	occ.Completed = true
	occ.CompletedBy = &actorID
	occ.Skipped = false
	return s.occurrenceRepo.Save(ctx, occ)
}

// Uncomplete returns the occurrence to the pending state. A date with no
// occurrence is a no-op.
func (s *CompletionService) Uncomplete(ctx context.Context, taskID uint, date time.Time) error {
	occ, err := s.occurrenceRepo.FindByTaskAndDate(ctx, taskID, model.DateOnly(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	occ.Completed = false
	occ.CompletedAt = nil
	occ.CompletedBy = nil
	return s.occurrenceRepo.Save(ctx, occ)
}

// Skip marks (or creates) the occurrence as skipped, clearing any completed
// state.
func (s *CompletionService) Skip(ctx context.Context, taskID uint, date time.Time) error {
	date = model.DateOnly(date)

	occ, err := s.occurrenceRepo.FindByTaskAndDate(ctx, taskID, date)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		occ = &model.TaskOccurrence{
			TaskID:         taskID,
			OccurrenceDate: date,
			Skipped:        true,
		}
		createErr := s.occurrenceRepo.Create(ctx, occ)
		if createErr == nil {
			return nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return createErr
		}
		occ, err = s.occurrenceRepo.FindByTaskAndDate(ctx, taskID, date)
		if err != nil {
			return err
		}
	default:
		return err
	}

	occ.Skipped = true
	occ.Completed = false
	occ.CompletedAt = nil
	occ.CompletedBy = nil
	return s.occurrenceRepo.Save(ctx, occ)
}

// Upcoming returns the task's occurrences dated within [today, today+withinDays],
// ordered by date ascending. CompletedBy on each row identifies the
// completing actor where one exists.
func (s *CompletionService) Upcoming(ctx context.Context, taskID uint, withinDays int) ([]model.TaskOccurrence, error) {
	from := today(s.clock)
	to := from.AddDate(0, 0, withinDays)
	return s.occurrenceRepo.ListInRange(ctx, taskID, from, to)
}

// Stats aggregates the trailing window [today-overDays, today]. A task with
// no occurrences in the window (or no rule at all) yields zero counts and a
// zero rate, not an error.
func (s *CompletionService) Stats(ctx context.Context, taskID uint, overDays int) (CompletionStats, error) {
	todayDate := today(s.clock)
	from := todayDate.AddDate(0, 0, -overDays)

	occs, err := s.occurrenceRepo.ListInRange(ctx, taskID, from, todayDate)
	if err != nil {
		return CompletionStats{}, err
	}

	stats := CompletionStats{Total: len(occs)}
	for _, occ := range occs {
		switch {
		case occ.Completed:
			stats.Completed++
		case occ.Skipped:
			stats.Skipped++
		case occ.OccurrenceDate.Before(todayDate):
			stats.Missed++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats, nil
}
