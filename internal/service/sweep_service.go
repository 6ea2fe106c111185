package service

import (
	"context"
	"errors"
	"log"

	"task-recurrence/internal/repository"
)

// SweepService runs the periodic maintenance jobs: the nightly generation
// sweep that tops up every rule's occurrence window, and the retention pass
// that trims old history.
type SweepService struct {
	ruleRepo       *repository.RuleRepository
	occurrenceRepo *repository.OccurrenceRepository
	generator      *GeneratorService
	clock          Clock
	horizonWeeks   int
}

func NewSweepService(ruleRepo *repository.RuleRepository, occurrenceRepo *repository.OccurrenceRepository, generator *GeneratorService, clock Clock, horizonWeeks int) *SweepService {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	return &SweepService{
		ruleRepo:       ruleRepo,
		occurrenceRepo: occurrenceRepo,
		generator:      generator,
		clock:          clock,
		horizonWeeks:   horizonWeeks,
	}
}

// GenerateAll regenerates the occurrence window for every stored rule and
// returns how many occurrences were created. One bad rule (a legacy row with
// an unsupported type) does not stop the sweep for the rest.
func (s *SweepService) GenerateAll(ctx context.Context) (int, error) {
	rules, err := s.ruleRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, rule := range rules {
		occs, err := s.generator.Generate(ctx, rule.TaskID, s.horizonWeeks)
		if err != nil {
			if errors.Is(err, ErrInvalidRuleSpec) {
				log.Printf("sweep: skipping task %d: %v", rule.TaskID, err)
				continue
			}
			return created, err
		}
		created += len(occs)
	}
	return created, nil
}

// PurgeHistory deletes completed and skipped occurrences older than
// retentionDays. A zero or negative retention disables the pass.
func (s *SweepService) PurgeHistory(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := today(s.clock).AddDate(0, 0, -retentionDays)
	return s.occurrenceRepo.PurgeBefore(ctx, cutoff)
}
