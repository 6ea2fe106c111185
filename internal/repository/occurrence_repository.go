package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-recurrence/internal/model"
)

// OccurrenceRepository handles persistence of task occurrences.
type OccurrenceRepository struct {
	db *gorm.DB
}

func NewOccurrenceRepository(db *gorm.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

func (r *OccurrenceRepository) Create(ctx context.Context, occ *model.TaskOccurrence) error {
	if err := r.db.WithContext(ctx).Create(occ).Error; err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

// CreateBatch inserts a generation window in one statement and reports how
// many rows actually landed. Rows whose (task_id, occurrence_date) already
// exist are silently skipped and not counted, which is what makes concurrent
// generation runs for the same task safe.
func (r *OccurrenceRepository) CreateBatch(ctx context.Context, occs []model.TaskOccurrence) (int64, error) {
	if len(occs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "occurrence_date"}},
			DoNothing: true,
		}).
		Create(&occs)
	if res.Error != nil {
		return 0, fmt.Errorf("create occurrences: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *OccurrenceRepository) Save(ctx context.Context, occ *model.TaskOccurrence) error {
	if err := r.db.WithContext(ctx).Save(occ).Error; err != nil {
		return fmt.Errorf("save occurrence: %w", err)
	}
	return nil
}

func (r *OccurrenceRepository) FindByTaskAndDate(ctx context.Context, taskID uint, date time.Time) (*model.TaskOccurrence, error) {
	var occ model.TaskOccurrence
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND occurrence_date = ?", taskID, date).
		First(&occ).Error; err != nil {
		return nil, err
	}
	return &occ, nil
}

// ListInRange returns the task's occurrences with dates in [from, to]
// inclusive, ordered by date ascending.
func (r *OccurrenceRepository) ListInRange(ctx context.Context, taskID uint, from, to time.Time) ([]model.TaskOccurrence, error) {
	var occs []model.TaskOccurrence
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND occurrence_date >= ? AND occurrence_date <= ?", taskID, from, to).
		Order("occurrence_date ASC").
		Find(&occs).Error; err != nil {
		return nil, err
	}
	return occs, nil
}

// ExistingDatesInRange returns the set of dates already materialized for the
// task within [from, to], keyed by the normalized date.
func (r *OccurrenceRepository) ExistingDatesInRange(ctx context.Context, taskID uint, from, to time.Time) (map[time.Time]bool, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).
		Model(&model.TaskOccurrence{}).
		Where("task_id = ? AND occurrence_date >= ? AND occurrence_date <= ?", taskID, from, to).
		Pluck("occurrence_date", &dates).Error; err != nil {
		return nil, err
	}
	existing := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		existing[model.DateOnly(d)] = true
	}
	return existing, nil
}

// CountByTask returns how many occurrences have ever been materialized for
// the task, which is what the cumulative max-occurrences cap counts against.
func (r *OccurrenceRepository) CountByTask(ctx context.Context, taskID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.TaskOccurrence{}).
		Where("task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeBefore deletes completed and skipped occurrences dated strictly before
// the cutoff. Pending rows survive so a missed occurrence stays visible in
// stats until it ages past the window the caller queries.
func (r *OccurrenceRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("occurrence_date < ? AND (completed = ? OR skipped = ?)", cutoff, true, true).
		Delete(&model.TaskOccurrence{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge occurrences: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func deleteFuturePending(db *gorm.DB, taskID uint, from time.Time) error {
	return db.
		Where("task_id = ? AND occurrence_date >= ? AND completed = ? AND skipped = ?", taskID, from, false, false).
		Delete(&model.TaskOccurrence{}).Error
}
