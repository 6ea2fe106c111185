package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-recurrence/internal/model"
)

// RuleRepository handles persistence of repeat rules. Each task has at most
// one rule; the unique index on task_id enforces that under races.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.RepeatRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) FindByTask(ctx context.Context, taskID uint) (*model.RepeatRule, error) {
	var rule model.RepeatRule
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ListAll(ctx context.Context) ([]model.RepeatRule, error) {
	var rules []model.RepeatRule
	if err := r.db.WithContext(ctx).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceWithCleanup saves the updated rule and deletes the task's future
// pending occurrences in one transaction, so a failed update never leaves a
// half-applied rule next to a half-cleared window.
func (r *RuleRepository) ReplaceWithCleanup(ctx context.Context, rule *model.RepeatRule, from time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteFuturePending(tx, rule.TaskID, from); err != nil {
			return err
		}
		return tx.Save(rule).Error
	})
	if err != nil {
		return fmt.Errorf("replace rule: %w", err)
	}
	return nil
}

// DeleteWithCleanup removes the rule and the task's future pending
// occurrences in one transaction. Completed and skipped history stays.
func (r *RuleRepository) DeleteWithCleanup(ctx context.Context, taskID uint, from time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteFuturePending(tx, taskID, from); err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Delete(&model.RepeatRule{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
