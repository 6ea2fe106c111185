package service

import "errors"

var (
	// ErrNoRule is returned when generation is requested for a task that has
	// no repeat rule. Read paths (stats, upcoming) do not raise it.
	ErrNoRule = errors.New("no repeat rule for task")

	// ErrDuplicateRule is returned when a rule is created for a task that
	// already has one.
	ErrDuplicateRule = errors.New("repeat rule already exists for task")

	// ErrInvalidRuleSpec is returned when a rule spec fails validation.
	// Raised before anything is persisted.
	ErrInvalidRuleSpec = errors.New("invalid repeat rule spec")
)
