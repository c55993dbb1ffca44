package store

import (
	"context"
	"errors"

	"github.com/halverson/marionette/internal/model"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionStats holds aggregate orchestration statistics.
type TransitionStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
	CountByReason map[string]int `json:"count_by_reason"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for the transition journal.
type Store interface {
	CreateTransition(ctx context.Context, t *model.Transition) error
	GetTransition(ctx context.Context, id string) (*model.Transition, error)
	ListTransitions(ctx context.Context, limit, offset int) ([]*model.Transition, int, error)
	MarkTransitionRunning(ctx context.Context, id string, appCount, auxCount int) error
	MarkTransitionFinished(ctx context.Context, id, status, reason string) error
	GetTransitionStats(ctx context.Context) (*TransitionStats, error)
	Close() error
}
