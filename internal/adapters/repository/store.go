// Package repository defines the achievement store interface and its
// SQLite implementation.
package repository

import (
	"context"

	"github.com/okian/socgpa/internal/domain/model"
)

// Store provides read/write access to users and their achievements.
type Store interface {
	// UpsertUser creates the user when missing. A non-empty fullName
	// replaces the stored one.
	UpsertUser(ctx context.Context, id, fullName string) (model.User, error)
	// GetUser returns ErrNotFound for unknown ids.
	GetUser(ctx context.Context, id string) (model.User, error)

	// CreateAchievement inserts a new record, assigning an ID when empty.
	CreateAchievement(ctx context.Context, a *model.Achievement) error
	// GetAchievement returns ErrNotFound for unknown ids.
	GetAchievement(ctx context.Context, id string) (model.Achievement, error)
	// ApprovedByUser lists a user's approved records by created_at ascending.
	ApprovedByUser(ctx context.Context, userID string) ([]model.Achievement, error)
	// SaveClassified updates a classified record and credits coins to its
	// owner in one transaction.
	SaveClassified(ctx context.Context, a *model.Achievement, coins int64) error
	// DeleteAchievement removes a record. It returns ErrNotFound for
	// unknown ids and never touches the owner's coins.
	DeleteAchievement(ctx context.Context, id string) error

	CountAchievements(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)

	Close() error
}
