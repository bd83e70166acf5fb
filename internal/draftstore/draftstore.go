// Package draftstore persists each user's single in-progress planilla.
// One scope key maps to at most one draft; saving overwrites, and entries
// expire after the configured TTL.
package draftstore

import (
	"context"

	"planillas/backend/internal/domain"
)

type Store interface {
	// Get returns the draft for scope, if one exists and has not expired.
	Get(ctx context.Context, scope string) (*domain.Draft, bool, error)
	// Set overwrites the draft slot for scope.
	Set(ctx context.Context, scope string, d *domain.Draft) error
	// Delete clears the slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, scope string) error
}
