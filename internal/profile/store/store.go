// Package store persists profile aggregates. Implementations serialize the
// full document and rehydrate through the defensive factory, so state that
// bypassed the mutation gate in storage is caught on the way back in.
package store

import (
	"context"

	"warden/internal/profile/models"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
type Store interface {
	Save(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}
