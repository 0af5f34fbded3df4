package pending

import (
	"context"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

// Namespace identifies the persisted list across storage backends.
const Namespace = "postkeeper/optimistic-posts"

// Repository stores the projected list of optimistic posts as a whole.
type Repository interface {
	// SaveAll replaces the stored list with records, keeping their order.
	SaveAll(ctx context.Context, records []models.PostRecord) error

	// LoadAll returns the stored list in the order it was saved. An empty
	// store yields an empty slice and no error.
	LoadAll(ctx context.Context) ([]models.PostRecord, error)

	Close() error
}

// Nop is a Repository that stores nothing.
type Nop struct{}

func (Nop) SaveAll(context.Context, []models.PostRecord) error { return nil }

func (Nop) LoadAll(context.Context) ([]models.PostRecord, error) { return nil, nil }

func (Nop) Close() error { return nil }
