package domain

import (
	"context"
	"time"
)

// Animal is a shelter animal. Only the fields the image pipeline needs
// are modeled here; full animal record CRUD lives outside this system.
type Animal struct {
	ID        int64
	Name      string
	Species   string
	CreatedAt time.Time
}

// AnimalRepository persists animals. The pipeline itself only uses the
// OwnerRegistry view of it; Create and GetByID exist for wiring and tests.
type AnimalRepository interface {
	OwnerRegistry
	Create(ctx context.Context, animal *Animal) error
	GetByID(ctx context.Context, id int64) (*Animal, error)
}
