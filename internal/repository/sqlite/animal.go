package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avosetta/shelterbook/internal/domain"
)

// AnimalRepository implements domain.AnimalRepository using SQLite.
type AnimalRepository struct {
	db *sql.DB
}

// NewAnimalRepository creates a new SQLite-backed AnimalRepository.
func NewAnimalRepository(db *DB) *AnimalRepository {
	return &AnimalRepository{db: db.SqlDB}
}

func (r *AnimalRepository) Create(ctx context.Context, animal *domain.Animal) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO animals (name, species, created_at) VALUES (?, ?, ?)",
		animal.Name, animal.Species, now,
	)
	if err != nil {
		return fmt.Errorf("insert animal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	animal.ID = id
	animal.CreatedAt = now
	return nil
}

func (r *AnimalRepository) GetByID(ctx context.Context, id int64) (*domain.Animal, error) {
	animal := &domain.Animal{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, species, created_at FROM animals WHERE id = ?", id,
	).Scan(&animal.ID, &animal.Name, &animal.Species, &animal.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get animal: %w", err)
	}
	return animal, nil
}

// Exists answers the owner registry question without loading the row.
func (r *AnimalRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM animals WHERE id = ?", id,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check animal exists: %w", err)
	}
	return true, nil
}
