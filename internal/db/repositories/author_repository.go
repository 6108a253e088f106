package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiget/spiget-api/internal/db/models"
)

const authorColumns = "id, name, icon_url, icon_data"

// AuthorRepository handles author lookups.
type AuthorRepository struct {
	db *sqlx.DB
}

// NewAuthorRepository creates a new author repository on the given pool.
func NewAuthorRepository(db *sqlx.DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

// GetByID retrieves an author. Returns (nil, nil) when absent.
func (r *AuthorRepository) GetByID(ctx context.Context, id int64) (*models.Author, error) {
	query := fmt.Sprintf("SELECT %s FROM authors WHERE id = $1", authorColumns)

	var row models.AuthorRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return row.ToAuthor(), nil
}

// GetForResource retrieves the author of a resource in one round trip.
// Returns (nil, nil) when the resource is absent or has no author on record.
func (r *AuthorRepository) GetForResource(ctx context.Context, resourceID int64) (*models.Author, error) {
	query := `SELECT a.id, a.name, a.icon_url, a.icon_data FROM authors a
		JOIN resources res ON res.author_id = a.id
		WHERE res.id = $1`

	var row models.AuthorRow
	if err := r.db.GetContext(ctx, &row, query, resourceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resource author: %w", err)
	}
	return row.ToAuthor(), nil
}
