package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiget/spiget-api/internal/db/models"
)

const updateColumns = "id, resource_id, title, description, update_date, likes"

// UpdateRepository handles resource changelog queries.
type UpdateRepository struct {
	db *sqlx.DB
}

// NewUpdateRepository creates a new update repository on the given pool.
func NewUpdateRepository(db *sqlx.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

// ListForResource returns one page of a resource's changelog entries plus the
// unpaged total. orderBy must come from the sort whitelist.
func (r *UpdateRepository) ListForResource(ctx context.Context, resourceID int64, orderBy string, limit, offset int) ([]*models.Update, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM resource_updates WHERE resource_id = $1", resourceID); err != nil {
		return nil, 0, fmt.Errorf("failed to count updates: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM resource_updates WHERE resource_id = $1 ORDER BY %s LIMIT $2 OFFSET $3",
		updateColumns, orderBy,
	)

	var rows []models.UpdateRow
	if err := r.db.SelectContext(ctx, &rows, query, resourceID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list updates: %w", err)
	}

	updates := make([]*models.Update, 0, len(rows))
	for i := range rows {
		updates = append(updates, rows[i].ToUpdate())
	}
	return updates, total, nil
}

// GetByID retrieves one changelog entry scoped to its resource. Returns
// (nil, nil) when absent.
func (r *UpdateRepository) GetByID(ctx context.Context, resourceID, id int64) (*models.Update, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM resource_updates WHERE resource_id = $1 AND id = $2", updateColumns)

	var row models.UpdateRow
	if err := r.db.GetContext(ctx, &row, query, resourceID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get update: %w", err)
	}
	return row.ToUpdate(), nil
}

// GetLatest retrieves a resource's newest changelog entry by update date.
// Returns (nil, nil) when the resource has none.
func (r *UpdateRepository) GetLatest(ctx context.Context, resourceID int64) (*models.Update, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM resource_updates WHERE resource_id = $1 ORDER BY update_date DESC LIMIT 1",
		updateColumns)

	var row models.UpdateRow
	if err := r.db.GetContext(ctx, &row, query, resourceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest update: %w", err)
	}
	return row.ToUpdate(), nil
}
