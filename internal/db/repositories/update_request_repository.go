package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiget/spiget-api/internal/db/models"
)

const updateRequestColumns = "id, type, requested_id, versions, updates, reviews, delete_old, requested_at"

// UpdateRequestRepository handles the ingestion intake queue. Unlike the
// catalog repositories this one writes, so it must be constructed on the
// primary pool.
type UpdateRequestRepository struct {
	db *sqlx.DB
}

// NewUpdateRequestRepository creates a new update request repository on the
// given pool.
func NewUpdateRequestRepository(db *sqlx.DB) *UpdateRequestRepository {
	return &UpdateRequestRepository{db: db}
}

// FindPending returns the pending request for (reqType, requestedID), or
// (nil, nil) when none exists. Duplicate suppression is best-effort; two
// concurrent intakes can both see nil here and both insert.
func (r *UpdateRequestRepository) FindPending(ctx context.Context, reqType string, requestedID int64) (*models.UpdateRequest, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM update_requests WHERE type = $1 AND requested_id = $2 LIMIT 1",
		updateRequestColumns)

	var req models.UpdateRequest
	if err := r.db.GetContext(ctx, &req, query, reqType, requestedID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending update request: %w", err)
	}
	return &req, nil
}

// Create inserts a new update request and fills in its generated id and
// timestamp.
func (r *UpdateRequestRepository) Create(ctx context.Context, req *models.UpdateRequest) error {
	query := `INSERT INTO update_requests (type, requested_id, versions, updates, reviews, delete_old)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at`

	row := r.db.QueryRowContext(ctx, query,
		req.Type, req.RequestedID, req.Versions, req.Updates, req.Reviews, req.DeleteOld)
	if err := row.Scan(&req.ID, &req.RequestedAt); err != nil {
		return fmt.Errorf("failed to create update request: %w", err)
	}
	return nil
}

// CountPending returns the total number of queued update requests.
func (r *UpdateRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM update_requests"); err != nil {
		return 0, fmt.Errorf("failed to count pending update requests: %w", err)
	}
	return count, nil
}
