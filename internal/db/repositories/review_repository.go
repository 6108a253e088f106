package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiget/spiget-api/internal/db/models"
)

const reviewColumns = `id, resource_id, author_id, rating_average, rating_count,
	message, response_message, version, review_date`

// ReviewRepository handles resource review queries.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new review repository on the given pool.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListForResource returns one page of a resource's reviews plus the unpaged
// total. orderBy must come from the sort whitelist.
func (r *ReviewRepository) ListForResource(ctx context.Context, resourceID int64, orderBy string, limit, offset int) ([]*models.Review, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM resource_reviews WHERE resource_id = $1", resourceID); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM resource_reviews WHERE resource_id = $1 ORDER BY %s LIMIT $2 OFFSET $3",
		reviewColumns, orderBy,
	)

	var rows []models.ReviewRow
	if err := r.db.SelectContext(ctx, &rows, query, resourceID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]*models.Review, 0, len(rows))
	for i := range rows {
		reviews = append(reviews, rows[i].ToReview())
	}
	return reviews, total, nil
}
