package models

// Review is the wire shape of a resource review. Message and ResponseMessage
// are served base64-encoded, exactly as stored.
type Review struct {
	ID              int64       `json:"id"`
	Resource        int64       `json:"resource"`
	Author          IDReference `json:"author"`
	Rating          Rating      `json:"rating"`
	Message         string      `json:"message"`
	ResponseMessage string      `json:"responseMessage,omitempty"`
	Version         string      `json:"version"`
	Date            int64       `json:"date"`
}

// ReviewRow is the flat database representation of a review.
type ReviewRow struct {
	ID              int64   `db:"id"`
	ResourceID      int64   `db:"resource_id"`
	AuthorID        *int64  `db:"author_id"`
	RatingAverage   float64 `db:"rating_average"`
	RatingCount     int     `db:"rating_count"`
	Message         *string `db:"message"`
	ResponseMessage *string `db:"response_message"`
	Version         *string `db:"version"`
	ReviewDate      int64   `db:"review_date"`
}

// ToReview converts a database row into the wire shape.
func (r *ReviewRow) ToReview() *Review {
	return &Review{
		ID:              r.ID,
		Resource:        r.ResourceID,
		Author:          IDReference{ID: deref(r.AuthorID)},
		Rating:          Rating{Count: r.RatingCount, Average: r.RatingAverage},
		Message:         deref(r.Message),
		ResponseMessage: deref(r.ResponseMessage),
		Version:         deref(r.Version),
		Date:            r.ReviewDate,
	}
}
