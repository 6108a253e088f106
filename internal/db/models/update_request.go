package models

import "time"

// Update request types. Only resource requests are accepted through the public
// intake endpoint; the ingestion pipeline may enqueue author requests itself.
const (
	UpdateRequestTypeResource = "resource"
	UpdateRequestTypeAuthor   = "author"
)

// UpdateRequest is a queued refresh request for the out-of-band ingestion
// pipeline. The facet flags select which sub-entities the pipeline refreshes;
// DeleteOld asks it to drop stale sub-entities no longer present upstream.
type UpdateRequest struct {
	ID          int64     `db:"id"`
	Type        string    `db:"type"`
	RequestedID int64     `db:"requested_id"`
	Versions    bool      `db:"versions"`
	Updates     bool      `db:"updates"`
	Reviews     bool      `db:"reviews"`
	DeleteOld   bool      `db:"delete_old"`
	RequestedAt time.Time `db:"requested_at"`
}
