package models

// Update is the wire shape of a resource changelog entry. Description is
// served base64-encoded, exactly as stored.
type Update struct {
	ID          int64  `json:"id"`
	Resource    int64  `json:"resource"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        int64  `json:"date"`
	Likes       int    `json:"likes"`
}

// UpdateRow is the flat database representation of a changelog entry.
type UpdateRow struct {
	ID          int64   `db:"id"`
	ResourceID  int64   `db:"resource_id"`
	Title       *string `db:"title"`
	Description *string `db:"description"`
	UpdateDate  int64   `db:"update_date"`
	Likes       int     `db:"likes"`
}

// ToUpdate converts a database row into the wire shape.
func (r *UpdateRow) ToUpdate() *Update {
	return &Update{
		ID:          r.ID,
		Resource:    r.ResourceID,
		Title:       deref(r.Title),
		Description: deref(r.Description),
		Date:        r.UpdateDate,
		Likes:       r.Likes,
	}
}
