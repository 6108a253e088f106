package models

// Version is the wire shape of a published resource version. UUID is the
// stable token identifier; version endpoints accept either the numeric id or
// the token.
type Version struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid,omitempty"`
	Name        string `json:"name"`
	ReleaseDate int64  `json:"releaseDate"`
	Downloads   int    `json:"downloads"`
	Rating      Rating `json:"rating"`
	Resource    int64  `json:"resource"`
}

// VersionRow is the flat database representation of a version.
type VersionRow struct {
	ID            int64   `db:"id"`
	UUID          *string `db:"uuid"`
	ResourceID    int64   `db:"resource_id"`
	Name          *string `db:"name"`
	ReleaseDate   int64   `db:"release_date"`
	Downloads     int     `db:"downloads"`
	RatingAverage float64 `db:"rating_average"`
	RatingCount   int     `db:"rating_count"`
}

// ToVersion converts a database row into the wire shape.
func (r *VersionRow) ToVersion() *Version {
	return &Version{
		ID:          r.ID,
		UUID:        deref(r.UUID),
		Name:        deref(r.Name),
		ReleaseDate: r.ReleaseDate,
		Downloads:   r.Downloads,
		Rating:      Rating{Count: r.RatingCount, Average: r.RatingAverage},
		Resource:    r.ResourceID,
	}
}
