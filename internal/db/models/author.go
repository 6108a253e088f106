package models

// Author is the wire shape of a resource author.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon Icon   `json:"icon"`
}

// AuthorRow is the flat database representation of an author.
type AuthorRow struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	IconURL  *string `db:"icon_url"`
	IconData *string `db:"icon_data"`
}

// ToAuthor converts a database row into the wire shape.
func (r *AuthorRow) ToAuthor() *Author {
	return &Author{
		ID:   r.ID,
		Name: r.Name,
		Icon: Icon{URL: deref(r.IconURL), Data: deref(r.IconData)},
	}
}
