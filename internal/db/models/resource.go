// Package models defines the catalog entities in two layers: flat row structs
// scanned straight out of PostgreSQL (db tags) and the nested wire shapes the
// API serves (json tags). Repositories scan rows and convert; handlers only
// ever see the wire shapes.
package models

import (
	"encoding/json"

	"github.com/lib/pq"
)

// Rating is the aggregate rating shape shared by resources, reviews and
// versions.
type Rating struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Icon is an image reference. Data holds the base64-encoded image bytes when
// the ingestion pipeline captured them.
type Icon struct {
	URL  string `json:"url"`
	Data string `json:"data,omitempty"`
}

// File describes a resource's downloadable artifact. ExternalURL is set only
// for externally hosted resources, whose binaries never pass through the CDN.
type File struct {
	Type        string  `json:"type,omitempty"`
	Size        float64 `json:"size,omitempty"`
	SizeUnit    string  `json:"sizeUnit,omitempty"`
	URL         string  `json:"url,omitempty"`
	ExternalURL string  `json:"externalUrl,omitempty"`
}

// IDReference is a bare entity reference by id.
type IDReference struct {
	ID int64 `json:"id"`
}

// VersionReference points at a resource's current version.
type VersionReference struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid,omitempty"`
}

// Resource is the wire shape of a catalog resource.
type Resource struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Tag            string           `json:"tag"`
	Contributors   string           `json:"contributors"`
	Likes          int              `json:"likes"`
	File           File             `json:"file"`
	TestedVersions []string         `json:"testedVersions"`
	Links          json.RawMessage  `json:"links"`
	Rating         Rating           `json:"rating"`
	ReleaseDate    int64            `json:"releaseDate"`
	UpdateDate     int64            `json:"updateDate"`
	Downloads      int              `json:"downloads"`
	External       bool             `json:"external"`
	Icon           Icon             `json:"icon"`
	Premium        bool             `json:"premium"`
	Price          float64          `json:"price"`
	Currency       string           `json:"currency"`
	Author         IDReference      `json:"author"`
	Category       IDReference      `json:"category"`
	Version        VersionReference `json:"version"`
}

// ResourceRow is the flat database representation of a resource.
type ResourceRow struct {
	ID              int64           `db:"id"`
	Name            string          `db:"name"`
	Tag             *string         `db:"tag"`
	Contributors    *string         `db:"contributors"`
	Likes           int             `db:"likes"`
	FileType        *string         `db:"file_type"`
	FileSize        *float64        `db:"file_size"`
	FileSizeUnit    *string         `db:"file_size_unit"`
	FileURL         *string         `db:"file_url"`
	FileExternalURL *string         `db:"file_external_url"`
	TestedVersions  pq.StringArray  `db:"tested_versions"`
	Links           json.RawMessage `db:"links"`
	RatingAverage   float64         `db:"rating_average"`
	RatingCount     int             `db:"rating_count"`
	ReleaseDate     int64           `db:"release_date"`
	UpdateDate      int64           `db:"update_date"`
	Downloads       int             `db:"downloads"`
	External        bool            `db:"external"`
	IconURL         *string         `db:"icon_url"`
	IconData        *string         `db:"icon_data"`
	Premium         bool            `db:"premium"`
	Price           float64         `db:"price"`
	Currency        *string         `db:"currency"`
	AuthorID        *int64          `db:"author_id"`
	CategoryID      *int64          `db:"category_id"`
	VersionID       *int64          `db:"version_id"`
	VersionUUID     *string         `db:"version_uuid"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ToResource converts a database row into the wire shape.
func (r *ResourceRow) ToResource() *Resource {
	links := r.Links
	if len(links) == 0 {
		links = json.RawMessage("{}")
	}
	return &Resource{
		ID:           r.ID,
		Name:         r.Name,
		Tag:          deref(r.Tag),
		Contributors: deref(r.Contributors),
		Likes:        r.Likes,
		File: File{
			Type:        deref(r.FileType),
			Size:        deref(r.FileSize),
			SizeUnit:    deref(r.FileSizeUnit),
			URL:         deref(r.FileURL),
			ExternalURL: deref(r.FileExternalURL),
		},
		TestedVersions: append([]string(nil), r.TestedVersions...),
		Links:          links,
		Rating:         Rating{Count: r.RatingCount, Average: r.RatingAverage},
		ReleaseDate:    r.ReleaseDate,
		UpdateDate:     r.UpdateDate,
		Downloads:      r.Downloads,
		External:       r.External,
		Icon:           Icon{URL: deref(r.IconURL), Data: deref(r.IconData)},
		Premium:        r.Premium,
		Price:          r.Price,
		Currency:       deref(r.Currency),
		Author:         IDReference{ID: deref(r.AuthorID)},
		Category:       IDReference{ID: deref(r.CategoryID)},
		Version:        VersionReference{ID: deref(r.VersionID), UUID: deref(r.VersionUUID)},
	}
}
