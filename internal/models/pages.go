// internal/models/pages.go
package models

import (
	"time"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

const (
	PageKindPage    = "page"
	PageKindBlog    = "blog"
	PageKindGallery = "gallery"
)

func IsValidPageKind(kind string) bool {
	switch kind {
	case PageKindPage, PageKindBlog, PageKindGallery:
		return true
	default:
		return false
	}
}

type Page struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Body        string    `json:"body"`
	ImageURL    string    `json:"imageUrl"`
	IsPublished bool      `json:"isPublished"`
	UpdatedBy   string    `json:"updatedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func PageFromDB(row dbgen.Page) Page {
	return Page{
		ID:          row.ID,
		Slug:        row.Slug,
		Kind:        row.Kind,
		Title:       row.Title,
		Summary:     row.Summary,
		Body:        row.Body,
		ImageURL:    row.ImageUrl,
		IsPublished: row.IsPublished,
		UpdatedBy:   row.UpdatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func PagesFromDB(rows []dbgen.Page) []Page {
	results := make([]Page, 0, len(rows))
	for _, row := range rows {
		results = append(results, PageFromDB(row))
	}
	return results
}
