// internal/models/catalog.go
package models

import (
	"regexp"
	"time"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug reports whether value is a lowercase, hyphen-separated URL slug.
func IsSlug(value string) bool {
	return len(value) <= 100 && slugRegex.MatchString(value)
}

type Category struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int64     `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func CategoryFromDB(row dbgen.Category) Category {
	return Category{
		ID:          row.ID,
		Slug:        row.Slug,
		Name:        row.Name,
		Description: row.Description,
		SortOrder:   row.SortOrder,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func CategoriesFromDB(rows []dbgen.Category) []Category {
	results := make([]Category, 0, len(rows))
	for _, row := range rows {
		results = append(results, CategoryFromDB(row))
	}
	return results
}

type Product struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	CategorySlug string    `json:"categorySlug"`
	CategoryName string    `json:"categoryName"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ProductFromDB(row dbgen.GetProductBySlugRow) Product {
	return Product{
		ID:           row.ID,
		Slug:         row.Slug,
		CategorySlug: row.CategorySlug,
		CategoryName: row.CategoryName,
		Name:         row.Name,
		Manufacturer: row.Manufacturer,
		Summary:      row.Summary,
		Description:  row.Description,
		ImageURL:     row.ImageUrl,
		IsFeatured:   row.IsFeatured,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func ProductsFromDB(rows []dbgen.ListProductsRow) []Product {
	results := make([]Product, 0, len(rows))
	for _, row := range rows {
		results = append(results, ProductFromDB(dbgen.GetProductBySlugRow(row)))
	}
	return results
}

// ProductWithCategory joins a stored product row with its category.
func ProductWithCategory(row dbgen.Product, category dbgen.Category) Product {
	return Product{
		ID:           row.ID,
		Slug:         row.Slug,
		CategorySlug: category.Slug,
		CategoryName: category.Name,
		Name:         row.Name,
		Manufacturer: row.Manufacturer,
		Summary:      row.Summary,
		Description:  row.Description,
		ImageURL:     row.ImageUrl,
		IsFeatured:   row.IsFeatured,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
