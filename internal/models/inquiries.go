// internal/models/inquiries.go
package models

import (
	"time"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

const (
	InquiryKindContact = "contact"
	InquiryKindQuote   = "quote"
)

type Inquiry struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Company     string     `json:"company,omitempty"`
	ProductSlug string     `json:"productSlug,omitempty"`
	Quantity    *int64     `json:"quantity,omitempty"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"createdAt"`
	DigestedAt  *time.Time `json:"digestedAt,omitempty"`
}

func InquiryFromDB(row dbgen.Inquiry) Inquiry {
	inquiry := Inquiry{
		ID:          row.ID,
		Kind:        row.Kind,
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone.String,
		Company:     row.Company.String,
		ProductSlug: row.ProductSlug.String,
		Message:     row.Message,
		CreatedAt:   row.CreatedAt,
	}
	if row.Quantity.Valid {
		quantity := row.Quantity.Int64
		inquiry.Quantity = &quantity
	}
	if row.DigestedAt.Valid {
		digestedAt := row.DigestedAt.Time
		inquiry.DigestedAt = &digestedAt
	}
	return inquiry
}

func InquiriesFromDB(rows []dbgen.Inquiry) []Inquiry {
	results := make([]Inquiry, 0, len(rows))
	for _, row := range rows {
		results = append(results, InquiryFromDB(row))
	}
	return results
}
