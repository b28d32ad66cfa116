package pagination

import (
	"github.com/tair/warehouse-erp/pkg/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params selects one page of a listing
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize fills defaults and rejects out-of-range values
func (p *Params) Normalize() error {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}

	fields := map[string]string{}
	if p.Page < 1 {
		fields["page"] = "must be at least 1"
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		fields["limit"] = "must be between 1 and 100"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Offset is the number of rows to skip
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the page returned to the caller
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewMeta builds page metadata from the total match count
func NewMeta(p Params, total int64) Meta {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Page is a list result with its metadata
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}
