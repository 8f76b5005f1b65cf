package validation

import "nourish/internal/domain"

// DefaultPerPage is the page size used when none is requested.
const DefaultPerPage = 20

// Pagination selects a page of a listing.
type Pagination struct {
	Page    int `json:"page" validate:"gte=1"`
	PerPage int `json:"per_page" validate:"gte=1,lte=100"`
}

// Validate checks the bounds and returns the domain page.
func (p Pagination) Validate() (domain.Page, error) {
	fe := FieldErrors{}
	check(fe, p)
	return domain.Page{Number: p.Page, PerPage: p.PerPage}, fe.Err()
}
