package pagination

const (
	// DefaultPerPage is the standard page size when one is not provided.
	DefaultPerPage = 25
	// MaxPerPage caps how many rows any paged query can request.
	MaxPerPage = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Page describes the slice of results a query should return.
type Page struct {
	Number  int
	PerPage int
}

// Normalize enforces the configured defaults and maximums.
func Normalize(params Params) Page {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Number: page, PerPage: perPage}
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Meta summarizes a paged result for response envelopes.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta derives pagination metadata from the page and the total row count.
func NewMeta(page Page, total int64) Meta {
	pages := int(total) / page.PerPage
	if int(total)%page.PerPage != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Meta{
		Page:       page.Number,
		PerPage:    page.PerPage,
		TotalItems: total,
		TotalPages: pages,
	}
}
