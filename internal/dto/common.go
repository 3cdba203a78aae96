package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// NewPaginationMeta derives the metadata block from a page request and the
// total row count.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return PaginationMeta{
		Page:        page,
		Limit:       limit,
		Total:       total,
		Pages:       pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// PageRequest carries the uniform pagination inputs. Normalize applies the
// defaults: page >= 1, limit defaulting to 10.
type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Normalize clamps the request to the documented defaults.
func (p *PageRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
}
