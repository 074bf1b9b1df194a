package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/intake/pkg/query"
)

// Sort directions accepted by PageRequest.Order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PageRequest represents a client request for a page of data with a single sort field.
// SortBy is a view property name; the domain resolves and whitelists it.
type PageRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	SortBy string `json:"sortBy,omitempty"`
	Order  string `json:"order,omitempty"`
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
// Unknown order values fall back to descending.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = cfg.DefaultPageSize
	}
	if r.Limit > cfg.MaxPageSize {
		r.Limit = cfg.MaxPageSize
	}

	r.Order = strings.ToLower(strings.TrimSpace(r.Order))
	if r.Order != OrderAsc {
		r.Order = OrderDesc
	}
}

// Offset calculates the number of records to skip based on page and limit.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Descending reports whether the request sorts in descending order.
func (r *PageRequest) Descending() bool {
	return r.Order != OrderAsc
}

// SortField resolves the request sort into a query.SortField. If SortBy is
// empty or not accepted by allowed, fallback is used in its place.
func (r *PageRequest) SortField(fallback string, allowed func(string) bool) query.SortField {
	field := r.SortBy
	if field == "" || (allowed != nil && !allowed(field)) {
		field = fallback
	}
	return query.SortField{
		Field:      field,
		Descending: r.Descending(),
	}
}

// PageRequestFromQuery parses pagination parameters from URL query values.
// Supported parameters: page, limit, sortBy, order.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	limit, _ := strconv.Atoi(values.Get("limit"))

	req := PageRequest{
		Page:   page,
		Limit:  limit,
		SortBy: strings.TrimSpace(values.Get("sortBy")),
		Order:  values.Get("order"),
	}

	req.Normalize(cfg)
	return req
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data []T `json:"data"`
	Meta
}

// NewPageResult creates a PageResult with calculated page count.
// An empty result set reports zero pages.
func NewPageResult[T any](data []T, total, page, limit int) PageResult[T] {
	pages := 0
	if limit > 0 {
		pages = total / limit
		if total%limit != 0 {
			pages++
		}
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data: data,
		Meta: Meta{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}
