// Package query translates validated list parameters (page, per_page,
// sort, order, filters, free-text search) into GORM query scopes plus a
// matching count scope.
//
// Identifier safety: column names only ever come from the Options
// allow-lists declared in code. Client input selects among them by enum
// membership, enforced by the validation schema before a ListQuery is
// ever constructed; values are always parameter-bound. A sort or filter
// key outside the allow-list never reaches query assembly.
package query

import (
	"net/url"

	"github.com/launchpadhq/launchpad-backend/internal/validation"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ListQuery is one validated, immutable set of list parameters. Build it
// with Options.Parse; never from raw input.
type ListQuery struct {
	Page    int
	PerPage int
	Sort    string // allow-listed sort key, not a column name
	Order   Order
	Filters map[string]any // filter key -> coerced value, present keys only
	Search  string
}

// Filter declares one allow-listed filter parameter and the column its
// bound value is compared against.
type Filter struct {
	// Name is the query-string parameter.
	Name string
	// Column is the database column; declared in code, never from input.
	Column string
	// Type drives validation-time coercion of the raw parameter.
	Type validation.Type
	// Op is the comparison operator; "=" when empty. Only used with the
	// parameter value bound as a placeholder.
	Op string
	// Min optionally bounds numeric filter values at validation time.
	Min *float64
}

// Options declares what a domain's list endpoint allows. Construct once
// at startup next to the repository it serves.
type Options struct {
	// SortKeys maps the accepted sort parameter values to columns.
	SortKeys map[string]string
	// DefaultSort / DefaultOrder apply when the caller sends neither.
	DefaultSort  string
	DefaultOrder Order
	// Filters is the closed set of accepted filter parameters.
	Filters []Filter
	// SearchColumns are the text columns a free-text search matches,
	// OR'd together.
	SearchColumns []string
	// SearchMaxLen caps the search term; 0 means 100.
	SearchMaxLen int

	DefaultPerPage int
	MaxPerPage     int
}

// Schema builds the validation schema enforcing this option set: paging
// bounds, sort/order enum membership, and per-filter coercion. Everything
// the scopes later rely on is checked here first.
func (o Options) Schema() *validation.Schema {
	perPage := o.DefaultPerPage
	if perPage <= 0 {
		perPage = 20
	}
	maxPerPage := o.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	searchMax := o.SearchMaxLen
	if searchMax <= 0 {
		searchMax = 100
	}

	sortEnum := make([]string, 0, len(o.SortKeys))
	for k := range o.SortKeys {
		sortEnum = append(sortEnum, k)
	}
	// Deterministic enum order for stable error messages.
	sortEnum = sortAsc(sortEnum)

	fields := []validation.Field{
		{Name: "page", Type: validation.Int, Default: int64(1), Min: validation.MinOf(1)},
		{Name: "per_page", Type: validation.Int, Default: int64(perPage),
			Min: validation.MinOf(1), Max: validation.MaxOf(float64(maxPerPage))},
		{Name: "sort", Type: validation.String, Default: o.DefaultSort, Enum: sortEnum},
		{Name: "order", Type: validation.String, Default: string(o.defaultOrder()),
			Enum: []string{string(Asc), string(Desc)}},
		{Name: "search", Type: validation.String, MaxLen: searchMax},
	}
	for _, f := range o.Filters {
		fields = append(fields, validation.Field{Name: f.Name, Type: f.Type, Min: f.Min})
	}
	return validation.New(fields...)
}

// Parse validates raw query-string values and assembles the ListQuery.
// On validation failure it returns the full FieldError list and a zero
// ListQuery; the caller wraps the errors into the application taxonomy.
func (o Options) Parse(q url.Values) (ListQuery, []validation.FieldError) {
	vals, errs := o.Schema().Validate(validation.FromValues(q))
	if errs != nil {
		return ListQuery{}, errs
	}

	lq := ListQuery{
		Page:    int(vals["page"].(int64)),
		PerPage: int(vals["per_page"].(int64)),
		Order:   Order(vals["order"].(string)),
		Filters: map[string]any{},
	}
	if s, ok := vals["sort"].(string); ok {
		lq.Sort = s
	}
	if s, ok := vals["search"].(string); ok {
		lq.Search = s
	}
	for _, f := range o.Filters {
		if v, ok := vals[f.Name]; ok {
			lq.Filters[f.Name] = v
		}
	}
	return lq, nil
}

func (o Options) defaultOrder() Order {
	if o.DefaultOrder == "" {
		return Desc
	}
	return o.DefaultOrder
}

// sortAsc returns a sorted copy without pulling in the sort package's
// interface machinery for a handful of keys.
func sortAsc(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
