package query

import (
	"strings"

	"gorm.io/gorm"

	"github.com/launchpadhq/launchpad-backend/internal/pagination"
)

// Predicate returns the filter scope shared by the count query and the
// page query. Both must be built from the same ListQuery so total and
// rows agree at read time.
//
// Filter values and the search term are always bound as placeholders.
// Column names come exclusively from the Options declarations.
func (o Options) Predicate(lq ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range o.Filters {
			v, ok := lq.Filters[f.Name]
			if !ok {
				continue
			}
			op := f.Op
			if op == "" {
				op = "="
			}
			db = db.Where(f.Column+" "+op+" ?", v)
		}
		if lq.Search != "" && len(o.SearchColumns) > 0 {
			pat := "%" + escapeLike(strings.ToLower(lq.Search)) + "%"
			conds := make([]string, len(o.SearchColumns))
			args := make([]any, len(o.SearchColumns))
			for i, col := range o.SearchColumns {
				conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
				args[i] = pat
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		return db
	}
}

// Ordered returns the page scope: ORDER BY the allow-listed sort column
// plus LIMIT/OFFSET for the requested page. A stable id tiebreak keeps
// pages disjoint when the sort column has duplicates.
func (o Options) Ordered(lq ListQuery) func(*gorm.DB) *gorm.DB {
	col, ok := o.SortKeys[lq.Sort]
	if !ok {
		// The validator rejects unknown sort keys before this point;
		// fall back to the default rather than trusting lq.Sort.
		col = o.SortKeys[o.DefaultSort]
	}
	dir := "desc"
	if lq.Order == Asc {
		dir = "asc"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(col + " " + dir).
			Order("id asc").
			Limit(lq.PerPage).
			Offset(pagination.Offset(lq.Page, lq.PerPage))
	}
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text so
// "100%" matches the literal text instead of everything.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
