// Package query translates request query parameters into a single-use,
// immutable Spec that repositories render into parameterized SQL. The four
// stages (filter, sort, projection, pagination) are pure functions over the
// Spec so each can be exercised alone. Reserved keys: page, sort, limit,
// fields; every other key is a filter term, optionally suffixed with one of
// [gte], [gt], [lte], [lt] for range comparisons.
package query

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wanderio/tourhub/internal/apperr"
)

// Op is a comparison operator permitted in filter conditions.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpGt  Op = ">"
	OpLte Op = "<="
	OpLt  Op = "<"
)

// DefaultLimit applies when no limit parameter is present.
const DefaultLimit = 100

// MaxLimit bounds the requested page size so a single request cannot force
// an unbounded scan.
const MaxLimit = 500

// MaxPage bounds the page number so (page-1)*limit stays inside int range
// for any allowed limit; MySQL rejects a negative OFFSET.
const MaxPage = math.MaxInt / MaxLimit

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var suffixOps = map[string]Op{"gte": OpGte, "gt": OpGt, "lte": OpLte, "lt": OpLt}

// Resource describes the queryable surface of one table: which API field
// names are permitted and which columns they map to. Fields outside the map
// are rejected with a validation error rather than interpolated into SQL.
type Resource struct {
	Fields  map[string]string // API field name -> column name
	Order   []string          // API field names in canonical SELECT order
	Version string            // internal version field, excluded by default
}

// Condition is one field/operator/value triple; conditions are conjunctive.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// SortKey is one ordering term.
type SortKey struct {
	Column string
	Desc   bool
}

// Spec is the fully parsed query: constructed once per request, consumed
// once by a repository, then discarded. All stage functions return a new
// value; a Spec is never mutated after construction.
type Spec struct {
	conds []Condition
	sort  []SortKey
	cols  []string
	page  int
	limit int
}

// Parse builds a Spec from raw query parameters, threading the value through
// the four stages in order. Each stage reads only its own keys, so the
// stages commute; the fixed order exists for readability, not correctness.
func Parse(values url.Values, res Resource) (Spec, error) {
	s := Spec{page: 1, limit: DefaultLimit}
	s, err := parseFilter(s, values, res)
	if err != nil {
		return Spec{}, err
	}
	s, err = parseSort(s, values, res)
	if err != nil {
		return Spec{}, err
	}
	s, err = parseFields(s, values, res)
	if err != nil {
		return Spec{}, err
	}
	return parsePaginate(s, values), nil
}

// parseFilter turns every non-reserved key into a condition. A trailing
// bracketed suffix selects a range operator; an unrecognized suffix leaves
// the whole key to be treated as a literal field name, which then fails the
// whitelist like any other unknown field.
func parseFilter(s Spec, values url.Values, res Resource) (Spec, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // deterministic condition order
	out := s
	out.conds = append([]Condition(nil), s.conds...)
	for _, k := range keys {
		field, op := splitOperator(k)
		col, ok := res.Fields[field]
		if !ok {
			return Spec{}, apperr.New(apperr.Validation, "unknown filter field: "+field)
		}
		for _, v := range values[k] {
			out.conds = append(out.conds, Condition{Column: col, Op: op, Value: v})
		}
	}
	return out, nil
}

// splitOperator separates "price[gte]" into ("price", OpGte). Keys without a
// recognized suffix come back whole with OpEq.
func splitOperator(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		if op, ok := suffixOps[key[open+1:len(key)-1]]; ok {
			return key[:open], op
		}
	}
	return key, OpEq
}

// parseSort interprets a comma-separated sort list; a leading '-' marks the
// key descending. Absent a sort parameter the ordering defaults to newest
// first.
func parseSort(s Spec, values url.Values, res Resource) (Spec, error) {
	raw := values.Get("sort")
	out := s
	if raw == "" {
		out.sort = []SortKey{defaultSort(res)}
		return out, nil
	}
	out.sort = nil
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		col, ok := res.Fields[field]
		if !ok {
			return Spec{}, apperr.New(apperr.Validation, "unknown sort field: "+field)
		}
		out.sort = append(out.sort, SortKey{Column: col, Desc: desc})
	}
	if len(out.sort) == 0 {
		out.sort = []SortKey{defaultSort(res)}
	}
	return out, nil
}

// defaultSort orders newest first, resolving the column through the resource
// so alias-prefixed tables (joined listings) stay unambiguous.
func defaultSort(res Resource) SortKey {
	col := "created_at"
	if c, ok := res.Fields["createdAt"]; ok {
		col = c
	}
	return SortKey{Column: col, Desc: true}
}

// parseFields resolves the projection. Absent a fields parameter every
// canonical field except the internal version field is selected.
func parseFields(s Spec, values url.Values, res Resource) (Spec, error) {
	raw := values.Get("fields")
	out := s
	if raw == "" {
		for _, f := range res.Order {
			if f == res.Version {
				continue
			}
			out.cols = append(out.cols, res.Fields[f])
		}
		return out, nil
	}
	out.cols = nil
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		col, ok := res.Fields[f]
		if !ok {
			return Spec{}, apperr.New(apperr.Validation, "unknown field: "+f)
		}
		out.cols = append(out.cols, col)
	}
	if len(out.cols) == 0 {
		return Spec{}, apperr.New(apperr.Validation, "fields parameter selects nothing")
	}
	return out, nil
}

// parsePaginate reads page and limit, falling back to defaults on anything
// non-numeric or below one, and caps both.
func parsePaginate(s Spec, values url.Values) Spec {
	out := s
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n >= 1 {
		out.page = n
	}
	if out.page > MaxPage {
		out.page = MaxPage
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n >= 1 {
		out.limit = n
	}
	if out.limit > MaxLimit {
		out.limit = MaxLimit
	}
	return out
}

// And returns a copy with one more mandatory condition. Repositories use it
// to compose base scopes (active users, non-secret tours) explicitly at the
// query-construction boundary.
func (s Spec) And(column string, op Op, value any) Spec {
	out := s
	out.conds = append(append([]Condition(nil), s.conds...), Condition{Column: column, Op: op, Value: value})
	return out
}

// Columns returns the resolved SELECT column list.
func (s Spec) Columns() []string {
	return append([]string(nil), s.cols...)
}

// Conditions returns the resolved filter conditions.
func (s Spec) Conditions() []Condition {
	return append([]Condition(nil), s.conds...)
}

// Where renders the conjunctive predicate and its arguments. With no
// conditions it renders a tautology so callers can always append it.
func (s Spec) Where() (string, []any) {
	if len(s.conds) == 0 {
		return "1=1", nil
	}
	parts := make([]string, 0, len(s.conds))
	args := make([]any, 0, len(s.conds))
	for _, c := range s.conds {
		parts = append(parts, c.Column+" "+string(c.Op)+" ?")
		args = append(args, c.Value)
	}
	return strings.Join(parts, " AND "), args
}

// OrderBy renders the ORDER BY column list.
func (s Spec) OrderBy() string {
	parts := make([]string, 0, len(s.sort))
	for _, k := range s.sort {
		dir := " ASC"
		if k.Desc {
			dir = " DESC"
		}
		parts = append(parts, k.Column+dir)
	}
	return strings.Join(parts, ", ")
}

// Limit returns the page size.
func (s Spec) Limit() int { return s.limit }

// Offset returns the zero-based skip, (page-1)*limit.
func (s Spec) Offset() int { return (s.page - 1) * s.limit }

// Page returns the one-based page number.
func (s Spec) Page() int { return s.page }
