package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderio/tourhub/internal/apperr"
)

var testResource = Resource{
	Fields: map[string]string{
		"name":       "name",
		"price":      "price",
		"duration":   "duration_days",
		"difficulty": "difficulty",
		"createdAt":  "created_at",
		"version":    "row_version",
	},
	Order:   []string{"name", "price", "duration", "difficulty", "createdAt", "version"},
	Version: "version",
}

func mustParse(t *testing.T, raw string) Spec {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	s, err := Parse(values, testResource)
	require.NoError(t, err)
	return s
}

func TestFilterOperators(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantWhere string
		wantArgs  []any
	}{
		{"equality", "difficulty=easy", "difficulty = ?", []any{"easy"}},
		{"gte", "price[gte]=500", "price >= ?", []any{"500"}},
		{"gt", "duration[gt]=5", "duration_days > ?", []any{"5"}},
		{"lte", "price[lte]=1500", "price <= ?", []any{"1500"}},
		{"lt", "duration[lt]=10", "duration_days < ?", []any{"10"}},
		{
			"range pair on one field",
			"duration[gte]=5&duration[lte]=9",
			"duration_days >= ? AND duration_days <= ?",
			[]any{"5", "9"},
		},
		{
			"mixed conjunction is sorted by key",
			"price[lt]=1000&difficulty=easy",
			"difficulty = ? AND price < ?",
			[]any{"easy", "1000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := mustParse(t, tt.raw).Where()
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterNoConditions(t *testing.T) {
	where, args := mustParse(t, "").Where()
	assert.Equal(t, "1=1", where)
	assert.Nil(t, args)
}

func TestFilterUnknownFieldRejected(t *testing.T) {
	values, _ := url.ParseQuery("secretColumn=1")
	_, err := Parse(values, testResource)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestFilterUnrecognizedSuffixIsLiteralFieldName(t *testing.T) {
	// "price[like]" is not a recognized operator, so the whole key is a
	// literal field name and fails the whitelist.
	values, _ := url.ParseQuery("price[like]=500")
	_, err := Parse(values, testResource)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"default is newest first", "", "created_at DESC"},
		{"ascending then descending", "sort=price,-duration", "price ASC, duration_days DESC"},
		{"single descending", "sort=-price", "price DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(t, tt.raw).OrderBy())
		})
	}
}

func TestSortDefaultResolvesThroughResource(t *testing.T) {
	joined := Resource{
		Fields: map[string]string{"rating": "r.rating", "createdAt": "r.created_at"},
		Order:  []string{"rating", "createdAt"},
	}
	s, err := Parse(url.Values{}, joined)
	require.NoError(t, err)
	assert.Equal(t, "r.created_at DESC", s.OrderBy())
}

func TestSortUnknownFieldRejected(t *testing.T) {
	values, _ := url.ParseQuery("sort=-passwordHash")
	_, err := Parse(values, testResource)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestProjectionDefaultExcludesVersion(t *testing.T) {
	cols := mustParse(t, "").Columns()
	assert.Equal(t, []string{"name", "price", "duration_days", "difficulty", "created_at"}, cols)
	assert.NotContains(t, cols, "row_version")
}

func TestProjectionInclusionList(t *testing.T) {
	cols := mustParse(t, "fields=name,price").Columns()
	assert.Equal(t, []string{"name", "price"}, cols)
}

func TestProjectionUnknownFieldRejected(t *testing.T) {
	values, _ := url.ParseQuery("fields=name,passwordHash")
	_, err := Parse(values, testResource)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 100, 0},
		{"page 1 limit 100 explicit", "page=1&limit=100", 100, 0},
		{"skip formula", "page=3&limit=10", 10, 20},
		{"page 2 default limit", "page=2", 100, 100},
		{"limit capped", "limit=99999", MaxLimit, 0},
		{"garbage falls back to defaults", "page=abc&limit=-5", 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, tt.raw)
			assert.Equal(t, tt.wantLimit, s.Limit())
			assert.Equal(t, tt.wantOffset, s.Offset())
		})
	}
}

func TestPaginationHugePageDoesNotOverflow(t *testing.T) {
	s := mustParse(t, "page=922337203685477580&limit=100")
	assert.Equal(t, MaxPage, s.Page())
	assert.GreaterOrEqual(t, s.Offset(), 0)
}

func TestAndComposesBaseScope(t *testing.T) {
	base := mustParse(t, "difficulty=easy")
	scoped := base.And("secret", OpEq, false)

	where, args := scoped.Where()
	assert.Equal(t, "difficulty = ? AND secret = ?", where)
	assert.Equal(t, []any{"easy", false}, args)

	// the base value is untouched
	where, args = base.Where()
	assert.Equal(t, "difficulty = ?", where)
	assert.Equal(t, []any{"easy"}, args)
}

func TestStagesAreOrderIndependent(t *testing.T) {
	values, _ := url.ParseQuery("price[gte]=500&sort=-price&fields=name,price&page=2&limit=25")
	s, err := Parse(values, testResource)
	require.NoError(t, err)

	where, args := s.Where()
	assert.Equal(t, "price >= ?", where)
	assert.Equal(t, []any{"500"}, args)
	assert.Equal(t, "price DESC", s.OrderBy())
	assert.Equal(t, []string{"name", "price"}, s.Columns())
	assert.Equal(t, 25, s.Limit())
	assert.Equal(t, 25, s.Offset())
}
