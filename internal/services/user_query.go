package services

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const defaultUserSort = "last_name"

// Query parameter → column. Exact filters take integer ids, substring
// filters match case-insensitively anywhere in the column.
var (
	exactUserFilters = map[string]string{
		"group_id": "group_id",
		"group":    "group_id",
		"role_id":  "role_id",
		"role":     "role_id",
	}
	substringUserFilters = map[string]string{
		"first_name":  "first_name",
		"middle_name": "middle_name",
		"last_name":   "last_name",
		"dept":        "dept",
		"department":  "dept",
		"job_title":   "job_title",
		"email":       "email",
		"phone":       "phone",
	}
	sortableUserColumns = map[string]bool{
		"id":          true,
		"first_name":  true,
		"middle_name": true,
		"last_name":   true,
		"dept":        true,
		"job_title":   true,
		"email":       true,
		"phone":       true,
		"group_id":    true,
		"role_id":     true,
	}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UserQuery is a parsed user listing request.
type UserQuery struct {
	Start     int
	Limit     int
	SortField string
	SortDesc  bool
	// keyed by column
	Exact     map[string]uint
	Substring map[string]string
}

// ParseUserQuery reads start, limit, sortf, sortt and the recognised filter
// parameters. Anything else in the query string is ignored.
func ParseUserQuery(values url.Values) (UserQuery, error) {
	q := UserQuery{
		SortField: defaultUserSort,
		Exact:     map[string]uint{},
		Substring: map[string]string{},
	}
	fields := map[string]string{}

	var err error
	if q.Start, err = windowParam(values, "start"); err != nil {
		fields["start"] = err.Error()
	}
	if q.Limit, err = windowParam(values, "limit"); err != nil {
		fields["limit"] = err.Error()
	}

	if sf := strings.TrimSpace(values.Get("sortf")); sf != "" {
		if col, ok := substringUserFilters[sf]; ok {
			sf = col
		} else if col, ok := exactUserFilters[sf]; ok {
			sf = col
		}
		if !sortableUserColumns[sf] {
			fields["sortf"] = "unknown sort field"
		} else {
			q.SortField = sf
		}
	}
	q.SortDesc = values.Get("sortt") == "1"

	// sorted so alias clashes are reported deterministically
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := values.Get(key)
		if col, ok := exactUserFilters[key]; ok {
			id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
			if err != nil {
				fields[key] = "must be an integer id"
				continue
			}
			if prev, dup := q.Exact[col]; dup && prev != uint(id) {
				fields[key] = "conflicts with another " + col + " filter"
				continue
			}
			q.Exact[col] = uint(id)
			continue
		}
		if col, ok := substringUserFilters[key]; ok {
			if raw == "" {
				continue
			}
			if prev, dup := q.Substring[col]; dup && prev != raw {
				fields[key] = "conflicts with another " + col + " filter"
				continue
			}
			q.Substring[col] = raw
		}
	}

	if len(fields) > 0 {
		return UserQuery{}, &ValidationError{Fields: fields}
	}
	return q, nil
}

func windowParam(values url.Values, name string) (int, error) {
	raw, ok := values[name]
	if !ok || len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return 0, errRequired
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil || n < 0 {
		return 0, errNonNegative
	}
	return n, nil
}

type queryParamError string

func (e queryParamError) Error() string { return string(e) }

const (
	errRequired    queryParamError = "this field is required"
	errNonNegative queryParamError = "must be a non-negative integer"
)

// Applied echoes the filters in effect: `<column>` for exact matches,
// `<column>__icontains` for substring matches.
func (q UserQuery) Applied() map[string]any {
	applied := make(map[string]any, len(q.Exact)+len(q.Substring))
	for col, id := range q.Exact {
		applied[col] = id
	}
	for col, term := range q.Substring {
		applied[col+"__icontains"] = term
	}
	return applied
}

func (q UserQuery) filter(tx *gorm.DB) *gorm.DB {
	for col, id := range q.Exact {
		tx = tx.Where(col+" = ?", id)
	}
	postgres := tx.Dialector.Name() == "postgres"
	for col, term := range q.Substring {
		// ILIKE folds every script; SQLite's LOWER only folds ASCII
		if postgres {
			tx = tx.Where(col+" ILIKE ? ESCAPE '\\'", "%"+likeEscaper.Replace(term)+"%")
			continue
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		tx = tx.Where("LOWER("+col+") LIKE ? ESCAPE '\\'", pattern)
	}
	return tx
}

func (q UserQuery) order() string {
	dir := " ASC"
	if q.SortDesc {
		dir = " DESC"
	}
	if q.SortField == "id" {
		return "id" + dir
	}
	return q.SortField + dir + ", id" + dir
}
