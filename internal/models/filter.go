package models

import (
	"net/url"
	"sort"
	"strings"
)

// Filters narrow an entry listing. Empty fields do not filter.
//
//   - Date: exact YYYY-MM-DD match.
//   - Month: YYYY-MM prefix of the date.
//   - Search: case-insensitive substring of title or notes.
type Filters struct {
	Date   string
	Month  string
	Search string
}

func (f Filters) IsEmpty() bool {
	return f.Date == "" && f.Month == "" && f.Search == ""
}

// Match reports whether e passes every non-empty filter.
func (f Filters) Match(e *Entry) bool {
	if f.Date != "" && e.Date != f.Date {
		return false
	}
	if f.Month != "" && !strings.HasPrefix(e.Date, f.Month) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Notes), needle) {
			return false
		}
	}
	return true
}

// Values encodes the filters as the query string of GET /api/entries.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	if f.Month != "" {
		v.Set("month", f.Month)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

// FiltersFromValues is the inverse of Values.
func FiltersFromValues(v url.Values) Filters {
	return Filters{
		Date:   v.Get("date"),
		Month:  v.Get("month"),
		Search: v.Get("search"),
	}
}

// FilterEntries returns the matching entries in listing order. The input
// slice is not modified.
func FilterEntries(entries []Entry, f Filters) []Entry {
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		if f.Match(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	SortEntries(out)
	return out
}

// SortEntries orders entries the way the server lists them: newest date
// first, then newest creation time, then highest id.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		switch {
		case a.CreatedAt != nil && b.CreatedAt != nil:
			if !a.CreatedAt.Equal(*b.CreatedAt) {
				return a.CreatedAt.After(*b.CreatedAt)
			}
		case a.CreatedAt != nil:
			return true
		case b.CreatedAt != nil:
			return false
		}
		return a.ID > b.ID
	})
}
