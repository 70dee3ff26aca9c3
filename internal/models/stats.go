package models

import (
	"sort"
	"time"
)

// Stats summarises the log.
type Stats struct {
	Total     int            `json:"total"`
	ThisMonth int            `json:"thisMonth"`
	ThisYear  int            `json:"thisYear"`
	ByType    map[string]int `json:"byType"`
}

// EmptyStats is what a caller gets when no store can answer.
func EmptyStats() Stats {
	return Stats{ByType: map[string]int{}}
}

// ComputeStats counts entries relative to now. An entry belongs to the
// current month (year) when its date starts with now's YYYY-MM (YYYY).
func ComputeStats(entries []Entry, now time.Time) Stats {
	month := now.Format("2006-01")
	year := now.Format("2006")

	s := EmptyStats()
	for i := range entries {
		e := &entries[i]
		s.Total++
		if e.Month() == month {
			s.ThisMonth++
		}
		if e.Year() == year {
			s.ThisYear++
		}
		s.ByType[e.MediaType]++
	}
	return s
}

// DateCount is one row of the distinct-dates listing.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountByDate groups entries by date, newest first.
func CountByDate(entries []Entry) []DateCount {
	counts := make(map[string]int)
	for i := range entries {
		counts[entries[i].Date]++
	}

	out := make([]DateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
