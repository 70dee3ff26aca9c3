package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/goccy/go-json"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rating(r *int) string {
	if r == nil {
		return "-"
	}
	return strconv.Itoa(*r)
}

func printEntries(w io.Writer, list []models.Entry) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tTITLE\tCREATOR\tRATING")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID.Label(), e.Date, e.MediaType, e.Title, e.Creator, rating(e.Rating))
	}
	return tw.Flush()
}

func printEntry(w io.Writer, e *models.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID.Label())
	fmt.Fprintf(tw, "Title:\t%s\n", e.Title)
	fmt.Fprintf(tw, "Type:\t%s\n", e.MediaType)
	fmt.Fprintf(tw, "Date:\t%s\n", e.Date)
	if e.Creator != "" {
		fmt.Fprintf(tw, "Creator:\t%s\n", e.Creator)
	}
	if e.Rating != nil {
		fmt.Fprintf(tw, "Rating:\t%d\n", *e.Rating)
	}
	if e.URL != "" {
		fmt.Fprintf(tw, "URL:\t%s\n", e.URL)
	}
	if e.Notes != "" {
		fmt.Fprintf(tw, "Notes:\t%s\n", e.Notes)
	}
	return tw.Flush()
}

func printStats(w io.Writer, s *models.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total:\t%d\n", s.Total)
	fmt.Fprintf(tw, "This month:\t%d\n", s.ThisMonth)
	fmt.Fprintf(tw, "This year:\t%d\n", s.ThisYear)
	for _, t := range sortedKeys(s.ByType) {
		fmt.Fprintf(tw, "  %s:\t%d\n", t, s.ByType[t])
	}
	return tw.Flush()
}
