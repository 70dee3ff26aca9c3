package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/spf13/cobra"
)

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseIDArg(s string) (models.ID, error) {
	id, err := models.ParseLabel(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *App) newListCmd() *cobra.Command {
	var (
		filters models.Filters
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.svc.GetEntries(cmd.Context(), filters)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a.out, list)
			}
			return printEntries(a.out, list)
		},
	}
	cmd.Flags().StringVar(&filters.Date, "date", "", "only entries on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filters.Month, "month", "", "only entries in this month (YYYY-MM)")
	cmd.Flags().StringVar(&filters.Search, "search", "", "case-insensitive text in title or notes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *App) newGetCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			e, err := a.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a.out, e)
			}
			return printEntry(a.out, e)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// entryFlags are the editable fields shared by add and update.
type entryFlags struct {
	title, mediaType, creator, url, date, notes string
	rating                                      int
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title")
	cmd.Flags().StringVarP(&f.mediaType, "type", "k", "", "media type (book, film, game, ...)")
	cmd.Flags().StringVar(&f.creator, "creator", "", "author, director or studio")
	cmd.Flags().IntVarP(&f.rating, "rating", "r", 0, "rating")
	cmd.Flags().StringVar(&f.url, "url", "", "link")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date consumed (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

// apply copies the flags the user set onto e.
func (f *entryFlags) apply(cmd *cobra.Command, e *models.Entry) {
	set := cmd.Flags().Changed
	if set("title") {
		e.Title = f.title
	}
	if set("type") {
		e.MediaType = f.mediaType
	}
	if set("creator") {
		e.Creator = f.creator
	}
	if set("rating") {
		e.Rating = models.IntPtr(f.rating)
	}
	if set("url") {
		e.URL = f.url
	}
	if set("date") {
		e.Date = f.date
	}
	if set("notes") {
		e.Notes = f.notes
	}
}

// prompt asks for every field interactively.
func (a *App) prompt(e *models.Entry) error {
	var err error
	if e.Title, err = askField(a.reader, "Title", a.out); err != nil {
		return err
	}
	if e.MediaType, err = askField(a.reader, "Media type (book, film, game, ...)", a.out); err != nil {
		return err
	}
	if e.Creator, err = askField(a.reader, "Creator (optional)", a.out); err != nil {
		return err
	}

	r, err := askField(a.reader, "Rating (optional)", a.out)
	if err != nil {
		return err
	}
	if r != "" {
		n, err := strconv.Atoi(r)
		if err != nil {
			return fmt.Errorf("invalid rating %q", r)
		}
		e.Rating = models.IntPtr(n)
	}

	if e.URL, err = askField(a.reader, "URL (optional)", a.out); err != nil {
		return err
	}
	d, err := askField(a.reader, "Date (YYYY-MM-DD, empty for today)", a.out)
	if err != nil {
		return err
	}
	if d != "" {
		e.Date = d
	}
	if e.Notes, err = askNotes(a.reader, "Notes (optional)", a.out); err != nil {
		return err
	}
	return nil
}

func (a *App) newAddCmd() *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry; prompts for the fields when no flags are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := models.Entry{Date: a.now().Format("2006-01-02")}
			if cmd.Flags().NFlag() == 0 {
				if err := a.prompt(&e); err != nil {
					return err
				}
			} else {
				f.apply(cmd, &e)
			}

			before := a.pendingCount(cmd.Context())
			id, err := a.svc.Add(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added entry %s%s\n", id.Label(), a.queuedSuffix(cmd.Context(), before))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *App) newUpdateCmd() *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().NFlag() == 0 {
				return fmt.Errorf("nothing to update")
			}

			e, err := a.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			f.apply(cmd, e)

			before := a.pendingCount(cmd.Context())
			if err := a.svc.Update(cmd.Context(), id, *e); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated entry %s%s\n", id.Label(), a.queuedSuffix(cmd.Context(), before))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *App) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			before := a.pendingCount(cmd.Context())
			if err := a.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted entry %s%s\n", id.Label(), a.queuedSuffix(cmd.Context(), before))
			return nil
		},
	}
}

func (a *App) newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals by month, year and media type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.svc.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a.out, s)
			}
			return printStats(a.out, s)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *App) newDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the days that have entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := a.svc.GetDates(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range dates {
				fmt.Fprintf(a.out, "%s  %d\n", d.Date, d.Count)
			}
			return nil
		},
	}
}

func (a *App) pendingCount(ctx context.Context) int {
	ops, err := a.svc.Pending(ctx)
	if err != nil {
		return 0
	}
	return len(ops)
}

// queuedSuffix marks writes that landed in the sync queue instead of on
// the server.
func (a *App) queuedSuffix(ctx context.Context, before int) string {
	if a.pendingCount(ctx) > before {
		return " (queued for sync)"
	}
	return ""
}
