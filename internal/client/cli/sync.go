package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued writes against the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.svc.ProcessSyncQueue(cmd.Context())
			if report.Total() > 0 || err == nil {
				fmt.Fprintf(a.out, "Replayed %d, requeued %d, dropped %d\n", report.Replayed, report.Requeued, report.Dropped)
			}
			return err
		},
	}
}

func (a *App) newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List writes waiting in the sync queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.svc.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(a.out, "Sync queue is empty.")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUED\tACTION\tENTRY\tTITLE")
			for _, op := range ops {
				title := ""
				if op.Entry != nil {
					title = op.Entry.Title
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.EnqueuedAt.Local().Format("2006-01-02 15:04:05"), op.Action, op.EntryID.Label(), title)
			}
			return tw.Flush()
		},
	}
}
