package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/medialog/internal/client/export"
	"github.com/dmitrijs2005/medialog/internal/client/services"
	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in as admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := askPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			sess, err := a.svc.Login(cmd.Context(), string(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in, session valid until %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *App) status() string {
	parts := []string{string(a.svc.Mode())}
	if a.svc.Mode() == services.ModeBackend {
		if a.svc.IsOnline() {
			parts = append(parts, "online")
		} else {
			parts = append(parts, "offline")
		}
	}
	if a.svc.IsAdmin() {
		parts = append(parts, "admin")
	}
	return strings.Join(parts, " ")
}

func (a *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage mode, connectivity and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fmt.Fprintf(a.out, "Mode:          %s\n", a.svc.Mode())
			if a.svc.Mode() == services.ModeBackend {
				fmt.Fprintf(a.out, "Server:        %s\n", a.config.ServerURL)
				fmt.Fprintf(a.out, "Online:        %t\n", a.svc.IsOnline())
				fmt.Fprintf(a.out, "Admin:         %t\n", a.svc.IsAdmin())
			}
			fmt.Fprintf(a.out, "Local cache:   %t\n", a.svc.HasLocalStorage())
			fmt.Fprintf(a.out, "Pending ops:   %d\n", a.pendingCount(ctx))

			last, err := a.svc.LastSync(ctx)
			if err != nil {
				return err
			}
			if last != nil {
				fmt.Fprintf(a.out, "Last sync:     %s\n", last.Local().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(a.out, "Last sync:     never")
			}
			return nil
		},
	}
}

func (a *App) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from an export file (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			list, err := export.Parse(data)
			if err != nil {
				return err
			}

			n, err := a.svc.Import(cmd.Context(), list)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported %d of %d entries\n", n, len(list))
			return nil
		},
	}
}

func (a *App) newExportCmd() *cobra.Command {
	var (
		out   string
		toS3  bool
		toURL string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all entries to stdout, a file, S3 or a presigned URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var sink export.Sink
			switch {
			case toS3 && toURL != "":
				return errors.New("--s3 and --url are exclusive")
			case toS3:
				s3 := a.config.S3
				s, err := export.NewS3Sink(export.S3Options{
					Endpoint:     s3.Endpoint,
					Region:       s3.Region,
					Bucket:       s3.Bucket,
					AccessKey:    s3.AccessKey,
					SecretKey:    s3.SecretKey,
					UsePathStyle: s3.UsePathStyle,
				}, nil)
				if err != nil {
					return err
				}
				sink = s
			case toURL != "":
				sink = export.URLSink{URL: toURL}
			case out != "":
				sink = export.FileSink{Path: out}
			}

			list, err := a.svc.Export(ctx)
			if err != nil {
				return err
			}
			now := a.now()
			data, err := export.Marshal(list, now)
			if err != nil {
				return err
			}

			if sink == nil {
				_, err := fmt.Fprintln(a.out, string(data))
				return err
			}
			loc, err := sink.Put(ctx, export.ObjectName(now), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d entries to %s\n", len(list), loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file or directory")
	cmd.Flags().BoolVar(&toS3, "s3", false, "upload to the configured S3 bucket")
	cmd.Flags().StringVar(&toURL, "url", "", "upload to a presigned PUT URL")
	return cmd
}

func (a *App) newClearAllCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every entry (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := askField(a.reader, "Delete ALL entries? Type 'yes' to confirm", a.out)
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Fprintln(a.out, "Cancelled")
					return nil
				}
			}

			n, err := a.svc.ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [auto_sync=true|false]",
		Short: "Show or change server settings (admin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				key, value, ok := strings.Cut(args[0], "=")
				if !ok || key != "auto_sync" {
					return fmt.Errorf("unknown setting %q", args[0])
				}
				v, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("auto_sync: %w", err)
				}
				if err := a.svc.UpdateSettings(ctx, v); err != nil {
					return err
				}
			}

			s, err := a.svc.Settings(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "auto_sync = %t\n", s.AutoSync)
			if s.LastSync != nil {
				fmt.Fprintf(a.out, "last_sync = %s\n", s.LastSync.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}
	return cmd
}
