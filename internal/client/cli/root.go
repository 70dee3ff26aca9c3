package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/medialog/internal/buildinfo"
	"github.com/dmitrijs2005/medialog/internal/client/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the medialog command tree. Commands that touch data
// load the configuration and open the App on first use; the caller closes it.
func NewRootCommand(a *App) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "medialog",
		Short: "Keep a log of the books, films and games you get through",
		Long: `medialog keeps a dated log of media entries on a medialog server.

When the server cannot be reached, writes go to a local cache and wait in a
sync queue; they are replayed in order once the server is back. Run
'medialog shell' for an interactive session that syncs automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["standalone"] == "true" {
				return nil
			}
			configFile, _ := cmd.Root().PersistentFlags().GetString("config")
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return a.Open(cmd.Context(), cfg)
		},
	}
	root.SetOut(a.out)
	config.BindFlags(root, v)

	a.addCommands(root)
	root.AddCommand(a.newShellCmd(), a.newVersionCmd())
	return root
}

func (a *App) addCommands(root *cobra.Command) {
	root.AddCommand(
		a.newListCmd(),
		a.newGetCmd(),
		a.newAddCmd(),
		a.newUpdateCmd(),
		a.newDeleteCmd(),
		a.newStatsCmd(),
		a.newDatesCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newStatusCmd(),
		a.newSyncCmd(),
		a.newPendingCmd(),
		a.newImportCmd(),
		a.newExportCmd(),
		a.newClearAllCmd(),
		a.newSettingsCmd(),
	)
}

// Execute runs one command line against the already opened App.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	a.addCommands(root)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"standalone": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(a.out)
		},
	}
}

// errorLine renders err for the terminal.
func errorLine(err error) string {
	return fmt.Sprintf("Error: %v", err)
}
