package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/medialog/internal/client/services"
	"github.com/spf13/cobra"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL needs.
// The real App satisfies it; tests can provide a lightweight stub.
type execIface interface {
	Execute(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit", or until
// ctx is done. Each line is split into words and handed to a.Execute, so
// the shell accepts exactly the one-shot commands with their flags.
// Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("medialog (%s)> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "shell":
			printlnFn("Already in the shell")
		default:
			if err := a.Execute(ctx, parts); err != nil {
				printlnFn(errorLine(err))
			}
		}
	}
}

func (a *App) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with background connectivity checks and auto sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var wg sync.WaitGroup
			if a.svc.Mode() == services.ModeBackend {
				events := services.WatchConnectivity(ctx, a.svc, a.config.OnlineCheckInterval)
				wg.Add(2)
				go func() {
					defer wg.Done()
					a.svc.Watch(ctx, events)
				}()
				go func() {
					defer wg.Done()
					a.svc.RunAutoSync(ctx)
				}()
			}

			printlnFn("Welcome to medialog (type 'help' for commands, 'exit' to leave)")
			runREPL(ctx, a, a.status, a.reader)

			cancel()
			wg.Wait()
			return nil
		},
	}
}
