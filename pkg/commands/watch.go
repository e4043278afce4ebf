package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tableflip.dev/cookbook/pkg/runner/watch"
)

func addWatch(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print changes made to the library by other processes.",
		Example: `
cookbook watch
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return run(func(ctx context.Context, s *session) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()
				r := watch.Watch{Source: s.disk, Printer: s.printer}
				return r.Do(ctx)
			})
		},
	}

	topLevel.AddCommand(cmd)
}
