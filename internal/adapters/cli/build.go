package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCommand(load Loader) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or refresh the persisted indexes and notify running servers",
		Long: `Loads the corpus and prepares both indexes, reusing persisted artifacts
whose corpus fingerprint still matches. When NATS_URL is set a reload event
is published so running API servers swap in the new state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, closeFn, err := loadRuntime(ctx, load)
			if err != nil {
				return err
			}
			defer closeFn()

			p := newPrinter(cmd.OutOrStdout())
			p.capabilities(rt.Search.Health())
			if err := requireHealthy(rt); err != nil {
				return err
			}
			if !notify || rt.Notifier == nil {
				return nil
			}
			if err := rt.Notifier.PublishReload(ctx, "index build"); err != nil {
				return fmt.Errorf("publish reload: %w", err)
			}
			p.notice("Reload event published.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", true, "publish a reload event when NATS is configured")
	return cmd
}
