// Package cli implements the hybridsearch command line: one-shot search, an
// interactive prompt, and index warm-up.
package cli

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

// Runtime is a loaded search service plus what the commands need around it.
type Runtime struct {
	Search ports.SearchService
	// Notifier publishes reload events after a build. May be nil.
	Notifier ports.ReloadNotifier
	// InitErr is the corpus load error, if any. The service still answers
	// health in that case.
	InitErr error
	Close   func()
}

// Loader builds and initializes the search service. It runs only for
// commands that need it, so --help stays cheap.
type Loader func(ctx context.Context) (*Runtime, error)

func NewRootCommand(load Loader) *cobra.Command {
	var noColor bool
	root := &cobra.Command{
		Use:           "hybridsearch",
		Short:         "Hybrid keyword and semantic search over a news corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newSearchCommand(load),
		newInteractiveCommand(load),
		newBuildCommand(load),
	)
	return root
}

func loadRuntime(ctx context.Context, load Loader) (*Runtime, func(), error) {
	rt, err := load(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if rt.Close != nil {
			rt.Close()
		}
	}
	return rt, closeFn, nil
}

func requireHealthy(rt *Runtime) error {
	if rt.InitErr != nil {
		return domain.WrapError(domain.ErrUnavailable, "search", rt.InitErr)
	}
	return nil
}
