package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

func isQuitCommand(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func newInteractiveCommand(load Loader) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive search prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := newPrinter(cmd.OutOrStdout())

			rt, closeFn, err := loadRuntime(ctx, load)
			if err != nil {
				return err
			}
			defer closeFn()

			p.capabilities(rt.Search.Health())
			if err := requireHealthy(rt); err != nil {
				return err
			}
			p.banner()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				p.prompt()
				if !scanner.Scan() {
					p.goodbye()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case isQuitCommand(line):
					p.goodbye()
					return nil
				case line == "":
					p.notice("Please enter a search query.")
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}

				req, err := flags.request(line)
				if err != nil {
					p.failure(err)
					continue
				}
				outcome, err := rt.Search.Search(ctx, req)
				if err != nil {
					if domain.IsKind(err, domain.ErrInvalidInput) {
						p.failure(err)
						continue
					}
					return err
				}
				p.outcome(outcome)
			}
		},
	}
	flags.register(cmd)
	return cmd
}
