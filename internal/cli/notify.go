package cli

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/openoverheid/internal/app"
	"github.com/spf13/cobra"
)

// notifyCommand creates the "notify" command running the reminder loop.
func (c *CLI) notifyCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Check watched plates and publish reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			notifier, err := app.NewNotifier(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return fmt.Errorf("init notifier: %w", err)
			}
			defer func() {
				if cerr := notifier.Close(); cerr != nil {
					err = errors.Join(err, cerr)
				}
			}()

			if once {
				return notifier.RunOnce(cmd.Context())
			}
			return notifier.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single check pass and exit")
	return cmd
}
