package cli

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/openoverheid/internal/storage"
	"github.com/samvad-hq/openoverheid/pkg/rdw"
	"github.com/spf13/cobra"
)

type watchEntry struct {
	LicensePlate string `json:"license_plate"`
	ExpiresOn    string `json:"expires_on,omitempty"`
}

// watchCommand creates the watchlist management command.
func (c *CLI) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the plates watched by the notifier",
	}

	cmd.AddCommand(c.watchAddCommand())
	cmd.AddCommand(c.watchRemoveCommand())
	cmd.AddCommand(c.watchListCommand())

	return cmd
}

func (c *CLI) watchAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <plate>...",
		Short: "Add plates to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plates, err := normalizeAll(args)
			if err != nil {
				return err
			}
			return c.withStore(func(store storage.Store) error {
				for _, p := range plates {
					if err := store.AddPlate(p); err != nil {
						return fmt.Errorf("watch %s: %w", p, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", p)
				}
				return nil
			})
		},
	}
}

func (c *CLI) watchRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <plate>...",
		Aliases: []string{"rm"},
		Short:   "Remove plates from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plates, err := normalizeAll(args)
			if err != nil {
				return err
			}
			return c.withStore(func(store storage.Store) error {
				for _, p := range plates {
					removed, err := store.RemovePlate(p)
					if err != nil {
						return fmt.Errorf("unwatch %s: %w", p, err)
					}
					if removed {
						fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", p)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s was not watched\n", p)
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) watchListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show watched plates and their last known expiration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(store storage.Store) error {
				plates, err := store.Plates()
				if err != nil {
					return err
				}
				entries := make([]watchEntry, 0, len(plates))
				for _, p := range plates {
					entry := watchEntry{LicensePlate: p}
					date, ok, err := store.LastExpiration(p)
					if err != nil {
						return err
					}
					if ok {
						entry.ExpiresOn = date.String()
					}
					entries = append(entries, entry)
				}

				out := cmd.OutOrStdout()
				if c.asJSON {
					return writeJSON(out, entries)
				}
				for _, e := range entries {
					if e.ExpiresOn == "" {
						e.ExpiresOn = "-"
					}
					fmt.Fprintf(out, "%s\t%s\n", e.LicensePlate, e.ExpiresOn)
				}
				return nil
			})
		},
	}
}

func (c *CLI) withStore(fn func(storage.Store) error) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	err = fn(store)
	if cerr := store.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
	}
	return err
}

func normalizeAll(args []string) ([]string, error) {
	plates := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := rdw.NormalizeLicensePlate(arg)
		if err != nil {
			return nil, err
		}
		plates = append(plates, p.String())
	}
	return plates, nil
}
