// Package cli implements the rdwapk command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/openoverheid/internal/app"
	"github.com/samvad-hq/openoverheid/internal/config"
	"github.com/samvad-hq/openoverheid/internal/logger"
	"github.com/samvad-hq/openoverheid/internal/storage"
	"github.com/samvad-hq/openoverheid/pkg/rdw"
	"github.com/spf13/cobra"
)

// CLI holds shared state for all commands.
type CLI struct {
	cfg    *config.Config
	log    logger.Logger
	asJSON bool
}

// New creates a CLI bound to the loaded configuration.
func New(cfg *config.Config, log logger.Logger) *CLI {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &CLI{cfg: cfg, log: log}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "rdwapk",
		Short:        "Look up and watch Dutch APK examination expiration dates",
		Long:         `rdwapk queries the RDW open-data examination dataset for APK expiration dates and sends reminders for watched license plates.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.notifyCommand())

	return root
}

func (c *CLI) newAPI() *rdw.API {
	return app.NewAPI(c.cfg, c.log)
}

func (c *CLI) openStore() (storage.Store, error) {
	return app.OpenStore(c.cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
