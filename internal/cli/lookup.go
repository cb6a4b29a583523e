package cli

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/samvad-hq/openoverheid/pkg/async"
	"github.com/spf13/cobra"
)

type lookupResult struct {
	LicensePlate string      `json:"license_plate"`
	ExpiresOn    *civil.Date `json:"expires_on,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// lookupCommand creates the "lookup" command.
func (c *CLI) lookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <plate>...",
		Short: "Print the APK expiration date of one or more plates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := c.newAPI()
			defer api.Close()
			inspections := api.Vehicles.Inspections

			futures := make([]*async.Future[civil.Date], len(args))
			for i, plate := range args {
				futures[i] = inspections.ExaminationExpirationAsync(cmd.Context(), plate)
			}

			results := make([]lookupResult, len(args))
			var errs []error
			for i, f := range futures {
				results[i].LicensePlate = args[i]
				date, err := f.Await(cmd.Context())
				if err != nil {
					results[i].Error = err.Error()
					errs = append(errs, err)
					continue
				}
				results[i].ExpiresOn = &date
			}

			if err := c.printLookup(cmd, results); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
}

func (c *CLI) printLookup(cmd *cobra.Command, results []lookupResult) error {
	out := cmd.OutOrStdout()
	if c.asJSON {
		return writeJSON(out, results)
	}
	for _, r := range results {
		if r.ExpiresOn == nil {
			fmt.Fprintf(out, "%s\terror: %s\n", r.LicensePlate, r.Error)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", r.LicensePlate, r.ExpiresOn)
	}
	return nil
}
