package cli

import (
	"fmt"
	"sort"

	"github.com/samvad-hq/openoverheid/pkg/rdw"
	"github.com/spf13/cobra"
)

type listOptions struct {
	limit  int
	offset int
	raw    bool
}

type listEntry struct {
	LicensePlate string `json:"kenteken"`
	ExpiresOn    string `json:"vervaldatum_keuring"`
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expiration dates from the dataset",
		Long: `List expiration dates from the RDW dataset. Without --limit or --offset the
server's default page is returned; with either flag both are sent as given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var page *rdw.Page
			if cmd.Flags().Changed("limit") || cmd.Flags().Changed("offset") {
				page = &rdw.Page{Limit: opts.limit, Offset: opts.offset}
			}
			return c.runList(cmd, page, opts.raw)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 1000, "maximum number of records ($limit)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "number of records to skip ($offset)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print records as returned, without parsing dates")

	return cmd
}

func (c *CLI) runList(cmd *cobra.Command, page *rdw.Page, raw bool) error {
	api := c.newAPI()
	defer api.Close()
	inspections := api.Vehicles.Inspections

	var entries []listEntry
	if raw {
		records, err := inspections.ExaminationRecords(cmd.Context(), page)
		if err != nil {
			return err
		}
		for _, r := range records {
			entries = append(entries, listEntry{LicensePlate: r.LicensePlate, ExpiresOn: r.ExpirationDate})
		}
	} else {
		var (
			expirations rdw.ExpirationMap
			err         error
		)
		if page == nil {
			expirations, err = inspections.ExaminationExpirations(cmd.Context())
		} else {
			expirations, err = inspections.ExaminationExpirationsPage(cmd.Context(), page.Limit, page.Offset)
		}
		if err != nil {
			return err
		}
		for plate, date := range expirations {
			entries = append(entries, listEntry{LicensePlate: plate, ExpiresOn: date.String()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].LicensePlate < entries[j].LicensePlate })
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		if entries == nil {
			entries = []listEntry{}
		}
		return writeJSON(out, entries)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\n", e.LicensePlate, e.ExpiresOn)
	}
	return nil
}
