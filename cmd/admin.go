package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin API utilities",
}

var adminSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count the records of every admin collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Admin.Token == "" {
			return eris.New("admin token is required (CORPSITE_ADMIN_TOKEN)")
		}

		counts, err := newAdminClient(cfg.Admin).Summary(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "admin summary")
		}

		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLLECTION\tRECORDS")
		for _, n := range names {
			fmt.Fprintf(tw, "%s\t%d\n", n, counts[n])
		}
		return tw.Flush()
	},
}

func init() {
	adminCmd.AddCommand(adminSummaryCmd)
	rootCmd.AddCommand(adminCmd)
}
