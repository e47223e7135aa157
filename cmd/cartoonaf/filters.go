package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fpang/cartoonaf/internal/filter"
)

func newFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the available filters and the parameters each reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := filter.NewRegistry(filter.GoEngine{})
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TOKEN\tALIAS\tRESPONSE KEY\tPARAMETERS")
			for _, k := range filter.Kinds() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Token(), k.Alias(), k.ResponseKey(), reg.Get(k).Shape)
			}
			return tw.Flush()
		},
	}
}
