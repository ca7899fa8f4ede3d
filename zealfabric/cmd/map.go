package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/zealfabric/addrspace"
	"github.com/sarchlab/zealfabric/mem"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the memory pages and I/O ports with their devices.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := buildMachine(nil)
		if err != nil {
			return err
		}

		return printMap(cmd.OutOrStdout(), m.Space())
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
}

func printMap(out io.Writer, space *addrspace.Map) error {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "SPACE\tSTART\tEND\tPAGES\tDEVICE")

	for _, r := range space.Regions(addrspace.MemorySpace) {
		fmt.Fprintf(tw, "mem\t0x%06X\t0x%06X\t%d\t%s\n",
			r.Start, r.Start+r.Size-1, r.Size/mem.PageSize, r.Name)
	}

	for _, r := range space.Regions(addrspace.IOSpace) {
		fmt.Fprintf(tw, "io\t0x%02X\t0x%02X\t-\t%s\n",
			r.Start, r.Start+r.Size-1, r.Name)
	}

	return tw.Flush()
}
