package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/starter-export/internal/fields"
	"github.com/pdiddy/starter-export/internal/sink"
	"github.com/pdiddy/starter-export/pkg/types"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the workbook columns and the searchable query fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		coreLayout, _ := cmd.Flags().GetBool("core-layout")
		printColumns(cmd.OutOrStdout(), coreLayout)
		return nil
	},
}

func init() {
	columnsCmd.Flags().Bool("core-layout", false, "list the full sheet with the columns Starter cannot fill")
	rootCmd.AddCommand(columnsCmd)
}

func printColumns(w io.Writer, coreLayout bool) {
	section := func(title string, headers []string) {
		fmt.Fprintf(w, "Sheet %q (%d):\n", title, len(headers))
		for i, h := range headers {
			note := ""
			if fields.Unavailable(h) {
				note = "  (blank: not returned by Starter)"
			}
			fmt.Fprintf(w, "  %2d. %s%s\n", i+1, h, note)
		}
		fmt.Fprintln(w)
	}
	section(sink.SheetSubset, fields.SubsetHeaders())
	section(sink.SheetFull, fields.FullHeaders(coreLayout))

	fmt.Fprintf(w, "Searchable fields: %s\n", strings.Join(types.DefaultStarterConfig().SearchableFields, ", "))
}
