package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/courses/internal/category"
)

func newCategoriesCmd() *cobra.Command {
	var classify string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the item categories",
		Long: `Print the category catalogue in display order.

With --classify, print the category an item name would be filed under.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if classify != "" {
				id := category.Classify("", classify)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, category.Label(id))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL")
			for _, c := range category.All() {
				fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Label)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&classify, "classify", "", "Item name to classify")
	return cmd
}
