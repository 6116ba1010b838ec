package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/offline"
	"github.com/teemow/courses/internal/shopping"
)

func newItemCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, check off and remove items",
		Long: `Manage the items of a list on the server.

Changes made while the server is unreachable are queued locally and shown
with a temporary id. Run "courses sync" to replay them.`,
	}
	flags.register(cmd)

	cmd.AddCommand(newItemListCmd(&flags))
	cmd.AddCommand(newItemAddCmd(&flags))
	cmd.AddCommand(newItemDoneCmd(&flags))
	cmd.AddCommand(newItemRemoveCmd(&flags))
	return cmd
}

// withSession runs fn against a fresh session bound to the configured user.
func withSession(cmd *cobra.Command, flags *clientFlags, fn func(*offline.Session, *cobra.Command) error) error {
	session, _, err := openSession(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session.Session, cmd)
}

func newListsCmd() *cobra.Command {
	flags := &clientFlags{}
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show the lists of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *offline.Session, cmd *cobra.Command) error {
				lists, err := s.ListLists(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tITEMS")
				for _, l := range lists {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", l.ID, l.Name, l.ItemsCount)
				}
				return tw.Flush()
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newItemListCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls LIST_ID",
		Short: "Show the items of a list, queued changes included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *offline.Session, cmd *cobra.Command) error {
				items, err := s.ListItems(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}
}

func newItemAddCmd(flags *clientFlags) *cobra.Command {
	var (
		quantity string
		cat      string
	)

	cmd := &cobra.Command{
		Use:   "add LIST_ID NAME",
		Short: "Add an item to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *offline.Session, cmd *cobra.Command) error {
				item, err := s.CreateItem(cmd.Context(), args[0], shopping.NewItem{
					Name:     args[1],
					Quantity: quantity,
					Category: cat,
				})
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), []shopping.Item{item})
			})
		},
	}

	cmd.Flags().StringVarP(&quantity, "quantity", "q", "", "Quantity, e.g. 2kg")
	cmd.Flags().StringVarP(&cat, "category", "c", "", "Category id or label (see 'courses categories'). Inferred from the name when empty.")
	return cmd
}

func newItemDoneCmd(flags *clientFlags) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done ITEM_ID...",
		Short: "Check off items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *offline.Session, cmd *cobra.Command) error {
				patch := shopping.ItemPatch{Completed: shopping.Bool(!undo)}
				items := make([]shopping.Item, 0, len(args))
				for _, id := range args {
					item, err := s.UpdateItem(cmd.Context(), id, patch)
					if err != nil {
						return err
					}
					items = append(items, item)
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Uncheck the items instead")
	return cmd
}

func newItemRemoveCmd(flags *clientFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ITEM_ID...",
		Aliases: []string{"remove"},
		Short:   "Remove items",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(s *offline.Session, cmd *cobra.Command) error {
				for _, id := range args {
					if err := s.DeleteItem(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				}
				return nil
			})
		},
	}
}

func printItems(w io.Writer, items []shopping.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tNAME\tQUANTITY\tCATEGORY")
	for _, item := range items {
		done := " "
		if item.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\n", item.ID, done, item.Name, item.Quantity, category.Label(item.Category))
	}
	return tw.Flush()
}
