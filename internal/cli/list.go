package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bibshelf/internal/output"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

func (a *app) newListCmd() *cobra.Command {
	var by string
	var long bool
	var sortOpts types.SortOptions
	cmd := &cobra.Command{
		Use:   "list [collection]",
		Short: "List the entries reachable from a collection",
		Long: `List every entry reachable from the named collection, or from the whole
library when no collection is named. Entries are sorted by an item (see
--by); entries without that item come last, or are left out with --omit.

Example:
  shelf list
  shelf list fabrics --by year --desc
  shelf list fabrics --long`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			c, err := node(master, optionalArg(args))
			if err != nil {
				return err
			}
			entries, err := c.SortWith(a.sortKey(by), sortOpts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case a.jsonMode:
				return printJSON(out, output.EntryNames(entries))
			case long:
				w := width(out)
				for _, e := range entries {
					fmt.Fprintf(out, "%s\n%s\n", e.Name, output.Indent(2, strings.TrimSuffix(e.Text(types.TextOptions{ANSI: output.Escapes(), Width: max(w-2, 20)}), "\n")))
				}
			default:
				fmt.Fprint(out, output.Columns(output.EntryNames(entries), width(out)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "item to sort by (default: sort_by from config.yaml)")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "print a citation for every entry")
	cmd.Flags().BoolVar(&sortOpts.Descending, "desc", false, "sort in descending order")
	cmd.Flags().BoolVar(&sortOpts.Omit, "omit", false, "leave out entries without the sort item")
	return cmd
}

// collectionJSON is the JSON form of one collection node.
type collectionJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Members  []string `json:"members"`
	Children []string `json:"children"`
}

func (a *app) newChildrenCmd() *cobra.Command {
	var members bool
	cmd := &cobra.Command{
		Use:   "children [collection]",
		Short: "Show the collection tree under a collection",
		Long: `Draw the collections reachable from the named collection, or from the
whole library. A collection reached a second time, through sharing or a
cycle, is marked and not expanded again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			c, err := node(master, optionalArg(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !a.jsonMode {
				fmt.Fprint(out, output.CollectionTree(c, members))
				return nil
			}
			nodes := []collectionJSON{}
			for n := range c.Collections(types.Walk{}) {
				cj := collectionJSON{ID: n.ID(), Name: n.Name(), Kind: string(n.Kind()), Members: []string{}, Children: []string{}}
				if !n.IsMaster() {
					cj.Members = output.EntryNames(n.Members())
				}
				for _, child := range n.Children() {
					cj.Children = append(cj.Children, child.ID())
				}
				nodes = append(nodes, cj)
			}
			return printJSON(out, nodes)
		},
	}
	cmd.Flags().BoolVarP(&members, "members", "m", false, "list the direct entries of every collection")
	return cmd
}

func (a *app) newDuplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates [collection]",
		Short: "Find entries that appear to describe the same work",
		Long: `Group entries with the same first-author surname and title, ignoring
case, spacing and punctuation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			c, err := node(master, optionalArg(args))
			if err != nil {
				return err
			}

			groups := [][]string{}
			for _, g := range c.Duplicates() {
				groups = append(groups, output.EntryNames(g))
			}
			out := cmd.OutOrStdout()
			if a.jsonMode {
				return printJSON(out, groups)
			}
			if len(groups) == 0 {
				fmt.Fprintln(out, "No duplicates found")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintln(out, strings.Join(g, ", "))
			}
			return nil
		},
	}
}
