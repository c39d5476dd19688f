package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket/catalog"
)

func newVersionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List catalog versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			cat := catalog.New(store)

			current, err := cat.CurrentID(ctx)
			if err != nil {
				return err
			}
			versions, err := cat.ListVersions(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tCREATED\tENTRIES\tGAP\tDEPTH\tSIZE\tDESCRIPTION")
			for _, m := range versions {
				marker := ""
				if m.ID == current {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
					marker, m.ID, m.CreatedAt.Format(time.RFC3339), m.Entries, m.QuantileGap, m.MaxDepth, m.IndexSize, m.Description)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a catalog version that is not current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("version id: %w", err)
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := catalog.New(store).DeleteVersion(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted version %d\n", id)
			return nil
		},
	})
	return cmd
}
