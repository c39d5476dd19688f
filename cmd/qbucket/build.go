package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/catalog"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		description string
		labels      map[string]string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Train an index from the configured source and save it as a new version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			src, err := a.openSource(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			opts, err := a.options()
			if err != nil {
				return err
			}
			ix, err := qbucket.Build(ctx, src, src, opts...)
			if err != nil {
				return err
			}

			stats := ix.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entries=%d skipped=%d revisited=%d queries=%d duration=%s\n",
				stats.Entries, stats.Skipped, stats.Revisited, stats.Queries, stats.Duration)
			if dryRun {
				return nil
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			m, err := ix.Save(ctx, store, catalog.Meta{Description: description, Labels: labels})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "saved version %d (%s, %d bytes)\n", m.ID, m.IndexPath, m.IndexSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description stored in the manifest")
	cmd.Flags().StringToStringVar(&labels, "label", nil, "manifest labels (key=value)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build without saving")
	return cmd
}
