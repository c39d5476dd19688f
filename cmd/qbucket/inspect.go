package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/qbucket/catalog"
)

type inspectOutput struct {
	Manifest *catalog.Manifest    `yaml:"manifest"`
	Entries  map[string][]float64 `yaml:"entries,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		version uint64
		entries bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a catalog manifest as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			out := inspectOutput{}

			if entries {
				ix, err := a.openIndex(ctx, version)
				if err != nil {
					return err
				}
				out.Entries = ix.Document().Entries
				version = ix.Version()
			}

			out.Manifest, err = catalog.New(store).Manifest(ctx, version)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().Uint64Var(&version, "version", 0, "catalog version (0 = current)")
	cmd.Flags().BoolVar(&entries, "entries", false, "include every stored quantile list")
	return cmd
}
