// Command qbucket trains, persists and serves quantile-bucket indexes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket/internal/config"
)

// app carries the state shared by all subcommands.
type app struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "qbucket",
		Short:         "Percentile bucket boundaries over filtered data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (yaml, json or toml); QBUCKET_* env vars override")

	root.AddCommand(
		newBuildCmd(a),
		newGetCmd(a),
		newServeCmd(a),
		newInspectCmd(a),
		newVersionsCmd(a),
		newShellCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
