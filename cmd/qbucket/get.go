package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		op      string
		filters []string
		buckets []int
		version uint64
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "get ATTRIBUTE BUCKET",
		Short: "Print the boundary of a bucket",
		Example: `  qbucket get listPrice 2 --op '<'
  qbucket get listPrice 1 --op '>' --filter category=Shoes --buckets 10,40,50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			bucket, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bucket: %w", err)
			}
			operator, err := index.ParseOperator(op)
			if err != nil {
				return err
			}
			fs, err := filter.Parse(filters...)
			if err != nil {
				return err
			}

			ix, err := a.openIndex(ctx, version)
			if err != nil {
				return err
			}

			qopts := []qbucket.QueryOption{qbucket.WithFilters(fs)}
			if len(buckets) > 0 {
				qopts = append(qopts, qbucket.WithBuckets(buckets...))
			}
			r, err := ix.Lookup(ctx, args[0], bucket, operator, qopts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if debug {
				fmt.Fprintf(out, "key=%s percentile=%d position=%d list=%v\n", r.Key, r.Percentile, r.Position, r.List)
			}
			fmt.Fprintln(out, strconv.FormatFloat(r.Value, 'g', -1, 64))
			return nil
		},
	}

	cmd.Flags().StringVar(&op, "op", "<", "operator: '<' upper boundary, '>' lower boundary")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter key=value (repeatable, order matters for fallback)")
	cmd.Flags().IntSliceVar(&buckets, "buckets", nil, "bucket percentages summing to 100 (default 25,25,25,25)")
	cmd.Flags().Uint64Var(&version, "version", 0, "catalog version (0 = current)")
	cmd.Flags().BoolVar(&debug, "debug", false, "print the resolved key and list")
	return cmd
}
