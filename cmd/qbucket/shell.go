package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
)

const shellHelp = `commands:
  get ATTRIBUTE BUCKET OP [key=value ...]   boundary of BUCKET ('<' upper, '>' lower)
  resolve ATTRIBUTE [key=value ...]          stored key and list a query would read
  buckets [P1,P2,...]                        show or set bucket percentages
  keys [ATTRIBUTE]                           list stored keys
  info                                       index parameters
  help                                       this text
  exit                                       leave the shell`

var errQuit = errors.New("quit")

// shell evaluates interactive commands against one index.
type shell struct {
	ix      *qbucket.Index
	buckets []int
}

func newShellCmd(a *app) *cobra.Command {
	var version uint64

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Query an index interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ix, err := a.openIndex(ctx, version)
			if err != nil {
				return err
			}
			sh := &shell{ix: ix, buckets: index.DefaultBuckets()}
			return sh.run(ctx, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Uint64Var(&version, "version", 0, "catalog version (0 = current)")
	return cmd
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".qbucket_history")
}

func (sh *shell) run(ctx context.Context, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	hist := historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintf(out, "qbucket shell: %d lists, gap %d. Type 'help'.\n", sh.ix.Len(), sh.ix.QuantileGap())
	for {
		input, err := line.Prompt("qbucket> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := sh.exec(ctx, input, out); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			fmt.Fprintln(out, "error:", err)
		}
	}

	if hist != "" {
		if f, err := os.Create(hist); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

func (sh *shell) complete(line string) []string {
	var out []string
	for _, c := range []string{"get ", "resolve ", "buckets ", "keys ", "info", "help", "exit"} {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

func (sh *shell) exec(ctx context.Context, input string, out io.Writer) error {
	fields := strings.Fields(input)

	switch fields[0] {
	case "get":
		if len(fields) < 4 {
			return fmt.Errorf("usage: get ATTRIBUTE BUCKET OP [key=value ...]")
		}
		bucket, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("bucket: %w", err)
		}
		op, err := index.ParseOperator(fields[3])
		if err != nil {
			return err
		}
		fs, err := filter.Parse(fields[4:]...)
		if err != nil {
			return err
		}
		r, err := sh.ix.Lookup(ctx, fields[1], bucket, op, qbucket.WithFilters(fs), qbucket.WithBuckets(sh.buckets...))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  (key %s, percentile %d)\n", strconv.FormatFloat(r.Value, 'g', -1, 64), r.Key, r.Percentile)
	case "resolve":
		if len(fields) < 2 {
			return fmt.Errorf("usage: resolve ATTRIBUTE [key=value ...]")
		}
		fs, err := filter.Parse(fields[2:]...)
		if err != nil {
			return err
		}
		key, list, ok := sh.ix.Resolve(fields[1], fs)
		if !ok {
			return qbucket.ErrNoIndexForFilters
		}
		fmt.Fprintf(out, "%s %v\n", key, list)
	case "buckets":
		if len(fields) == 1 {
			fmt.Fprintln(out, joinInts(sh.buckets))
			return nil
		}
		buckets, err := parseInts(fields[1])
		if err != nil {
			return err
		}
		sh.buckets = buckets
	case "keys":
		keys := sh.ix.Document().Entries
		names := make([]string, 0, len(keys))
		for k := range keys {
			if len(fields) < 2 || strings.HasPrefix(k, fields[1]+"#") {
				names = append(names, k)
			}
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintln(out, k)
		}
	case "info":
		fmt.Fprintf(out, "version=%d gap=%d depth=%d lists=%d filter_features=%v bucket_features=%v\n",
			sh.ix.Version(), sh.ix.QuantileGap(), sh.ix.MaxDepth(), sh.ix.Len(),
			sh.ix.CategoricalAttributes(), sh.ix.NumericAttributes())
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "exit", "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("buckets: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
