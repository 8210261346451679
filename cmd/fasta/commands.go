package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jpl-au/fasta"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// tally accumulates per-record results from concurrent workers.
type tally struct {
	mu       sync.Mutex
	records  int
	residues int
	lengths  []float64
}

func (t *tally) add(set *fasta.RecordSet, keep bool) {
	var residues int
	var lengths []float64
	for _, view := range set.All() {
		n := 0
		for line := range view.Lines() {
			n += len(line)
		}
		residues += n
		if keep {
			lengths = append(lengths, float64(n))
		}
	}

	t.mu.Lock()
	t.records += set.Len()
	t.residues += residues
	t.lengths = append(t.lengths, lengths...)
	t.mu.Unlock()
}

// collect runs the batch pipeline over path.
func collect(cmd *cobra.Command, path string, keep bool) (t *tally, err error) {
	r, err := open(cmd, path)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, r.Close()) }()

	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	t = &tally{}
	err = fasta.Parallel(cmd.Context(), r, workers, func(set *fasta.RecordSet) error {
		t.add(set, keep)
		return nil
	})
	return t, err
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <file>",
		Short: "Count records and residues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := collect(cmd, args[0], false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "records\t%d\nresidues\t%d\n", t.records, t.residues)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var bins int
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarise sequence lengths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := collect(cmd, args[0], true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records\t%d\nresidues\t%d\n", t.records, t.residues)
			if t.records == 0 {
				return nil
			}

			fmt.Fprintf(out, "min\t%.0f\nmax\t%.0f\nmean\t%.1f\n",
				slices.Min(t.lengths), slices.Max(t.lengths), float64(t.residues)/float64(t.records))
			h := histogram.Hist(bins, t.lengths)
			return histogram.Fprint(out, h, histogram.Linear(40))
		},
	}
	cmd.Flags().IntVar(&bins, "bins", 10, "histogram buckets")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var output string
	var alg int
	var verify bool
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Build a position index for random access by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.Close()) }()

			if output == "" {
				output = fasta.IndexPath(args[0])
			}
			if verify {
				return verifyIndex(cmd, output, r)
			}
			n, err := fasta.BuildIndex(output, r, fasta.IndexOptions{Algorithm: alg, Logger: log.StandardLogger()})
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"path": output, "records": n}).Info("index written")
			fmt.Fprintf(cmd.OutOrStdout(), "%d records indexed in %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "index path (default <file>"+fasta.IndexExt+")")
	cmd.Flags().IntVar(&alg, "alg", fasta.AlgXXHash3, "hash algorithm: 1=xxHash3, 2=FNV-1a, 3=BLAKE2b")
	cmd.Flags().BoolVar(&verify, "verify", false, "check an existing index against the file instead of building")
	return cmd
}

// verifyIndex checks the index at path against r and reports each
// mismatched entry.
func verifyIndex(cmd *cobra.Command, path string, r *fasta.Reader) (err error) {
	idx, err := fasta.OpenIndex(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, idx.Close()) }()

	res, err := idx.Verify(r)
	for _, e := range multierr.Errors(err) {
		log.Warn(e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %d mismatched\n", res.Entries, res.Mismatch)
	if err != nil {
		return fmt.Errorf("%s is stale: %d of %d entries mismatched", path, res.Mismatch, res.Entries)
	}
	return nil
}

func newGetCmd() *cobra.Command {
	var indexPath string
	var width int
	cmd := &cobra.Command{
		Use:   "get <file> <id>...",
		Short: "Print records by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if indexPath == "" {
				indexPath = fasta.IndexPath(args[0])
			}
			idx, err := fasta.OpenIndex(indexPath)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, idx.Close()) }()

			r, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.Close()) }()

			w := fasta.NewWriter(cmd.OutOrStdout(), width)
			for _, id := range args[1:] {
				rec, err := idx.Fetch(r, id)
				if errors.Is(err, fasta.ErrNotFound) {
					log.WithField("id", id).Warn("not in index")
					continue
				}
				if err != nil {
					return err
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&indexPath, "index", "i", "", "index path (default <file>"+fasta.IndexExt+")")
	cmd.Flags().IntVar(&width, "width", fasta.DefaultWidth, "output line width (0 = unwrapped)")
	return cmd
}

func newWrapCmd() *cobra.Command {
	var width int
	var output string
	cmd := &cobra.Command{
		Use:   "wrap <file>",
		Short: "Rewrite records with a fixed line width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.Close()) }()

			w := fasta.NewWriter(cmd.OutOrStdout(), width)
			if output != "" {
				if w, err = fasta.Create(output, width); err != nil {
					return err
				}
				log.WithFields(log.Fields{"path": output, "format": fasta.FormatOf(output)}).Debug("writing")
			}
			defer func() { err = multierr.Append(err, w.Close()) }()

			return rewrap(cmd.Context(), r, w)
		},
	}
	cmd.Flags().IntVar(&width, "width", fasta.DefaultWidth, "output line width (0 = unwrapped)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout; .gz and .zst compress")
	return cmd
}

// rewrap copies every record from r to w straight from the read buffer.
func rewrap(ctx context.Context, r *fasta.Reader, w *fasta.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		view, err := r.Next()
		if err == io.EOF {
			return w.Flush()
		}
		if err != nil {
			return err
		}
		if err := w.WriteView(view); err != nil {
			return err
		}
	}
}

func newGrepCmd() *cobra.Command {
	var opts fasta.SearchOptions
	var indexPath string
	var records bool
	var width int
	cmd := &cobra.Command{
		Use:   "grep <pattern> <file>",
		Short: "Find records by description or id",
		Long: "Find records whose description matches pattern. Patterns without regex\n" +
			"metacharacters are matched literally. With --index the ids stored in the\n" +
			"index are matched instead and the FASTA file is only read for --records.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			pattern, path := args[0], args[1]
			r, err := open(cmd, path)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, r.Close()) }()

			matches := fasta.Search(r, pattern, opts)
			if indexPath != "" {
				idx, err := fasta.OpenIndex(indexPath)
				if err != nil {
					return err
				}
				defer func() { err = multierr.Append(err, idx.Close()) }()
				matches = idx.Match(pattern)
			}

			out := cmd.OutOrStdout()
			var found []fasta.Match
			for m, err := range matches {
				if err != nil {
					return err
				}
				if !records {
					fmt.Fprintf(out, "%s\t%d\t%d\n", m.ID, m.Position.Line, m.Position.Offset)
					continue
				}
				found = append(found, m)
			}

			w := fasta.NewWriter(out, width)
			for _, m := range found {
				if err := r.Seek(m.Position); err != nil {
					return err
				}
				view, err := r.Next()
				if err != nil {
					return err
				}
				if err := w.WriteView(view); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&opts.CaseSensitive, "case-sensitive", "s", false, "match case")
	cmd.Flags().BoolVar(&opts.IDOnly, "id", false, "match ids only")
	cmd.Flags().StringVarP(&indexPath, "index", "i", "", "match ids stored in this index")
	cmd.Flags().BoolVarP(&records, "records", "r", false, "print matching records instead of positions")
	cmd.Flags().IntVar(&width, "width", fasta.DefaultWidth, "output line width for --records (0 = unwrapped)")
	return cmd
}
