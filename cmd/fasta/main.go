// Command fasta inspects, indexes and rewrites FASTA files.
//
//	fasta count <file>            records and residues
//	fasta stats <file>            sequence length summary and histogram
//	fasta index <file>            build <file>.fxi for random access
//	fasta get   <file> <id>...    print records by id using the index
//	fasta wrap  <file>            rewrite with a fixed line width
//	fasta grep  <pattern> <file>  find records by description or id
//
// gzip and zstd input is decompressed transparently; wrap -o compresses
// by extension.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jpl-au/fasta"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fasta",
		Short:         "Streaming FASTA toolkit",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setLogLevel(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.Int("capacity", fasta.DefaultCapacity, "initial read buffer size in bytes")
	flags.Int("max-buffer", 0, "largest read buffer in bytes (0 = unlimited)")
	flags.IntP("workers", "w", 0, "worker goroutines for count and stats (0 = GOMAXPROCS)")
	flags.String("log-level", "warn", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newCountCmd(),
		newStatsCmd(),
		newIndexCmd(),
		newGetCmd(),
		newWrapCmd(),
		newGrepCmd(),
	)
	return root
}

func setLogLevel(flags *pflag.FlagSet) error {
	name, err := flags.GetString("log-level")
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

// readerConfig builds the Reader configuration from the persistent flags.
func readerConfig(flags *pflag.FlagSet) (fasta.Config, error) {
	capacity, err := flags.GetInt("capacity")
	if err != nil {
		return fasta.Config{}, err
	}
	limit, err := flags.GetInt("max-buffer")
	if err != nil {
		return fasta.Config{}, err
	}

	config := fasta.Config{Capacity: capacity, Logger: log.StandardLogger()}
	if limit > 0 {
		if limit < capacity {
			return fasta.Config{}, fmt.Errorf("--max-buffer %d is smaller than --capacity %d", limit, capacity)
		}
		config.Policy = fasta.LimitPolicy{Max: limit}
	}
	return config, nil
}

// open opens path with the Reader configuration from cmd's flags.
func open(cmd *cobra.Command, path string) (*fasta.Reader, error) {
	config, err := readerConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return fasta.Open(path, config)
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fasta: %v\n", err)
		os.Exit(1)
	}
}
