package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/reduce"
	"acuity-hq/palisade/pkg/scan"
)

var reduceFlags struct {
	aclPath string
	output  string
}

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Reduce writable directories to a minimal exclusion list",
	Long: `Reduce reads a writable-directory ACL scan and collapses it into a
prefix-free list of path-exclusion expressions. Directories where a
non-admin grantee holds full stream-write rights additionally get an
alternate-data-stream exclusion.

The list is written to the configured exclusions path (or --output) and
consumed by synth when generating path rules.`,
	RunE: runReduce,
}

func init() {
	reduceCmd.Flags().StringVar(&reduceFlags.aclPath, "acl", "", "writable-directory ACL CSV (required)")
	reduceCmd.Flags().StringVarP(&reduceFlags.output, "output", "o", "", "exclusion list destination (default: configured exclusions path, \"-\" for stdout)")
	reduceCmd.MarkFlagRequired("acl")
	rootCmd.AddCommand(reduceCmd)
}

func runReduce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	dirs, err := scan.ReadWritableDirectoriesFile(reduceFlags.aclPath)
	if err != nil {
		return err
	}
	exclusions := reduce.Directories(dirs)

	out := reduceFlags.output
	if out == "" {
		out = cfg.Scan.ExclusionsPath
	}
	if out == "-" {
		for _, excl := range exclusions {
			fmt.Fprintln(os.Stdout, excl)
		}
		return nil
	}

	if err := scan.SaveExclusions(out, exclusions); err != nil {
		return err
	}
	logger.Info("exclusion list written",
		"directories", len(dirs),
		"exclusions", len(exclusions),
		"path", out,
	)
	return nil
}
