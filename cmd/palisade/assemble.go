package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/assemble"
	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/rules"
)

var assembleFlags struct {
	name   string
	format string
	mode   string
	output string
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <fragment.xml>...",
	Short: "Merge rule fragments into one policy",
	Long: `Assemble merges the rules of one or more policy XML fragments into a
fresh policy template and emits the audit or enforce artifact. Each
fragment's rules land in the collections they are scoped to; every
emitted rule gets a unique identifier.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().StringVar(&assembleFlags.name, "name", "", "policy name (default: configured)")
	assembleCmd.Flags().StringVar(&assembleFlags.format, "format", "applocker", "output format: applocker or sipolicy")
	assembleCmd.Flags().StringVar(&assembleFlags.mode, "mode", "audit", "artifact to emit: audit or enforce")
	assembleCmd.Flags().StringVarP(&assembleFlags.output, "output", "o", "", "policy destination (default: stdout)")
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	name := assembleFlags.name
	if name == "" {
		name = cfg.Synthesis.PolicyName
	}
	if assembleFlags.mode != "audit" && assembleFlags.mode != "enforce" {
		return fmt.Errorf("unknown mode %q (want audit or enforce)", assembleFlags.mode)
	}
	renderer, err := rendererFor(assembleFlags.format)
	if err != nil {
		return err
	}

	var fragments []assemble.Fragment
	for _, path := range args {
		p, err := render.ParseAppLockerFile(path)
		if err != nil {
			return err
		}
		frag := assemble.Fragment{Name: filepath.Base(path)}
		for _, t := range p.CollectionTypes() {
			frag.Rules = append(frag.Rules, p.Collection(t).Rules...)
		}
		fragments = append(fragments, frag)
	}

	out := assemble.New(logger).Assemble(rules.NewPolicy(name), fragments...)
	reportDiagnostics(logger, &out.Diagnostics)

	artifact := out.Audit
	if assembleFlags.mode == "enforce" {
		artifact = out.Enforce
	}

	w, closeOut, err := openOutput(assembleFlags.output)
	if err != nil {
		return err
	}
	if err := renderer.Render(artifact, w); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
