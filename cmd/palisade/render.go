package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/rules"
)

var renderFlags struct {
	format string
	mode   string
	output string
}

var renderCmd = &cobra.Command{
	Use:   "render <policy.xml>",
	Short: "Re-render an AppLocker policy in another format or mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderFlags.format, "format", "applocker", "output format: applocker or sipolicy")
	renderCmd.Flags().StringVar(&renderFlags.mode, "mode", "", "force every collection to audit or enforce")
	renderCmd.Flags().StringVarP(&renderFlags.output, "output", "o", "", "policy destination (default: stdout)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	policy, err := render.ParseAppLockerFile(args[0])
	if err != nil {
		return err
	}
	if err := forceMode(policy, renderFlags.mode); err != nil {
		return err
	}

	renderer, err := rendererFor(renderFlags.format)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(renderFlags.output)
	if err != nil {
		return err
	}
	if err := renderer.Render(policy, w); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// forceMode overrides every collection's enforcement mode. An empty mode
// keeps the modes from the input document.
func forceMode(p *rules.Policy, mode string) error {
	var m rules.EnforcementMode
	switch mode {
	case "":
		return nil
	case "audit":
		m = rules.ModeAuditOnly
	case "enforce":
		m = rules.ModeEnabled
	default:
		return fmt.Errorf("unknown mode %q (want audit or enforce)", mode)
	}
	for _, c := range p.Collections {
		c.Mode = m
	}
	return nil
}
