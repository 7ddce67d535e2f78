package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"talespin/internal/game"
)

var checkCmd = &cobra.Command{
	Use:   "check [story]",
	Short: "Report problems in a story document",
	Long: `Prints conversion warnings and every condition the engine would wave
through without understanding it. With --strict any finding is an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadStory(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := game.NewSession(game.WithStrict(cfg.Strict)).Load(doc); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return err
		}
		findings := game.Lint(doc)
		for _, f := range findings {
			fmt.Fprintf(out, "warning: %s\n", f)
		}
		fmt.Fprintf(out, "%s: %d nodes, %d warnings\n", doc.Title, len(doc.Nodes), len(findings))
		if cfg.Strict && len(findings) > 0 {
			return fmt.Errorf("%d warnings in strict mode", len(findings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
