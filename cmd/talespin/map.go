package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"talespin/internal/mapgen"
	"talespin/internal/save"
	"talespin/internal/story"
)

var mapOut string

var mapCmd = &cobra.Command{
	Use:   "map <story> <save.json>",
	Short: "Draw a journey map PDF from a save file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := story.Load(args[0])
		if err != nil {
			return err
		}
		b, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		rec, err := save.Decode(b)
		if err != nil {
			return err
		}
		journey := mapgen.Journey{
			Title:   doc.Title,
			Visited: rec.Visited,
			Current: rec.CurrentNode,
			State:   &rec.GameState,
		}
		pdf, err := mapgen.Generate(doc, journey)
		if err != nil {
			return err
		}
		if err := os.WriteFile(mapOut, pdf, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d stops)\n", mapOut, len(mapgen.Stops(doc, journey)))
		return nil
	},
}

func init() {
	mapCmd.Flags().StringVarP(&mapOut, "output", "o", "journey-map.pdf", "Output PDF path")
	rootCmd.AddCommand(mapCmd)
}
