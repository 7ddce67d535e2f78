package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"talespin/internal/enhance"
	"talespin/internal/game"
	"talespin/internal/save"
	"talespin/internal/tui"
)

var savePath string

var playCmd = &cobra.Command{
	Use:   "play [story]",
	Short: "Play a story in the terminal",
	Long: `Plays the story interactively. Number keys pick a choice, s and l
write and read the save file. Logs go to debug.log.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadStory(args)
		if err != nil {
			return err
		}
		logger, closeLog, err := newLogger(true)
		if err != nil {
			return err
		}
		defer closeLog()

		provider, shutdown, err := startTelemetry(cmd.Context(), logger)
		if err != nil {
			return err
		}
		defer shutdown()

		s := game.NewSession(
			game.WithStrict(cfg.Strict),
			game.WithLogger(logger),
			game.WithEnhancement(cfg.Enhance),
		)
		var coord *enhance.Coordinator
		if gen := newGenerator(provider, logger); gen != nil {
			coord = enhance.NewCoordinator(gen, cfg.EnhanceTimeout, logger)
			defer coord.Close()
			s.Subscribe(coord.Listener())
		}
		if err := s.Load(doc); err != nil {
			return fmt.Errorf("load %s: %w", doc.Title, err)
		}
		for _, w := range doc.Warnings {
			logger.Printf("story: %s", w)
		}

		model := tui.New(s, tui.Options{
			Coordinator: coord,
			SavePath:    savePath,
			Codec:       save.Codec{},
			Logger:      logger,
		})
		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	playCmd.Flags().StringVarP(&savePath, "save", "f", "talespin-save.json", "Save file for the s and l keys")
	rootCmd.AddCommand(playCmd)
}
