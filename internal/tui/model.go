// Package tui plays a story in the terminal.
package tui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"talespin/internal/enhance"
	"talespin/internal/game"
	"talespin/internal/save"
)

// Options configures a Model. Every field is optional.
type Options struct {
	// Coordinator delivers generated passages. The session must already
	// be subscribed to its Listener.
	Coordinator *enhance.Coordinator
	// SavePath is where "s" writes and "l" reads the save file.
	SavePath string
	Codec    save.Codec
	Logger   *log.Logger
}

// Model is the bubbletea model for one loaded session.
type Model struct {
	game     *game.Session
	coord    *enhance.Coordinator
	savePath string
	codec    save.Codec
	logger   *log.Logger

	last     *game.CheckResult
	message  string
	width    int
	height   int
	quitting bool
}

// New returns a model over s, which must be loaded.
func New(s *game.Session, opts Options) Model {
	return Model{
		game:     s,
		coord:    opts.Coordinator,
		savePath: opts.SavePath,
		codec:    opts.Codec,
		logger:   opts.Logger,
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEnhancement()
}

// enhancementMsg carries one coordinator result into Update.
type enhancementMsg struct {
	result enhance.Result
}

// enhancementsClosedMsg means the coordinator has shut down.
type enhancementsClosedMsg struct{}

func (m Model) waitForEnhancement() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	results := m.coord.Results()
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return enhancementsClosedMsg{}
		}
		return enhancementMsg{result: r}
	}
}

func (m Model) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
