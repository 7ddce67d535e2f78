package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"talespin/internal/game"
	"talespin/internal/save"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case enhancementMsg:
		return m.handleEnhancement(msg)
	case enhancementsClosedMsg:
		m.coord = nil
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleEnhancement(msg enhancementMsg) (tea.Model, tea.Cmd) {
	if msg.result.Err != nil {
		m.logf("enhance %s: %v", msg.result.NodeID, msg.result.Err)
	} else {
		m.game.ApplyEnhancement(msg.result.NodeID, msg.result.Text)
	}
	return m, m.waitForEnhancement()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "s":
		m.message = m.saveGame()
		return m, nil
	case "l":
		m.message = m.loadGame()
		return m, nil
	case "r":
		if len(m.game.Choices()) == 0 {
			m.message = m.restart()
		}
		return m, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		m.choose(n - 1)
	}
	return m, nil
}

func (m *Model) choose(index int) {
	res, err := m.game.SelectChoice(index)
	if err != nil {
		m.message = describe(err)
		return
	}
	m.message = ""
	m.last = res.Check
}

func (m *Model) saveGame() string {
	if m.savePath == "" {
		return "Saving is not configured."
	}
	b, err := m.codec.Encode(m.game)
	if err != nil {
		m.logf("save: %v", err)
		return "Save failed: " + err.Error()
	}
	if err := os.WriteFile(m.savePath, b, 0o644); err != nil {
		m.logf("save: %v", err)
		return "Save failed: " + err.Error()
	}
	return "Saved to " + m.savePath + "."
}

func (m *Model) loadGame() string {
	if m.savePath == "" {
		return "Saving is not configured."
	}
	b, err := os.ReadFile(m.savePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "There is no save yet."
		}
		return "Load failed: " + err.Error()
	}
	if _, err := save.Load(m.game, b); err != nil {
		m.logf("load %s: %v", m.savePath, err)
		return describe(err)
	}
	m.last = nil
	return "Game loaded."
}

func (m *Model) restart() string {
	if err := m.game.Load(m.game.Document()); err != nil {
		return describe(err)
	}
	m.last = nil
	return "A new journey begins."
}

func describe(err error) string {
	switch {
	case errors.Is(err, game.ErrConditionNotMet):
		return "That path is closed to you for now."
	case errors.Is(err, game.ErrInvalidChoiceIndex):
		return "There is no such choice here."
	case errors.Is(err, game.ErrCorruptSave):
		return "That save could not be read."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
