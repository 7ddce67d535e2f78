package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"talespin/internal/enhance"
	"talespin/internal/game"
	"talespin/internal/story"
)

const testStory = `
title: Terminal Trail
startNode: start
initialState:
  stats: {strength: 4}
nodes:
  start:
    title: Trailhead
    text: You stand at the foot of a trail that climbs into grey hills.
    choices:
      - text: "[Strength >= 30] Climb the cliff"
        next: top
      - text: Unlock the hut
        next: top
        condition: inventory.has("key")
      - text: Pick up a stone
        effects:
          - type: add_item
            item: stone
  top:
    title: Summit
    text: Wind.
`

type fixedRand struct{ roll int }

func (f fixedRand) IntN(int) int { return f.roll - 1 }

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	doc, err := story.Parse([]byte(testStory))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := game.NewSession(game.WithRand(fixedRand{roll: 10}))
	if err := s.Load(doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(s, opts)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestView_Start(t *testing.T) {
	v := newModel(t, Options{}).View()
	for _, want := range []string{"Terminal Trail", "Narrator", "foot of a trail", "1) [Strength >= 30] Climb the cliff", "(locked)", "strength 4"} {
		if !strings.Contains(v, want) {
			t.Errorf("Expected view to contain %q:\n%s", want, v)
		}
	}
}

func TestUpdate_ChoiceWithCheck(t *testing.T) {
	m := press(t, newModel(t, Options{}), "1")
	if got := m.game.CurrentID(); got != "top" {
		t.Fatalf("Expected top, got %s", got)
	}
	v := m.View()
	if !strings.Contains(v, "Strength check: rolled 10 + 4 = 14 against 30, failure") {
		t.Errorf("Expected check line, got:\n%s", v)
	}
	if !strings.Contains(v, "The story rests here.") || !strings.Contains(v, "r restart") {
		t.Errorf("Expected ending, got:\n%s", v)
	}
}

func TestUpdate_LockedChoice(t *testing.T) {
	m := press(t, newModel(t, Options{}), "2")
	if m.game.CurrentID() != "start" {
		t.Errorf("Expected to stay at start, got %s", m.game.CurrentID())
	}
	if !strings.Contains(m.View(), "That path is closed to you for now.") {
		t.Error("Expected locked message")
	}
	m = press(t, m, "9")
	if !strings.Contains(m.View(), "There is no such choice here.") {
		t.Error("Expected out of range message")
	}
	m = press(t, m, "3")
	if !m.game.State().HasItem("stone") || m.message != "" {
		t.Errorf("Expected stone and cleared message, got %v %q", m.game.State().Inventory, m.message)
	}
}

func TestUpdate_Restart(t *testing.T) {
	m := press(t, newModel(t, Options{}), "r")
	if m.message != "" {
		t.Error("Expected restart to be ignored mid-story")
	}
	m = press(t, m, "1", "r")
	if m.game.CurrentID() != "start" || m.last != nil {
		t.Errorf("Expected restart at start, got %s", m.game.CurrentID())
	}
}

func TestUpdate_Quit(t *testing.T) {
	m := newModel(t, Options{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit")
	}
	if v := next.(Model).View(); v != "Farewell.\n" {
		t.Errorf("Unexpected view %q", v)
	}
}

func TestUpdate_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	m := newModel(t, Options{SavePath: path})

	m = press(t, m, "l")
	if m.message != "There is no save yet." {
		t.Errorf("Unexpected message %q", m.message)
	}
	m = press(t, m, "3", "s")
	if !strings.HasPrefix(m.message, "Saved to ") {
		t.Fatalf("Unexpected message %q", m.message)
	}
	m = press(t, m, "1")
	m = press(t, m, "l")
	if m.message != "Game loaded." || m.game.CurrentID() != "start" || !m.game.State().HasItem("stone") {
		t.Errorf("Expected restored save, got %q at %s", m.message, m.game.CurrentID())
	}

	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	m = press(t, m, "l")
	if m.message != "That save could not be read." {
		t.Errorf("Unexpected message %q", m.message)
	}
	if press(t, newModel(t, Options{}), "s").message != "Saving is not configured." {
		t.Error("Expected save to need a path")
	}
}

func TestUpdate_Enhancement(t *testing.T) {
	m := newModel(t, Options{})
	next, cmd := m.Update(enhancementMsg{result: enhance.Result{NodeID: "start", Text: "A freshly written passage."}})
	m = next.(Model)
	if cmd != nil {
		t.Error("Expected no follow up without a coordinator")
	}
	if !strings.Contains(m.View(), "freshly written passage") {
		t.Errorf("Expected enhanced text:\n%s", m.View())
	}

	next, _ = m.Update(enhancementMsg{result: enhance.Result{NodeID: "top", Text: "Stale."}})
	if strings.Contains(next.(Model).View(), "Stale.") {
		t.Error("Expected stale result to be dropped")
	}
}

func TestWaitForEnhancement_Closed(t *testing.T) {
	coord := enhance.NewCoordinator(nil, 0, nil)
	m := newModel(t, Options{Coordinator: coord})
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Expected a wait command")
	}
	coord.Close()
	msg := cmd()
	if _, ok := msg.(enhancementsClosedMsg); !ok {
		t.Fatalf("Expected closed message, got %T", msg)
	}
	next, cmd := m.Update(msg)
	if cmd != nil || next.(Model).coord != nil {
		t.Error("Expected model to stop waiting")
	}
}
