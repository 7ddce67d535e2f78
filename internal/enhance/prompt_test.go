package enhance

import (
	"strings"
	"testing"

	"talespin/internal/game"
)

func TestPrompt(t *testing.T) {
	system, user := Prompt(game.EnhancementRequest{
		NodeID:     "cave",
		StoryTitle: "The Deep",
		Title:      "Dark Cave",
		Speaker:    "DARK CAVE",
		Location:   "cave",
		Text:       "A cave.",
		Stats:      map[string]int{"wisdom": 3, "strength": 9},
		Inventory:  []string{"torch", "rope"},
	})
	if !strings.Contains(system, "second person") {
		t.Errorf("Unexpected system prompt %q", system)
	}
	for _, want := range []string{
		"STORY: The Deep",
		"SCENE: Dark Cave",
		"LOCATION: cave",
		"PLAYER STATS: strength=9, wisdom=3",
		"INVENTORY: torch, rope",
		"ORIGINAL PASSAGE:\nA cave.",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("Expected %q in user prompt:\n%s", want, user)
		}
	}
}

func TestPrompt_EmptyText(t *testing.T) {
	_, user := Prompt(game.EnhancementRequest{NodeID: "x"})
	if !strings.Contains(user, "invent a short passage") {
		t.Errorf("Expected placeholder instruction, got %q", user)
	}
	if strings.Contains(user, "STORY:") || strings.Contains(user, "INVENTORY:") {
		t.Errorf("Expected empty fields to be left out, got %q", user)
	}
}

func TestCleanReply(t *testing.T) {
	tests := map[string]string{
		"  plain  ":         "plain",
		`"quoted"`:          "quoted",
		"“curly”":           "curly",
		`"`:                 `"`,
		`"inner" and outer`: `"inner" and outer`,
	}
	for in, want := range tests {
		if got := cleanReply(in); got != want {
			t.Errorf("cleanReply(%q) = %q, want %q", in, got, want)
		}
	}
}
