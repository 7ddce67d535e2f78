package game

import (
	"errors"
	"testing"

	"talespin/internal/story"
)

func testState() story.GameState {
	st := story.NewGameState()
	st.Stats["wisdom"] = 50
	st.Stats["strength"] = 7
	st.Flags["found_key"] = true
	st.Inventory = []string{"sword"}
	return st
}

func TestEvaluate(t *testing.T) {
	st := testState()
	tests := []struct {
		cond string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"stats.wisdom >= 50", true},
		{"stats.wisdom > 50", false},
		{"stats.wisdom <= 50", true},
		{"stats.wisdom < 50", false},
		{"stats.wisdom == 50", true},
		{"stats.wisdom = 50", true},
		{"stats.wisdom != 50", false},
		{"stats.wisdom>=51", false},
		{"stats.missing >= 0", true},
		{"stats.missing > 0", false},
		{"stats.strength > -1", true},
		{"flags.found_key", true},
		{"flags.found_key == false", true}, // operator segment is ignored
		{"flags.other", false},
		{`inventory.has("sword")`, true},
		{`inventory.has('sword')`, true},
		{`inventory.has("shield")`, false},
		{"garbage!!", true},
		{"stats.wisdom >= lots", true},
		{"  stats.wisdom >= 50  ", true},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.cond, st); got != tt.want {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
		}
	}
}

func TestEvaluate_WisdomBoundary(t *testing.T) {
	st := story.NewGameState()
	st.Stats["wisdom"] = 49
	if Evaluate("stats.wisdom >= 50", st) {
		t.Error("Expected wisdom 49 to fail >= 50")
	}
}

func TestParseCondition(t *testing.T) {
	c := ParseCondition("stats.luck = 3")
	if c.Kind != ConditionStat || c.Name != "luck" || c.Op != "==" || c.Value != 3 {
		t.Errorf("Unexpected stat condition: %+v", c)
	}
	if c := ParseCondition("flags.door_open"); c.Kind != ConditionFlag || c.Name != "door_open" {
		t.Errorf("Unexpected flag condition: %+v", c)
	}
	if c := ParseCondition(`inventory.has("old map")`); c.Kind != ConditionItem || c.Name != "old map" {
		t.Errorf("Unexpected item condition: %+v", c)
	}
	if c := ParseCondition(""); c.Kind != ConditionNone {
		t.Errorf("Expected none for empty, got %+v", c)
	}
	if c := ParseCondition("stats.luck >= 3 and flags.x"); c.Kind != ConditionStat {
		t.Errorf("Expected first structural match to win, got %+v", c)
	}
	if c := ParseCondition("variables.gold > 3"); c.Kind != ConditionUnknown {
		t.Errorf("Expected unknown, got %+v", c)
	}
}

func TestEvaluateStrict(t *testing.T) {
	st := testState()
	ok, err := EvaluateStrict("stats.wisdom >= 50", st)
	if err != nil || !ok {
		t.Errorf("Expected true/nil, got %v/%v", ok, err)
	}
	ok, err = EvaluateStrict("", st)
	if err != nil || !ok {
		t.Errorf("Expected empty guard to pass in strict mode, got %v/%v", ok, err)
	}
	_, err = EvaluateStrict("garbage!!", st)
	if !errors.Is(err, ErrConditionUnparsed) {
		t.Errorf("Expected ErrConditionUnparsed, got %v", err)
	}
}
