package story

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testStoryYAML = `title: "The Old Road"
author: "Test Author"
description: "A short walk."
startNode: "start"
initialState:
  stats:
    strength: 12
    wisdom: 8
  inventory: ["torch", "torch", "rope"]
  flags:
    awake: true
  variables:
    gold: 5
    mood: "calm"
  relationships:
    innkeeper: 2
nodes:
  start:
    title: "Crossroads"
    text: "You stand where three roads meet."
    choices:
      - text: "Go into the forest"
        next: "forest"
        effects:
          - type: set_flag
            flag: left_start
      - text: "[Strength >= 14] Move the boulder"
        next: "boulder"
        condition: "stats.strength >= 10"
      - text: "Read the sign"
        next: "start"
        condition: "stats.wisdom >= 6"
  forest:
    title: "Dark Forest"
    text: "Trees close in around the narrow path and the light fades."
    effects:
      - type: modify_state
        target: "stats.strength"
        operation: subtract
        value: 1
      - type: add_item
        item: "pinecone"
  boulder:
    type: "battle"
    title: "A very long title that is clearly not a character name"
    text: "The boulder shifts."
`

func writeStory(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil { //nolint:gosec // test file permissions are acceptable
		t.Fatalf("Failed to create test story file: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	doc, err := Load(writeStory(t, "story.yaml", testStoryYAML))
	if err != nil {
		t.Fatalf("Unexpected error loading story: %v", err)
	}

	if doc.Title != "The Old Road" || doc.Author != "Test Author" || doc.Description != "A short walk." {
		t.Errorf("Unexpected metadata: %q %q %q", doc.Title, doc.Author, doc.Description)
	}
	if doc.StartNode != "start" {
		t.Errorf("Expected start node 'start', got '%s'", doc.StartNode)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(doc.Nodes))
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", doc.Warnings)
	}

	st := doc.InitialState
	if st.Stats["strength"] != 12 || st.Stats["wisdom"] != 8 {
		t.Errorf("Unexpected stats: %v", st.Stats)
	}
	if len(st.Inventory) != 2 || st.Inventory[0] != "torch" || st.Inventory[1] != "rope" {
		t.Errorf("Expected deduplicated inventory [torch rope], got %v", st.Inventory)
	}
	if !st.Flags["awake"] {
		t.Error("Expected flag awake")
	}
	if st.Variables["gold"] != 5 || st.Variables["mood"] != "calm" {
		t.Errorf("Unexpected variables: %v", st.Variables)
	}
	if st.Relationships["innkeeper"] != 2 {
		t.Errorf("Unexpected relationships: %v", st.Relationships)
	}
}

func TestLoad_NodeFields(t *testing.T) {
	doc, err := Parse([]byte(testStoryYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	start := doc.Node("start")
	if start == nil {
		t.Fatal("Expected start node to exist")
	}
	if start.ID != "start" || start.Kind != "story" {
		t.Errorf("Expected id start / kind story, got %q / %q", start.ID, start.Kind)
	}
	if start.Speaker != Narrator {
		t.Errorf("Expected narrator for second-person text, got %q", start.Speaker)
	}
	if len(start.Choices) != 3 {
		t.Fatalf("Expected 3 choices, got %d", len(start.Choices))
	}

	go0 := start.Choices[0]
	if go0.Next != "forest" || go0.Check != nil {
		t.Errorf("Unexpected first choice: %+v", go0)
	}
	if len(go0.Effects) != 1 || go0.Effects[0].Kind != EffectSetFlag || go0.Effects[0].Name != "left_start" || !go0.Effects[0].Flag {
		t.Errorf("Expected set_flag left_start=true, got %+v", go0.Effects)
	}

	// Marker wins over the condition.
	if c := start.Choices[1].Check; c == nil || c.Skill != "Strength" || c.Difficulty != 14 {
		t.Errorf("Expected strength 14 check from marker, got %+v", c)
	}
	// Condition-derived check.
	if c := start.Choices[2].Check; c == nil || c.Skill != "wisdom" || c.Difficulty != 6 {
		t.Errorf("Expected wisdom 6 check from condition, got %+v", c)
	}

	forest := doc.Node("forest")
	if forest.Speaker != "DARK FOREST" {
		t.Errorf("Expected upper-cased title speaker, got %q", forest.Speaker)
	}
	if len(forest.Effects) != 2 {
		t.Fatalf("Expected 2 entry effects, got %d", len(forest.Effects))
	}
	ef := forest.Effects[0]
	if ef.Kind != EffectModifyState || ef.Target != "stats.strength" || ef.Operation != OpSubtract || ef.Value != 1 {
		t.Errorf("Unexpected modify_state effect: %+v", ef)
	}

	boulder := doc.Node("boulder")
	if boulder.Kind != "battle" {
		t.Errorf("Expected kind battle, got %q", boulder.Kind)
	}
	if boulder.Speaker != Narrator {
		t.Errorf("Expected narrator for long title, got %q", boulder.Speaker)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("non_existent_file.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	invalidYAML := `startNode: "node1"
nodes:
  node1:
    text: "First node"
    invalid: [unclosed bracket
`
	_, err := Parse([]byte(invalidYAML))
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestParse_JSONWithTabs(t *testing.T) {
	body := "{\n\t\"title\": \"Tabbed\",\n\t\"startNode\": \"a\",\n\t\"nodes\": {\n\t\t\"a\": {\"text\": \"Hello\", \"choices\": [{\"text\": \"Go\", \"next\": \"a\"}]}\n\t}\n}"
	doc, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Tabbed" || doc.Node("a") == nil {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if len(doc.Node("a").Choices) != 1 {
		t.Errorf("Expected 1 choice, got %d", len(doc.Node("a").Choices))
	}
}

func TestConvert_MissingFieldsDefault(t *testing.T) {
	doc, err := Parse([]byte(`nodes:
  lonely: {}
  weird: 42
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "" || doc.StartNode != "" {
		t.Errorf("Expected empty metadata, got %q %q", doc.Title, doc.StartNode)
	}
	n := doc.Node("lonely")
	if n == nil || n.Kind != "story" || n.Text != "" || len(n.Choices) != 0 || len(n.Effects) != 0 {
		t.Errorf("Expected defaulted node, got %+v", n)
	}
	if doc.Node("weird") == nil {
		t.Error("Expected non-mapping node value to still produce a node")
	}
	if doc.InitialState.Stats == nil || doc.InitialState.Inventory == nil || doc.InitialState.Flags == nil {
		t.Error("Expected initial state collections to be initialized")
	}
	if !containsWarning(doc.Warnings, "no start node") {
		t.Errorf("Expected missing start warning, got %v", doc.Warnings)
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Nodes == nil {
		t.Error("Expected empty node table, got nil")
	}
}

func TestConvert_DuplicateNodeIDs(t *testing.T) {
	doc, err := Parse([]byte(`startNode: a
nodes:
  a:
    text: "first"
  a:
    text: "second"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Node("a").Text; got != "second" {
		t.Errorf("Expected last definition to win, got %q", got)
	}
	if !containsWarning(doc.Warnings, `duplicate node id "a"`) {
		t.Errorf("Expected duplicate warning, got %v", doc.Warnings)
	}
}

func TestConvert_Warnings(t *testing.T) {
	doc, err := Parse([]byte(`startNode: missing
nodes:
  a:
    effects:
      - type: teleport
      - type: modify_state
        target: "strength"
        value: 3
    choices:
      - text: "Nowhere"
        next: "void"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, want := range []string{`unknown type "teleport"`, `malformed target "strength"`, `next "void"`, `start node "missing"`} {
		if !containsWarning(doc.Warnings, want) {
			t.Errorf("Expected warning containing %q, got %v", want, doc.Warnings)
		}
	}
	// Unknown effects are kept so a strict session can reject them.
	if len(doc.Node("a").Effects) != 2 || doc.Node("a").Effects[0].Kind != "teleport" {
		t.Errorf("Expected unknown effect to be kept, got %+v", doc.Node("a").Effects)
	}
}

func TestConvert_EffectAliases(t *testing.T) {
	doc, err := Parse([]byte(`nodes:
  a:
    effects:
      - type: setFlag
        name: seen
        value: false
      - type: addItem
        name: lamp
      - type: modify_state
        category: reputation
        key: guild
        operation: ADD
        value: 2.5
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	effs := doc.Node("a").Effects
	if len(effs) != 3 {
		t.Fatalf("Expected 3 effects, got %d", len(effs))
	}
	if effs[0].Kind != EffectSetFlag || effs[0].Name != "seen" || effs[0].Flag {
		t.Errorf("Unexpected set_flag: %+v", effs[0])
	}
	if effs[1].Kind != EffectAddItem || effs[1].Name != "lamp" {
		t.Errorf("Unexpected add_item: %+v", effs[1])
	}
	if effs[2].Target != "reputation.guild" || effs[2].Operation != OpAdd || effs[2].Value != 2.5 {
		t.Errorf("Unexpected modify_state: %+v", effs[2])
	}
}

func TestConvert_NodeList(t *testing.T) {
	doc, err := Parse([]byte(`startNode: a
nodes:
  - id: a
    text: "A"
  - text: "no id"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Node("a") == nil || len(doc.Nodes) != 1 {
		t.Errorf("Expected single node a, got %v", doc.Nodes)
	}
}

func containsWarning(warnings []string, sub string) bool {
	for _, w := range warnings {
		if strings.Contains(w, sub) {
			return true
		}
	}
	return false
}

func TestParse_JSONWithTabsDuplicateNodeIDs(t *testing.T) {
	body := "{\n\t\"startNode\": \"a\",\n\t\"nodes\": {\n\t\t\"a\": {\"text\": \"first\"},\n\t\t\"a\": {\"text\": \"second\"}\n\t}\n}"
	doc, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Node("a").Text; got != "second" {
		t.Errorf("Expected last definition to win, got %q", got)
	}
	if !containsWarning(doc.Warnings, `duplicate node id "a"`) {
		t.Errorf("Expected duplicate warning, got %v", doc.Warnings)
	}
}

func TestDecodeJSONTree_KeepsKeyOrder(t *testing.T) {
	root, err := decodeJSONTree([]byte("{\"z\": 1, \"a\": [true, null, 2.5], \"m\": \"x\"}"))
	if err != nil {
		t.Fatalf("decodeJSONTree: %v", err)
	}
	top := unwrap(root)
	var keys []string
	for _, kv := range pairs(top) {
		keys = append(keys, kv[0].Value)
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Errorf("Expected keys in document order, got %v", keys)
	}
	list := field(top, "a")
	if list == nil || len(list.Content) != 3 {
		t.Fatalf("Expected a 3 item list, got %+v", list)
	}
	for i, tag := range []string{"!!bool", "!!null", "!!float"} {
		if list.Content[i].Tag != tag {
			t.Errorf("Item %d: expected tag %s, got %s", i, tag, list.Content[i].Tag)
		}
	}
	if field(top, "z").Tag != "!!int" {
		t.Errorf("Expected !!int for 1, got %s", field(top, "z").Tag)
	}

	if _, err := decodeJSONTree([]byte(`{"a": 1} {"b": 2}`)); err == nil {
		t.Error("Expected error for trailing JSON value")
	}
}
