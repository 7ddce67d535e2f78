package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const lintStory = `
title: Lint Me
startNode: start
nodes:
  start:
    title: Old Road
    text: You walk.
    choices:
      - text: Pay the toll
        next: bridge
        condition: variables.gold > 3
  bridge:
    title: Stone Bridge
    text: The river runs below.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "talespin dev ") {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestMap(t *testing.T) {
	storyPath := writeFile(t, "story.yaml", lintStory)
	savePath := writeFile(t, "save.json", `{
  "story_title": "Lint Me",
  "current_node": "bridge",
  "game_state": {"stats": {"gold": 4}, "inventory": ["rope"]},
  "timestamp": "2024-05-01T10:00:00Z",
  "visited_nodes": ["start", "bridge"]
}`)
	pdfPath := filepath.Join(t.TempDir(), "map.pdf")

	out, err := run(t, "map", storyPath, savePath, "-o", pdfPath)
	if err != nil {
		t.Fatalf("map: %v\n%s", err, out)
	}
	if !strings.Contains(out, "(2 stops)") {
		t.Errorf("Unexpected output %q", out)
	}
	b, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("Expected a PDF file")
	}

	corrupt := writeFile(t, "bad.json", "{")
	if _, err := run(t, "map", storyPath, corrupt, "-o", pdfPath); err == nil {
		t.Error("Expected an error for a corrupt save")
	}
}

func TestLoadStory_Missing(t *testing.T) {
	cfg.Story = ""
	if _, err := loadStory(nil); err == nil {
		t.Error("Expected an error without a story")
	}
}

// Runs last: --strict stays set on the shared command tree.
func TestCheck(t *testing.T) {
	storyPath := writeFile(t, "story.yaml", lintStory)

	out, err := run(t, "check", storyPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, `warning: node start choice 0: unrecognized condition "variables.gold > 3" always passes`) {
		t.Errorf("Expected lint warning, got:\n%s", out)
	}
	if !strings.Contains(out, "Lint Me: 2 nodes, 1 warnings") {
		t.Errorf("Expected summary, got:\n%s", out)
	}

	if _, err := run(t, "check", "--strict", storyPath); err == nil {
		t.Error("Expected strict check to fail")
	}
}
