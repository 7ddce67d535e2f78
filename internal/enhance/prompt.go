package enhance

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"talespin/internal/game"
)

const systemPrompt = `You are the narrator of an interactive story. You rewrite one passage at a time.

Rules:
- Write 2-4 vivid sentences in second person
- Keep every fact in the original passage; add atmosphere, not events
- Never mention choices, stats or game mechanics
- Reply with the passage only, no quotes or preamble`

// Prompt builds the system and user messages for req.
func Prompt(req game.EnhancementRequest) (system, user string) {
	var b strings.Builder
	if req.StoryTitle != "" {
		fmt.Fprintf(&b, "STORY: %s\n", req.StoryTitle)
	}
	if req.Title != "" {
		fmt.Fprintf(&b, "SCENE: %s\n", req.Title)
	}
	if req.Speaker != "" {
		fmt.Fprintf(&b, "SPEAKER: %s\n", req.Speaker)
	}
	if req.Location != "" {
		fmt.Fprintf(&b, "LOCATION: %s\n", req.Location)
	}
	if len(req.Stats) > 0 {
		parts := make([]string, 0, len(req.Stats))
		for _, k := range slices.Sorted(maps.Keys(req.Stats)) {
			parts = append(parts, fmt.Sprintf("%s=%d", k, req.Stats[k]))
		}
		fmt.Fprintf(&b, "PLAYER STATS: %s\n", strings.Join(parts, ", "))
	}
	if len(req.Inventory) > 0 {
		fmt.Fprintf(&b, "INVENTORY: %s\n", strings.Join(req.Inventory, ", "))
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = "(empty: invent a short passage that fits the scene)"
	}
	fmt.Fprintf(&b, "\nORIGINAL PASSAGE:\n%s\n", text)
	return systemPrompt, b.String()
}

// cleanReply strips whitespace and wrapping quotes from model output.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}
