package game

import (
	"fmt"
	"maps"
	"slices"

	"talespin/internal/story"
)

// Lint returns the document's conversion warnings followed by every guard
// the evaluator would wave through without understanding it.
func Lint(doc *story.Document) []string {
	if doc == nil {
		return []string{"no document"}
	}
	out := append([]string(nil), doc.Warnings...)
	for _, id := range slices.Sorted(maps.Keys(doc.Nodes)) {
		n := doc.Nodes[id]
		if ParseCondition(n.Condition).Kind == ConditionUnknown {
			out = append(out, fmt.Sprintf("node %s: unrecognized condition %q always passes", id, n.Condition))
		}
		for i, ch := range n.Choices {
			if ParseCondition(ch.Condition).Kind == ConditionUnknown {
				out = append(out, fmt.Sprintf("node %s choice %d: unrecognized condition %q always passes", id, i, ch.Condition))
			}
		}
	}
	return out
}
