package game

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"talespin/internal/story"
)

// ConditionKind tags the parsed guard variant.
type ConditionKind int

const (
	ConditionNone    ConditionKind = iota // empty guard
	ConditionStat                         // stats.<name> <op> <int>
	ConditionFlag                         // flags.<name>
	ConditionItem                         // inventory.has("<item>")
	ConditionUnknown                      // no structural match
)

// Condition is a parsed guard expression.
type Condition struct {
	Kind  ConditionKind
	Name  string // stat, flag or item name
	Op    string // stat comparisons only; "=" is normalized to "=="
	Value int
	Raw   string
}

// Patterns are tried in this order and only need to match a prefix; the
// first one that matches decides the variant.
var (
	statCondRe = regexp.MustCompile(`^stats\.(\w+)\s*(>=|<=|!=|==|>|<|=)\s*(-?\d+)`)
	flagCondRe = regexp.MustCompile(`^flags\.(\w+)`)
	itemCondRe = regexp.MustCompile(`^inventory\.has\(\s*["']([^"']*)["']\s*\)`)
)

// ParseCondition parses a guard expression. It never fails; input that
// matches no variant comes back as ConditionUnknown.
func ParseCondition(expr string) Condition {
	raw := strings.TrimSpace(expr)
	c := Condition{Raw: raw}
	if raw == "" {
		return c
	}
	if m := statCondRe.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[3]); err == nil {
			c.Kind, c.Name, c.Op, c.Value = ConditionStat, m[1], m[2], v
			if c.Op == "=" {
				c.Op = "=="
			}
			return c
		}
	}
	if m := flagCondRe.FindStringSubmatch(raw); m != nil {
		c.Kind, c.Name = ConditionFlag, m[1]
		return c
	}
	if m := itemCondRe.FindStringSubmatch(raw); m != nil {
		c.Kind, c.Name = ConditionItem, m[1]
		return c
	}
	c.Kind = ConditionUnknown
	return c
}

// Eval evaluates the condition against st. Empty and unknown guards are
// true.
func (c Condition) Eval(st story.GameState) bool {
	switch c.Kind {
	case ConditionStat:
		return compare(st.Stats[c.Name], c.Op, c.Value)
	case ConditionFlag:
		return st.Flags[c.Name]
	case ConditionItem:
		return st.HasItem(c.Name)
	default:
		return true
	}
}

func compare(have int, op string, want int) bool {
	switch op {
	case ">=":
		return have >= want
	case ">":
		return have > want
	case "<=":
		return have <= want
	case "<":
		return have < want
	case "==":
		return have == want
	case "!=":
		return have != want
	default:
		return true
	}
}

// Evaluate is the fail-open guard: an empty or unrecognized expression
// does not block.
func Evaluate(expr string, st story.GameState) bool {
	return ParseCondition(expr).Eval(st)
}

// EvaluateStrict is Evaluate with unrecognized expressions reported as
// ErrConditionUnparsed.
func EvaluateStrict(expr string, st story.GameState) (bool, error) {
	c := ParseCondition(expr)
	if c.Kind == ConditionUnknown {
		return false, &Error{
			Code:     CodeConditionUnparsed,
			Message:  fmt.Sprintf("unrecognized condition %q", c.Raw),
			Metadata: map[string]string{"condition": c.Raw},
		}
	}
	return c.Eval(st), nil
}
