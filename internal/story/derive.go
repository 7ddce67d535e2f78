package story

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// maxSpeakerTitle is the exclusive upper bound on a title's length for
	// it to be read as a character name.
	maxSpeakerTitle = 30

	// EnhanceBelow is the text length under which a node asks for
	// generated replacement text.
	EnhanceBelow = 50

	// RegenerateMarker in node text always asks for replacement text.
	RegenerateMarker = "[AI_GENERATE]"
)

var (
	textCheckRe      = regexp.MustCompile(`(?i)\[(\w+)\s*>=?\s*(\d+)\]`)
	conditionCheckRe = regexp.MustCompile(`stats\.(\w+)\s*>=\s*(\d+)`)
	placeholderRe    = regexp.MustCompile(`\{(stats|variables|relationships|flags)\.(\w+)\}`)
)

// ResolveSpeaker derives the speaker label from a node's title and text.
func ResolveSpeaker(title, text string) string {
	if strings.HasPrefix(text, "You ") || strings.HasPrefix(text, "Your ") {
		return Narrator
	}
	if title != "" && utf8.RuneCountInString(title) < maxSpeakerTitle {
		return strings.ToUpper(title)
	}
	return Narrator
}

// ExtractSkillCheck finds a "[Skill >= N]" marker in the choice text, or
// failing that a "stats.skill >= N" condition. Nil means no check. The
// skill name is kept as written.
func ExtractSkillCheck(text, condition string) *SkillCheck {
	if m := textCheckRe.FindStringSubmatch(text); m != nil {
		if sc := newCheck(m[1], m[2]); sc != nil {
			return sc
		}
	}
	if m := conditionCheckRe.FindStringSubmatch(condition); m != nil {
		return newCheck(m[1], m[2])
	}
	return nil
}

func newCheck(skill, difficulty string) *SkillCheck {
	n, err := strconv.Atoi(difficulty)
	if err != nil {
		return nil
	}
	return &SkillCheck{Skill: skill, Difficulty: n}
}

// locationKeywords is checked in order; the first hit wins.
var locationKeywords = []string{
	"forest", "river", "cave", "dungeon", "castle", "tavern", "town",
	"village", "mountain", "road", "bridge", "shore", "beach",
}

// IsLocation reports whether hint is one of the location keywords.
func IsLocation(hint string) bool {
	return slices.Contains(locationKeywords, hint)
}

// LocationHint returns the first location keyword found in the node title,
// or "" when none matches. Media collaborators key assets on it.
func (n *Node) LocationHint() string {
	if n == nil {
		return ""
	}
	title := strings.ToLower(n.Title)
	for _, kw := range locationKeywords {
		if strings.Contains(title, kw) {
			return kw
		}
	}
	return ""
}

// NeedsEnhancement reports whether the node text is short enough, or
// explicitly marked, to ask for generated replacement text.
func (n *Node) NeedsEnhancement() bool {
	if n == nil {
		return false
	}
	return utf8.RuneCountInString(n.Text) < EnhanceBelow || strings.Contains(n.Text, RegenerateMarker)
}

// RenderText substitutes {stats.x}, {variables.x}, {relationships.x} and
// {flags.x} placeholders from st and strips the regeneration marker.
// Missing variables and relationships render as empty strings.
func RenderText(text string, st GameState) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, RegenerateMarker, ""))
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := placeholderRe.FindStringSubmatch(m)
		cat, key := parts[1], parts[2]
		switch cat {
		case CategoryStats:
			return strconv.Itoa(st.Stats[key])
		case CategoryFlags:
			return strconv.FormatBool(st.Flags[key])
		case CategoryVariables:
			return scalarText(st.Variables[key])
		default:
			return scalarText(st.Relationships[key])
		}
	})
}

func scalarText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
