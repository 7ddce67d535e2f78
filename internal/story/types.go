package story

// Narrator is the speaker label used for second-person narration and for
// nodes whose title is too long to read as a character name.
const Narrator = "Narrator"

// Document represents a converted story: metadata, the initial state and
// the node table.
type Document struct {
	Title        string
	Author       string
	Description  string
	StartNode    string
	InitialState GameState
	Nodes        map[string]*Node

	// Warnings collects problems found during conversion. Conversion never
	// fails; anything suspicious lands here instead.
	Warnings []string
}

// Node represents a single scene in the story graph.
type Node struct {
	ID        string
	Kind      string // "story" unless the document says otherwise
	Title     string
	Text      string
	Speaker   string
	Choices   []Choice
	Effects   []Effect // applied on entry
	Condition string
}

// Choice represents a player action available at a node.
type Choice struct {
	Text      string
	Next      string
	Condition string
	Effects   []Effect // applied on selection, before navigation
	Check     *SkillCheck
}

// SkillCheck is a stat + d20 roll compared against Difficulty.
type SkillCheck struct {
	Skill      string
	Difficulty int
}

// EffectKind tags the Effect variant.
type EffectKind string

const (
	EffectModifyState EffectKind = "modify_state"
	EffectSetFlag     EffectKind = "set_flag"
	EffectAddItem     EffectKind = "add_item"
	EffectRemoveItem  EffectKind = "remove_item"
)

// Arithmetic operations for EffectModifyState.
const (
	OpSet      = "set"
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
)

// Effect is one state mutation. Which fields are meaningful depends on Kind:
//
//	modify_state: Target ("category.key"), Operation, Value
//	set_flag:     Name, Flag
//	add_item:     Name
//	remove_item:  Name
type Effect struct {
	Kind      EffectKind
	Target    string
	Operation string
	Value     any
	Name      string
	Flag      bool
}

// Node returns the node with the given id, or nil.
func (d *Document) Node(id string) *Node {
	if d == nil || d.Nodes == nil {
		return nil
	}
	return d.Nodes[id]
}
