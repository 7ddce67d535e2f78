package game

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"talespin/internal/story"
)

// Session is the navigation state machine for one play-through. It is
// either unloaded or at a node; nothing here is safe for concurrent use,
// hosts that share a session across goroutines must serialize access.
type Session struct {
	doc       *story.Document
	current   string
	state     story.GameState
	visited   []string
	overrides map[string]string // generated text per node id

	listeners observers
	rng       RandSource
	strict    bool
	enhance   bool
	log       *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the source used for skill checks.
func WithRand(r RandSource) Option {
	return func(s *Session) { s.rng = r }
}

// WithStrict turns unrecognized conditions and effects into errors
// instead of passing them through.
func WithStrict(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithEnhancement makes the session emit EventEnhancementRequested for
// nodes whose text qualifies.
func WithEnhancement(enabled bool) Option {
	return func(s *Session) { s.enhance = enabled }
}

// WithLogger receives one diagnostic line per rejected operation.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns an unloaded session.
func NewSession(opts ...Option) *Session {
	s := &Session{overrides: map[string]string{}}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = NewRandSource()
	}
	return s
}

// StepResult describes a successful SelectChoice.
type StepResult struct {
	From      string
	NodeID    string
	Check     *CheckResult // nil when the choice had no skill check
	Navigated bool
}

// ChoiceView is a choice as presented to the player.
type ChoiceView struct {
	Index     int
	Text      string
	Available bool
	Check     *story.SkillCheck
}

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	id := s.listeners.add(l)
	return func() { s.listeners.remove(id) }
}

// Load starts the session at doc's start node with a copy of its initial
// state. On failure the session keeps whatever it had before.
func (s *Session) Load(doc *story.Document) error {
	if doc == nil || doc.Nodes == nil {
		return s.reject("load", NewError(CodeDocumentInvalid, "document has no node table", nil))
	}
	if doc.Nodes[doc.StartNode] == nil {
		return s.reject("load", NewError(CodeDocumentInvalid,
			fmt.Sprintf("start node %q is not in the document", doc.StartNode),
			map[string]string{"node": doc.StartNode}))
	}
	if s.strict {
		if err := ValidateEffects(doc.Nodes[doc.StartNode].Effects); err != nil {
			return s.reject("load", err)
		}
	}
	st := doc.InitialState.Clone()
	st.Normalize()

	s.doc = doc
	s.state = st
	s.current = ""
	s.visited = nil
	s.overrides = map[string]string{}
	s.listeners.emit(Event{Kind: EventLoaded, NodeID: doc.StartNode, State: s.state.Clone()})
	return s.Enter(doc.StartNode)
}

// Loaded reports whether a document has been loaded.
func (s *Session) Loaded() bool {
	return s.doc != nil
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *story.Document {
	return s.doc
}

// CurrentID returns the current node id, "" when unloaded.
func (s *Session) CurrentID() string {
	return s.current
}

// State returns a copy of the game state.
func (s *Session) State() story.GameState {
	return s.state.Clone()
}

// Visited returns the ids of every node entered, in order.
func (s *Session) Visited() []string {
	return append([]string(nil), s.visited...)
}

// Current returns a display copy of the current node: generated text when
// present and placeholders filled in from the state.
func (s *Session) Current() (*story.Node, error) {
	if s.doc == nil {
		return nil, NewError(CodeDocumentInvalid, "no story loaded", nil)
	}
	return s.view(s.current), nil
}

func (s *Session) view(id string) *story.Node {
	n := s.doc.Nodes[id]
	if n == nil {
		return nil
	}
	cp := *n
	text := n.Text
	if o, ok := s.overrides[id]; ok {
		text = o
	}
	cp.Text = story.RenderText(text, s.state)
	cp.Choices = append([]story.Choice(nil), n.Choices...)
	cp.Effects = append([]story.Effect(nil), n.Effects...)
	return &cp
}

// Enter moves to id, applies its entry effects and notifies listeners.
func (s *Session) Enter(id string) error {
	if s.doc == nil {
		return s.reject("enter "+id, NewError(CodeDocumentInvalid, "no story loaded", nil))
	}
	node := s.doc.Nodes[id]
	if node == nil {
		return s.reject("enter "+id, nodeNotFound(id))
	}
	if s.strict {
		if err := ValidateEffects(node.Effects); err != nil {
			return s.reject("enter "+id, err)
		}
	}
	s.current = id
	s.visited = append(s.visited, id)
	if len(node.Effects) > 0 {
		ApplyEffects(&s.state, node.Effects)
		s.emitState()
	}
	s.emitNode()
	s.requestEnhancement()
	return nil
}

// SelectChoice takes choice index at the current node. Nothing changes
// unless the choice passes every check; a failed skill check is reported
// in the result but does not stop the choice.
func (s *Session) SelectChoice(index int) (StepResult, error) {
	where := "select choice " + strconv.Itoa(index)
	if s.doc == nil {
		return StepResult{}, s.reject(where, NewError(CodeDocumentInvalid, "no story loaded", nil))
	}
	node := s.doc.Nodes[s.current]
	where += fmt.Sprintf(" at %q", s.current)
	if index < 0 || index >= len(node.Choices) {
		return StepResult{}, s.reject(where, NewError(CodeInvalidChoiceIndex,
			fmt.Sprintf("choice %d out of range (node %q has %d)", index, s.current, len(node.Choices)),
			map[string]string{"node": s.current, "index": strconv.Itoa(index)}))
	}
	ch := node.Choices[index]

	ok, err := s.guard(ch.Condition)
	if err != nil {
		return StepResult{}, s.reject(where, err)
	}
	if !ok {
		return StepResult{}, s.reject(where, NewError(CodeConditionNotMet,
			fmt.Sprintf("condition %q not met", ch.Condition),
			map[string]string{"node": s.current, "index": strconv.Itoa(index), "condition": ch.Condition}))
	}
	var target *story.Node
	if ch.Next != "" {
		if target = s.doc.Nodes[ch.Next]; target == nil {
			return StepResult{}, s.reject(where, nodeNotFound(ch.Next))
		}
	}
	if s.strict {
		if err := ValidateEffects(ch.Effects); err != nil {
			return StepResult{}, s.reject(where, err)
		}
		if target != nil {
			if err := ValidateEffects(target.Effects); err != nil {
				return StepResult{}, s.reject(where, err)
			}
		}
	}

	res := StepResult{From: s.current, NodeID: s.current}
	if ch.Check != nil {
		r := ResolveSkillCheck(*ch.Check, s.state, s.rng)
		res.Check = &r
		s.listeners.emit(Event{Kind: EventSkillCheck, NodeID: s.current, Check: &r})
	}
	ApplyEffects(&s.state, ch.Effects)
	s.emitState()
	if target != nil {
		if err := s.Enter(ch.Next); err != nil {
			return res, err
		}
		res.NodeID = s.current
		res.Navigated = true
	}
	return res, nil
}

// ChoiceIsAvailable evaluates a choice's guard against the current state
// without changing anything. Presentation layers use it to lock choices.
func (s *Session) ChoiceIsAvailable(ch story.Choice) bool {
	return ChoiceIsAvailable(ch, s.state)
}

// ChoiceIsAvailable is the fail-open guard for ch under st.
func ChoiceIsAvailable(ch story.Choice, st story.GameState) bool {
	return Evaluate(ch.Condition, st)
}

// Choices lists the current node's choices with their availability.
func (s *Session) Choices() []ChoiceView {
	if s.doc == nil {
		return nil
	}
	node := s.doc.Nodes[s.current]
	out := make([]ChoiceView, 0, len(node.Choices))
	for i, ch := range node.Choices {
		out = append(out, ChoiceView{
			Index:     i,
			Text:      story.RenderText(ch.Text, s.state),
			Available: s.ChoiceIsAvailable(ch),
			Check:     ch.Check,
		})
	}
	return out
}

// Restore puts the session at nodeID with state st, without applying the
// node's entry effects again.
func (s *Session) Restore(nodeID string, st story.GameState, visited []string) error {
	if s.doc == nil {
		return s.reject("restore", NewError(CodeDocumentInvalid, "no story loaded", nil))
	}
	if s.doc.Nodes[nodeID] == nil {
		return s.reject("restore", nodeNotFound(nodeID))
	}
	st = st.Clone()
	st.Normalize()
	s.state = st
	s.current = nodeID
	s.visited = append([]string(nil), visited...)
	if len(s.visited) == 0 {
		s.visited = []string{nodeID}
	}
	s.overrides = map[string]string{}
	s.emitState()
	s.emitNode()
	s.requestEnhancement()
	return nil
}

// ApplyEnhancement installs generated text for nodeID. It reports false,
// and changes nothing, when nodeID is no longer the current node.
func (s *Session) ApplyEnhancement(nodeID, text string) bool {
	if s.doc == nil || nodeID != s.current {
		s.logf("discarding stale enhancement for %q (current %q)", nodeID, s.current)
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}
	s.overrides[nodeID] = text
	s.emitNode()
	return true
}

func (s *Session) guard(cond string) (bool, error) {
	if s.strict {
		return EvaluateStrict(cond, s.state)
	}
	return Evaluate(cond, s.state), nil
}

func (s *Session) requestEnhancement() {
	if !s.enhance {
		return
	}
	node := s.doc.Nodes[s.current]
	if _, done := s.overrides[s.current]; done || !node.NeedsEnhancement() {
		return
	}
	st := s.state.Clone()
	s.listeners.emit(Event{
		Kind:   EventEnhancementRequested,
		NodeID: s.current,
		Enhancement: &EnhancementRequest{
			NodeID:     s.current,
			StoryTitle: s.doc.Title,
			Title:      node.Title,
			Speaker:    node.Speaker,
			Location:   node.LocationHint(),
			Text:       strings.TrimSpace(strings.ReplaceAll(node.Text, story.RegenerateMarker, "")),
			Stats:      st.Stats,
			Inventory:  st.Inventory,
		},
	})
}

func (s *Session) emitState() {
	s.listeners.emit(Event{Kind: EventStateChanged, NodeID: s.current, State: s.state.Clone()})
}

func (s *Session) emitNode() {
	s.listeners.emit(Event{Kind: EventNodeChanged, NodeID: s.current, Node: s.view(s.current), State: s.state.Clone()})
}

func (s *Session) reject(where string, err error) error {
	s.logf("%s: %v", where, err)
	return err
}

func (s *Session) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func nodeNotFound(id string) *Error {
	return NewError(CodeNodeNotFound, fmt.Sprintf("unknown node: %s", id), map[string]string{"node": id})
}
