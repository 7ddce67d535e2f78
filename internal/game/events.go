package game

import (
	"maps"
	"slices"

	"talespin/internal/story"
)

// EventKind names a session notification.
type EventKind string

const (
	EventLoaded               EventKind = "loaded"
	EventNodeChanged          EventKind = "node_changed"
	EventStateChanged         EventKind = "state_changed"
	EventSkillCheck           EventKind = "skill_check"
	EventEnhancementRequested EventKind = "enhancement_requested"
)

// Event is delivered to listeners. Node and State are snapshots; listeners
// may keep them without aliasing the session.
type Event struct {
	Kind        EventKind
	NodeID      string
	Node        *story.Node
	State       story.GameState
	Check       *CheckResult
	Enhancement *EnhancementRequest
}

// Listener receives session events synchronously, in subscription order.
type Listener func(Event)

// EnhancementRequest asks an external collaborator for replacement text
// for NodeID. The answer must be handed back through
// Session.ApplyEnhancement and is dropped if the player has moved on.
type EnhancementRequest struct {
	NodeID     string
	StoryTitle string
	Title      string
	Speaker    string
	Location   string
	Text       string
	Stats      map[string]int
	Inventory  []string
}

type observers struct {
	next int
	m    map[int]Listener
}

func (o *observers) add(l Listener) int {
	if o.m == nil {
		o.m = map[int]Listener{}
	}
	id := o.next
	o.next++
	o.m[id] = l
	return id
}

func (o *observers) remove(id int) {
	delete(o.m, id)
}

func (o *observers) emit(ev Event) {
	for _, id := range slices.Sorted(maps.Keys(o.m)) {
		if l, ok := o.m[id]; ok {
			l(ev)
		}
	}
}
