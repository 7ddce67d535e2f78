package web

import (
	"talespin/internal/game"
	"talespin/internal/story"
)

// StartViewModel is the title page.
type StartViewModel struct {
	Title       string
	Author      string
	Description string
	Resume      bool // the caller already has a session
}

// ViewModel is the play screen.
type ViewModel struct {
	StoryTitle string
	Node       *story.Node
	Choices    []game.ChoiceView
	State      story.GameState
	Check      *game.CheckResult
	Message    string
	Location   string
	SceneryURL string
	AudioURL   string
	Ended      bool
}

func (s *Server) makeViewModel(live *Live, msg string) ViewModel {
	n, _ := live.game.Current()
	vm := ViewModel{
		StoryTitle: s.Doc.Title,
		Node:       n,
		Choices:    live.game.Choices(),
		State:      live.game.State(),
		Check:      live.last,
		Message:    msg,
	}
	vm.Ended = len(vm.Choices) == 0
	if n != nil {
		vm.Location = n.LocationHint()
	}
	if vm.Location != "" {
		vm.SceneryURL = "/media/scenery/" + vm.Location + ".png"
		if s.hasAudio(vm.Location) {
			vm.AudioURL = "/media/audio/" + vm.Location
		}
	}
	return vm
}

// StateView is the JSON shape of GET /state.
type StateView struct {
	StoryTitle string            `json:"story_title"`
	NodeID     string            `json:"node_id"`
	Title      string            `json:"title,omitempty"`
	Speaker    string            `json:"speaker"`
	Text       string            `json:"text"`
	Location   string            `json:"location,omitempty"`
	Choices    []ChoiceJSON      `json:"choices"`
	State      story.GameState   `json:"game_state"`
	Visited    []string          `json:"visited_nodes"`
	LastCheck  *game.CheckResult `json:"last_check,omitempty"`
}

// ChoiceJSON is one entry of StateView.Choices.
type ChoiceJSON struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Available  bool   `json:"available"`
	Skill      string `json:"skill,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

func (s *Server) stateView(live *Live) StateView {
	n, _ := live.game.Current()
	v := StateView{
		StoryTitle: s.Doc.Title,
		NodeID:     live.game.CurrentID(),
		State:      live.game.State(),
		Visited:    live.game.Visited(),
		LastCheck:  live.last,
		Choices:    []ChoiceJSON{},
	}
	if n != nil {
		v.Title, v.Speaker, v.Text, v.Location = n.Title, n.Speaker, n.Text, n.LocationHint()
	}
	for _, c := range live.game.Choices() {
		cj := ChoiceJSON{Index: c.Index, Text: c.Text, Available: c.Available}
		if c.Check != nil {
			cj.Skill, cj.Difficulty = c.Check.Skill, c.Check.Difficulty
		}
		v.Choices = append(v.Choices, cj)
	}
	return v
}
