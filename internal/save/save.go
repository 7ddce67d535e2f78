// Package save turns a session's position into a save record and back.
package save

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"talespin/internal/game"
	"talespin/internal/story"
)

// Record is the serialized form of a session.
type Record struct {
	StoryTitle  string          `json:"story_title"`
	CurrentNode string          `json:"current_node"`
	GameState   story.GameState `json:"game_state"`
	Timestamp   time.Time       `json:"timestamp"`
	Visited     []string        `json:"visited_nodes,omitempty"`
}

// Codec encodes and decodes records. The zero value stamps records with
// time.Now.
type Codec struct {
	Now func() time.Time
}

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Snapshot captures s as a record.
func (c Codec) Snapshot(s *game.Session) (Record, error) {
	if !s.Loaded() {
		return Record{}, game.NewError(game.CodeDocumentInvalid, "no story loaded", nil)
	}
	return Record{
		StoryTitle:  s.Document().Title,
		CurrentNode: s.CurrentID(),
		GameState:   s.State(),
		Timestamp:   c.now(),
		Visited:     s.Visited(),
	}, nil
}

// Encode snapshots s and marshals the record.
func (c Codec) Encode(s *game.Session) ([]byte, error) {
	rec, err := c.Snapshot(s)
	if err != nil {
		return nil, err
	}
	return Marshal(rec)
}

// Marshal writes rec as indented JSON.
func Marshal(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses b. Any structural problem is reported as CORRUPT_SAVE.
func Decode(b []byte) (Record, error) {
	var rec Record
	if len(bytes.TrimSpace(b)) == 0 {
		return rec, game.NewError(game.CodeCorruptSave, "save is empty", nil)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, game.WrapError(game.CodeCorruptSave, "unreadable save", err)
	}
	if strings.TrimSpace(rec.CurrentNode) == "" {
		return Record{}, game.NewError(game.CodeCorruptSave, "save has no current_node", nil)
	}
	rec.GameState.Normalize()
	return rec, nil
}

// Restore applies rec to s, which must already hold the story the record was
// taken from. An unknown node comes back as NODE_NOT_FOUND.
func Restore(s *game.Session, rec Record) error {
	return s.Restore(rec.CurrentNode, rec.GameState, rec.Visited)
}

// Load decodes b and restores it into s.
func Load(s *game.Session, b []byte) (Record, error) {
	rec, err := Decode(b)
	if err != nil {
		return Record{}, err
	}
	if err := Restore(s, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
