package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Category names of GameState.
const (
	CategoryStats         = "stats"
	CategoryInventory     = "inventory"
	CategoryFlags         = "flags"
	CategoryVariables     = "variables"
	CategoryRelationships = "relationships"
)

// GameState is the mutable player/world aggregate. Inventory never holds
// duplicates.
type GameState struct {
	Stats         map[string]int
	Inventory     []string
	Flags         map[string]bool
	Variables     map[string]any
	Relationships map[string]any

	// Extra holds categories created by modify_state effects that are not
	// one of the five named ones. Serialized inline next to them.
	Extra map[string]map[string]any
}

// NewGameState returns a state with every collection initialized.
func NewGameState() GameState {
	return GameState{
		Stats:         map[string]int{},
		Inventory:     []string{},
		Flags:         map[string]bool{},
		Variables:     map[string]any{},
		Relationships: map[string]any{},
	}
}

// Normalize fills nil collections and drops duplicate inventory entries.
func (s *GameState) Normalize() {
	if s.Stats == nil {
		s.Stats = map[string]int{}
	}
	if s.Flags == nil {
		s.Flags = map[string]bool{}
	}
	if s.Variables == nil {
		s.Variables = map[string]any{}
	}
	if s.Relationships == nil {
		s.Relationships = map[string]any{}
	}
	inv := make([]string, 0, len(s.Inventory))
	for _, it := range s.Inventory {
		if !slices.Contains(inv, it) {
			inv = append(inv, it)
		}
	}
	s.Inventory = inv
	if len(s.Extra) == 0 {
		s.Extra = nil
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s GameState) Clone() GameState {
	out := GameState{
		Stats:         make(map[string]int, len(s.Stats)),
		Inventory:     make([]string, len(s.Inventory)),
		Flags:         make(map[string]bool, len(s.Flags)),
		Variables:     cloneScalars(s.Variables),
		Relationships: cloneScalars(s.Relationships),
	}
	for k, v := range s.Stats {
		out.Stats[k] = v
	}
	copy(out.Inventory, s.Inventory)
	for k, v := range s.Flags {
		out.Flags[k] = v
	}
	if len(s.Extra) > 0 {
		out.Extra = make(map[string]map[string]any, len(s.Extra))
		for cat, m := range s.Extra {
			out.Extra[cat] = cloneScalars(m)
		}
	}
	return out
}

// HasItem reports whether name is in the inventory.
func (s GameState) HasItem(name string) bool {
	return slices.Contains(s.Inventory, name)
}

func cloneScalars(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneScalars(t)
	case []any:
		c := make([]any, len(t))
		for i := range t {
			c[i] = cloneValue(t[i])
		}
		return c
	default:
		return v
	}
}

// MarshalJSON writes the five named categories followed by any extra ones.
func (s GameState) MarshalJSON() ([]byte, error) {
	st := s.Clone()
	st.Normalize()
	out := map[string]any{
		CategoryStats:         st.Stats,
		CategoryInventory:     st.Inventory,
		CategoryFlags:         st.Flags,
		CategoryVariables:     st.Variables,
		CategoryRelationships: st.Relationships,
	}
	for cat, m := range st.Extra {
		if _, taken := out[cat]; taken {
			continue
		}
		out[cat] = m
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape written by MarshalJSON. Numbers in
// variables and relationships come back as int when integral, else float64.
func (s *GameState) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := NewGameState()
	for key, msg := range raw {
		var v any
		if err := decodeNumber(msg, &v); err != nil {
			return fmt.Errorf("game_state.%s: %w", key, err)
		}
		v = NormalizeValue(v)
		switch key {
		case CategoryStats:
			m, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("game_state.stats: not an object")
			}
			for k, x := range m {
				if n, ok := AsInt(x); ok {
					st.Stats[k] = n
				}
			}
		case CategoryInventory:
			list, ok := v.([]any)
			if !ok && v != nil {
				return fmt.Errorf("game_state.inventory: not an array")
			}
			for _, x := range list {
				if name, ok := x.(string); ok {
					st.Inventory = append(st.Inventory, name)
				}
			}
		case CategoryFlags:
			m, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("game_state.flags: not an object")
			}
			for k, x := range m {
				st.Flags[k] = Truthy(x)
			}
		case CategoryVariables:
			if m, ok := v.(map[string]any); ok {
				st.Variables = m
			}
		case CategoryRelationships:
			if m, ok := v.(map[string]any); ok {
				st.Relationships = m
			}
		default:
			if m, ok := v.(map[string]any); ok {
				if st.Extra == nil {
					st.Extra = map[string]map[string]any{}
				}
				st.Extra[key] = m
			}
		}
	}
	st.Normalize()
	*s = st
	return nil
}

func decodeNumber(b []byte, v *any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// NormalizeValue converts decoded numbers to int (when integral and in
// range) or float64, recursively through maps and slices.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}
		return float64(t)
	case float32:
		return float64(t)
	case map[string]any:
		for k, x := range t {
			t[k] = NormalizeValue(x)
		}
		return t
	case []any:
		for i := range t {
			t[i] = NormalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

// AsInt coerces a scalar to int. Floats truncate.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, ok := NormalizeValue(t).(int)
		if ok {
			return n, true
		}
		f, err := t.Float64()
		return int(f), err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Truthy follows the usual scripting rules: false, 0, "" and nil are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != "" && t != "false"
	default:
		return true
	}
}
