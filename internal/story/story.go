package story

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and converts a story document from a YAML or JSON file.
func Load(path string) (*Document, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path is cleaned, stories are operator supplied
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes b and converts it. The only error is a syntax error in the
// input itself; everything past that is best effort.
func Parse(b []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		// Pretty-printed JSON may be indented with tabs, which YAML rejects.
		if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '{' {
			if tree, jerr := decodeJSONTree(trimmed); jerr == nil {
				return Convert(tree), nil
			}
		}
		return nil, fmt.Errorf("parse story: %w", err)
	}
	return Convert(&root), nil
}

// Convert turns a decoded document tree into a Document. It never fails:
// missing or mistyped fields take their zero value, duplicate node ids keep
// the last definition, and every such decision is recorded in Warnings.
func Convert(root *yaml.Node) *Document {
	c := &converter{doc: &Document{
		InitialState: NewGameState(),
		Nodes:        map[string]*Node{},
	}}
	top := unwrap(root)
	c.doc.Title = scalarString(field(top, "title"))
	c.doc.Author = scalarString(field(top, "author"))
	c.doc.Description = scalarString(field(top, "description"))
	c.doc.StartNode = scalarString(firstField(top, "startNode", "start_node", "start"))
	c.doc.InitialState = c.initialState(firstField(top, "initialState", "initial_state"))
	c.nodes(field(top, "nodes"))
	c.finish()
	return c.doc
}

type converter struct {
	doc *Document
}

func (c *converter) warnf(format string, args ...any) {
	c.doc.Warnings = append(c.doc.Warnings, fmt.Sprintf(format, args...))
}

func (c *converter) initialState(n *yaml.Node) GameState {
	st := NewGameState()
	for _, kv := range pairs(n) {
		key, val := kv[0].Value, kv[1]
		switch key {
		case CategoryStats:
			for _, s := range pairs(val) {
				v, ok := AsInt(decodeValue(s[1]))
				if !ok {
					c.warnf("initial stat %q is not a number", s[0].Value)
					continue
				}
				st.Stats[s[0].Value] = v
			}
		case CategoryInventory:
			for _, it := range items(val) {
				if name := scalarString(it); name != "" && !st.HasItem(name) {
					st.Inventory = append(st.Inventory, name)
				}
			}
		case CategoryFlags:
			for _, f := range pairs(val) {
				st.Flags[f[0].Value] = Truthy(decodeValue(f[1]))
			}
		case CategoryVariables:
			if m, ok := decodeValue(val).(map[string]any); ok {
				st.Variables = m
			}
		case CategoryRelationships:
			if m, ok := decodeValue(val).(map[string]any); ok {
				st.Relationships = m
			}
		default:
			if m, ok := decodeValue(val).(map[string]any); ok {
				if st.Extra == nil {
					st.Extra = map[string]map[string]any{}
				}
				st.Extra[key] = m
			}
		}
	}
	st.Normalize()
	return st
}

func (c *converter) nodes(n *yaml.Node) {
	n = unwrap(n)
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.MappingNode:
		for _, kv := range pairs(n) {
			c.addNode(kv[0].Value, kv[1])
		}
	case yaml.SequenceNode:
		// Tolerated: a list of node objects carrying their own id.
		for i, it := range items(n) {
			id := scalarString(field(it, "id"))
			if id == "" {
				c.warnf("node #%d has no id, skipped", i)
				continue
			}
			c.addNode(id, it)
		}
	}
}

func (c *converter) addNode(id string, n *yaml.Node) {
	if _, dup := c.doc.Nodes[id]; dup {
		c.warnf("duplicate node id %q: later definition wins", id)
	}
	node := &Node{
		ID:        id,
		Kind:      scalarString(field(n, "type")),
		Title:     scalarString(field(n, "title")),
		Text:      scalarString(field(n, "text")),
		Condition: scalarString(field(n, "condition")),
		Effects:   c.effects(field(n, "effects"), "node "+id),
	}
	if node.Kind == "" {
		node.Kind = "story"
	}
	node.Speaker = ResolveSpeaker(node.Title, node.Text)
	for i, ch := range items(field(n, "choices")) {
		node.Choices = append(node.Choices, c.choice(ch, fmt.Sprintf("node %s choice %d", id, i)))
	}
	c.doc.Nodes[id] = node
}

func (c *converter) choice(n *yaml.Node, where string) Choice {
	ch := Choice{
		Text:      scalarString(field(n, "text")),
		Next:      scalarString(field(n, "next")),
		Condition: scalarString(field(n, "condition")),
		Effects:   c.effects(field(n, "effects"), where),
	}
	ch.Check = ExtractSkillCheck(ch.Text, ch.Condition)
	return ch
}

var effectAliases = map[string]EffectKind{
	"modify_state": EffectModifyState,
	"modifystate":  EffectModifyState,
	"set_flag":     EffectSetFlag,
	"setflag":      EffectSetFlag,
	"add_item":     EffectAddItem,
	"additem":      EffectAddItem,
	"remove_item":  EffectRemoveItem,
	"removeitem":   EffectRemoveItem,
}

func (c *converter) effects(n *yaml.Node, where string) []Effect {
	var out []Effect
	for i, en := range items(n) {
		raw := scalarString(field(en, "type"))
		kind, ok := effectAliases[strings.ToLower(raw)]
		if !ok {
			c.warnf("%s effect %d: unknown type %q is ignored", where, i, raw)
			out = append(out, Effect{Kind: EffectKind(raw)})
			continue
		}
		ef := Effect{Kind: kind}
		switch kind {
		case EffectModifyState:
			ef.Target = scalarString(firstField(en, "target", "path"))
			if ef.Target == "" {
				if cat, key := scalarString(field(en, "category")), scalarString(field(en, "key")); cat != "" && key != "" {
					ef.Target = cat + "." + key
				}
			}
			ef.Operation = strings.ToLower(scalarString(field(en, "operation")))
			if ef.Operation == "" {
				ef.Operation = OpSet
			}
			ef.Value = decodeValue(field(en, "value"))
			if _, _, ok := SplitTarget(ef.Target); !ok {
				c.warnf("%s effect %d: malformed target %q is skipped", where, i, ef.Target)
			}
		case EffectSetFlag:
			ef.Name = scalarString(firstField(en, "flag", "name"))
			ef.Flag = true
			if v := field(en, "value"); v != nil {
				ef.Flag = Truthy(decodeValue(v))
			}
		case EffectAddItem, EffectRemoveItem:
			ef.Name = scalarString(firstField(en, "item", "name"))
		}
		out = append(out, ef)
	}
	return out
}

func (c *converter) finish() {
	ids := slices.Sorted(maps.Keys(c.doc.Nodes))
	for _, id := range ids {
		for i, ch := range c.doc.Nodes[id].Choices {
			if ch.Next != "" && c.doc.Nodes[ch.Next] == nil {
				c.warnf("node %s choice %d: next %q is not a known node", id, i, ch.Next)
			}
		}
	}
	if c.doc.StartNode == "" {
		c.warnf("document has no start node")
	} else if c.doc.Nodes[c.doc.StartNode] == nil {
		c.warnf("start node %q is not a known node", c.doc.StartNode)
	}
}

// SplitTarget splits "category.key". Anything other than exactly two
// non-empty segments is malformed.
func SplitTarget(target string) (category, key string, ok bool) {
	parts := strings.Split(target, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func pairs(n *yaml.Node) [][2]*yaml.Node {
	n = unwrap(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], unwrap(n.Content[i+1])})
	}
	return out
}

func items(n *yaml.Node) []*yaml.Node {
	n = unwrap(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, it := range n.Content {
		out = append(out, unwrap(it))
	}
	return out
}

// field returns the value of key in a mapping. Later duplicates win.
func field(n *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	for _, kv := range pairs(n) {
		if kv[0].Value == key {
			found = kv[1]
		}
	}
	return found
}

func firstField(n *yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		if v := field(n, k); v != nil {
			return v
		}
	}
	return nil
}

func scalarString(n *yaml.Node) string {
	n = unwrap(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func decodeValue(n *yaml.Node) any {
	n = unwrap(n)
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return scalarString(n)
	}
	return NormalizeValue(v)
}
