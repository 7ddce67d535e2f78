package game

import (
	"fmt"
	"slices"
	"strconv"

	"talespin/internal/story"
)

// ApplyEffects applies effs to st in order; each effect sees the mutations
// of the ones before it. Malformed targets and unknown kinds are skipped.
func ApplyEffects(st *story.GameState, effs []story.Effect) {
	for _, ef := range effs {
		applyEffect(st, ef)
	}
}

func applyEffect(st *story.GameState, ef story.Effect) {
	switch ef.Kind {
	case story.EffectModifyState:
		modifyState(st, ef)
	case story.EffectSetFlag:
		if st.Flags == nil {
			st.Flags = map[string]bool{}
		}
		st.Flags[ef.Name] = ef.Flag
	case story.EffectAddItem:
		if st.Inventory == nil {
			st.Inventory = []string{}
		}
		if !slices.Contains(st.Inventory, ef.Name) {
			st.Inventory = append(st.Inventory, ef.Name)
		}
	case story.EffectRemoveItem:
		if i := slices.Index(st.Inventory, ef.Name); i >= 0 {
			st.Inventory = slices.Delete(st.Inventory, i, i+1)
		}
	}
}

func modifyState(st *story.GameState, ef story.Effect) {
	cat, key, ok := story.SplitTarget(ef.Target)
	if !ok {
		return
	}
	switch cat {
	case story.CategoryStats:
		if st.Stats == nil {
			st.Stats = map[string]int{}
		}
		res, ok := arith(st.Stats[key], ef.Operation, ef.Value)
		if !ok {
			return
		}
		if n, ok := story.AsInt(res); ok {
			st.Stats[key] = n
		}
	case story.CategoryFlags:
		if ef.Operation != story.OpSet {
			return
		}
		if st.Flags == nil {
			st.Flags = map[string]bool{}
		}
		st.Flags[key] = story.Truthy(ef.Value)
	case story.CategoryInventory:
		// A sequence, not a mapping: use add_item/remove_item.
	case story.CategoryVariables:
		if st.Variables == nil {
			st.Variables = map[string]any{}
		}
		modifyScalar(st.Variables, key, ef)
	case story.CategoryRelationships:
		if st.Relationships == nil {
			st.Relationships = map[string]any{}
		}
		modifyScalar(st.Relationships, key, ef)
	default:
		if st.Extra == nil {
			st.Extra = map[string]map[string]any{}
		}
		m := st.Extra[cat]
		if m == nil {
			m = map[string]any{}
			st.Extra[cat] = m
		}
		modifyScalar(m, key, ef)
	}
}

func modifyScalar(m map[string]any, key string, ef story.Effect) {
	cur, ok := m[key]
	if !ok || cur == nil {
		cur = 0
	}
	if res, ok := arith(cur, ef.Operation, ef.Value); ok {
		m[key] = res
	}
}

// arith combines cur and v. Ints stay ints; anything involving a float
// becomes float64. Non-numeric operands fail.
func arith(cur any, op string, v any) (any, bool) {
	if op == story.OpSet {
		return v, true
	}
	ai, aInt := cur.(int)
	bi, bInt := v.(int)
	if aInt && bInt {
		switch op {
		case story.OpAdd:
			return ai + bi, true
		case story.OpSubtract:
			return ai - bi, true
		case story.OpMultiply:
			return ai * bi, true
		}
		return nil, false
	}
	af, ok1 := toFloat(cur)
	bf, ok2 := toFloat(v)
	if !ok1 || !ok2 {
		return nil, false
	}
	switch op {
	case story.OpAdd:
		return af + bf, true
	case story.OpSubtract:
		return af - bf, true
	case story.OpMultiply:
		return af * bf, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// ValidateEffects reports the first effect ApplyEffects would silently
// skip. Strict sessions call it before mutating anything.
func ValidateEffects(effs []story.Effect) error {
	for i, ef := range effs {
		var problem string
		switch ef.Kind {
		case story.EffectModifyState:
			if _, _, ok := story.SplitTarget(ef.Target); !ok {
				problem = fmt.Sprintf("malformed target %q", ef.Target)
				break
			}
			switch ef.Operation {
			case story.OpSet, story.OpAdd, story.OpSubtract, story.OpMultiply:
			default:
				problem = fmt.Sprintf("unknown operation %q", ef.Operation)
			}
		case story.EffectSetFlag, story.EffectAddItem, story.EffectRemoveItem:
			if ef.Name == "" {
				problem = fmt.Sprintf("%s without a name", ef.Kind)
			}
		default:
			problem = fmt.Sprintf("unknown effect type %q", ef.Kind)
		}
		if problem != "" {
			return &Error{
				Code:     CodeEffectInvalid,
				Message:  fmt.Sprintf("effect %d: %s", i, problem),
				Metadata: map[string]string{"index": strconv.Itoa(i)},
			}
		}
	}
	return nil
}
