package game

import (
	"crypto/rand"
	"encoding/binary"
	"maps"
	mrand "math/rand/v2"
	"slices"
	"strings"

	"talespin/internal/story"
)

// RandSource draws a uniform integer in [0, n). *math/rand/v2.Rand
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

// NewRandSource returns a PCG generator seeded from crypto/rand.
func NewRandSource() RandSource {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return mrand.New(mrand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))
}

// CheckResult is the outcome of one skill check.
type CheckResult struct {
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
	Value      int    `json:"value"` // stat value used
	Roll       int    `json:"roll"`  // 1..20
	Total      int    `json:"total"`
	Success    bool   `json:"success"`
}

// ResolveSkillCheck rolls a d20 from rng and adds the stat value.
func ResolveSkillCheck(check story.SkillCheck, st story.GameState, rng RandSource) CheckResult {
	value := statValue(st.Stats, check.Skill)
	roll := rng.IntN(20) + 1
	total := value + roll
	return CheckResult{
		Skill:      check.Skill,
		Difficulty: check.Difficulty,
		Value:      value,
		Roll:       roll,
		Total:      total,
		Success:    total >= check.Difficulty,
	}
}

// statValue reads stats[skill], falling back to the first key (in sorted
// order) equal under case folding. Missing stats count as 0.
func statValue(stats map[string]int, skill string) int {
	if v, ok := stats[skill]; ok {
		return v
	}
	for _, k := range slices.Sorted(maps.Keys(stats)) {
		if strings.EqualFold(k, skill) {
			return stats[k]
		}
	}
	return 0
}
