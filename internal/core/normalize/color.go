package normalize

import (
	"fmt"
	"math/rand/v2"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// ColorPolicy picks a palette color for the assignment with the given id.
// Implementations must be safe for concurrent use.
type ColorPolicy interface {
	Pick(id int64) string
}

type ColorPolicyFunc func(id int64) string

func (f ColorPolicyFunc) Pick(id int64) string { return f(id) }

// RandomPalette picks uniformly at random.
func RandomPalette() ColorPolicy {
	return ColorPolicyFunc(func(int64) string {
		return constants.Colors[rand.IntN(len(constants.Colors))]
	})
}

// SeededPalette picks pseudo-randomly but reproducibly from (seed, id).
func SeededPalette(seed int64) ColorPolicy {
	return ColorPolicyFunc(func(id int64) string {
		r := rand.New(rand.NewPCG(uint64(seed), uint64(id)))
		return constants.Colors[r.IntN(len(constants.Colors))]
	})
}

// RoundRobin walks the palette in order; id 1 gets Colors[start].
func RoundRobin(start int) ColorPolicy {
	size := int64(len(constants.Colors))
	return ColorPolicyFunc(func(id int64) string {
		idx := (int64(start) + id - 1) % size
		if idx < 0 {
			idx += size
		}
		return constants.Colors[idx]
	})
}

// FixedColor always returns hex, or the first palette entry if hex is not in the palette.
func FixedColor(hex string) ColorPolicy {
	if !constants.IsPaletteColor(hex) {
		hex = constants.Colors[0]
	}
	return ColorPolicyFunc(func(int64) string { return hex })
}

// PolicyFromConfig maps random | seeded | round_robin onto a policy.
func PolicyFromConfig(name string, seed int64) (ColorPolicy, error) {
	switch name {
	case "", "random":
		return RandomPalette(), nil
	case "seeded":
		return SeededPalette(seed), nil
	case "round_robin":
		return RoundRobin(int(seed)), nil
	}
	return nil, fmt.Errorf("%w: unknown color policy %q", common.ErrInvalidInput, name)
}
