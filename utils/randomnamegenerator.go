package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique silly names, used to fill fixtures
// and to name unnamed exported nodes. Deterministic for a given seed.
type RandomNameGenerator struct {
	used   map[string]struct{}
	maxLen int
}

func NewRandomNameGenerator(seed int64, maxLen int) *RandomNameGenerator {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &RandomNameGenerator{
		used:   make(map[string]struct{}),
		maxLen: maxLen,
	}
}

func (rng *RandomNameGenerator) RandomName() string {
	for {
		name := randomdata.SillyName()
		if rng.maxLen > 0 && len(name) > rng.maxLen {
			name = name[:rng.maxLen]
		}
		// avoid duplicate names
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}
