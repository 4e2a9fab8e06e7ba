// Package randutil centralises how deterministic generators are derived so that a
// server seed reproduces every session's dealer choice and shuffle.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// FromTime seeds a generator from the wall clock, for when no seed is configured.
func FromTime() *rand.Rand {
	return New(time.Now().UnixNano())
}

// Child derives an independent generator from parent. The parent is advanced, so
// callers sharing a parent must serialise access to it.
func Child(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(mix(parent.Uint64()), mix(parent.Uint64())))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
