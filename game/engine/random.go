package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource is all the engine needs from a random number generator.
// It is abstracted so tests can script tile placement.
type RandomSource interface {
	// IntN returns a uniformly chosen index in [0, n).
	IntN(n int) int
	// Coin returns true or false with equal probability.
	Coin() bool
}

type chachaSource struct {
	rng *rand.Rand
}

// NewRandomSource returns a deterministic source for the given seed
func NewRandomSource(seed uint64) RandomSource {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &chachaSource{rng: rand.New(rand.NewChaCha8(key))}
}

// NewSecureRandomSource returns a source seeded from crypto/rand
func NewSecureRandomSource() RandomSource {
	var key [32]byte
	_, _ = crand.Read(key[:])
	return &chachaSource{rng: rand.New(rand.NewChaCha8(key))}
}

func (s *chachaSource) IntN(n int) int {
	return s.rng.IntN(n)
}

func (s *chachaSource) Coin() bool {
	return s.rng.IntN(2) == 1
}
