package assigner

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Randomizer abstracts the source of shuffles so tests can script them.
type Randomizer interface {
	Shuffle(n int, swap func(i, j int))
}

type randomizerImpl struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomizer returns a goroutine-safe Randomizer backed by a ChaCha8
// generator seeded from crypto/rand.
func NewRandomizer() Randomizer {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return &randomizerImpl{
		rnd: rand.New(rand.NewChaCha8(seed)),
	}
}

// Shuffle performs a Fisher-Yates shuffle through swap.
func (r *randomizerImpl) Shuffle(n int, swap func(i, j int)) {
	if n <= 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(n, swap)
}
