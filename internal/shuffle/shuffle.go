// Package shuffle produces uniformly random orderings of slices.
package shuffle

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the subset of *rand.Rand the shuffle needs.
type Rand interface {
	Intn(n int) int
}

// Shuffle returns a new slice holding the elements of in in uniformly random
// order (Fisher-Yates, walking down from the last index). in is not modified.
func Shuffle[T any](rng Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Shuffler owns a random source and can be shared between goroutines.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Shuffler seeded from the clock.
func New() *Shuffler {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a Shuffler with a fixed seed, for reproducible orderings.
func NewSeeded(seed int64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewSource(seed))}
}

// Intn implements Rand. It is safe for concurrent use.
func (s *Shuffler) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Permute returns a shuffled copy of in using s as the random source.
func Permute[T any](s *Shuffler, in []T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Shuffle[T](s.rng, in)
}
