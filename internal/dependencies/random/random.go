// Package random supplies the randomness used to draft guards.
package random

import (
	"crypto/rand"
	"math/big"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// Crypto draws from crypto/rand
type Crypto struct{}

// New creates a Crypto source
func New() Crypto {
	return Crypto{}
}

// Intn returns a uniformly random int in [0, n), or 0 when n <= 0
func (Crypto) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// Draw removes a uniformly chosen element from pool and returns it with the
// shrunken pool. Order of the remaining elements is not kept. pool must not
// be empty.
func Draw[T any](r Random, pool []T) (T, []T) {
	i := r.Intn(len(pool))
	picked := pool[i]
	last := len(pool) - 1
	pool[i] = pool[last]
	return picked, pool[:last]
}
