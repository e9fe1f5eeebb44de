package repository

import "math/rand/v2"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed makes treap priorities reproducible.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}
