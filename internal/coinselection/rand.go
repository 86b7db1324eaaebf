// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coinselection

import "math/rand/v2"

// RandSource is the engine's only external dependency: a uniform-sampling
// source. Seeding it is the caller's concern; production code should use
// NewRandSource, and deterministic tests should use a fixed-seed source so
// that two runs with identical inputs produce identical selections (P9).
type RandSource interface {
	// Uint64N returns a uniform random value in [0, n). Behaviour is
	// undefined for n == 0.
	Uint64N(n uint64) uint64
}

// chaCha8RandSource wraps math/rand/v2's ChaCha8 generator.
type chaCha8RandSource struct {
	r *rand.Rand
}

// NewRandSource returns a production RandSource seeded from two uint64
// halves of entropy.
func NewRandSource(seed1, seed2 uint64) RandSource {
	var seed [32]byte
	for i := 0; i < 8; i++ {
		seed[i] = byte(seed1 >> (8 * i))
		seed[i+8] = byte(seed2 >> (8 * i))
	}
	return &chaCha8RandSource{r: rand.New(rand.NewChaCha8(seed))}
}

func (c *chaCha8RandSource) Uint64N(n uint64) uint64 {
	return rand.N[uint64](c.r, n)
}

// FixedRandSource is a deterministic RandSource for tests: it always picks
// index i mod n, walking the sequence supplied at construction and repeating
// the last value once exhausted.
type FixedRandSource struct {
	picks []uint64
	pos   int
}

// NewFixedRandSource returns a FixedRandSource that yields picks[0],
// picks[1], ... (each reduced mod n at call time), holding at the last value
// once exhausted. An empty picks list always returns 0.
func NewFixedRandSource(picks ...uint64) *FixedRandSource {
	return &FixedRandSource{picks: picks}
}

func (f *FixedRandSource) Uint64N(n uint64) uint64 {
	if len(f.picks) == 0 {
		return 0
	}
	idx := f.pos
	if idx >= len(f.picks) {
		idx = len(f.picks) - 1
	} else {
		f.pos++
	}
	return f.picks[idx] % n
}
