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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRandSourceWalksPicks(t *testing.T) {
	rng := NewFixedRandSource(2, 0, 1)
	assert.Equal(t, uint64(2), rng.Uint64N(5))
	assert.Equal(t, uint64(0), rng.Uint64N(5))
	assert.Equal(t, uint64(1), rng.Uint64N(5))
	// Exhausted: holds at the last value.
	assert.Equal(t, uint64(1), rng.Uint64N(5))
	assert.Equal(t, uint64(1), rng.Uint64N(5))
}

func TestFixedRandSourceReducesModN(t *testing.T) {
	rng := NewFixedRandSource(7)
	assert.Equal(t, uint64(7%3), rng.Uint64N(3))
}

func TestFixedRandSourceEmptyAlwaysZero(t *testing.T) {
	rng := NewFixedRandSource()
	assert.Equal(t, uint64(0), rng.Uint64N(5))
	assert.Equal(t, uint64(0), rng.Uint64N(1))
}

func TestRandSourceProducesValuesInRange(t *testing.T) {
	rng := NewRandSource(1, 2)
	for i := 0; i < 100; i++ {
		v := rng.Uint64N(10)
		assert.Less(t, v, uint64(10))
	}
}
