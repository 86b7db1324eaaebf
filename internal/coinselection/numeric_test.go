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
	"github.com/stretchr/testify/require"
)

func sum(xs []uint64) uint64 {
	var total uint64
	for _, x := range xs {
		total += x
	}
	return total
}

func TestPartitionNaturalExactDivision(t *testing.T) {
	shares := PartitionNatural(100, []uint64{1, 1, 1, 1})
	assert.Equal(t, []uint64{25, 25, 25, 25}, shares)
}

func TestPartitionNaturalRemainderGoesToAscendingIndexOnTie(t *testing.T) {
	// 10 split 3 ways with equal weights: 3,3,3 plus 1 remainder, which
	// must land on index 0 since every remainder ties.
	shares := PartitionNatural(10, []uint64{1, 1, 1})
	assert.Equal(t, []uint64{4, 3, 3}, shares)
	assert.Equal(t, uint64(10), sum(shares))
}

func TestPartitionNaturalProportionalToWeights(t *testing.T) {
	shares := PartitionNatural(100, []uint64{1, 3})
	assert.Equal(t, uint64(100), sum(shares))
	// Weight 3 should get roughly 3x weight 1's share.
	assert.InDelta(t, float64(shares[1]), float64(shares[0])*3, 3)
}

func TestPartitionNaturalAllZeroWeights(t *testing.T) {
	shares := PartitionNatural(50, []uint64{0, 0, 0})
	assert.Equal(t, []uint64{0, 0, 0}, shares)
}

func TestPartitionNaturalEmptyWeights(t *testing.T) {
	shares := PartitionNatural(50, nil)
	assert.Empty(t, shares)
}

func TestPartitionNaturalZeroN(t *testing.T) {
	shares := PartitionNatural(0, []uint64{1, 2, 3})
	assert.Equal(t, []uint64{0, 0, 0}, shares)
}

func TestPartitionNaturalSkewedWeights(t *testing.T) {
	shares := PartitionNatural(7, []uint64{0, 0, 1})
	assert.Equal(t, []uint64{0, 0, 7}, shares)
}

func TestPadCoalescePadsWithZeros(t *testing.T) {
	out := padCoalesce([]uint64{5}, 3)
	require.Len(t, out, 3)
	assert.Equal(t, uint64(5), sum(out))
	assert.Equal(t, []uint64{0, 0, 5}, out)
}

func TestPadCoalesceMergesSmallestFirst(t *testing.T) {
	out := padCoalesce([]uint64{1, 2, 3, 10}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(16), sum(out))
	// 1+2 merge first, giving 3; then that merges with 3 -> 6, leaving 6 and 10.
	assert.Equal(t, []uint64{6, 10}, out)
}

func TestPadCoalesceExactLength(t *testing.T) {
	out := padCoalesce([]uint64{4, 5, 6}, 3)
	assert.Equal(t, []uint64{4, 5, 6}, out)
}

func TestPadCoalesceZeroTarget(t *testing.T) {
	out := padCoalesce([]uint64{1, 2}, 0)
	assert.Nil(t, out)
}
