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
	"math/big"
	"sort"
)

// PartitionNatural distributes n over len(weights) positions in proportion
// to weights, using the exact-mass-plus-remainder convention: each position
// first gets floor(n*w_i / sum(w)), then the residual is handed out one unit
// at a time to the positions with the largest fractional remainder, ties
// broken by ascending index. If every weight is zero, or weights is empty,
// the distribution is all zeros.
func PartitionNatural(n uint64, weights []uint64) []uint64 {
	shares := make([]uint64, len(weights))
	if len(weights) == 0 {
		return shares
	}

	var total big.Int
	for _, w := range weights {
		total.Add(&total, new(big.Int).SetUint64(w))
	}
	if total.Sign() == 0 {
		return shares
	}

	remainders := make([]*big.Int, len(weights))
	nBig := new(big.Int).SetUint64(n)
	var assigned big.Int
	for i, w := range weights {
		numerator := new(big.Int).Mul(nBig, new(big.Int).SetUint64(w))
		share, remainder := new(big.Int), new(big.Int)
		share.QuoRem(numerator, &total, remainder)
		shares[i] = share.Uint64()
		remainders[i] = remainder
		assigned.Add(&assigned, share)
	}

	residual := new(big.Int).Sub(nBig, &assigned).Uint64()

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		cmp := remainders[order[a]].Cmp(remainders[order[b]])
		if cmp != 0 {
			return cmp > 0
		}
		return order[a] < order[b]
	})

	for i := uint64(0); i < residual; i++ {
		shares[order[i]]++
	}
	return shares
}

// padCoalesce returns a list of exactly target length whose sum equals
// sum(xs): if xs is shorter than target, it is padded with zeros; if xs is
// longer, the smallest remaining elements are repeatedly merged together
// until the length matches. This is used to distribute an unknown asset's
// per-input quantities across change outputs without inventing correlation
// between unrelated inputs: merging the smallest values first means an asset
// spread across many small inputs ends up concentrated in fewer change
// outputs, rather than in a vacuous even split.
func padCoalesce(xs []uint64, target int) []uint64 {
	sorted := append([]uint64(nil), xs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if target <= 0 {
		return nil
	}
	for len(sorted) < target {
		sorted = append([]uint64{0}, sorted...)
	}
	for len(sorted) > target {
		merged := sorted[0] + sorted[1]
		sorted = sorted[2:]
		// Re-insert the merged value at its sorted position.
		pos := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= merged })
		sorted = append(sorted, 0)
		copy(sorted[pos+1:], sorted[pos:])
		sorted[pos] = merged
	}
	return sorted
}
