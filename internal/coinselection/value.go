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

// Package coinselection implements the multi-asset coin selection and
// migration planner: given a pool of available UTxO entries each carrying a
// native-asset bundle, and a list of payment targets, it decides which
// entries to spend, constructs change outputs that respect per-output
// minimum-value and size constraints, and partitions an entire wallet into a
// minimal sequence of valid transactions for migration.
//
// The package is pure and single-threaded: it never touches storage,
// network, or the database, and its only external dependency is a source of
// randomness supplied by the caller.
package coinselection

import (
	"fmt"
	"sort"

	"github.com/blinklabs-io/adawallet/internal/common"
)

// AssetId identifies a native asset class by policy ID and asset name.
// ADA/lovelace is the AssetId for which IsLovelace() is true.
type AssetId = common.AssetClass

// Coin is a non-negative quantity of lovelace, checked against a 64-bit
// range on every operation that could overflow or underflow it.
type Coin uint64

// Add returns a+b. It panics if the sum overflows the 64-bit range.
func (a Coin) Add(b Coin) Coin {
	c := a + b
	if c < a {
		panic(fmt.Sprintf("coinselection: Coin.Add overflow: %d + %d", a, b))
	}
	return c
}

// SubtractGe returns a-b and true iff a >= b, otherwise (0, false).
func (a Coin) SubtractGe(b Coin) (Coin, bool) {
	if a < b {
		return 0, false
	}
	return a - b, true
}

// Distance returns |a-b|.
func (a Coin) Distance(b Coin) Coin {
	if a >= b {
		return a - b
	}
	return b - a
}

// TokenQuantity is a non-negative quantity of a single native asset.
type TokenQuantity = uint64

// TokenMap is a normalised mapping from AssetId to TokenQuantity. The zero
// value is the empty map. No exported constructor ever leaves a zero-valued
// entry in the map: Add, Subtract, and Insert all drop entries that reach
// zero, keeping the "no zero quantities" invariant in one place rather than
// relying on every caller to maintain it.
type TokenMap struct {
	quantities map[string]tokenEntry
}

type tokenEntry struct {
	asset    AssetId
	quantity TokenQuantity
}

func assetKey(a AssetId) string {
	return a.Fingerprint()
}

// NewTokenMap builds a TokenMap from a flat list of asset amounts, summing
// duplicate assets and dropping zero quantities.
func NewTokenMap(amounts ...common.AssetAmount) TokenMap {
	m := TokenMap{}
	for _, amt := range amounts {
		m = m.Insert(amt.Class, amt.Amount)
	}
	return m
}

// Get returns the quantity of asset a, or 0 if absent.
func (m TokenMap) Get(a AssetId) TokenQuantity {
	if m.quantities == nil {
		return 0
	}
	entry, ok := m.quantities[assetKey(a)]
	if !ok {
		return 0
	}
	return entry.quantity
}

// Insert returns a copy of m with qty added to asset a's existing quantity,
// normalising the entry out of the result if the sum is zero.
func (m TokenMap) Insert(a AssetId, qty TokenQuantity) TokenMap {
	out := m.clone()
	cur := out.quantities[assetKey(a)].quantity
	newQty := cur + qty
	if newQty == 0 {
		delete(out.quantities, assetKey(a))
		return out
	}
	out.quantities[assetKey(a)] = tokenEntry{asset: a, quantity: newQty}
	return out
}

func (m TokenMap) clone() TokenMap {
	out := TokenMap{quantities: make(map[string]tokenEntry, len(m.quantities))}
	for k, v := range m.quantities {
		out.quantities[k] = v
	}
	return out
}

// Add returns the normalised sum of m and other.
func (m TokenMap) Add(other TokenMap) TokenMap {
	out := m.clone()
	for _, entry := range other.quantities {
		cur := out.quantities[assetKey(entry.asset)].quantity
		newQty := cur + entry.quantity
		if newQty == 0 {
			delete(out.quantities, assetKey(entry.asset))
			continue
		}
		out.quantities[assetKey(entry.asset)] = tokenEntry{
			asset:    entry.asset,
			quantity: newQty,
		}
	}
	return out
}

// Subtract returns (m-other, true) iff other <= m component-wise, else
// (TokenMap{}, false).
func (m TokenMap) Subtract(other TokenMap) (TokenMap, bool) {
	if !other.Leq(m) {
		return TokenMap{}, false
	}
	out := m.clone()
	for _, entry := range other.quantities {
		cur := out.quantities[assetKey(entry.asset)].quantity
		newQty := cur - entry.quantity
		if newQty == 0 {
			delete(out.quantities, assetKey(entry.asset))
			continue
		}
		out.quantities[assetKey(entry.asset)] = tokenEntry{
			asset:    entry.asset,
			quantity: newQty,
		}
	}
	return out, true
}

// Leq returns true iff m[k] <= other[k] for every asset k in m.
func (m TokenMap) Leq(other TokenMap) bool {
	for _, entry := range m.quantities {
		if entry.quantity > other.Get(entry.asset) {
			return false
		}
	}
	return true
}

// IsEmpty returns true if the map has no non-zero entries.
func (m TokenMap) IsEmpty() bool {
	return len(m.quantities) == 0
}

// Assets returns the set of AssetIds with non-zero quantity, in a
// deterministic (fingerprint) order.
func (m TokenMap) Assets() []AssetId {
	out := make([]AssetId, 0, len(m.quantities))
	for _, entry := range m.quantities {
		out = append(out, entry.asset)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Fingerprint() < out[j].Fingerprint()
	})
	return out
}

// Flat returns the map's contents as a flat, deterministically ordered list
// of asset amounts.
func (m TokenMap) Flat() []common.AssetAmount {
	assets := m.Assets()
	out := make([]common.AssetAmount, 0, len(assets))
	for _, a := range assets {
		out = append(out, common.AssetAmount{Class: a, Amount: m.Get(a)})
	}
	return out
}

// Len returns the number of distinct assets held.
func (m TokenMap) Len() int {
	return len(m.quantities)
}

func (m TokenMap) String() string {
	return fmt.Sprintf("%v", m.Flat())
}

// TokenBundle is a coin plus a native-asset token map, the unit of value
// carried by a transaction input, output, or change position.
type TokenBundle struct {
	coin  Coin
	Assets TokenMap
}

// FromCoin lifts a plain coin into an ada-only bundle.
func FromCoin(c Coin) TokenBundle {
	return TokenBundle{coin: c}
}

// EmptyBundle is the additive identity: (0, ∅).
func EmptyBundle() TokenBundle {
	return TokenBundle{}
}

// Coin returns the bundle's ada component.
func (b TokenBundle) Coin() Coin {
	return b.coin
}

// SetCoin returns a copy of b with the ada component replaced by c.
func (b TokenBundle) SetCoin(c Coin) TokenBundle {
	b.coin = c
	return b
}

// IsAdaOnly returns true if the bundle carries no native assets.
func (b TokenBundle) IsAdaOnly() bool {
	return b.Assets.IsEmpty()
}

// Add returns the component-wise sum of b and other.
func (b TokenBundle) Add(other TokenBundle) TokenBundle {
	return TokenBundle{
		coin:   b.coin.Add(other.coin),
		Assets: b.Assets.Add(other.Assets),
	}
}

// Subtract returns (b-other, true) iff other <= b component-wise (ada and
// every asset), else (TokenBundle{}, false).
func (b TokenBundle) Subtract(other TokenBundle) (TokenBundle, bool) {
	coin, ok := b.coin.SubtractGe(other.coin)
	if !ok {
		return TokenBundle{}, false
	}
	assets, ok := b.Assets.Subtract(other.Assets)
	if !ok {
		return TokenBundle{}, false
	}
	return TokenBundle{coin: coin, Assets: assets}, true
}

// SubtractUnchecked returns b-other without checking other <= b. Callers
// must have already proven the subtraction is valid; violating that
// precondition is a programming error and panics.
func (b TokenBundle) SubtractUnchecked(other TokenBundle) TokenBundle {
	result, ok := b.Subtract(other)
	if !ok {
		panic(fmt.Sprintf(
			"coinselection: SubtractUnchecked precondition violated: %v is not >= %v",
			b, other,
		))
	}
	return result
}

// Leq returns true iff b <= other component-wise.
func (b TokenBundle) Leq(other TokenBundle) bool {
	return b.coin <= other.coin && b.Assets.Leq(other.Assets)
}

func (b TokenBundle) String() string {
	return fmt.Sprintf("TokenBundle< coin = %d, assets = %s >", b.coin, b.Assets)
}

// SumBundles folds Add over a list of bundles, starting from the empty
// bundle.
func SumBundles(bundles []TokenBundle) TokenBundle {
	total := EmptyBundle()
	for _, b := range bundles {
		total = total.Add(b)
	}
	return total
}
