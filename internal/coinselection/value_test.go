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

	"github.com/blinklabs-io/adawallet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAsset(t *testing.T, policyHex, nameHex string) AssetId {
	t.Helper()
	a, err := common.NewAssetClass(policyHex, nameHex)
	require.NoError(t, err)
	return a
}

func TestCoinArithmetic(t *testing.T) {
	assert.Equal(t, Coin(7), Coin(3).Add(Coin(4)))

	got, ok := Coin(10).SubtractGe(Coin(4))
	assert.True(t, ok)
	assert.Equal(t, Coin(6), got)

	_, ok = Coin(3).SubtractGe(Coin(4))
	assert.False(t, ok)

	assert.Equal(t, Coin(5), Coin(10).Distance(Coin(5)))
	assert.Equal(t, Coin(5), Coin(5).Distance(Coin(10)))
}

func TestTokenMapNormalizesZeroEntries(t *testing.T) {
	asset := mustAsset(t, "aabbcc", "746f6b656e")
	m := NewTokenMap(common.AssetAmount{Class: asset, Amount: 5})
	assert.Equal(t, 1, m.Len())

	zeroed, ok := m.Subtract(NewTokenMap(common.AssetAmount{Class: asset, Amount: 5}))
	require.True(t, ok)
	assert.True(t, zeroed.IsEmpty())
	assert.Equal(t, 0, zeroed.Len())
	assert.Equal(t, TokenQuantity(0), zeroed.Get(asset))
}

func TestTokenMapAddSubtractLeq(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	b := mustAsset(t, "bb", "62")

	m1 := NewTokenMap(
		common.AssetAmount{Class: a, Amount: 10},
		common.AssetAmount{Class: b, Amount: 3},
	)
	m2 := NewTokenMap(common.AssetAmount{Class: a, Amount: 4})

	sum := m1.Add(m2)
	assert.Equal(t, TokenQuantity(14), sum.Get(a))
	assert.Equal(t, TokenQuantity(3), sum.Get(b))

	assert.True(t, m2.Leq(m1))
	assert.False(t, m1.Leq(m2))

	diff, ok := m1.Subtract(m2)
	require.True(t, ok)
	assert.Equal(t, TokenQuantity(6), diff.Get(a))
	assert.Equal(t, TokenQuantity(3), diff.Get(b))

	_, ok = m2.Subtract(m1)
	assert.False(t, ok)
}

func TestTokenMapGetMissingIsZero(t *testing.T) {
	var m TokenMap
	a := mustAsset(t, "aa", "61")
	assert.Equal(t, TokenQuantity(0), m.Get(a))
	assert.True(t, m.IsEmpty())
}

func TestTokenMapAssetsDeterministicOrder(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	b := mustAsset(t, "bb", "62")
	m := NewTokenMap(
		common.AssetAmount{Class: b, Amount: 1},
		common.AssetAmount{Class: a, Amount: 1},
	)
	first := m.Assets()
	for i := 0; i < 10; i++ {
		again := m.Assets()
		assert.Equal(t, first, again)
	}
}

func TestTokenBundleArithmetic(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	b1 := TokenBundle{}.SetCoin(10).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 5})})
	b2 := FromCoin(4)

	sum := b1.Add(b2)
	assert.Equal(t, Coin(14), sum.Coin())
	assert.Equal(t, TokenQuantity(5), sum.Assets.Get(a))

	diff, ok := sum.Subtract(b2)
	require.True(t, ok)
	assert.Equal(t, Coin(10), diff.Coin())
	assert.Equal(t, TokenQuantity(5), diff.Assets.Get(a))

	_, ok = b2.Subtract(b1)
	assert.False(t, ok)

	assert.True(t, b2.Leq(sum))
	assert.False(t, sum.Leq(b2))
}

func TestTokenBundleSubtractUncheckedPanicsOnViolation(t *testing.T) {
	assert.Panics(t, func() {
		FromCoin(1).SubtractUnchecked(FromCoin(2))
	})
}

func TestTokenBundleIsAdaOnly(t *testing.T) {
	assert.True(t, FromCoin(5).IsAdaOnly())
	a := mustAsset(t, "aa", "61")
	withAsset := TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 1})}
	assert.False(t, withAsset.IsAdaOnly())
}

func TestSumBundles(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	bundles := []TokenBundle{
		FromCoin(1),
		FromCoin(2).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 3})}),
		EmptyBundle(),
	}
	total := SumBundles(bundles)
	assert.Equal(t, Coin(3), total.Coin())
	assert.Equal(t, TokenQuantity(3), total.Assets.Get(a))
}
