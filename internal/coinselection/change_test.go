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

func noMinAda(TokenMap) Coin { return 0 }

func TestMakeChangeSingleOutputAdaOnly(t *testing.T) {
	inputs := []TokenBundle{FromCoin(100)}
	outputs := []TokenBundle{FromCoin(40)}

	change, err := MakeChange(noMinAda, 5, 0, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 1)
	assert.Equal(t, Coin(55), change[0].Coin())
}

func TestMakeChangePreservesTotalValue(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	inputs := []TokenBundle{
		FromCoin(100).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 30})}),
		FromCoin(50),
	}
	outputs := []TokenBundle{FromCoin(60), FromCoin(20)}

	change, err := MakeChange(noMinAda, 10, 0, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 2)

	totalIn := SumBundles(inputs)
	totalOut := SumBundles(outputs)
	totalChange := SumBundles(change)

	assert.Equal(t, totalIn.Coin(), totalOut.Coin().Add(totalChange.Coin()).Add(10))
	assert.Equal(t, totalIn.Assets.Get(a), totalChange.Assets.Get(a))
}

func TestMakeChangeDistributesKnownAssetsProportionally(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	inputs := []TokenBundle{
		FromCoin(1000).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 100})}),
	}
	// Outputs each request some of asset a, so change for a is distributed
	// proportionally to each output's own request.
	outputs := []TokenBundle{
		FromCoin(100).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 10})}),
		FromCoin(100).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 30})}),
	}

	change, err := MakeChange(noMinAda, 0, 0, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 2)

	// Remaining 60 units of asset a split 1:3 between the two positions.
	assert.Equal(t, TokenQuantity(15), change[0].Assets.Get(a))
	assert.Equal(t, TokenQuantity(45), change[1].Assets.Get(a))
}

func TestMakeChangeUnknownAssetPadCoalesced(t *testing.T) {
	a := mustAsset(t, "aa", "61")
	inputs := []TokenBundle{
		FromCoin(500).Add(TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 7})}),
	}
	outputs := []TokenBundle{FromCoin(100), FromCoin(100)}

	change, err := MakeChange(noMinAda, 0, 0, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 2)

	total := change[0].Assets.Get(a) + change[1].Assets.Get(a)
	assert.Equal(t, TokenQuantity(7), total)
}

func TestMakeChangeRespectsMinAda(t *testing.T) {
	minAdaFor := func(assets TokenMap) Coin {
		if assets.IsEmpty() {
			return 2_000_000
		}
		return 3_000_000
	}
	inputs := []TokenBundle{FromCoin(10_000_000)}
	outputs := []TokenBundle{FromCoin(100)}

	change, err := MakeChange(minAdaFor, 0, 0, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 1)
	assert.GreaterOrEqual(t, uint64(change[0].Coin()), uint64(2_000_000))
}

func TestMakeChangeInsufficientForFeeReturnsError(t *testing.T) {
	inputs := []TokenBundle{FromCoin(100)}
	outputs := []TokenBundle{FromCoin(90)}

	_, err := MakeChange(noMinAda, 50, 0, inputs, outputs)
	require.Error(t, err)
	var changeErr *UnableToConstructChangeError
	require.ErrorAs(t, err, &changeErr)
	assert.Equal(t, Coin(40), changeErr.Missing)
}

func TestMakeChangeInsufficientForMinAdaReturnsError(t *testing.T) {
	minAdaFor := func(TokenMap) Coin { return 1_000_000 }
	inputs := []TokenBundle{FromCoin(1_000_100)}
	outputs := []TokenBundle{FromCoin(100), FromCoin(100)}

	_, err := MakeChange(minAdaFor, 0, 0, inputs, outputs)
	require.Error(t, err)
	var changeErr *UnableToConstructChangeError
	require.ErrorAs(t, err, &changeErr)
	assert.Greater(t, uint64(changeErr.Missing), uint64(0))
}

func TestMakeChangePanicsOnEmptyOutputs(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = MakeChange(noMinAda, 0, 0, []TokenBundle{FromCoin(10)}, nil)
	})
}

func TestMakeChangePanicsOnZeroOutputCoin(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = MakeChange(noMinAda, 0, 0, []TokenBundle{FromCoin(10)}, []TokenBundle{EmptyBundle()})
	})
}

func TestMakeChangePanicsWhenOutputsExceedInputs(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = MakeChange(noMinAda, 0, 0, []TokenBundle{FromCoin(10)}, []TokenBundle{FromCoin(100)})
	})
}

func TestMakeChangeExtraCoinSourceCounted(t *testing.T) {
	inputs := []TokenBundle{FromCoin(10)}
	outputs := []TokenBundle{FromCoin(5)}

	change, err := MakeChange(noMinAda, 0, 100, inputs, outputs)
	require.NoError(t, err)
	require.Len(t, change, 1)
	assert.Equal(t, Coin(105), change[0].Coin())
}
