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

package cardanoconstraints

import (
	"testing"

	"github.com/blinklabs-io/adawallet/internal/coinselection"
	"github.com/blinklabs-io/adawallet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainnetParamsImplementsConstraints(t *testing.T) {
	var _ coinselection.Constraints = MainnetParams()
}

func TestMinAdaForAdaOnly(t *testing.T) {
	p := MainnetParams()
	min := p.MinAdaFor(coinselection.TokenMap{})
	require.Greater(t, uint64(min), uint64(0))
	assert.Less(t, uint64(min), uint64(2_000_000))
}

func TestMinAdaForIncreasesWithAssets(t *testing.T) {
	p := MainnetParams()
	adaOnly := p.MinAdaFor(coinselection.TokenMap{})

	asset, err := common.NewAssetClass(
		"00112233445566778899aabbccddeeff00112233445566778899aabb",
		"74657374",
	)
	require.NoError(t, err)
	withAsset := coinselection.NewTokenMap(common.AssetAmount{Class: asset, Amount: 1})

	assert.Greater(t, uint64(p.MinAdaFor(withAsset)), uint64(adaOnly))
}

func TestOutputCostIncreasesWithAssetCount(t *testing.T) {
	p := MainnetParams()
	asset1, err := common.NewAssetClass(
		"00112233445566778899aabbccddeeff00112233445566778899aabb",
		"74657374",
	)
	require.NoError(t, err)
	asset2, err := common.NewAssetClass(
		"11223344556677889900aabbccddeeff00112233445566778899aabb",
		"74657374",
	)
	require.NoError(t, err)

	oneAsset := coinselection.TokenBundle{}.
		SetCoin(2_000_000).
		Add(coinselection.TokenBundle{Assets: coinselection.NewTokenMap(
			common.AssetAmount{Class: asset1, Amount: 5},
		)})
	twoAssets := oneAsset.Add(coinselection.TokenBundle{Assets: coinselection.NewTokenMap(
		common.AssetAmount{Class: asset2, Amount: 5},
	)})

	assert.Greater(t, uint64(p.OutputCost(twoAssets)), uint64(p.OutputCost(oneAsset)))
}

func TestRewardWithdrawalCostZeroForZero(t *testing.T) {
	p := MainnetParams()
	assert.Equal(t, coinselection.Coin(0), p.RewardWithdrawalCost(0))
	assert.Equal(t, 0, p.RewardWithdrawalSize(0))
	assert.Greater(t, uint64(p.RewardWithdrawalCost(1_000_000)), uint64(0))
}

func TestPreviewParamsMatchesMainnet(t *testing.T) {
	assert.Equal(t, MainnetParams(), PreviewParams())
}
