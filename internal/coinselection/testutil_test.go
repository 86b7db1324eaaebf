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

// fakeConstraints is a simple, deterministic Constraints implementation for
// exercising the selection engine and migration planner without pulling in
// the real Cardano cost model.
type fakeConstraints struct {
	baseCost     Coin
	inputCost    Coin
	perByteCoin  Coin
	minAdaAsset  Coin
	minAdaAdaOnly Coin
	maxTxSize    int
	maxOutput    int
	maxAssetQty  TokenQuantity
}

func newFakeConstraints() fakeConstraints {
	return fakeConstraints{
		baseCost:      155381,
		inputCost:     1804,
		perByteCoin:   44,
		minAdaAdaOnly: 1_000_000,
		minAdaAsset:   1_500_000,
		maxTxSize:     16384,
		maxOutput:     5000,
		maxAssetQty:   1<<63 - 1,
	}
}

func (f fakeConstraints) BaseCost() Coin { return f.baseCost }
func (f fakeConstraints) BaseSize() int  { return 20 }

func (f fakeConstraints) InputCost() Coin { return f.inputCost }
func (f fakeConstraints) InputSize() int  { return 41 }

func (f fakeConstraints) OutputCost(b TokenBundle) Coin {
	return Coin(f.OutputSize(b)) * f.perByteCoin
}

func (f fakeConstraints) OutputSize(b TokenBundle) int {
	size := 60
	for range b.Assets.Flat() {
		size += 20
	}
	return size
}

func (f fakeConstraints) OutputCoinCost(c Coin) Coin {
	return f.OutputCost(FromCoin(c))
}

func (f fakeConstraints) OutputCoinSize(c Coin) int {
	return f.OutputSize(FromCoin(c))
}

func (f fakeConstraints) MinAdaFor(assets TokenMap) Coin {
	if assets.IsEmpty() {
		return f.minAdaAdaOnly
	}
	return f.minAdaAsset
}

func (f fakeConstraints) MaxOutputSize() int               { return f.maxOutput }
func (f fakeConstraints) MaxTxSize() int                   { return f.maxTxSize }
func (f fakeConstraints) MaxAssetQuantity() TokenQuantity   { return f.maxAssetQty }

func (f fakeConstraints) RewardWithdrawalCost(c Coin) Coin {
	if c == 0 {
		return 0
	}
	return Coin(34) * f.perByteCoin
}

func (f fakeConstraints) RewardWithdrawalSize(c Coin) int {
	if c == 0 {
		return 0
	}
	return 34
}

var _ Constraints = fakeConstraints{}
