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

// Constraints is supplied by the caller and drives every size/cost decision
// made by the selection engine and migration planner. A single
// implementation of this interface targets a single protocol's fee and
// minimum-ada rules; the algorithms in this package never hard-code a
// specific chain's numbers.
type Constraints interface {
	// BaseCost is the fixed per-transaction fee component.
	BaseCost() Coin
	// BaseSize is the fixed per-transaction encoded-size component.
	BaseSize() int

	// InputCost is the marginal fee cost of adding one input.
	InputCost() Coin
	// InputSize is the marginal encoded size of adding one input.
	InputSize() int

	// OutputCost is the fee cost of an output carrying bundle b.
	OutputCost(b TokenBundle) Coin
	// OutputSize is the encoded size of an output carrying bundle b.
	OutputSize(b TokenBundle) int

	// OutputCoinCost is the fee cost of an ada-only output holding c.
	OutputCoinCost(c Coin) Coin
	// OutputCoinSize is the encoded size of an ada-only output holding c.
	OutputCoinSize(c Coin) int

	// MinAdaFor returns the minimum ada an output carrying the given assets
	// must hold.
	MinAdaFor(assets TokenMap) Coin

	// MaxOutputSize is the maximum encoded size of a single output.
	MaxOutputSize() int
	// MaxTxSize is the maximum encoded size of the whole transaction.
	MaxTxSize() int
	// MaxAssetQuantity is the maximum quantity a single token entry may
	// carry in one output.
	MaxAssetQuantity() TokenQuantity

	// RewardWithdrawalCost is the fee cost of withdrawing c in staking
	// rewards; zero for c == 0.
	RewardWithdrawalCost(c Coin) Coin
	// RewardWithdrawalSize is the encoded size of withdrawing c in staking
	// rewards; zero for c == 0.
	RewardWithdrawalSize(c Coin) int
}

// OutputHasValidSize reports whether b's encoded output size fits within
// cs.MaxOutputSize().
func OutputHasValidSize(cs Constraints, b TokenBundle) bool {
	return cs.OutputSize(b) <= cs.MaxOutputSize()
}

// OutputHasValidTokenQuantities reports whether every token quantity in b is
// within cs.MaxAssetQuantity().
func OutputHasValidTokenQuantities(cs Constraints, b TokenBundle) bool {
	max := cs.MaxAssetQuantity()
	for _, amt := range b.Assets.Flat() {
		if amt.Amount > max {
			return false
		}
	}
	return true
}
