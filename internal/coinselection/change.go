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

import "fmt"

// MakeChange computes the change bundles for a transaction: it distributes
// the excess value left over after paying the target outputs and the
// required fee across len(outputs) change positions, preserving asset
// identities and respecting each position's minimum-ada requirement.
//
// coinWeights, if given, overrides the per-position weight used to split the
// settled coin remainder (ordinarily each output's own coin value). It must
// have one entry per output when supplied. This exists for callers building
// a selection with no explicit payment of its own, only change: such a
// caller cannot give its single output position a positive coin value (that
// value IS the unsettled remainder), but still needs to tell PartitionNatural
// which positions are eligible to receive it. The override only ever affects
// how the remainder is split; it plays no part in computing totalOut/excess
// below, so it cannot cause value to be double-counted or dropped.
//
// Preconditions, enforced by the caller: sum(outputs) <= sum(inputs) +
// extraCoinSource, and sum(coinWeights) > 0 (equivalently, when coinWeights
// is omitted, sum(outputs).Coin() > 0). Violating either is a programming
// error and panics rather than returning an error, matching the
// specification's treatment of make_change's preconditions.
//
// On success, len(change) == len(outputs); every change bundle satisfies
// coin >= minAdaFor(assets); sum(change) == excess - (requiredCost, ∅); and
// every asset identity appearing in change also appears in inputs.
func MakeChange(
	minAdaFor func(TokenMap) Coin,
	requiredCost Coin,
	extraCoinSource Coin,
	inputs []TokenBundle,
	outputs []TokenBundle,
	coinWeights ...uint64,
) ([]TokenBundle, error) {
	if len(outputs) == 0 {
		panic("coinselection: MakeChange precondition violated: outputs must be non-empty")
	}

	if len(coinWeights) == 0 {
		coinWeights = make([]uint64, len(outputs))
		for i, o := range outputs {
			coinWeights[i] = uint64(o.Coin())
		}
	}
	if len(coinWeights) != len(outputs) {
		panic("coinselection: MakeChange precondition violated: coinWeights must have one entry per output")
	}
	var weightSum uint64
	for _, w := range coinWeights {
		weightSum += w
	}
	if weightSum == 0 {
		panic("coinselection: MakeChange precondition violated: sum(outputs).Coin() must be > 0")
	}

	totalIn := SumBundles(inputs).Add(FromCoin(extraCoinSource))
	totalOut := SumBundles(outputs)
	excess, ok := totalIn.Subtract(totalOut)
	if !ok {
		panic(fmt.Sprintf(
			"coinselection: MakeChange precondition violated: sum(outputs) %s exceeds sum(inputs)+extra %s",
			totalOut, totalIn,
		))
	}

	assetMaps := distributeAssets(excess.Assets, inputs, outputs)

	remaining, ok := excess.Coin().SubtractGe(requiredCost)
	if !ok {
		return nil, &UnableToConstructChangeError{Missing: requiredCost - excess.Coin()}
	}

	mins := make([]Coin, len(outputs))
	for i, m := range assetMaps {
		mins[i] = minAdaFor(m)
	}

	for i, mMin := range mins {
		if remaining < mMin {
			var restMin Coin
			for _, m := range mins[i+1:] {
				restMin = restMin.Add(m)
			}
			missing := (mMin - remaining) + restMin
			return nil, &UnableToConstructChangeError{Missing: missing}
		}
		remaining -= mMin
	}

	coinShares := PartitionNatural(uint64(remaining), coinWeights)

	change := make([]TokenBundle, len(outputs))
	for i := range outputs {
		change[i] = TokenBundle{
			coin:   mins[i] + Coin(coinShares[i]),
			Assets: assetMaps[i],
		}
	}
	return change, nil
}

// distributeAssets computes the per-position asset TokenMap for each change
// output: known assets (present in the target outputs) are partitioned in
// proportion to each output's holding of that asset; unknown assets (held
// by inputs but requested by no output) are pad-coalesced across the same
// positions.
func distributeAssets(excessAssets TokenMap, inputs, outputs []TokenBundle) []TokenMap {
	n := len(outputs)
	maps := make([]TokenMap, n)

	outputAssetSet := map[string]AssetId{}
	for _, o := range outputs {
		for _, a := range o.Assets.Assets() {
			outputAssetSet[assetKey(a)] = a
		}
	}

	// Known assets: proportional to each output's existing holding.
	for _, a := range outputAssetSet {
		q := excessAssets.Get(a)
		weights := make([]uint64, n)
		for i, o := range outputs {
			weights[i] = o.Assets.Get(a)
		}
		shares := PartitionNatural(q, weights)
		for i, s := range shares {
			if s > 0 {
				maps[i] = maps[i].Insert(a, s)
			}
		}
	}

	// Unknown assets: held by inputs, requested by no output.
	inputAssetSet := map[string]AssetId{}
	for _, in := range inputs {
		for _, a := range in.Assets.Assets() {
			key := assetKey(a)
			if _, known := outputAssetSet[key]; known {
				continue
			}
			inputAssetSet[key] = a
		}
	}
	for _, a := range inputAssetSet {
		var quantities []uint64
		for _, in := range inputs {
			if q := in.Assets.Get(a); q > 0 {
				quantities = append(quantities, q)
			}
		}
		shares := padCoalesce(quantities, n)
		for i, s := range shares {
			if s > 0 {
				maps[i] = maps[i].Insert(a, s)
			}
		}
	}

	return maps
}
