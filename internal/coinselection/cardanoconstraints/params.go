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

// Package cardanoconstraints implements coinselection.Constraints for the
// Cardano ledger's Babbage/Conway-era fee and minimum-ada rules.
package cardanoconstraints

import (
	"github.com/blinklabs-io/adawallet/internal/coinselection"
)

// Params holds the protocol parameters a Cardano constraints implementation
// needs: the linear fee coefficients, the minimum-ada coefficient, and the
// ledger's hard size/quantity caps.
type Params struct {
	// CoinsPerUTxOByte is the per-byte coefficient in the CIP-55 minimum-ada
	// formula.
	CoinsPerUTxOByte uint64
	// TxFeePerByte is the linear fee model's per-byte coefficient.
	TxFeePerByte uint64
	// TxFeeFixed is the linear fee model's constant term.
	TxFeeFixed uint64
	// TxSizeMax is the maximum serialized transaction size, in bytes.
	TxSizeMax uint64
	// MaxValueSize is the maximum serialized size of a single output's
	// value (coin + multi-asset bundle), in bytes.
	MaxValueSize uint64
	// AssetQuantityMax is the largest quantity a single token entry may
	// carry; the ledger itself imposes no such cap, but wallets cap it to
	// keep output encoding predictable. MainnetParams sets it to the largest
	// signed 64-bit value, 2^63-1.
	AssetQuantityMax uint64
}

// MainnetParams returns the protocol parameters in effect on Cardano
// mainnet at the time of writing.
func MainnetParams() Params {
	return Params{
		CoinsPerUTxOByte: 4310,
		TxFeePerByte:     44,
		TxFeeFixed:       155381,
		TxSizeMax:        16384,
		MaxValueSize:     5000,
		AssetQuantityMax: 1<<63 - 1,
	}
}

// PreviewParams returns the protocol parameters in effect on the Preview
// testnet, identical to mainnet's at the time of writing but kept separate
// so the two can diverge without callers needing to notice.
func PreviewParams() Params {
	return MainnetParams()
}

const (
	// envelopeOverhead approximates the fixed per-transaction CBOR overhead
	// outside of the inputs/outputs themselves: fee, ttl, auxiliary data
	// hash, and the top-level map/array wrappers.
	envelopeOverhead = 20
	// inputBytes approximates one transaction input: a 32-byte hash plus an
	// index plus CBOR array overhead.
	inputBytes = 41
	// addressBytes is the assumed length of a standard Shelley base
	// address; see the CIP-55 structural estimator this is grounded on.
	addressBytes = 57
	// outputEnvelopeOverhead is CIP-55's constant term in
	// minUTxO = (160 + serializedOutputBytes) * coinsPerUTxOByte.
	outputEnvelopeOverhead = 160
	// outputFixedBytes approximates a TxOut's envelope plus its coin field.
	outputFixedBytes = 10 + 9
	// policyHashBytes is the byte length of one policy ID.
	policyHashBytes = 28
	// perAssetOverhead approximates one asset-name-to-quantity map entry's
	// CBOR overhead, excluding the name's own bytes.
	perAssetOverhead = 12 + 5
	// tokenBundleFixed approximates the multi-asset value wrapper present
	// whenever an output carries at least one native asset.
	tokenBundleFixed = 5
	// rewardWithdrawalBytes approximates one stake-credential-to-coin
	// withdrawal map entry.
	rewardWithdrawalBytes = 34
)

func (p Params) BaseCost() coinselection.Coin {
	return coinselection.Coin(p.TxFeeFixed) + coinselection.Coin(envelopeOverhead)*coinselection.Coin(p.TxFeePerByte)
}

func (p Params) BaseSize() int {
	return envelopeOverhead
}

func (p Params) InputCost() coinselection.Coin {
	return coinselection.Coin(inputBytes) * coinselection.Coin(p.TxFeePerByte)
}

func (p Params) InputSize() int {
	return inputBytes
}

func (p Params) OutputCost(b coinselection.TokenBundle) coinselection.Coin {
	return coinselection.Coin(p.OutputSize(b)) * coinselection.Coin(p.TxFeePerByte)
}

func (p Params) OutputSize(b coinselection.TokenBundle) int {
	return int(addressBytes + outputFixedBytes + tokenMapBytes(b.Assets))
}

func (p Params) OutputCoinCost(c coinselection.Coin) coinselection.Coin {
	return p.OutputCost(coinselection.FromCoin(c))
}

func (p Params) OutputCoinSize(c coinselection.Coin) int {
	return p.OutputSize(coinselection.FromCoin(c))
}

// MinAdaFor implements the CIP-55 minimum-ada formula, estimating the
// serialized output size structurally from assets rather than from an
// actual CBOR encoding.
func (p Params) MinAdaFor(assets coinselection.TokenMap) coinselection.Coin {
	serialized := uint64(addressBytes) + uint64(outputFixedBytes) + tokenMapBytes(assets)
	return coinselection.Coin((uint64(outputEnvelopeOverhead) + serialized) * p.CoinsPerUTxOByte)
}

func (p Params) MaxOutputSize() int {
	return int(p.MaxValueSize)
}

func (p Params) MaxTxSize() int {
	return int(p.TxSizeMax)
}

func (p Params) MaxAssetQuantity() coinselection.TokenQuantity {
	return p.AssetQuantityMax
}

func (p Params) RewardWithdrawalCost(c coinselection.Coin) coinselection.Coin {
	if c == 0 {
		return 0
	}
	return coinselection.Coin(rewardWithdrawalBytes) * coinselection.Coin(p.TxFeePerByte)
}

func (p Params) RewardWithdrawalSize(c coinselection.Coin) int {
	if c == 0 {
		return 0
	}
	return rewardWithdrawalBytes
}

// tokenMapBytes structurally estimates the CBOR byte size of a token map's
// contribution to an output's value, the model OutputSize and MinAdaFor
// share: fixed overhead per distinct policy, overhead plus
// name length per distinct asset.
func tokenMapBytes(assets coinselection.TokenMap) uint64 {
	if assets.IsEmpty() {
		return 0
	}
	policies := map[string]struct{}{}
	var numAssets, nameBytes uint64
	for _, amt := range assets.Flat() {
		policies[string(amt.Class.PolicyId)] = struct{}{}
		numAssets++
		nameBytes += uint64(len(amt.Class.Name))
	}
	return tokenBundleFixed +
		policyHashBytes*uint64(len(policies)) +
		perAssetOverhead*numAssets +
		nameBytes
}
