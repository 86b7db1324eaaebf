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

package wallet

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/blinklabs-io/adawallet/internal/coinselection"
	"github.com/blinklabs-io/adawallet/internal/coinselection/cardanoconstraints"
	"github.com/blinklabs-io/adawallet/internal/common"
	"github.com/blinklabs-io/adawallet/internal/config"
	"github.com/blinklabs-io/adawallet/internal/logging"
	"github.com/blinklabs-io/adawallet/internal/storage"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Service exposes the wallet's coin selection and migration operations
// against its own UTxO set. It holds no mutable state of its own; the UTxO
// set and keys it operates on live in storage and in the package-level
// wallet singleton respectively.
type Service struct {
	constraints coinselection.Constraints
}

// NewService returns a Service using constraints for its fee and
// minimum-ada calculations.
func NewService(constraints coinselection.Constraints) *Service {
	return &Service{constraints: constraints}
}

// DefaultService returns a Service configured from the current config's
// Wallet.Protocol setting ("mainnet" or "preview"; defaults to mainnet).
func DefaultService() *Service {
	params := cardanoconstraints.MainnetParams()
	if config.GetConfig().Wallet.Protocol == "preview" {
		params = cardanoconstraints.PreviewParams()
	}
	return NewService(params)
}

// entryFromUtxo converts a decoded storage.Utxo into a coinselection
// UTxOEntry, enumerating every native asset the output carries.
func entryFromUtxo(u storage.Utxo) (coinselection.UTxOEntry, error) {
	id := fmt.Sprintf("%s#%d", hex.EncodeToString(u.Ref.Id().Bytes()), u.Ref.Index())

	amounts := []common.AssetAmount{}
	assets := u.Output.Assets()
	if assets != nil {
		for _, policy := range assets.Policies() {
			policyId := append([]byte(nil), policy[:]...)
			for _, name := range assets.Assets(policy) {
				qty := assets.Asset(policy, name)
				assetId := common.AssetClass{
					PolicyId: policyId,
					Name:     append([]byte(nil), name...),
				}
				amounts = append(amounts, common.AssetAmount{
					Class:  assetId,
					Amount: qty.Uint64(),
				})
			}
		}
	}

	bundle := coinselection.TokenBundle{
		Assets: coinselection.NewTokenMap(amounts...),
	}.SetCoin(coinselection.Coin(u.Output.Amount().Uint64()))

	return coinselection.UTxOEntry{Id: id, Bundle: bundle}, nil
}

// buildIndex decodes every UTxO the wallet's payment address owns into a
// coinselection.UTxOIndex.
func (s *Service) buildIndex(address string) (coinselection.UTxOIndex, error) {
	utxosBytes, err := storage.GetStorage().GetUtxos(address)
	if err != nil {
		return coinselection.UTxOIndex{}, fmt.Errorf("wallet: failed to load UTxOs: %w", err)
	}

	logger := logging.GetLogger()
	entries := make([]coinselection.UTxOEntry, 0, len(utxosBytes))
	for _, utxoBytes := range utxosBytes {
		var utxo storage.Utxo
		if _, err := cbor.Decode(utxoBytes, &utxo); err != nil {
			logger.Warn("wallet: failed to decode stored UTxO, skipping", "error", err)
			continue
		}
		entry, err := entryFromUtxo(utxo)
		if err != nil {
			logger.Warn("wallet: failed to convert stored UTxO, skipping", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return coinselection.NewUTxOIndex(entries), nil
}

// Balance returns the total value held across every UTxO at the wallet's
// payment address.
func (s *Service) Balance() (coinselection.TokenBundle, error) {
	bursa := GetWallet()
	if bursa == nil {
		return coinselection.TokenBundle{}, fmt.Errorf("wallet: no wallet available")
	}
	idx, err := s.buildIndex(bursa.PaymentAddress)
	if err != nil {
		return coinselection.TokenBundle{}, err
	}
	return coinselection.SumBundles(bundlesOf(idx.Entries())), nil
}

func bundlesOf(entries []coinselection.UTxOEntry) []coinselection.TokenBundle {
	bundles := make([]coinselection.TokenBundle, len(entries))
	for i, e := range entries {
		bundles[i] = e.Bundle
	}
	return bundles
}

// rngSeed derives two ChaCha8 seed words from the current time, giving each
// selection call a fresh, non-deterministic source of randomness the way
// production code (as opposed to tests, which use FixedRandSource) always
// should.
func rngSeed() (uint64, uint64) {
	now := uint64(time.Now().UnixNano())
	return now, now ^ 0x9e3779b97f4a7c15
}

// Send selects inputs to cover outputs and returns the resulting selection,
// ready to be lowered into a signed transaction by BuildTx.
func (s *Service) Send(outputs []coinselection.TxOut) (*coinselection.SelectionResult, error) {
	bursa := GetWallet()
	if bursa == nil {
		return nil, fmt.Errorf("wallet: no wallet available")
	}
	idx, err := s.buildIndex(bursa.PaymentAddress)
	if err != nil {
		return nil, err
	}

	seed1, seed2 := rngSeed()
	criteria := coinselection.SelectionCriteria{
		OutputsToCover: outputs,
		UTxOAvailable:  idx,
		SelectionLimit: coinselection.NoLimit(),
	}
	return coinselection.PerformSelection(s.constraints, criteria, coinselection.NewRandSource(seed1, seed2))
}

// Migrate partitions the wallet's entire UTxO set into a minimal sequence of
// self-funding transactions paying destination.
func (s *Service) Migrate(destination string, rewardWithdrawal coinselection.Coin) (*coinselection.MigrationPlan, error) {
	bursa := GetWallet()
	if bursa == nil {
		return nil, fmt.Errorf("wallet: no wallet available")
	}
	idx, err := s.buildIndex(bursa.PaymentAddress)
	if err != nil {
		return nil, err
	}
	return coinselection.CreatePlan(s.constraints, destination, idx.Entries(), rewardWithdrawal), nil
}
