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
	"github.com/blinklabs-io/adawallet/internal/storage"

	"github.com/Salvionied/apollo"
	serAddress "github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Key"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// buildTxTtlSlots is the time-to-live window given to transactions this
// package builds.
const buildTxTtlSlots = 60

// loadWalletUTxOs decodes every UTxO at address into apollo's UTxO.UTxO
// representation, keyed the same "txHash#index" way the rest of this
// repository keys UTxO references.
func loadWalletUTxOs(address string) (map[coinselection.InputId]UTxO.UTxO, error) {
	utxosBytes, err := storage.GetStorage().GetUtxos(address)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to load UTxOs: %w", err)
	}
	out := make(map[coinselection.InputId]UTxO.UTxO, len(utxosBytes))
	for _, utxoBytes := range utxosBytes {
		var utxo UTxO.UTxO
		if _, err := cbor.Decode(utxoBytes, &utxo); err != nil {
			continue
		}
		id := fmt.Sprintf("%s#%d", hex.EncodeToString(utxo.Input.TransactionId), utxo.Input.Index)
		out[id] = utxo
	}
	return out, nil
}

// unitsFor converts a coinselection.TokenMap into the apollo.Unit list
// PayToAddress expects.
func unitsFor(assets coinselection.TokenMap) []apollo.Unit {
	var units []apollo.Unit
	for _, amt := range assets.Flat() {
		units = append(units, apollo.NewUnit(
			hex.EncodeToString(amt.Class.PolicyId),
			string(amt.Class.Name),
			int(amt.Amount),
		))
	}
	return units
}

// BuildTx lowers a Selection this package's coin selection engine produced
// into a signed transaction, ready for submission. It trusts the Selection's
// own Fee and does no further fee estimation or balancing: the Constraints
// implementation that built the Selection has already settled both.
func BuildTx(sel *coinselection.Selection) ([]byte, error) {
	bursa := GetWallet()
	if bursa == nil {
		return nil, fmt.Errorf("wallet: no wallet available")
	}

	walletUtxos, err := loadWalletUTxOs(bursa.PaymentAddress)
	if err != nil {
		return nil, err
	}

	selected := make([]UTxO.UTxO, 0, len(sel.Inputs))
	for _, input := range sel.Inputs {
		utxo, ok := walletUtxos[input.Id]
		if !ok {
			return nil, fmt.Errorf("wallet: selected input %s not found in storage", input.Id)
		}
		selected = append(selected, utxo)
	}

	changeAddress, err := serAddress.DecodeAddress(bursa.PaymentAddress)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to decode change address: %w", err)
	}

	currentSlot := unixTimeToSlot(time.Now().Unix())

	cc := apollo.NewEmptyBackend()
	apollob := apollo.New(&cc)
	apollob = apollob.
		AddInputAddress(changeAddress).
		AddLoadedUTxOs(selected...).
		SetTtl(int64(currentSlot + buildTxTtlSlots))

	// sel.Change is positional: Change[i] pairs with Outputs[i]. A migration
	// selection's destination output is a zero-value sentinel carrying no
	// payment of its own (Create builds selections with nothing but change),
	// so its paired Change entry IS the real payment and belongs at the
	// destination address, not back in the wallet. An ordinary Send output
	// always carries a positive coin value (Phase A rejects anything below
	// MinAdaFor), so its Change entry is genuine leftover and returns home.
	for i, out := range sel.Outputs {
		addr, err := serAddress.DecodeAddress(out.Address)
		if err != nil {
			return nil, fmt.Errorf("wallet: failed to decode output address %s: %w", out.Address, err)
		}
		apollob = apollob.PayToAddress(addr, int(out.Bundle.Coin()), unitsFor(out.Bundle.Assets)...)

		if out.Bundle.Coin() == 0 && i < len(sel.Change) {
			change := sel.Change[i]
			apollob = apollob.PayToAddress(addr, int(change.Coin()), unitsFor(change.Assets)...)
			continue
		}
		if i < len(sel.Change) {
			change := sel.Change[i]
			apollob = apollob.PayToAddress(changeAddress, int(change.Coin()), unitsFor(change.Assets)...)
		}
	}

	tx, err := apollob.
		DisableExecutionUnitsEstimation().
		CompleteExact(int(sel.Fee))
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to complete transaction: %w", err)
	}

	// Sign with the wallet's payment key, stripping the CBOR bytestring
	// prefix and the public-key suffix of the extended signing key.
	vKeyBytes, err := hex.DecodeString(bursa.PaymentVKey.CborHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to decode vkey: %w", err)
	}
	sKeyBytes, err := hex.DecodeString(bursa.PaymentExtendedSKey.CborHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to decode skey: %w", err)
	}
	vKeyBytes = vKeyBytes[2:]
	sKeyBytes = sKeyBytes[2:]
	sKeyBytes = append(sKeyBytes[:64], sKeyBytes[96:]...)

	tx, err = tx.SignWithSkey(
		Key.VerificationKey{Payload: vKeyBytes},
		Key.SigningKey{Payload: sKeyBytes},
	)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to sign transaction: %w", err)
	}

	txBytes, err := tx.GetTx().Bytes()
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to serialize transaction: %w", err)
	}
	return txBytes, nil
}

// unixTimeToSlot converts a unix timestamp to a Cardano mainnet absolute
// slot number, counting one slot per second from the Shelley-era epoch
// boundary.
func unixTimeToSlot(unixTime int64) uint64 {
	const shelleyEpochStart = 1596491091
	const shelleyStartSlot = 4492800
	if unixTime < shelleyEpochStart {
		return 0
	}
	return shelleyStartSlot + uint64(unixTime-shelleyEpochStart)
}
