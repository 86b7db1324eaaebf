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

// Package wallet owns this node's single Cardano signing identity and the
// coin selection/migration operations performed against it.
package wallet

import (
	"fmt"

	"github.com/blinklabs-io/adawallet/internal/config"

	"github.com/blinklabs-io/bursa"
)

// Singleton wallet instance, derived once at startup from the configured
// mnemonic. nil until Load succeeds.
var globalWallet *bursa.Wallet

// Load derives the wallet's keys and addresses from the mnemonic in the
// current config and stores the result as the process-wide wallet.
func Load() error {
	cfg := config.GetConfig()
	if cfg.Wallet.Mnemonic == "" {
		return fmt.Errorf("wallet: no mnemonic configured")
	}
	w, err := bursa.NewWallet(cfg.Wallet.Mnemonic)
	if err != nil {
		return fmt.Errorf("wallet: failed to derive wallet: %w", err)
	}
	globalWallet = &w
	return nil
}

// GetWallet returns the process-wide wallet, or nil if Load has not yet
// succeeded.
func GetWallet() *bursa.Wallet {
	return globalWallet
}
