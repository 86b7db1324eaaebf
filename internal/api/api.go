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

// Package api exposes the wallet service's balance, send, and migration
// operations over HTTP.
package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/blinklabs-io/adawallet/internal/coinselection"
	"github.com/blinklabs-io/adawallet/internal/common"
	"github.com/blinklabs-io/adawallet/internal/logging"
	"github.com/blinklabs-io/adawallet/internal/wallet"
)

// WalletAPI provides HTTP endpoints over a wallet.Service.
type WalletAPI struct {
	service *wallet.Service
}

// NewWalletAPI returns a WalletAPI serving service.
func NewWalletAPI(service *wallet.Service) *WalletAPI {
	return &WalletAPI{service: service}
}

// RegisterHandlers registers HTTP handlers on the given ServeMux.
func (a *WalletAPI) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/balance", a.HandleBalance)
	mux.HandleFunc("/api/v1/send", a.HandleSend)
	mux.HandleFunc("/api/v1/migrate", a.HandleMigrate)
}

// StartServer starts the HTTP server listening on addr.
func (a *WalletAPI) StartServer(addr string) error {
	logger := logging.GetLogger()
	mux := http.NewServeMux()
	a.RegisterHandlers(mux)
	logger.Info("starting wallet API server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

// assetAmountDTO is the wire representation of one native asset quantity.
type assetAmountDTO struct {
	PolicyId string `json:"policyId"`
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
}

// bundleDTO is the wire representation of a TokenBundle.
type bundleDTO struct {
	Lovelace uint64           `json:"lovelace"`
	Assets   []assetAmountDTO `json:"assets,omitempty"`
}

func bundleToDTO(b coinselection.TokenBundle) bundleDTO {
	dto := bundleDTO{Lovelace: uint64(b.Coin())}
	for _, amt := range b.Assets.Flat() {
		dto.Assets = append(dto.Assets, assetAmountDTO{
			PolicyId: hex.EncodeToString(amt.Class.PolicyId),
			Name:     hex.EncodeToString(amt.Class.Name),
			Quantity: amt.Amount,
		})
	}
	return dto
}

func bundleFromDTO(dto bundleDTO) (coinselection.TokenBundle, error) {
	amounts := make([]common.AssetAmount, 0, len(dto.Assets))
	for _, a := range dto.Assets {
		class, err := common.NewAssetClass(a.PolicyId, a.Name)
		if err != nil {
			return coinselection.TokenBundle{}, err
		}
		amounts = append(amounts, common.AssetAmount{Class: class, Amount: a.Quantity})
	}
	bundle := coinselection.TokenBundle{Assets: coinselection.NewTokenMap(amounts...)}
	return bundle.SetCoin(coinselection.Coin(dto.Lovelace)), nil
}

// HandleBalance returns the wallet's total value.
func (a *WalletAPI) HandleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	balance, err := a.service.Balance()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundleToDTO(balance))
}

// sendRequest is the request body for HandleSend.
type sendRequest struct {
	Outputs []struct {
		Address string    `json:"address"`
		Value   bundleDTO `json:"value"`
	} `json:"outputs"`
}

// sendResponse is the response body for HandleSend.
type sendResponse struct {
	TxBytes string `json:"txBytes"`
}

// HandleSend selects inputs to cover the requested outputs, builds and
// signs the resulting transaction, and returns it hex-encoded.
func (a *WalletAPI) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Outputs) == 0 {
		http.Error(w, "outputs must be non-empty", http.StatusBadRequest)
		return
	}

	outputs := make([]coinselection.TxOut, 0, len(req.Outputs))
	for _, o := range req.Outputs {
		bundle, err := bundleFromDTO(o.Value)
		if err != nil {
			http.Error(w, "invalid output value: "+err.Error(), http.StatusBadRequest)
			return
		}
		outputs = append(outputs, coinselection.TxOut{Address: o.Address, Bundle: bundle})
	}

	result, err := a.service.Send(outputs)
	if err != nil {
		writeError(w, err)
		return
	}

	txBytes, err := wallet.BuildTx(&result.Selection)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{TxBytes: hex.EncodeToString(txBytes)})
}

// migrateRequest is the request body for HandleMigrate.
type migrateRequest struct {
	Destination      string `json:"destination"`
	RewardWithdrawal uint64 `json:"rewardWithdrawal"`
}

// migrateResponse is the response body for HandleMigrate.
type migrateResponse struct {
	TxBytes    []string `json:"txBytes"`
	Unselected int      `json:"unselected"`
}

// HandleMigrate partitions the wallet's UTxO set into a minimal sequence of
// self-funding transactions paying destination, builds and signs each one,
// and returns them hex-encoded in plan order.
func (a *WalletAPI) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Destination == "" {
		http.Error(w, "destination is required", http.StatusBadRequest)
		return
	}

	plan, err := a.service.Migrate(req.Destination, coinselection.Coin(req.RewardWithdrawal))
	if err != nil {
		writeError(w, err)
		return
	}

	txs := make([]string, 0, len(plan.Selections))
	for i := range plan.Selections {
		txBytes, err := wallet.BuildTx(&plan.Selections[i])
		if err != nil {
			writeError(w, err)
			return
		}
		txs = append(txs, hex.EncodeToString(txBytes))
	}

	writeJSON(w, http.StatusOK, migrateResponse{TxBytes: txs, Unselected: len(plan.Unselected)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a coinselection domain error to 422 Unprocessable Entity
// (the request was well-formed but the wallet's UTxO set cannot satisfy it)
// and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *coinselection.BalanceInsufficientError,
		*coinselection.SelectionInsufficientError,
		*coinselection.InsufficientMinCoinValuesError,
		*coinselection.UnableToConstructChangeError,
		*coinselection.SelectionFullError:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
