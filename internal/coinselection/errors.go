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

// BalanceInsufficientError is returned when the available UTxO balance is
// not >= the required balance, even before any size/cost accounting.
type BalanceInsufficientError struct {
	Available TokenBundle
	Required  TokenBundle
}

func (e *BalanceInsufficientError) Error() string {
	return fmt.Sprintf(
		"coinselection: balance insufficient: available %s, required %s",
		e.Available, e.Required,
	)
}

// SelectionInsufficientError is returned when the configured input limit
// prevents the engine from reaching the required balance.
type SelectionInsufficientError struct {
	InputsSelected []UTxOEntry
	Required       TokenBundle
}

func (e *SelectionInsufficientError) Error() string {
	return fmt.Sprintf(
		"coinselection: selection insufficient: %d inputs selected, required %s",
		len(e.InputsSelected), e.Required,
	)
}

// MinCoinValueViolation names a single output whose coin amount falls below
// the constraints' minimum for its asset set.
type MinCoinValueViolation struct {
	Output      TxOut
	ExpectedMin Coin
}

// InsufficientMinCoinValuesError is returned when one or more of the
// caller's target outputs specifies less ada than MinAdaFor requires.
type InsufficientMinCoinValuesError struct {
	Violations []MinCoinValueViolation
}

func (e *InsufficientMinCoinValuesError) Error() string {
	return fmt.Sprintf(
		"coinselection: %d output(s) below minimum coin value",
		len(e.Violations),
	)
}

// UnableToConstructChangeError is returned when change construction needs
// more ada than is available, even after the engine has exhausted eligible
// ada-only inputs. Missing is a lower bound on the additional coin that
// would have let the call succeed.
type UnableToConstructChangeError struct {
	Missing Coin
}

func (e *UnableToConstructChangeError) Error() string {
	return fmt.Sprintf(
		"coinselection: unable to construct change: missing %d lovelace",
		e.Missing,
	)
}

// SelectionFullError is returned by Selection.Extend when adding the next
// input would overflow the transaction size limit.
type SelectionFullError struct {
	RequiredSize int
	MaximumSize  int
}

func (e *SelectionFullError) Error() string {
	return fmt.Sprintf(
		"coinselection: selection full: required size %d exceeds maximum %d",
		e.RequiredSize, e.MaximumSize,
	)
}
