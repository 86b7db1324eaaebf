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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessagesNonEmpty(t *testing.T) {
	errs := []error{
		&BalanceInsufficientError{Available: FromCoin(1), Required: FromCoin(2)},
		&SelectionInsufficientError{Required: FromCoin(2)},
		&InsufficientMinCoinValuesError{Violations: []MinCoinValueViolation{
			{Output: TxOut{Address: "addr1"}, ExpectedMin: 1_000_000},
		}},
		&UnableToConstructChangeError{Missing: 500},
		&SelectionFullError{RequiredSize: 100, MaximumSize: 50},
	}
	for _, err := range errs {
		assert.NotEmpty(t, err.Error())
	}
}

func TestUnableToConstructChangeErrorReportsMissing(t *testing.T) {
	err := &UnableToConstructChangeError{Missing: 1234}
	assert.Contains(t, err.Error(), "1234")
}

func TestSelectionFullErrorReportsSizes(t *testing.T) {
	err := &SelectionFullError{RequiredSize: 100, MaximumSize: 50}
	assert.Contains(t, err.Error(), "100")
	assert.Contains(t, err.Error(), "50")
}
