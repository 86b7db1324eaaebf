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

	"github.com/blinklabs-io/adawallet/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestOutputHasValidSize(t *testing.T) {
	cs := newFakeConstraints()
	cs.maxOutput = 60
	assert.True(t, OutputHasValidSize(cs, FromCoin(10)))

	a := mustAsset(t, "aa", "61")
	withAsset := TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 1})}
	assert.False(t, OutputHasValidSize(cs, withAsset))
}

func TestOutputHasValidTokenQuantities(t *testing.T) {
	cs := newFakeConstraints()
	cs.maxAssetQty = 100

	a := mustAsset(t, "aa", "61")
	ok := TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 50})}
	tooMuch := TokenBundle{Assets: NewTokenMap(common.AssetAmount{Class: a, Amount: 200})}

	assert.True(t, OutputHasValidTokenQuantities(cs, ok))
	assert.False(t, OutputHasValidTokenQuantities(cs, tooMuch))
}
