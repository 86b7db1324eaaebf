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
	"github.com/stretchr/testify/require"
)

func TestCategorizeUTxOClassifiesByStandaloneAndProbedViability(t *testing.T) {
	cs := newFakeConstraints()
	entries := []UTxOEntry{
		{Id: "supporter", Bundle: FromCoin(5_000_000)},
		{Id: "freerider", Bundle: FromCoin(500_000)},
		{Id: "ignorable", Bundle: FromCoin(100)},
	}

	categorized := CategorizeUTxO(cs, "dest", entries)
	require.Len(t, categorized.Supporters, 1)
	assert.Equal(t, InputId("supporter"), categorized.Supporters[0].Id)
	require.Len(t, categorized.Freeriders, 1)
	assert.Equal(t, InputId("freerider"), categorized.Freeriders[0].Id)
	require.Len(t, categorized.Ignorables, 1)
	assert.Equal(t, InputId("ignorable"), categorized.Ignorables[0].Id)
}

func TestCategorizeUTxOEmptyEntries(t *testing.T) {
	cs := newFakeConstraints()
	categorized := CategorizeUTxO(cs, "dest", nil)
	assert.Empty(t, categorized.Supporters)
	assert.Empty(t, categorized.Freeriders)
	assert.Empty(t, categorized.Ignorables)
}

func TestCreatePlanMergesFreeriderIntoSupporterSelection(t *testing.T) {
	cs := newFakeConstraints()
	entries := []UTxOEntry{
		{Id: "supporter", Bundle: FromCoin(5_000_000)},
		{Id: "freerider", Bundle: FromCoin(500_000)},
		{Id: "ignorable", Bundle: FromCoin(100)},
	}

	plan := CreatePlan(cs, "dest", entries, 0)
	require.Len(t, plan.Selections, 1)
	sel := plan.Selections[0]
	assert.Len(t, sel.Inputs, 2)

	correctness := Check(cs, &sel)
	assert.True(t, correctness.Valid, correctness.Reason)

	require.Len(t, plan.Unselected, 1)
	assert.Equal(t, InputId("ignorable"), plan.Unselected[0].Id)
}

// TestCreatePlanSplitsAcrossSelectionsWhenTxSizeIsTight constrains maxTxSize
// to fit exactly one input per selection, forcing every extend attempt to
// return SelectionFullError and the freerider to be left behind alongside
// the ignorable entry rather than merged into either supporter's selection.
func TestCreatePlanSplitsAcrossSelectionsWhenTxSizeIsTight(t *testing.T) {
	cs := newFakeConstraints()
	// One input (size 181, or 215 with the reward withdrawal) fits; two
	// (size 222, or 256 with the withdrawal) do not.
	cs.maxTxSize = 220

	entries := []UTxOEntry{
		{Id: "s1", Bundle: FromCoin(5_000_000)},
		{Id: "s2", Bundle: FromCoin(5_000_000)},
		{Id: "freerider", Bundle: FromCoin(500_000)},
		{Id: "ignorable", Bundle: FromCoin(100)},
	}

	plan := CreatePlan(cs, "dest", entries, 200_000)
	require.Len(t, plan.Selections, 2)

	for i := range plan.Selections {
		sel := plan.Selections[i]
		assert.Len(t, sel.Inputs, 1)
		correctness := Check(cs, &sel)
		assert.True(t, correctness.Valid, correctness.Reason)
	}

	// Reward withdrawal applies only to the first selection produced.
	assert.Equal(t, Coin(200_000), plan.Selections[0].RewardWithdrawal)
	assert.Equal(t, Coin(0), plan.Selections[1].RewardWithdrawal)

	require.Len(t, plan.Unselected, 2)
	ids := map[InputId]bool{plan.Unselected[0].Id: true, plan.Unselected[1].Id: true}
	assert.True(t, ids["ignorable"])
	assert.True(t, ids["freerider"])
}

func TestCreatePlanNoSupportersYieldsEmptyPlan(t *testing.T) {
	cs := newFakeConstraints()
	entries := []UTxOEntry{
		{Id: "ignorable", Bundle: FromCoin(100)},
	}
	plan := CreatePlan(cs, "dest", entries, 0)
	assert.Empty(t, plan.Selections)
	require.Len(t, plan.Unselected, 1)
	assert.Equal(t, InputId("ignorable"), plan.Unselected[0].Id)
}

func TestCreatePlanPartitionsEveryEntry(t *testing.T) {
	cs := newFakeConstraints()
	entries := []UTxOEntry{
		{Id: "s1", Bundle: FromCoin(5_000_000)},
		{Id: "freerider", Bundle: FromCoin(500_000)},
		{Id: "ignorable", Bundle: FromCoin(100)},
	}
	plan := CreatePlan(cs, "dest", entries, 0)

	selected := make(map[InputId]bool)
	for _, sel := range plan.Selections {
		for _, in := range sel.Inputs {
			selected[in.Id] = true
		}
	}
	for _, u := range plan.Unselected {
		assert.False(t, selected[u.Id], "entry %s appears both selected and unselected", u.Id)
	}
	assert.Equal(t, len(entries), len(selected)+len(plan.Unselected))
}
