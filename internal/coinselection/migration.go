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

// CategorizedUTxO splits a wallet's entries into the three migration
// categories described in §4.6: entries that can fund a transaction on
// their own, entries that can't fund one alone but are worth including once
// a supporter has paid the way, and entries not worth moving at all.
type CategorizedUTxO struct {
	Supporters []UTxOEntry
	Freeriders []UTxOEntry
	Ignorables []UTxOEntry
}

// probeSupporterCoin is the coin value of the synthetic minimal entry used
// to test whether a non-supporting entry is a freerider: just enough ada,
// paired with nothing else, to pay for one input plus the base transaction
// cost on its own.
func probeSupporterCoin(cs Constraints) Coin {
	return cs.BaseCost().Add(cs.InputCost()).Add(cs.MinAdaFor(TokenMap{})) + 1
}

// CategorizeUTxO classifies every entry in entries for migration planning.
// destination only matters insofar as its encoded length affects output
// cost/size; any fixed placeholder address of the same shape would classify
// entries identically.
func CategorizeUTxO(cs Constraints, destination string, entries []UTxOEntry) CategorizedUTxO {
	var result CategorizedUTxO
	probe := UTxOEntry{
		Id:     "\x00migration-probe\x00",
		Bundle: FromCoin(probeSupporterCoin(cs)),
	}
	for _, entry := range entries {
		if _, err := Create(cs, 0, destination, []UTxOEntry{entry}); err == nil {
			result.Supporters = append(result.Supporters, entry)
			continue
		}
		if _, err := Create(cs, 0, destination, []UTxOEntry{probe, entry}); err == nil {
			result.Freeriders = append(result.Freeriders, entry)
			continue
		}
		result.Ignorables = append(result.Ignorables, entry)
	}
	return result
}

// MigrationPlan is the output of CreatePlan: a sequence of self-funding
// selections, plus the entries left behind: ignorables (moving them would
// cost more than they're worth), freeriders and supporters that no
// selection had room for, and supporters that no longer clear Create.
type MigrationPlan struct {
	Selections []Selection
	Unselected []UTxOEntry
}

// CreatePlan partitions entries into a minimal sequence of migration
// selections paying destination, following §4.6's plan loop: seed each
// selection with one supporter, greedily extend it with freeriders and then
// remaining supporters until neither helps any more, minimize its fee
// (§4.5 Phase E), and repeat until no supporter remains. rewardWithdrawal,
// if non-zero, is applied only to the first selection the plan produces.
func CreatePlan(
	cs Constraints,
	destination string,
	entries []UTxOEntry,
	rewardWithdrawal Coin,
) *MigrationPlan {
	categorized := CategorizeUTxO(cs, destination, entries)
	plan := &MigrationPlan{Unselected: append([]UTxOEntry(nil), categorized.Ignorables...)}

	supporters := append([]UTxOEntry(nil), categorized.Supporters...)
	freeriders := append([]UTxOEntry(nil), categorized.Freeriders...)
	firstSelection := true

	for len(supporters) > 0 {
		seed := supporters[0]
		supporters = supporters[1:]

		withdrawal := Coin(0)
		if firstSelection {
			withdrawal = rewardWithdrawal
		}
		sel, err := Create(cs, withdrawal, destination, []UTxOEntry{seed})
		if err != nil {
			// The entry passed categorization as a supporter but no longer
			// clears Create, e.g. because constraints changed between
			// categorization and planning. Leave it behind rather than
			// abort the whole plan.
			plan.Unselected = append(plan.Unselected, seed)
			continue
		}
		firstSelection = false

		for {
			extended, ok, full := tryExtendFrom(cs, sel, &freeriders)
			if ok {
				sel = extended
				continue
			}
			if full {
				break
			}
			extended, ok, full = tryExtendFrom(cs, sel, &supporters)
			if ok {
				sel = extended
				continue
			}
			break
		}

		MinimizeFee(cs, sel)
		plan.Selections = append(plan.Selections, *sel)
	}

	plan.Unselected = append(plan.Unselected, freeriders...)
	plan.Unselected = append(plan.Unselected, supporters...)
	return plan
}

// tryExtendFrom attempts Selection.Extend against each entry remaining in
// *pool, in order, committing and removing the first one that succeeds. A
// SelectionFullError on any candidate means the transaction has no more
// room for anything, so the caller should stop growing this selection
// entirely rather than keep probing the rest of the pool.
func tryExtendFrom(cs Constraints, sel *Selection, pool *[]UTxOEntry) (extended *Selection, ok bool, full bool) {
	for i, candidate := range *pool {
		next, err := Extend(cs, sel, candidate)
		if err == nil {
			*pool = append(append([]UTxOEntry(nil), (*pool)[:i]...), (*pool)[i+1:]...)
			return next, true, false
		}
		if _, isFull := err.(*SelectionFullError); isFull {
			return sel, false, true
		}
	}
	return sel, false, false
}
