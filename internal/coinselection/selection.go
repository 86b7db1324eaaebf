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

// SelectionLimit caps how many inputs a selection may use.
type SelectionLimit struct {
	unlimited bool
	max       int
}

// NoLimit allows an unbounded number of inputs.
func NoLimit() SelectionLimit {
	return SelectionLimit{unlimited: true}
}

// MaximumInputLimit caps the selection at n inputs.
func MaximumInputLimit(n int) SelectionLimit {
	return SelectionLimit{max: n}
}

func (l SelectionLimit) allows(count int) bool {
	return l.unlimited || count < l.max
}

// SelectionCriteria describes one call to PerformSelection.
type SelectionCriteria struct {
	// OutputsToCover is the non-empty list of payment targets to fund.
	OutputsToCover []TxOut
	// UTxOAvailable is the pool of spendable entries. PerformSelection owns
	// this value for the duration of the call.
	UTxOAvailable UTxOIndex
	// SelectionLimit caps the number of inputs used.
	SelectionLimit SelectionLimit
	// ExtraCoinSource is an optional additional coin source (typically a
	// staking reward withdrawal) that contributes to the balance without
	// being drawn from a UTxO entry.
	ExtraCoinSource Coin
}

// Selection is one funded, change-balanced transaction: the inputs consumed,
// the outputs paid, the change emitted, and the fee paid.
type Selection struct {
	Inputs           []UTxOEntry
	Outputs          []TxOut
	Change           []TokenBundle
	Fee              Coin
	RewardWithdrawal Coin
}

// SelectionResult is the full output of PerformSelection: the Selection plus
// whatever of the caller's UTxOIndex was not consumed.
type SelectionResult struct {
	Selection
	UTxORemaining UTxOIndex
}

// SelectionSkeleton is what a Constraints implementation needs to compute a
// cost: how many inputs, what the outputs look like, and the predicted
// per-position asset set of each change output (never its quantities, which
// are not yet settled when the skeleton is built).
type SelectionSkeleton struct {
	InputCount       int
	Outputs          []TxOut
	ChangeAssetSets  []TokenMap
	RewardWithdrawal Coin
}

// costFor computes the fee implied by a skeleton under cs. It is the single
// place that combines the constraints' per-component cost functions into a
// whole-transaction cost, standing in for the source's separately-supplied
// cost_for closure: every input to that closure is already a method on
// Constraints, so threading one argument through the engine is simpler than
// two.
func costFor(cs Constraints, skeleton SelectionSkeleton) Coin {
	cost := cs.BaseCost()
	for i := 0; i < skeleton.InputCount; i++ {
		cost = cost.Add(cs.InputCost())
	}
	for _, o := range skeleton.Outputs {
		cost = cost.Add(cs.OutputCost(o.Bundle))
	}
	for _, assets := range skeleton.ChangeAssetSets {
		cost = cost.Add(cs.OutputCost(TokenBundle{Assets: assets}))
	}
	cost = cost.Add(cs.RewardWithdrawalCost(skeleton.RewardWithdrawal))
	return cost
}

func sizeFor(cs Constraints, skeleton SelectionSkeleton) int {
	size := cs.BaseSize() + skeleton.InputCount*cs.InputSize()
	for _, o := range skeleton.Outputs {
		size += cs.OutputSize(o.Bundle)
	}
	for _, assets := range skeleton.ChangeAssetSets {
		size += cs.OutputSize(TokenBundle{Assets: assets})
	}
	size += cs.RewardWithdrawalSize(skeleton.RewardWithdrawal)
	return size
}

// selectionState is the engine's private, mutable working state for one
// PerformSelection call.
type selectionState struct {
	selected   []UTxOEntry
	balance    TokenBundle
	leftover   UTxOIndex
	limit      SelectionLimit
	rngCurrent RandSource
}

func (s *selectionState) accept(entry UTxOEntry) {
	s.selected = append(s.selected, entry)
	s.balance = s.balance.Add(entry.Bundle)
}

func (s *selectionState) atLimit() bool {
	return !s.limit.allows(len(s.selected))
}

// lens is one dimension (ada, or one non-ada asset) of the round-robin
// improvement heuristic described in §4.5 Phase B of the specification.
type lens struct {
	minimum      uint64
	quantityOf   func(TokenBundle) uint64
	candidateFor func(*selectionState) (UTxOEntry, bool)
}

func (l lens) current(s *selectionState) uint64 {
	return l.quantityOf(s.balance)
}

// step performs one round-robin step for this lens, returning whether the
// lens accepted an entry and whether it should remain in the rotation.
func (l lens) step(s *selectionState) (accepted bool, keep bool) {
	if s.atLimit() {
		return false, false
	}
	cur := l.current(s)
	if cur < l.minimum {
		entry, ok := l.candidateFor(s)
		if !ok {
			return false, false
		}
		s.accept(entry)
		return true, true
	}

	entry, ok := l.candidateFor(s)
	if !ok {
		return false, false
	}
	target := 2 * l.minimum
	newCur := cur + l.quantityOf(entry.Bundle)
	if distance(newCur, target) < distance(cur, target) {
		s.accept(entry)
		return true, true
	}
	// Rejecting this candidate: it was removed from leftover by
	// candidateFor, so it must be returned before dropping the lens.
	s.leftover.Insert(entry.Id, entry.Bundle)
	return false, false
}

func distance(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return b - a
}

func coinLens(requiredCoin Coin, extra Coin) lens {
	return lens{
		minimum: uint64(requiredCoin),
		quantityOf: func(b TokenBundle) uint64 {
			return uint64(b.Coin())
		},
		candidateFor: func(s *selectionState) (UTxOEntry, bool) {
			if entry, ok := s.leftover.SelectRandom(WithAdaOnly(), defaultRng(s)); ok {
				return entry, true
			}
			return s.leftover.SelectRandom(Any(), defaultRng(s))
		},
	}
}

func assetLens(a AssetId, requiredQty uint64) lens {
	return lens{
		minimum: requiredQty,
		quantityOf: func(b TokenBundle) uint64 {
			return b.Assets.Get(a)
		},
		candidateFor: func(s *selectionState) (UTxOEntry, bool) {
			return s.leftover.SelectRandom(WithAsset(a), defaultRng(s))
		},
	}
}

// defaultRng threads the caller's RandSource into lens closures without
// widening every lens's signature.
func defaultRng(s *selectionState) RandSource {
	return s.rngCurrent
}

// PerformSelection runs the random round-robin coin selection algorithm
// (§4.5) and returns a balanced, change-settled SelectionResult.
func PerformSelection(
	cs Constraints,
	criteria SelectionCriteria,
	rng RandSource,
) (*SelectionResult, error) {
	if len(criteria.OutputsToCover) == 0 {
		panic("coinselection: PerformSelection precondition violated: OutputsToCover must be non-empty")
	}

	required := sumTxOutBundles(criteria.OutputsToCover)

	// Phase A: balance checks.
	available := criteria.UTxOAvailable.Balance().Add(FromCoin(criteria.ExtraCoinSource))
	if !required.Leq(available) {
		return nil, &BalanceInsufficientError{Available: available, Required: required}
	}
	var violations []MinCoinValueViolation
	for _, o := range criteria.OutputsToCover {
		minAda := cs.MinAdaFor(o.Bundle.Assets)
		if o.Bundle.Coin() < minAda {
			violations = append(violations, MinCoinValueViolation{Output: o, ExpectedMin: minAda})
		}
	}
	if len(violations) > 0 {
		return nil, &InsufficientMinCoinValuesError{Violations: violations}
	}

	// Phase B: random round-robin run.
	state := &selectionState{
		leftover:   criteria.UTxOAvailable,
		limit:      criteria.SelectionLimit,
		rngCurrent: rng,
	}
	lenses := buildLenses(required, criteria.ExtraCoinSource)
	active := append([]lens(nil), lenses...)
	for len(active) > 0 {
		next := active[:0]
		for _, l := range active {
			if _, keep := l.step(state); keep {
				next = append(next, l)
			}
		}
		active = next
	}

	if len(state.selected) == 0 {
		if entry, ok := state.leftover.SelectRandom(WithAdaOnly(), rng); ok {
			state.accept(entry)
		} else if entry, ok := state.leftover.SelectRandom(Any(), rng); ok {
			state.accept(entry)
		}
	}

	combined := state.balance.Add(FromCoin(criteria.ExtraCoinSource))
	if !required.Leq(combined) {
		return nil, &SelectionInsufficientError{InputsSelected: state.selected, Required: required}
	}

	// Phase C: predict change shape.
	inputBundles := bundlesOf(state.selected)
	outputBundles := bundlesOf2(criteria.OutputsToCover)
	predictedChange, err := MakeChange(
		func(TokenMap) Coin { return 0 },
		0,
		criteria.ExtraCoinSource,
		inputBundles,
		outputBundles,
	)
	if err != nil {
		// Guaranteed not to happen by construction (§4.5 Phase C), but
		// surfacing the error is safer than panicking on a caller-supplied
		// Constraints implementation with unexpected behaviour.
		return nil, err
	}
	changeAssetSets := make([]TokenMap, len(predictedChange))
	for i, c := range predictedChange {
		changeAssetSets[i] = c.Assets
	}

	// Phase D: settle fees and minimums.
	for {
		skeleton := SelectionSkeleton{
			InputCount:       len(state.selected),
			Outputs:          criteria.OutputsToCover,
			ChangeAssetSets:  changeAssetSets,
			RewardWithdrawal: criteria.ExtraCoinSource,
		}
		cost := costFor(cs, skeleton)
		change, changeErr := MakeChange(
			cs.MinAdaFor,
			cost,
			criteria.ExtraCoinSource,
			bundlesOf(state.selected),
			outputBundles,
		)
		if changeErr == nil {
			return &SelectionResult{
				Selection: Selection{
					Inputs:           state.selected,
					Outputs:          criteria.OutputsToCover,
					Change:           change,
					Fee:              cost,
					RewardWithdrawal: criteria.ExtraCoinSource,
				},
				UTxORemaining: state.leftover,
			}, nil
		}
		if _, ok := changeErr.(*UnableToConstructChangeError); !ok {
			return nil, changeErr
		}
		if state.atLimit() {
			return nil, changeErr
		}
		entry, ok := state.leftover.SelectRandom(WithAdaOnly(), rng)
		if !ok {
			return nil, changeErr
		}
		state.accept(entry)
	}
}

func buildLenses(required TokenBundle, extra Coin) []lens {
	lenses := []lens{coinLens(required.Coin(), extra)}
	for _, a := range required.Assets.Assets() {
		lenses = append(lenses, assetLens(a, required.Assets.Get(a)))
	}
	return lenses
}

func bundlesOf(entries []UTxOEntry) []TokenBundle {
	out := make([]TokenBundle, len(entries))
	for i, e := range entries {
		out[i] = e.Bundle
	}
	return out
}

func bundlesOf2(outs []TxOut) []TokenBundle {
	out := make([]TokenBundle, len(outs))
	for i, o := range outs {
		out[i] = o.Bundle
	}
	return out
}

// Create builds a self-funding Selection from a fixed, non-empty list of
// inputs: every asset and all ada beyond the settled fee is sent to a single
// destination output. This is the degenerate "no explicit payment, just pay
// my own way" selection the migration planner uses both to categorise UTxO
// entries (§4.6) and to seed/extend a migration selection.
func Create(
	cs Constraints,
	withdrawal Coin,
	destination string,
	inputs []UTxOEntry,
) (*Selection, error) {
	if len(inputs) == 0 {
		panic("coinselection: Create precondition violated: inputs must be non-empty")
	}
	outputs := []TxOut{{Address: destination, Bundle: EmptyBundle()}}
	inputBundles := bundlesOf(inputs)
	totalAssets := SumBundles(inputBundles).Assets

	skeleton := SelectionSkeleton{
		InputCount:       len(inputs),
		Outputs:          outputs,
		ChangeAssetSets:  []TokenMap{totalAssets},
		RewardWithdrawal: withdrawal,
	}
	cost := costFor(cs, skeleton)
	// The destination output is a zero-value sentinel: this selection has no
	// explicit payment, only change, so MakeChange's balance arithmetic must
	// run against the real (zero-coin) output. But PartitionNatural needs a
	// positive weight to know this one position should receive the whole
	// settled remainder, so that weight is supplied via the coinWeights
	// override rather than by inflating the output itself.
	change, err := MakeChange(
		cs.MinAdaFor,
		cost,
		withdrawal,
		inputBundles,
		bundlesOf2(outputs),
		1,
	)
	if err != nil {
		return nil, err
	}
	return &Selection{
		Inputs:           inputs,
		Outputs:          outputs,
		Change:           change,
		Fee:              cost,
		RewardWithdrawal: withdrawal,
	}, nil
}

// Extend adds one more input to an existing self-funding Selection,
// rebuilding its change and fee. It returns SelectionFullError if doing so
// would exceed cs.MaxTxSize.
func Extend(cs Constraints, sel *Selection, entry UTxOEntry) (*Selection, error) {
	inputs := append(append([]UTxOEntry(nil), sel.Inputs...), entry)
	destination := sel.Outputs[0].Address

	probe := SelectionSkeleton{
		InputCount:       len(inputs),
		Outputs:          sel.Outputs,
		ChangeAssetSets:  []TokenMap{SumBundles(bundlesOf(inputs)).Assets},
		RewardWithdrawal: sel.RewardWithdrawal,
	}
	requiredSize := sizeFor(cs, probe)
	if requiredSize > cs.MaxTxSize() {
		return nil, &SelectionFullError{RequiredSize: requiredSize, MaximumSize: cs.MaxTxSize()}
	}

	return Create(cs, sel.RewardWithdrawal, destination, inputs)
}

// Correctness is the result of Check: either the selection is valid, or it
// names the first invariant that failed.
type Correctness struct {
	Valid  bool
	Reason string
}

// Check validates every invariant §3/§4.5 requires of a Selection.
func Check(cs Constraints, sel *Selection) Correctness {
	totalIn := SumBundles(bundlesOf(sel.Inputs)).Add(FromCoin(sel.RewardWithdrawal))
	totalOut := sumTxOutBundles(sel.Outputs).
		Add(SumBundles(sel.Change)).
		Add(FromCoin(sel.Fee))
	if !(totalIn.Coin() == totalOut.Coin() && totalIn.Assets.Leq(totalOut.Assets) && totalOut.Assets.Leq(totalIn.Assets)) {
		return Correctness{Reason: "asset preservation violated (P1)"}
	}
	for _, c := range sel.Change {
		if c.Coin() < cs.MinAdaFor(c.Assets) {
			return Correctness{Reason: "change output below minimum ada (P2)"}
		}
		if !OutputHasValidSize(cs, c) {
			return Correctness{Reason: "change output exceeds max output size (P2)"}
		}
		if !OutputHasValidTokenQuantities(cs, c) {
			return Correctness{Reason: "change output exceeds max asset quantity (P2)"}
		}
	}
	for _, o := range sel.Outputs {
		if !OutputHasValidSize(cs, o.Bundle) {
			return Correctness{Reason: "output exceeds max output size"}
		}
		if !OutputHasValidTokenQuantities(cs, o.Bundle) {
			return Correctness{Reason: "output exceeds max asset quantity"}
		}
	}
	skeleton := SelectionSkeleton{
		InputCount:       len(sel.Inputs),
		Outputs:          sel.Outputs,
		ChangeAssetSets:  assetSetsOf(sel.Change),
		RewardWithdrawal: sel.RewardWithdrawal,
	}
	if sizeFor(cs, skeleton) > cs.MaxTxSize() {
		return Correctness{Reason: "transaction exceeds max tx size"}
	}
	if sel.Fee < costFor(cs, skeleton) {
		return Correctness{Reason: "fee below computed cost"}
	}
	return Correctness{Valid: true}
}

func assetSetsOf(bundles []TokenBundle) []TokenMap {
	out := make([]TokenMap, len(bundles))
	for i, b := range bundles {
		out[i] = b.Assets
	}
	return out
}

// MinimizeFee redistributes a selection's fee excess into its change outputs
// (§4.5 Phase E), run by the migration planner as the last step of every
// selection it builds. Create and Extend already settle Fee to exactly
// costFor(skeleton) on every call, so excess is ordinarily zero; MinimizeFee
// stays cheap in that case and only does real work if a Constraints
// implementation's cost function is not stable across repeated calls with
// the same skeleton.
func MinimizeFee(cs Constraints, sel *Selection) {
	skeleton := SelectionSkeleton{
		InputCount:       len(sel.Inputs),
		Outputs:          sel.Outputs,
		ChangeAssetSets:  assetSetsOf(sel.Change),
		RewardWithdrawal: sel.RewardWithdrawal,
	}
	actualCost := costFor(cs, skeleton)
	if sel.Fee <= actualCost {
		return
	}
	excess := sel.Fee - actualCost

	for i := range sel.Change {
		if excess == 0 {
			break
		}
		moved := maxMovable(cs, sel.Change[i], excess)
		if moved == 0 {
			continue
		}
		sel.Change[i] = sel.Change[i].SetCoin(sel.Change[i].Coin() + moved)
		excess -= moved
	}
	sel.Fee = actualCost + excess
}

// maxMovable finds, via binary search, the largest amount in [0, budget] that
// can be added to change's coin without the output's OutputCoinCost growing
// by more than the amount added, and without exceeding MaxOutputSize. Cost
// and size are both non-decreasing in coin value, so the feasible amounts
// form a prefix of [0, budget] and binary search finds its boundary.
func maxMovable(cs Constraints, change TokenBundle, budget Coin) Coin {
	baseCost := cs.OutputCoinCost(change.Coin())
	feasible := func(d Coin) bool {
		candidate := change.SetCoin(change.Coin() + d)
		if !OutputHasValidSize(cs, candidate) {
			return false
		}
		return cs.OutputCoinCost(change.Coin()+d)-baseCost <= d
	}

	lo, hi := Coin(0), budget
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if feasible(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
