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

import "sort"

// InputId is an opaque identifier for a UTxO entry, conventionally
// "txHash#index" the way this repository already formats UTxO references
// (see internal/wallet.loadWalletUTxOs).
type InputId = string

// UTxOEntry pairs an input identifier with the bundle it holds.
type UTxOEntry struct {
	Id     InputId
	Bundle TokenBundle
}

// idSet is a removable set of InputIds (adding an id already present is a
// no-op) supporting O(1) insert, remove,
// and uniform sampling: a slice for iteration/sampling plus a position index
// for O(1) swap-remove.
type idSet struct {
	ids []InputId
	pos map[InputId]int
}

func newIdSet() *idSet {
	return &idSet{pos: make(map[InputId]int)}
}

func (s *idSet) add(id InputId) {
	if _, ok := s.pos[id]; ok {
		return
	}
	s.pos[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *idSet) remove(id InputId) {
	i, ok := s.pos[id]
	if !ok {
		return
	}
	last := len(s.ids) - 1
	s.ids[i] = s.ids[last]
	s.pos[s.ids[i]] = i
	s.ids = s.ids[:last]
	delete(s.pos, id)
}

func (s *idSet) sample(rng RandSource) (InputId, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	idx := rng.Uint64N(uint64(len(s.ids)))
	return s.ids[idx], true
}

func (s *idSet) len() int {
	return len(s.ids)
}

// Filter selects a subset of a UTxOIndex's entries for random sampling.
type Filter struct {
	kind  filterKind
	asset AssetId
}

type filterKind int

const (
	filterAny filterKind = iota
	filterWithAdaOnly
	filterWithAsset
)

// Any matches every entry in the index.
func Any() Filter { return Filter{kind: filterAny} }

// WithAdaOnly matches entries whose bundle carries no native assets.
func WithAdaOnly() Filter { return Filter{kind: filterWithAdaOnly} }

// WithAsset matches entries whose bundle's token map contains a.
func WithAsset(a AssetId) Filter { return Filter{kind: filterWithAsset, asset: a} }

// UTxOIndex is a keyed multi-index over available UTxO entries supporting
// O(1) insert/remove and uniform random sampling filtered by ada-only,
// by-asset, or unconditional membership. A UTxOIndex is owned exclusively by
// whichever code holds it; SelectRandom mutates the receiver and returns the
// sampled entry, matching the engine's resource model of an owned,
// consumed-in-place working set (§5 of the specification).
type UTxOIndex struct {
	entries map[InputId]TokenBundle
	all     *idSet
	adaOnly *idSet
	byAsset map[string]*idSet
}

// NewUTxOIndex builds an index from a list of entries. Later entries with a
// duplicate Id overwrite earlier ones.
func NewUTxOIndex(entries []UTxOEntry) UTxOIndex {
	idx := UTxOIndex{
		entries: make(map[InputId]TokenBundle, len(entries)),
		all:     newIdSet(),
		adaOnly: newIdSet(),
		byAsset: make(map[string]*idSet),
	}
	for _, e := range entries {
		idx.Insert(e.Id, e.Bundle)
	}
	return idx
}

// Insert adds or replaces the entry for id.
func (idx *UTxOIndex) Insert(id InputId, bundle TokenBundle) {
	if _, ok := idx.entries[id]; ok {
		idx.Remove(id)
	}
	idx.entries[id] = bundle
	idx.all.add(id)
	if bundle.IsAdaOnly() {
		idx.adaOnly.add(id)
	}
	for _, a := range bundle.Assets.Assets() {
		key := assetKey(a)
		set, ok := idx.byAsset[key]
		if !ok {
			set = newIdSet()
			idx.byAsset[key] = set
		}
		set.add(id)
	}
}

// Remove deletes the entry for id, if present.
func (idx *UTxOIndex) Remove(id InputId) {
	bundle, ok := idx.entries[id]
	if !ok {
		return
	}
	delete(idx.entries, id)
	idx.all.remove(id)
	if bundle.IsAdaOnly() {
		idx.adaOnly.remove(id)
	}
	for _, a := range bundle.Assets.Assets() {
		key := assetKey(a)
		if set, ok := idx.byAsset[key]; ok {
			set.remove(id)
			if set.len() == 0 {
				delete(idx.byAsset, key)
			}
		}
	}
}

// Size returns the number of entries in the index.
func (idx *UTxOIndex) Size() int {
	return len(idx.entries)
}

// Balance returns the aggregated bundle of every entry in the index.
func (idx *UTxOIndex) Balance() TokenBundle {
	total := EmptyBundle()
	for _, b := range idx.entries {
		total = total.Add(b)
	}
	return total
}

// Get returns the bundle for id, if present.
func (idx *UTxOIndex) Get(id InputId) (TokenBundle, bool) {
	b, ok := idx.entries[id]
	return b, ok
}

// Entries returns every (id, bundle) pair in the index, sorted by id for
// determinism.
func (idx *UTxOIndex) Entries() []UTxOEntry {
	out := make([]UTxOEntry, 0, len(idx.entries))
	for id, b := range idx.entries {
		out = append(out, UTxOEntry{Id: id, Bundle: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (idx *UTxOIndex) setFor(f Filter) *idSet {
	switch f.kind {
	case filterWithAdaOnly:
		return idx.adaOnly
	case filterWithAsset:
		return idx.byAsset[assetKey(f.asset)]
	default:
		return idx.all
	}
}

// SelectRandom samples one entry uniformly from those matching filter,
// removes it from the index, and returns it. It returns (zero, false) when
// no entry matches.
func (idx *UTxOIndex) SelectRandom(filter Filter, rng RandSource) (UTxOEntry, bool) {
	set := idx.setFor(filter)
	if set == nil {
		return UTxOEntry{}, false
	}
	id, ok := set.sample(rng)
	if !ok {
		return UTxOEntry{}, false
	}
	bundle := idx.entries[id]
	idx.Remove(id)
	return UTxOEntry{Id: id, Bundle: bundle}, true
}

// Clone returns an independent copy of idx.
func (idx *UTxOIndex) Clone() UTxOIndex {
	return NewUTxOIndex(idx.Entries())
}
