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

// TxOut is a payment target: an opaque recipient address and the value it
// should receive.
type TxOut struct {
	Address string
	Bundle  TokenBundle
}

// sumTxOutBundles sums the TokenBundles carried by a list of outputs.
func sumTxOutBundles(outs []TxOut) TokenBundle {
	total := EmptyBundle()
	for _, o := range outs {
		total = total.Add(o.Bundle)
	}
	return total
}

// sumEntryBundles sums the TokenBundles carried by a list of UTxO entries.
func sumEntryBundles(entries []UTxOEntry) TokenBundle {
	total := EmptyBundle()
	for _, e := range entries {
		total = total.Add(e.Bundle)
	}
	return total
}
