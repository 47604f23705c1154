// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package bit

import (
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Set provides a straightforward bitset implementation. That is, a set of
// (unsigned) integer values implemented as an array of bits.  The zero value
// is an empty set ready for use.
type Set struct {
	words []uint64
}

// Clone creates a true copy of this bitset which ensures no aliasing between
// this set and the result.
func (p *Set) Clone() Set {
	return Set{slices.Clone(p.words)}
}

// Insert a given value into this set.
func (p *Set) Insert(val uint) {
	word := val / 64
	bit := val % 64
	//
	for uint(len(p.words)) <= word {
		p.words = append(p.words, 0)
	}
	// Set bit
	p.words[word] |= uint64(1) << bit
}

// InsertAll inserts zero or more elements into this bitset.
func (p *Set) InsertAll(vals ...uint) {
	for _, v := range vals {
		p.Insert(v)
	}
}

// Remove a given value from this set.
func (p *Set) Remove(val uint) {
	word := val / 64
	bit := val % 64
	// Check whether we need to do anything.
	if uint(len(p.words)) > word {
		p.words[word] &= ^(uint64(1) << bit)
	}
}

// Contains checks whether a given value is in this set (or not).
func (p *Set) Contains(val uint) bool {
	word := val / 64
	bit := val % 64
	//
	if uint(len(p.words)) <= word {
		return false
	}
	//
	return p.words[word]&(uint64(1)<<bit) != 0
}

// Count returns the number of bits in the bitset which are set to one.
func (p *Set) Count() uint {
	count := uint(0)
	//
	for _, w := range p.words {
		count += uint(bits.OnesCount64(w))
	}
	//
	return count
}

// Walk visits every member of this set in ascending order.
func (p *Set) Walk(fn func(uint)) {
	for i, w := range p.words {
		for w != 0 {
			j := bits.TrailingZeros64(w)
			fn(uint(i*64 + j))
			//
			w &= w - 1
		}
	}
}

func (p *Set) String() string {
	var (
		builder strings.Builder
		first   = true
	)
	//
	builder.WriteString("{")
	//
	p.Walk(func(val uint) {
		if !first {
			builder.WriteString(",")
		}
		//
		first = false
		//
		builder.WriteString(strconv.FormatUint(uint64(val), 10))
	})
	//
	builder.WriteString("}")
	//
	return builder.String()
}
