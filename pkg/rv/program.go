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
package rv

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/go-rvaot/pkg/util/collection/bit"
)

// Program is a fixed, flat instruction stream rooted at a given base address.
// Programs are immutable inputs to the compiler.
type Program struct {
	// Base address of the first instruction.
	Base uint32
	// Code holds the decoded instructions in address order.
	Code []Instruction
}

// NewProgram decodes a sequence of instruction words rooted at a given base
// address.
func NewProgram(base uint32, words []uint32) Program {
	code := make([]Instruction, len(words))
	//
	for i, w := range words {
		code[i] = Decode(w)
	}
	//
	return Program{Base: base, Code: code}
}

// ParseProgram decodes a program from its raw little-endian byte encoding.
func ParseProgram(base uint32, bytes []byte) (Program, error) {
	if len(bytes)%Width != 0 {
		return Program{}, fmt.Errorf("program image is %d bytes, not a multiple of %d", len(bytes), Width)
	}
	//
	words := make([]uint32, len(bytes)/Width)
	//
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(bytes[i*Width:])
	}
	//
	return NewProgram(base, words), nil
}

// Len returns the number of instructions in this program.
func (p *Program) Len() uint {
	return uint(len(p.Code))
}

// End returns the first address past the end of this program.
func (p *Program) End() uint32 {
	return p.Base + uint32(len(p.Code))*Width
}

// Contains reports whether a given address identifies an instruction of this
// program.
func (p *Program) Contains(pc uint32) bool {
	return pc >= p.Base && pc < p.End() && (pc-p.Base)%Width == 0
}

// At returns the instruction at a given address.
func (p *Program) At(pc uint32) (Instruction, bool) {
	if !p.Contains(pc) {
		return Instruction{}, false
	}
	//
	return p.Code[(pc-p.Base)/Width], true
}

// LeaderSet is a set of addresses which must begin a new block.  Internally
// this is a bitset over instruction indices, hence membership is O(1).
type LeaderSet struct {
	base    uint32
	indices bit.Set
}

// NewLeaderSet constructs an empty leader set for programs rooted at a given
// base address.
func NewLeaderSet(base uint32) *LeaderSet {
	return &LeaderSet{base: base}
}

// Add a given address to this set.  Addresses below the base, or unaligned
// addresses, cannot begin a block and are ignored.
func (p *LeaderSet) Add(pc uint32) {
	if pc >= p.base && (pc-p.base)%Width == 0 {
		p.indices.Insert(uint((pc - p.base) / Width))
	}
}

// Contains checks whether a given address is in this set.
func (p *LeaderSet) Contains(pc uint32) bool {
	if pc < p.base || (pc-p.base)%Width != 0 {
		return false
	}
	//
	return p.indices.Contains(uint((pc - p.base) / Width))
}

// Count returns the number of leaders in this set.
func (p *LeaderSet) Count() uint {
	return p.indices.Count()
}

// ScanLeaders determines the canonical leader set of a program: the entry
// point, every statically known jump/branch target, and every address
// following a terminal instruction.
func ScanLeaders(program Program) *LeaderSet {
	leaders := NewLeaderSet(program.Base)
	leaders.Add(program.Base)
	//
	for i, insn := range program.Code {
		pc := program.Base + uint32(i)*Width
		//
		if target, ok := insn.Target(pc); ok {
			leaders.Add(target)
		}
		//
		if insn.Opcode.IsTerminal() {
			leaders.Add(pc + Width)
		}
	}
	//
	return leaders
}
