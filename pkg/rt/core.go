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
package rt

// Core abstracts the runtime execution core against which compiled block
// functions run.  The core owns the architectural state (registers, memory,
// program counter, execution clock) along with the bookkeeping needed for
// proving (memory event counts, proof-segment budgets).  Compiled code only
// ever manipulates that state through this interface; the concrete core lives
// outside this repository.
//
// Register and memory accessors are "tracked", meaning the core records every
// access for later proof generation.  Writes to register zero are discarded
// by the core, and reads of register zero return zero.
type Core interface {
	// Pc returns the current virtual program counter.
	Pc() uint32
	// SetPc assigns the virtual program counter.
	SetPc(pc uint32)
	// BumpClock advances the execution clock by a given number of executed
	// instructions.
	BumpClock(n uint)
	// AddMemEvents records a given number of memory read/write events, as
	// batched across a straight-line run of instructions.
	AddMemEvents(n uint)
	// CheckChunkBoundary performs the (cheap) proof-segment boundary check
	// which every block performs after updating the clock.
	CheckChunkBoundary()
	// ShouldYield reports whether the driver should suspend execution at the
	// next block boundary (e.g. because a proof segment is full).
	ShouldYield() bool
	// CanFit reports whether the current proof segment has budget for a given
	// number of further instructions.
	CanFit(n uint) bool
	// Unconstrained reports whether the core is executing in an unconstrained
	// (non-provable) mode, in which case compiled fast paths must not be used.
	Unconstrained() bool
	// Interpret executes instructions one at a time starting from the current
	// program counter, returning when a block boundary is reached.  This is
	// the fallback path used whenever compiled code cannot run.
	Interpret() (NextStep, error)
	// Reg reads a tracked register.
	Reg(i uint) uint32
	// SetReg writes a tracked register.
	SetReg(i uint, v uint32)
	// LoadByte reads a tracked byte, zero extended.
	LoadByte(addr uint32) (uint32, error)
	// LoadHalf reads a tracked halfword, zero extended.  Fails if addr is not
	// 2-byte aligned.
	LoadHalf(addr uint32) (uint32, error)
	// LoadWord reads a tracked word.  Fails if addr is not 4-byte aligned.
	LoadWord(addr uint32) (uint32, error)
	// StoreByte writes a tracked byte.
	StoreByte(addr uint32, v uint32) error
	// StoreHalf writes a tracked halfword.  Fails if addr is not 2-byte
	// aligned.
	StoreHalf(addr uint32, v uint32) error
	// StoreWord writes a tracked word.  Fails if addr is not 4-byte aligned.
	StoreWord(addr uint32, v uint32) error
	// Ecall executes an environment call against the current register state.
	Ecall() (NextStep, error)
}
