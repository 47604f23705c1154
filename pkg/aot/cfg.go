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
package aot

import (
	"github.com/consensys/go-rvaot/pkg/rv"
)

// Cfg holds the static control-flow structure of the finalised block list:
// per-block successors and global predecessor counts.  It is computed once,
// before chunking, and consumed read-only afterwards.
type Cfg struct {
	succs map[uint32][]uint32
	preds map[uint32]uint
	index map[uint32]int
}

// ExtractCfg computes per-block successors and global predecessor counts over
// a finalised block list.
func ExtractCfg(blocks []Block, program rv.Program) *Cfg {
	cfg := &Cfg{
		succs: make(map[uint32][]uint32, len(blocks)),
		preds: make(map[uint32]uint, len(blocks)),
		index: make(map[uint32]int, len(blocks)),
	}
	//
	for i, b := range blocks {
		cfg.index[b.Pc] = i
	}
	//
	for _, b := range blocks {
		succs := cfg.successorsOf(b, program)
		cfg.succs[b.Pc] = succs
		//
		for _, s := range succs {
			cfg.preds[s]++
		}
	}
	//
	return cfg
}

// Successors returns the statically known successor addresses of the block at
// a given address.
func (p *Cfg) Successors(pc uint32) []uint32 {
	return p.succs[pc]
}

// PredCount returns the number of static control-flow edges into the block at
// a given address.
func (p *Cfg) PredCount(pc uint32) uint {
	return p.preds[pc]
}

// BlockIndex returns the position of a given block address within the global
// block order.
func (p *Cfg) BlockIndex(pc uint32) (int, bool) {
	i, ok := p.index[pc]
	return i, ok
}

// Successors are derived from the control-transfer semantics of the block's
// last instruction, located by address arithmetic.  Addresses which do not
// identify a known block are dropped.
func (p *Cfg) successorsOf(b Block, program rv.Program) []uint32 {
	var (
		last     = b.Pc + uint32(b.InsnCount-1)*rv.Width
		fallthru = last + rv.Width
		succs    []uint32
	)
	//
	insn, ok := program.At(last)
	if !ok {
		return nil
	}
	//
	switch insn.Opcode.Class() {
	case rv.ClassJump:
		target, _ := insn.Target(last)
		succs = p.appendBlock(succs, target)
	case rv.ClassBranch:
		target, _ := insn.Target(last)
		succs = p.appendBlock(succs, target)
		//
		if target != fallthru {
			succs = p.appendBlock(succs, fallthru)
		}
	case rv.ClassIndirect, rv.ClassSyscall, rv.ClassTrap:
		// No static successors.
	default:
		succs = p.appendBlock(succs, fallthru)
	}
	//
	return succs
}

func (p *Cfg) appendBlock(succs []uint32, pc uint32) []uint32 {
	if _, ok := p.index[pc]; ok {
		return append(succs, pc)
	}
	//
	return succs
}

// ============================================================================
// Cut-penalty oracle
// ============================================================================

// PenaltyOracle exposes, for every boundary between adjacent blocks in the
// global order, the cost of placing a chunk split there.  Boundary b sits
// between blocks b and b+1.
type PenaltyOracle interface {
	// Penalty returns the cost of cutting at a given boundary.
	Penalty(boundary uint) uint
	// NumBoundaries returns the number of boundaries, i.e. one less than the
	// number of blocks.
	NumBoundaries() uint
}

type edgeCutOracle struct {
	costs []uint
}

// NewEdgeCutOracle builds the stock penalty oracle: the cost of a boundary is
// the number of control-flow edges severed by cutting there.  All boundaries
// are computed in one pass over the edges using a difference array.
func NewEdgeCutOracle(blocks []Block, cfg *Cfg) PenaltyOracle {
	if len(blocks) < 2 {
		return &edgeCutOracle{}
	}
	//
	diff := make([]int, len(blocks))
	//
	for i, b := range blocks {
		for _, s := range cfg.Successors(b.Pc) {
			j, ok := cfg.BlockIndex(s)
			if !ok || i == j {
				continue
			}
			// The edge crosses every boundary b with lo <= b < hi.
			lo, hi := min(i, j), max(i, j)
			diff[lo]++
			diff[hi]--
		}
	}
	//
	costs := make([]uint, len(blocks)-1)
	acc := 0
	//
	for b := range costs {
		acc += diff[b]
		costs[b] = uint(acc)
	}
	//
	return &edgeCutOracle{costs: costs}
}

// Penalty implementation for the PenaltyOracle interface.
func (p *edgeCutOracle) Penalty(boundary uint) uint {
	if boundary >= uint(len(p.costs)) {
		return 0
	}
	//
	return p.costs[boundary]
}

// NumBoundaries implementation for the PenaltyOracle interface.
func (p *edgeCutOracle) NumBoundaries() uint {
	return uint(len(p.costs))
}
