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
	"errors"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
	"github.com/consensys/go-rvaot/pkg/rv"
)

// Block is a maximal straight-line run of instructions compiled into one
// function.  Blocks are cheap value types: the code fragment is never mutated
// after the block is finalised, so blocks may be cloned freely during
// chunking.
type Block struct {
	// Pc is the address of the first instruction; unique across all blocks.
	Pc uint32
	// Name is the function identifier of the compiled block.
	Name string
	// InsnCount is the number of source instructions folded into this block.
	InsnCount uint
	// Code is the emitted fragment, always ending in a control transfer.
	Code []gen.Stmt
	// Terminal is true iff the block's last instruction is a control-flow or
	// system instruction (as opposed to the block being closed by a leader,
	// the size cap or the end of the stream).
	Terminal bool
}

// FallThrough returns the address immediately after this block's last
// instruction.
func (p *Block) FallThrough() uint32 {
	return p.Pc + uint32(p.InsnCount)*rv.Width
}

// BuildBlocks walks the instruction stream once, starting a new block at
// every leader address and closing blocks at terminal instructions and at the
// configured instruction cap.  Returns an error for an empty program.
func BuildBlocks(program rv.Program, leaders *rv.LeaderSet, translator rv.Translator, cfg Config) ([]Block, error) {
	builder := blockBuilder{leaders: leaders, translator: translator, cfg: cfg}
	//
	for i, insn := range program.Code {
		builder.add(program.Base+uint32(i)*rv.Width, insn)
	}
	// Close the trailing block, if still open, with a halt.
	builder.closeHalt(program.End())
	//
	if len(builder.blocks) == 0 {
		return nil, errors.New("empty program: no blocks generated")
	}
	//
	return builder.blocks, nil
}

type blockBuilder struct {
	leaders    *rv.LeaderSet
	translator rv.Translator
	cfg        Config
	//
	blocks []Block
	// state of the open block, if any
	open   bool
	pc     uint32
	code   []gen.Stmt
	count  uint
	events uint
}

func (p *blockBuilder) add(pc uint32, insn rv.Instruction) {
	// A leader always begins a new block; an open block falls through to it.
	if p.open && p.leaders.Contains(pc) {
		p.closeFallThrough(pc)
	}
	//
	if !p.open {
		p.begin(pc)
	}
	//
	fragment := p.translator.Translate(pc, insn, p.leaders)
	p.count++
	p.events += fragment.MemEvents
	//
	if fragment.Terminal {
		// Terminal instructions carry their own control-transfer epilogue,
		// and must see the cumulative memory-event count first.
		p.flush()
		p.code = append(p.code, gen.BumpClock{Count: p.count}, gen.CheckBoundary{})
		p.code = append(p.code, fragment.Code...)
		p.close(true)
	} else {
		p.code = append(p.code, fragment.Code...)
		//
		if p.count >= p.cfg.MaxBlockInsns {
			p.closeFallThrough(pc + rv.Width)
		}
	}
}

func (p *blockBuilder) begin(pc uint32) {
	p.open = true
	p.pc = pc
	p.code = nil
	p.count = 0
	p.events = 0
}

// flush the batched memory-event count as a single statement.
func (p *blockBuilder) flush() {
	if p.events > 0 {
		p.code = append(p.code, gen.AddMemEvents{Count: p.events})
		p.events = 0
	}
}

// closeFallThrough closes the open block with the synthetic epilogue used
// when no terminal instruction ended it: advance the clock, check the
// proof-segment boundary, set the program counter, then either yield back to
// the driver or continue directly into the next block's function.
func (p *blockBuilder) closeFallThrough(next uint32) {
	p.flush()
	p.code = append(p.code,
		gen.BumpClock{Count: p.count},
		gen.CheckBoundary{},
		gen.SetPc{Target: gen.Imm{Value: next}},
		gen.If{
			Cond: gen.Fun{Name: "c.ShouldYield"},
			Then: []gen.Stmt{gen.ReturnDynamic{Pc: next}},
		},
		gen.ReturnDirect{Name: gen.BlockName(next), Pc: next},
	)
	p.close(false)
}

// closeHalt closes the open block (if any) at the end of the instruction
// stream with a halt in place of a jump.
func (p *blockBuilder) closeHalt(end uint32) {
	if !p.open {
		return
	}
	//
	p.flush()
	p.code = append(p.code,
		gen.BumpClock{Count: p.count},
		gen.CheckBoundary{},
		gen.SetPc{Target: gen.Imm{Value: end}},
		gen.ReturnHalt{},
	)
	p.close(false)
}

func (p *blockBuilder) close(terminal bool) {
	p.blocks = append(p.blocks, Block{
		Pc:        p.pc,
		Name:      gen.BlockName(p.pc),
		InsnCount: p.count,
		Code:      p.code,
		Terminal:  terminal,
	})
	//
	p.open = false
	p.code = nil
}
