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
	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
	"github.com/consensys/go-rvaot/pkg/rv"
)

// Optimizer is an optional semantics-preserving pass applied to every emitted
// function body of a chunk.
type Optimizer interface {
	Optimize([]gen.Stmt) []gen.Stmt
}

// EmittedFunc is one function of a chunk's compilation unit: a plain block or
// a fused superblock.
type EmittedFunc struct {
	// Name is the function identifier.
	Name string
	// Pc is the entry address.
	Pc uint32
	// InsnCount is used by the block-entry budget guard.
	InsnCount uint
	// Body is the function body, ending in a control transfer.
	Body []gen.Stmt
	// Superblock is true for fused functions.
	Superblock bool
	// Inline flags functions small enough for aggressive inlining.
	Inline bool
}

// CompiledChunk is one chunk after emission: its blocks, fused superblocks,
// emitted functions (post cross-chunk rewrite), lookup entries and chosen
// lookup strategy.
type CompiledChunk struct {
	Chunk
	Superblocks []Superblock
	Funcs       []EmittedFunc
	Entries     []LookupEntry
	Strategy    LookupStrategy
}

// Artifact is the complete in-memory result of a compilation, ready to be
// emitted as source units (or inspected by tests and the stats command).
type Artifact struct {
	Program  rv.Program
	Blocks   []Block
	Chunks   []CompiledChunk
	Dispatch DispatchPlan
	Metrics  *ProgramMetrics
}

// Compiler packages up everything needed to translate a program into its
// compilation units.
type Compiler struct {
	cfg        Config
	translator rv.Translator
	optimizer  Optimizer
}

// NewCompiler constructs a compiler with the stock RV32IM translator and no
// optimizer.
func NewCompiler(cfg Config) *Compiler {
	return &Compiler{cfg: cfg, translator: rv.StdTranslator{}}
}

// WithTranslator returns this compiler updated to use a given translator.
func (p *Compiler) WithTranslator(translator rv.Translator) *Compiler {
	p.translator = translator
	return p
}

// WithOptimizer returns this compiler updated to apply a given optimizer to
// every emitted function.
func (p *Compiler) WithOptimizer(optimizer Optimizer) *Compiler {
	p.optimizer = optimizer
	return p
}

// Compile runs the full pipeline: block formation, CFG extraction, chunk
// partitioning, superblock fusion, lookup strategy selection, cross-chunk
// rewriting and dispatch construction.  A nil leader set requests the
// canonical leader scan.
func (p *Compiler) Compile(program rv.Program, leaders *rv.LeaderSet) (*Artifact, error) {
	if leaders == nil {
		leaders = rv.ScanLeaders(program)
	}
	//
	blocks, err := BuildBlocks(program, leaders, p.translator, p.cfg)
	if err != nil {
		return nil, err
	}
	//
	log.Debugf("built %d blocks from %d instructions", len(blocks), program.Len())
	//
	cfg := ExtractCfg(blocks, program)
	oracle := NewEdgeCutOracle(blocks, cfg)
	//
	chunks, err := Partition(blocks, oracle, p.cfg)
	if err != nil {
		return nil, err
	}
	//
	artifact := &Artifact{Program: program, Blocks: blocks}
	//
	for _, chunk := range chunks {
		artifact.Chunks = append(artifact.Chunks, p.compileChunk(chunk, cfg))
	}
	//
	artifact.Dispatch = BuildDispatch(chunks, p.cfg)
	//
	if MetricsEnabled(p.cfg) {
		artifact.Metrics = collectMetrics(artifact)
	}
	//
	return artifact, nil
}

func (p *Compiler) compileChunk(chunk Chunk, cfg *Cfg) CompiledChunk {
	var (
		superblocks = MergeSuperblocks(chunk, cfg, p.cfg)
		funcs       = p.buildFuncs(chunk, superblocks)
		entries     = BuildEntries(chunk, superblocks)
		strategy    = SelectStrategy(entries, chunk.PcMin, chunk.PcMax, p.cfg)
	)
	// Downgrade direct transfers which left the chunk.
	RewriteCrossChunk(funcs, superblocks)
	//
	log.Debugf("chunk %d: %d blocks, %d superblocks, %s lookup",
		chunk.Index, len(chunk.Blocks), len(superblocks), strategy.Kind())
	//
	return CompiledChunk{
		Chunk:       chunk,
		Superblocks: superblocks,
		Funcs:       funcs,
		Entries:     entries,
		Strategy:    strategy,
	}
}

// buildFuncs lays out the chunk's functions: one per block, except that a
// superblock head's function is replaced by the fused function (interior
// blocks keep their own functions, so every block address stays resolvable).
func (p *Compiler) buildFuncs(chunk Chunk, superblocks []Superblock) []EmittedFunc {
	var (
		heads = make(map[uint32]bool, len(superblocks))
		funcs []EmittedFunc
	)
	//
	for _, sb := range superblocks {
		heads[sb.EntryPc] = true
	}
	//
	for _, b := range chunk.Blocks {
		if heads[b.Pc] {
			continue
		}
		//
		funcs = append(funcs, EmittedFunc{
			Name:      b.Name,
			Pc:        b.Pc,
			InsnCount: b.InsnCount,
			Body:      p.optimize(b.Code),
			Inline:    b.InsnCount <= p.cfg.BlockInlineMax,
		})
	}
	//
	for _, sb := range superblocks {
		funcs = append(funcs, EmittedFunc{
			Name:       sb.EntryName,
			Pc:         sb.EntryPc,
			InsnCount:  sb.InsnCount,
			Body:       p.optimize(sb.Code),
			Superblock: true,
		})
	}
	//
	return funcs
}

func (p *Compiler) optimize(body []gen.Stmt) []gen.Stmt {
	if p.optimizer != nil {
		return p.optimizer.Optimize(body)
	}
	//
	return body
}
