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
)

// Superblock is a fused chain of fallthrough-only blocks compiled as one
// function.  Superblocks are chunk-local and non-persistent: they exist only
// during one chunk's emission.
type Superblock struct {
	// EntryPc is the address of the first constituent block; the only address
	// of the chain which remains externally addressable.
	EntryPc uint32
	// EntryName is the identifier of the fused function.
	EntryName string
	// BlockPcs lists the constituent block addresses in chain order.
	BlockPcs []uint32
	// InsnCount is the total instruction count across the chain.
	InsnCount uint
	// Code is the fused fragment: the constituent fragments concatenated in
	// order, with every non-final control-transfer epilogue stripped.
	Code []gen.Stmt
}

// MergeSuperblocks finds the maximal fusible chains within one chunk.  A
// chain extends from a block to its single successor only when the successor
// is the arithmetic fallthrough (jump targets are never fused), lies in the
// same chunk, and has exactly one predecessor; fusion stops at the configured
// instruction cap.  Chains of length one are discarded.
func MergeSuperblocks(chunk Chunk, cfg *Cfg, conf Config) []Superblock {
	var (
		inChunk = make(map[uint32]*Block, len(chunk.Blocks))
		visited = make(map[uint32]bool, len(chunk.Blocks))
		merged  []Superblock
	)
	//
	for i := range chunk.Blocks {
		inChunk[chunk.Blocks[i].Pc] = &chunk.Blocks[i]
	}
	//
	for i := range chunk.Blocks {
		block := &chunk.Blocks[i]
		//
		if visited[block.Pc] {
			continue
		}
		//
		visited[block.Pc] = true
		chain := extendChain(block, inChunk, visited, cfg, conf)
		//
		if len(chain) >= 2 {
			merged = append(merged, fuseChain(chain))
		}
	}
	//
	if len(merged) > 0 {
		log.Debugf("chunk %d: fused %d superblocks", chunk.Index, len(merged))
	}
	//
	return merged
}

func extendChain(start *Block, inChunk map[uint32]*Block, visited map[uint32]bool, cfg *Cfg, conf Config) []*Block {
	var (
		chain = []*Block{start}
		cur   = start
		total = start.InsnCount
	)
	//
	for {
		succs := cfg.Successors(cur.Pc)
		if len(succs) != 1 {
			break
		}
		//
		next, ok := inChunk[succs[0]]
		//
		switch {
		case !ok:
			// successor outside this chunk
		case visited[next.Pc]:
			// already folded (or rejected) elsewhere
		case next.Pc != cur.FallThrough():
			// jump target, not sequential fallthrough
		case cfg.PredCount(next.Pc) != 1:
			// fusing would hide an alternate incoming path
		case total+next.InsnCount > conf.MaxSuperblockInsns:
			// cap reached
		default:
			visited[next.Pc] = true
			chain = append(chain, next)
			total += next.InsnCount
			cur = next
			//
			continue
		}
		//
		break
	}
	//
	return chain
}

// fuseChain concatenates the chain's code, stripping every non-final block's
// control-transfer epilogue (everything from its first program-counter
// assignment onwards) so that only the final block determines the fused
// function's exit.
func fuseChain(chain []*Block) Superblock {
	var (
		sb = Superblock{
			EntryPc:   chain[0].Pc,
			EntryName: gen.SuperblockName(chain[0].Pc),
		}
	)
	//
	for i, b := range chain {
		code := b.Code
		//
		if i+1 < len(chain) {
			// Keep the code verbatim if no epilogue marker is found; that is
			// unexpected, but harmless.
			if body, _, ok := gen.SplitAtSetPc(code); ok {
				code = body
			}
		}
		//
		sb.BlockPcs = append(sb.BlockPcs, b.Pc)
		sb.InsnCount += b.InsnCount
		sb.Code = append(sb.Code, code...)
	}
	//
	return sb
}
