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

	log "github.com/sirupsen/logrus"
)

// Chunk is a contiguous slice of the global block order, compiled as one
// independent unit.  Chunks partition the block list without overlap or gap.
type Chunk struct {
	// Index is the ordinal of this chunk.
	Index uint
	// Blocks is the (contiguous, ordered) block content.
	Blocks []Block
	// PcMin is the smallest block address within the chunk.
	PcMin uint32
	// PcMax is the largest block address within the chunk.
	PcMax uint32
}

func newChunk(index uint, blocks []Block) Chunk {
	// Blocks are in ascending address order, so the range is immediate.
	return Chunk{
		Index:  index,
		Blocks: blocks,
		PcMin:  blocks[0].Pc,
		PcMax:  blocks[len(blocks)-1].Pc,
	}
}

// Partition splits the global block list into chunks using the configured
// strategy.
func Partition(blocks []Block, oracle PenaltyOracle, cfg Config) ([]Chunk, error) {
	if cfg.CFGChunking {
		return PartitionCfg(blocks, oracle, cfg)
	}
	//
	return PartitionSimple(blocks, cfg)
}

// targetChunkSize determines the desired blocks-per-chunk value: an explicit
// override, an explicit target chunk count, or a size heuristic bounded by
// the maximum chunk count.
func targetChunkSize(n uint, cfg Config) uint {
	var target uint
	//
	switch {
	case cfg.BlocksPerChunk > 0:
		target = cfg.BlocksPerChunk
	case cfg.TargetChunks > 0:
		target = ceilDiv(n, cfg.TargetChunks)
	default:
		target = defaultBlocksPerChunk
	}
	// Never exceed the chunk budget.
	if cfg.MaxChunks > 0 && ceilDiv(n, target) > cfg.MaxChunks {
		target = ceilDiv(n, cfg.MaxChunks)
	}
	//
	return max(1, target)
}

// PartitionSimple slices the block list into fixed-size sequential runs,
// additionally forcing a split wherever the address gap between consecutive
// blocks exceeds the configured maximum.
func PartitionSimple(blocks []Block, cfg Config) ([]Chunk, error) {
	if len(blocks) == 0 {
		return nil, errors.New("cannot partition empty block list")
	}
	//
	var (
		target = targetChunkSize(uint(len(blocks)), cfg)
		chunks []Chunk
		start  = 0
	)
	//
	for i := 1; i <= len(blocks); i++ {
		if i == len(blocks) || uint(i-start) >= target || gapExceeded(blocks, i, cfg) {
			// Once the budget is down to one chunk, swallow the remainder.
			if cfg.MaxChunks > 0 && uint(len(chunks)+1) == cfg.MaxChunks {
				i = len(blocks)
			}
			//
			chunks = append(chunks, newChunk(uint(len(chunks)), blocks[start:i]))
			start = i
		}
	}
	//
	log.Debugf("partitioned %d blocks into %d chunks (simple, target=%d)", len(blocks), len(chunks), target)
	//
	return chunks, nil
}

// PartitionCfg splits the block list by first forcing boundaries at large
// address discontinuities and then greedily carving each remaining segment at
// the cheapest boundary within a size window around the target, as judged by
// the cut-penalty oracle.
func PartitionCfg(blocks []Block, oracle PenaltyOracle, cfg Config) ([]Chunk, error) {
	if len(blocks) == 0 {
		return nil, errors.New("cannot partition empty block list")
	}
	//
	var (
		target   = targetChunkSize(uint(len(blocks)), cfg)
		segments = forcedSegments(blocks, cfg)
		chunks   []Chunk
	)
	//
	for si, seg := range segments {
		// Chunk budget left for this segment, reserving one chunk for every
		// segment still to come.
		budget := uint(1)
		//
		if cfg.MaxChunks > 0 {
			reserved := uint(len(segments) - si - 1)
			if cfg.MaxChunks > uint(len(chunks))+reserved {
				budget = cfg.MaxChunks - uint(len(chunks)) - reserved
			}
		} else {
			budget = uint(seg.end - seg.start)
		}
		//
		chunks = carveSegment(blocks, seg, target, budget, oracle, cfg, chunks)
	}
	//
	log.Debugf("partitioned %d blocks into %d chunks (cfg-aware, target=%d)", len(blocks), len(chunks), target)
	//
	return chunks, nil
}

type segment struct {
	start, end int // half-open block-index range
}

// forcedSegments splits the block order at every address discontinuity
// exceeding the configured maximum gap.
func forcedSegments(blocks []Block, cfg Config) []segment {
	var (
		segments []segment
		start    = 0
	)
	//
	for i := 1; i < len(blocks); i++ {
		if gapExceeded(blocks, i, cfg) {
			segments = append(segments, segment{start, i})
			start = i
		}
	}
	//
	return append(segments, segment{start, len(blocks)})
}

func gapExceeded(blocks []Block, i int, cfg Config) bool {
	return i > 0 && i < len(blocks) && blocks[i].Pc-blocks[i-1].Pc > cfg.MaxAddrGap
}

// carveSegment greedily cuts one segment into chunks.  For each cut, the
// boundary with minimal penalty within the window [minSize, maxSize] wins,
// ties favouring the earliest; the window is clamped so the chunk budget is
// never exceeded.
func carveSegment(blocks []Block, seg segment, target, budget uint, oracle PenaltyOracle, cfg Config, chunks []Chunk) []Chunk {
	start := seg.start
	//
	for start < seg.end {
		var (
			remaining = uint(seg.end - start)
			minSize   = max(1, uint(float64(target)*cfg.WindowMinFactor))
			maxSize   = max(minSize, uint(float64(target)*cfg.WindowMaxFactor))
		)
		// Clamp so the remaining budget always suffices.
		if budget > 0 {
			minSize = max(minSize, ceilDiv(remaining, budget))
		}
		//
		if budget <= 1 || remaining <= minSize {
			// Remainder becomes one final chunk.
			chunks = append(chunks, newChunk(uint(len(chunks)), blocks[start:seg.end]))
			break
		}
		//
		size := bestCut(uint(start), minSize, min(maxSize, remaining), oracle)
		chunks = append(chunks, newChunk(uint(len(chunks)), blocks[start:start+int(size)]))
		start += int(size)
		budget--
	}
	//
	return chunks
}

// bestCut returns the chunk size within [minSize, maxSize] whose trailing
// boundary has minimal cut penalty, ties favouring the earliest boundary.
// Boundary indices are global: cutting a chunk of k blocks beginning at
// global index s severs boundary s+k-1.
func bestCut(start, minSize, maxSize uint, oracle PenaltyOracle) uint {
	var (
		bestSize    = minSize
		bestPenalty = oracle.Penalty(start + minSize - 1)
	)
	//
	for k := minSize + 1; k <= maxSize; k++ {
		if p := oracle.Penalty(start + k - 1); p < bestPenalty {
			bestSize, bestPenalty = k, p
		}
	}
	//
	return bestSize
}

func ceilDiv(a, b uint) uint {
	return (a + b - 1) / b
}
