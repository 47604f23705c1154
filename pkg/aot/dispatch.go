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
	"sort"
)

// ChunkRange is the dispatch-side descriptor of one chunk: its address range,
// in the same order as the emitted descriptor table.
type ChunkRange struct {
	PcMin, PcMax uint32
}

// DispatchPlan is the top-level dispatch structure: the chunk descriptor
// ranges sorted by ascending PcMin, the chosen page size, and the per-page
// chunk-index hints.  The plan is both emitted into the dispatch unit and
// directly queryable, so its selection logic is testable without compiling
// generated code.  The page hints are purely an optimisation: a stale or
// approximate hint is always corrected by the forward scan.
type DispatchPlan struct {
	// PcMin is the global minimum block address.
	PcMin uint32
	// PageShift is the log2 of the page size.
	PageShift uint
	// Chunks holds the per-chunk address ranges, sorted by PcMin.
	Chunks []ChunkRange
	// PageHints holds one chunk-index hint per page.
	PageHints []uint32
}

// BuildDispatch constructs the dispatch plan over all chunks.  The page size
// is the smallest power of two (within the configured clamp) keeping the
// page count within the configured ratio of the chunk count.
func BuildDispatch(chunks []Chunk, cfg Config) DispatchPlan {
	ranges := make([]ChunkRange, len(chunks))
	//
	for i, c := range chunks {
		ranges[i] = ChunkRange{PcMin: c.PcMin, PcMax: c.PcMax}
	}
	//
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].PcMin < ranges[j].PcMin })
	//
	var (
		pcMin = ranges[0].PcMin
		pcMax = ranges[len(ranges)-1].PcMax
		shift = pageShift(pcMax-pcMin, uint(len(ranges)), cfg)
		pages = uint((pcMax-pcMin)>>shift) + 1
		hints = make([]uint32, pages)
	)
	//
	for p := range hints {
		start := pcMin + uint32(p)<<shift
		// First chunk whose range could contain the page's start address.
		hints[p] = uint32(sort.Search(len(ranges), func(i int) bool {
			return ranges[i].PcMax >= start
		}))
		// Pages past every chunk still need a valid starting point.
		if hints[p] >= uint32(len(ranges)) {
			hints[p] = uint32(len(ranges) - 1)
		}
	}
	//
	return DispatchPlan{PcMin: pcMin, PageShift: shift, Chunks: ranges, PageHints: hints}
}

func pageShift(span uint32, numChunks uint, cfg Config) uint {
	var (
		shift    = cfg.PageShiftMin
		maxPages = max(1, numChunks) * max(1, cfg.PageHintRatio)
	)
	//
	for shift < cfg.PageShiftMax && uint(span>>shift)+1 > maxPages {
		shift++
	}
	//
	return shift
}

// FindChunk locates the chunk owning a given address, mirroring the dispatch
// algorithm of the emitted unit: page hint, then forward correction scan.
// Returns -1 when no chunk's range contains the address.
func (p *DispatchPlan) FindChunk(pc uint32) int {
	if pc < p.PcMin {
		return -1
	}
	//
	page := uint(pc-p.PcMin) >> p.PageShift
	if page >= uint(len(p.PageHints)) {
		return -1
	}
	//
	i := int(p.PageHints[page])
	for i < len(p.Chunks) && pc > p.Chunks[i].PcMax {
		i++
	}
	//
	if i >= len(p.Chunks) || pc < p.Chunks[i].PcMin {
		return -1
	}
	//
	return i
}
