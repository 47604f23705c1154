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

// ChunkDescriptor identifies one independently compiled chunk: its address
// range together with its address-to-function lookup entry point.
type ChunkDescriptor struct {
	// PcMin is the smallest block address within the chunk.
	PcMin uint32
	// PcMax is the largest block address within the chunk.
	PcMax uint32
	// Lookup resolves an address to a compiled function within the chunk, or
	// nil if the address maps to no block entry.
	Lookup func(pc uint32) BlockFn
}

// RunRecord describes one maximal run of consecutive block addresses within a
// chunk's run-table lookup.  Start and Len are expressed in instruction words
// relative to the chunk's PcMin; Offset indexes the chunk's function array.
type RunRecord struct {
	Start  uint32
	Len    uint32
	Offset uint32
}

// DispatchTable is the top-level structure mapping any program counter to the
// compiled function owning it.  Descriptors are ordered by ascending PcMin;
// PageHints holds, per fixed-size address page, the index of the first chunk
// whose range could contain that page's start address.  Both are immutable
// once built, so the table may be shared freely across execution contexts.
type DispatchTable struct {
	// PcMin is the smallest block address across all chunks.
	PcMin uint32
	// PageShift is the log2 of the page size used by PageHints.
	PageShift uint
	// Chunks holds one descriptor per chunk, ordered by ascending PcMin.
	Chunks []ChunkDescriptor
	// PageHints holds one chunk-index hint per page.
	PageHints []uint32
}

// FindChunk locates the chunk whose address range contains a given program
// counter, returning -1 if there is none.  The page hint lands within a small
// number of chunks of the answer, so the forward correction scan is amortised
// O(1).
func (p *DispatchTable) FindChunk(pc uint32) int {
	if pc < p.PcMin {
		return -1
	}
	//
	page := uint((pc - p.PcMin)) >> p.PageShift
	if page >= uint(len(p.PageHints)) {
		return -1
	}
	// Correction scan: the hint may point a few chunks early, never late.
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

// LookupBlock resolves a program counter to the compiled function owning it,
// or nil if no chunk maps that address.
func (p *DispatchTable) LookupBlock(pc uint32) BlockFn {
	i := p.FindChunk(pc)
	if i < 0 {
		return nil
	}
	//
	return p.Chunks[i].Lookup(pc)
}
