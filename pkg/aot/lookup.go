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
	"fmt"
	"strings"

	"github.com/consensys/go-rvaot/pkg/rv"
)

// LookupEntry maps one block address to the externally callable function for
// it: the block's own function or, for the head of a superblock, the fused
// function.
type LookupEntry struct {
	Pc   uint32
	Name string
}

// BuildEntries constructs the (address-ordered) lookup entries of a chunk,
// redirecting superblock heads to their fused functions.
func BuildEntries(chunk Chunk, superblocks []Superblock) []LookupEntry {
	heads := make(map[uint32]string, len(superblocks))
	//
	for _, sb := range superblocks {
		heads[sb.EntryPc] = sb.EntryName
	}
	//
	entries := make([]LookupEntry, len(chunk.Blocks))
	//
	for i, b := range chunk.Blocks {
		name := b.Name
		//
		if sb, ok := heads[b.Pc]; ok {
			name = sb
		}
		//
		entries[i] = LookupEntry{Pc: b.Pc, Name: name}
	}
	//
	return entries
}

// StrategyKind identifies one of the three per-chunk lookup strategies.
type StrategyKind uint8

const (
	// StrategyAuto selects a strategy from the configured thresholds.
	StrategyAuto StrategyKind = iota
	// StrategySmallMatch compares the address against each entry in turn.
	StrategySmallMatch
	// StrategyDenseIndex indexes a table sized to the address span.
	StrategyDenseIndex
	// StrategyRunTable binary-searches runs of consecutive addresses.
	StrategyRunTable
)

func (p StrategyKind) String() string {
	switch p {
	case StrategySmallMatch:
		return "small-match"
	case StrategyDenseIndex:
		return "dense-index"
	case StrategyRunTable:
		return "run-table"
	default:
		return "auto"
	}
}

// ParseStrategy parses a strategy name as printed by String.
func ParseStrategy(name string) (StrategyKind, error) {
	switch name {
	case "auto":
		return StrategyAuto, nil
	case "small-match":
		return StrategySmallMatch, nil
	case "dense-index":
		return StrategyDenseIndex, nil
	case "run-table":
		return StrategyRunTable, nil
	default:
		return StrategyAuto, fmt.Errorf("unknown lookup strategy \"%s\"", name)
	}
}

// LookupStrategy is one chunk's address-to-function lookup: resolvable
// directly (for testing and metrics) and renderable into the chunk's
// compilation unit.  All strategies return "not found" for out-of-range or
// unmapped addresses; callers treat that as "resolve dynamically via the
// global dispatcher", never as an error.
type LookupStrategy interface {
	// Kind identifies the strategy.
	Kind() StrategyKind
	// Resolve returns the function identifier owning a given address.
	Resolve(pc uint32) (string, bool)
	// Inline indicates the lookup body is small enough for aggressive
	// inlining by the downstream compiler.
	Inline() bool
	// RenderDecls renders the strategy's supporting table declarations.
	RenderDecls() string
	// RenderBody renders the body of the unit's Lookup function.
	RenderBody() string
}

// SelectStrategy chooses the lookup strategy for one chunk from its entry
// count and address density, honouring any forced override.  The three
// choices are mutually exclusive: small match for few entries, dense index
// for compact-and-dense spans, run table otherwise.
func SelectStrategy(entries []LookupEntry, pcMin, pcMax uint32, cfg Config) LookupStrategy {
	var (
		span    = uint32((pcMax-pcMin)/rv.Width) + 1
		density = float64(len(entries)) / float64(span)
	)
	//
	switch cfg.ForceStrategy {
	case StrategySmallMatch:
		return newSmallMatch(entries)
	case StrategyDenseIndex:
		return newDenseIndex(entries, pcMin, pcMax)
	case StrategyRunTable:
		return newRunTable(entries, pcMin, pcMax)
	}
	//
	switch {
	case uint(len(entries)) <= cfg.SmallMatchMax:
		return newSmallMatch(entries)
	case span <= cfg.DenseMaxSpan &&
		span <= uint32(len(entries))*uint32(cfg.DenseMaxRatio) &&
		density >= cfg.DenseMinDensity:
		return newDenseIndex(entries, pcMin, pcMax)
	default:
		return newRunTable(entries, pcMin, pcMax)
	}
}

// ============================================================================
// Small match
// ============================================================================

type smallMatch struct {
	entries []LookupEntry
}

func newSmallMatch(entries []LookupEntry) *smallMatch {
	return &smallMatch{entries: entries}
}

func (p *smallMatch) Kind() StrategyKind {
	return StrategySmallMatch
}

func (p *smallMatch) Inline() bool {
	return true
}

func (p *smallMatch) Resolve(pc uint32) (string, bool) {
	for _, e := range p.entries {
		if e.Pc == pc {
			return e.Name, true
		}
	}
	//
	return "", false
}

func (p *smallMatch) RenderDecls() string {
	return ""
}

func (p *smallMatch) RenderBody() string {
	var builder strings.Builder
	//
	builder.WriteString("\tswitch pc {\n")
	//
	for _, e := range p.entries {
		fmt.Fprintf(&builder, "\tcase 0x%x:\n\t\treturn %s\n", e.Pc, e.Name)
	}
	//
	builder.WriteString("\t}\n\t//\n\treturn nil\n")
	//
	return builder.String()
}

// ============================================================================
// Dense index
// ============================================================================

type denseIndex struct {
	entries      []LookupEntry
	pcMin, pcMax uint32
	index        []uint16
}

func newDenseIndex(entries []LookupEntry, pcMin, pcMax uint32) *denseIndex {
	index := make([]uint16, (pcMax-pcMin)/rv.Width+1)
	// Each slot holds entry-index + 1, with zero marking an absent address.
	for i, e := range entries {
		index[(e.Pc-pcMin)/rv.Width] = uint16(i + 1)
	}
	//
	return &denseIndex{entries: entries, pcMin: pcMin, pcMax: pcMax, index: index}
}

func (p *denseIndex) Kind() StrategyKind {
	return StrategyDenseIndex
}

func (p *denseIndex) Inline() bool {
	return false
}

func (p *denseIndex) Resolve(pc uint32) (string, bool) {
	if pc < p.pcMin || pc > p.pcMax || (pc-p.pcMin)%rv.Width != 0 {
		return "", false
	}
	//
	i := p.index[(pc-p.pcMin)/rv.Width]
	if i == 0 {
		return "", false
	}
	//
	return p.entries[i-1].Name, true
}

func (p *denseIndex) RenderDecls() string {
	var builder strings.Builder
	//
	builder.WriteString("// fns holds this chunk's functions in entry order.\nvar fns = []rt.BlockFn{\n")
	//
	for _, e := range p.entries {
		fmt.Fprintf(&builder, "\t%s,\n", e.Name)
	}
	//
	builder.WriteString("}\n\n")
	builder.WriteString("// idx maps word offsets (relative to PcMin) to entries of fns, shifted up\n")
	builder.WriteString("// by one so that zero marks an absent address.\nvar idx = []uint16{")
	//
	for i, v := range p.index {
		if i%16 == 0 {
			builder.WriteString("\n\t")
		}
		//
		fmt.Fprintf(&builder, "%d, ", v)
	}
	//
	builder.WriteString("\n}\n")
	//
	return builder.String()
}

func (p *denseIndex) RenderBody() string {
	return `	if pc < PcMin || pc > PcMax {
		return nil
	}
	//
	i := idx[(pc-PcMin)>>2]
	if i == 0 {
		return nil
	}
	//
	return fns[i-1]
`
}

// ============================================================================
// Run table
// ============================================================================

type runTable struct {
	entries      []LookupEntry
	pcMin, pcMax uint32
	runs         []runRecord
}

// runRecord mirrors rt.RunRecord: one maximal run of consecutive block addresses,
// in words relative to pcMin.
type runRecord struct {
	start, length, offset uint32
}

func newRunTable(entries []LookupEntry, pcMin, pcMax uint32) *runTable {
	var runs []runRecord
	// Detect maximal runs of consecutive addresses in entry order.
	for i, e := range entries {
		word := (e.Pc - pcMin) / rv.Width
		//
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].length == word {
			runs[n-1].length++
		} else {
			runs = append(runs, runRecord{start: word, length: 1, offset: uint32(i)})
		}
	}
	//
	return &runTable{entries: entries, pcMin: pcMin, pcMax: pcMax, runs: runs}
}

func (p *runTable) Kind() StrategyKind {
	return StrategyRunTable
}

func (p *runTable) Inline() bool {
	return false
}

func (p *runTable) Resolve(pc uint32) (string, bool) {
	if pc < p.pcMin || pc > p.pcMax || (pc-p.pcMin)%rv.Width != 0 {
		return "", false
	}
	//
	var (
		word   = (pc - p.pcMin) / rv.Width
		lo, hi = 0, len(p.runs)
	)
	// Binary search for the run containing word.
	for lo < hi {
		mid := (lo + hi) / 2
		//
		if p.runs[mid].start+p.runs[mid].length <= word {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	//
	if lo >= len(p.runs) || word < p.runs[lo].start {
		return "", false
	}
	//
	return p.entries[p.runs[lo].offset+(word-p.runs[lo].start)].Name, true
}

func (p *runTable) RenderDecls() string {
	var builder strings.Builder
	//
	builder.WriteString("// fns holds this chunk's functions in entry order.\nvar fns = []rt.BlockFn{\n")
	//
	for _, e := range p.entries {
		fmt.Fprintf(&builder, "\t%s,\n", e.Name)
	}
	//
	builder.WriteString("}\n\n")
	builder.WriteString("// runs records each maximal run of consecutive block addresses, in words\n")
	builder.WriteString("// relative to PcMin.\nvar runs = []rt.RunRecord{\n")
	//
	for _, r := range p.runs {
		fmt.Fprintf(&builder, "\t{Start: %d, Len: %d, Offset: %d},\n", r.start, r.length, r.offset)
	}
	//
	builder.WriteString("}\n")
	//
	return builder.String()
}

func (p *runTable) RenderBody() string {
	return `	if pc < PcMin || pc > PcMax {
		return nil
	}
	//
	w := (pc - PcMin) >> 2
	lo, hi := 0, len(runs)
	//
	for lo < hi {
		mid := (lo + hi) / 2
		//
		if runs[mid].Start+runs[mid].Len <= w {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	//
	if lo >= len(runs) || w < runs[lo].Start {
		return nil
	}
	//
	return fns[runs[lo].Offset+(w-runs[lo].Start)]
`
}
