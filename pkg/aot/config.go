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

// Config collects every policy knob of the compiler.  All thresholds are
// explicit inputs rather than compiled-in constants, so strategy boundaries
// can be exercised directly from tests.
type Config struct {
	// BlocksPerChunk fixes the target number of blocks per chunk.  Zero means
	// derive a target from TargetChunks or the size heuristic.
	BlocksPerChunk uint
	// TargetChunks requests a given number of chunks.  Zero means unset.
	// Ignored when BlocksPerChunk is set.
	TargetChunks uint
	// MaxChunks bounds the number of chunks ever produced.
	MaxChunks uint
	// MaxAddrGap is the largest address discontinuity tolerated between
	// consecutive blocks of one chunk; a larger gap forces a chunk split.
	MaxAddrGap uint32
	// MaxBlockInsns caps the number of instructions folded into one block.
	MaxBlockInsns uint
	// MaxSuperblockInsns caps the number of instructions fused into one
	// superblock.
	MaxSuperblockInsns uint
	// BlockInlineMax is the instruction count at or below which a block
	// function is flagged as inline-eligible for the downstream compiler.
	BlockInlineMax uint
	// SmallMatchMax is the entry count at or below which a chunk's lookup
	// uses the small-match strategy.
	SmallMatchMax uint
	// DenseMaxSpan is the largest address span, in instruction words, for
	// which the dense-index strategy may be chosen.
	DenseMaxSpan uint32
	// DenseMaxRatio bounds the span-to-entry-count ratio of the dense-index
	// strategy.
	DenseMaxRatio uint
	// DenseMinDensity is the minimum entry density (entries per word of span)
	// required by the dense-index strategy.
	DenseMinDensity float64
	// ForceStrategy overrides lookup strategy selection; StrategyAuto selects
	// per the thresholds above.
	ForceStrategy StrategyKind
	// CFGChunking enables the CFG-aware partitioner in place of simple
	// sequential grouping.
	CFGChunking bool
	// WindowMinFactor scales the target chunk size down to the lower edge of
	// the CFG-aware boundary search window.
	WindowMinFactor float64
	// WindowMaxFactor scales the target chunk size up to the upper edge of
	// the CFG-aware boundary search window.
	WindowMaxFactor float64
	// PageShiftMin is the smallest page size (log2) considered for the
	// page-hint table.
	PageShiftMin uint
	// PageShiftMax is the largest page size (log2) considered for the
	// page-hint table.
	PageShiftMax uint
	// PageHintRatio bounds the page count at PageHintRatio pages per chunk.
	PageHintRatio uint
	// Metrics enables collection of the program/chunk statistics artifact.
	// The RVAOT_METRICS environment variable enables this too.
	Metrics bool
	// ImportPath is the module path under which emitted units will live, used
	// by the dispatch unit to import the chunk packages.
	ImportPath string
}

// DefaultConfig returns the stock tuning.  None of these values are
// semantically load bearing; they are policy defaults.
func DefaultConfig() Config {
	return Config{
		BlocksPerChunk:     0,
		TargetChunks:       0,
		MaxChunks:          512,
		MaxAddrGap:         0x10000,
		MaxBlockInsns:      64,
		MaxSuperblockInsns: 256,
		BlockInlineMax:     4,
		SmallMatchMax:      8,
		DenseMaxSpan:       8192,
		DenseMaxRatio:      4,
		DenseMinDensity:    0.25,
		ForceStrategy:      StrategyAuto,
		CFGChunking:        true,
		WindowMinFactor:    0.5,
		WindowMaxFactor:    1.5,
		PageShiftMin:       8,
		PageShiftMax:       16,
		PageHintRatio:      4,
		ImportPath:         "aotgen",
	}
}

// defaultBlocksPerChunk seeds the size heuristic when neither BlocksPerChunk
// nor TargetChunks is given.
const defaultBlocksPerChunk = 64
