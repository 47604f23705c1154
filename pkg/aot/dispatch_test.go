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
	"testing"
)

func Test_Dispatch_00(t *testing.T) {
	plan := build_Dispatch(t, [][2]uint32{
		{0x1000, 0x1ffc},
		{0x2000, 0x2ffc},
		{0x3000, 0x3ffc},
	})
	// every in-range address resolves to its owning chunk
	check_FindChunk(t, plan, 0x1000, 0)
	check_FindChunk(t, plan, 0x1ffc, 0)
	check_FindChunk(t, plan, 0x2000, 1)
	check_FindChunk(t, plan, 0x2500, 1)
	check_FindChunk(t, plan, 0x3ffc, 2)
}

func Test_Dispatch_01(t *testing.T) {
	plan := build_Dispatch(t, [][2]uint32{
		{0x1000, 0x1ffc},
		{0x2000, 0x2ffc},
	})
	// below, above, and between chunks
	check_FindChunk(t, plan, 0xffc, -1)
	check_FindChunk(t, plan, 0x3000, -1)
}

func Test_Dispatch_02(t *testing.T) {
	// a gap between chunk ranges resolves to no chunk
	plan := build_Dispatch(t, [][2]uint32{
		{0x1000, 0x1ffc},
		{0x80000, 0x80ffc},
	})
	//
	check_FindChunk(t, plan, 0x1ffc, 0)
	check_FindChunk(t, plan, 0x2000, -1)
	check_FindChunk(t, plan, 0x7fffc, -1)
	check_FindChunk(t, plan, 0x80000, 1)
}

func Test_Dispatch_03(t *testing.T) {
	// page hints never point past the owning chunk
	plan := build_Dispatch(t, [][2]uint32{
		{0x1000, 0x1ffc},
		{0x2000, 0x6ffc},
		{0x7000, 0x8ffc},
	})
	//
	for p, hint := range plan.PageHints {
		start := plan.PcMin + uint32(p)<<plan.PageShift
		//
		owner := linear_FindChunk(plan, start)
		if owner >= 0 && int(hint) > owner {
			t.Errorf("page %d hint %d is past owner %d", p, hint, owner)
		}
	}
}

func Test_Dispatch_04(t *testing.T) {
	// page shift stays within the configured clamp and bounds the page count
	cfg := DefaultConfig()
	//
	ranges := make([][2]uint32, 8)
	for i := range ranges {
		base := uint32(0x1000 + i*0x40000)
		ranges[i] = [2]uint32{base, base + 0xfffc}
	}
	//
	plan := build_Dispatch(t, ranges)
	//
	if plan.PageShift < cfg.PageShiftMin || plan.PageShift > cfg.PageShiftMax {
		t.Errorf("page shift %d outside clamp [%d, %d]", plan.PageShift, cfg.PageShiftMin, cfg.PageShiftMax)
	}
	//
	if plan.PageShift < cfg.PageShiftMax &&
		uint(len(plan.PageHints)) > uint(len(ranges))*cfg.PageHintRatio {
		t.Errorf("%d pages exceeds the hint ratio", len(plan.PageHints))
	}
}

func Test_Dispatch_05(t *testing.T) {
	// a single tiny chunk uses the smallest page size
	plan := build_Dispatch(t, [][2]uint32{{0x1000, 0x1010}})
	//
	if plan.PageShift != DefaultConfig().PageShiftMin {
		t.Errorf("unexpected page shift %d", plan.PageShift)
	}
	//
	check_FindChunk(t, plan, 0x1008, 0)
}

// ===================================================================
// Test Helpers
// ===================================================================

func build_Dispatch(t *testing.T, ranges [][2]uint32) DispatchPlan {
	t.Helper()
	//
	chunks := make([]Chunk, len(ranges))
	//
	for i, r := range ranges {
		chunks[i] = Chunk{
			Index:  uint(i),
			Blocks: []Block{{Pc: r[0]}, {Pc: r[1]}},
			PcMin:  r[0],
			PcMax:  r[1],
		}
	}
	//
	return BuildDispatch(chunks, DefaultConfig())
}

func check_FindChunk(t *testing.T, plan DispatchPlan, pc uint32, expected int) {
	t.Helper()
	//
	if i := plan.FindChunk(pc); i != expected {
		t.Errorf("FindChunk(0x%x) = %d, expected %d", pc, i, expected)
	}
}

// linear_FindChunk is the obviously correct reference: scan every chunk.
func linear_FindChunk(plan DispatchPlan, pc uint32) int {
	for i, c := range plan.Chunks {
		if pc >= c.PcMin && pc <= c.PcMax {
			return i
		}
	}
	//
	return -1
}
