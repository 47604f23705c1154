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
	"slices"
	"testing"

	"github.com/consensys/go-rvaot/pkg/rv"
)

func Test_Cfg_00(t *testing.T) {
	// a straight-line program has no successors past the end of the stream
	blocks, cfg := build_Cfg(t, 0x1000, rv.Addi(1, 0, 1), rv.Addi(2, 0, 2))
	//
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	//
	check_Successors(t, cfg, 0x1000)
}

func Test_Cfg_01(t *testing.T) {
	// jump successor: jal at 0x1004 loops back to 0x1000
	blocks, cfg := build_Cfg(t, 0x1000,
		rv.Addi(1, 0, 1),
		rv.Jal(0, -4),
	)
	//
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	//
	check_Successors(t, cfg, 0x1000, 0x1000)
	//
	if cfg.PredCount(0x1000) != 1 {
		t.Errorf("unexpected predecessor count %d", cfg.PredCount(0x1000))
	}
}

func Test_Cfg_02(t *testing.T) {
	// branch: target plus fallthrough
	blocks, cfg := build_Cfg(t, 0x1000,
		rv.Beq(1, 2, 8), // target 0x1008
		rv.Addi(1, 0, 1),
		rv.Ebreak(),
	)
	//
	if len(blocks) != 3 {
		t.Fatalf("expected three blocks, got %d", len(blocks))
	}
	//
	check_Successors(t, cfg, 0x1000, 0x1008, 0x1004)
	check_Successors(t, cfg, 0x1004, 0x1008)
	check_Successors(t, cfg, 0x1008)
	//
	if cfg.PredCount(0x1008) != 2 {
		t.Errorf("block 0x1008 should have two predecessors")
	}
}

func Test_Cfg_03(t *testing.T) {
	// indirect jumps and system instructions have no static successors
	_, cfg := build_Cfg(t, 0x1000,
		rv.Jalr(0, 1, 0),
		rv.Ecall(),
		rv.Unimp(),
	)
	//
	check_Successors(t, cfg, 0x1000)
	check_Successors(t, cfg, 0x1004)
	check_Successors(t, cfg, 0x1008)
}

func Test_Cfg_04(t *testing.T) {
	// leader-closed blocks fall through to their successor
	blocks, cfg := build_Cfg(t, 0x1000,
		rv.Addi(1, 0, 1),
		rv.Addi(2, 0, 2),
		rv.Jal(0, -4),
	)
	//
	if len(blocks) != 2 {
		t.Fatalf("expected two blocks, got %d", len(blocks))
	}
	//
	check_Successors(t, cfg, 0x1000, 0x1004)
	// jal at 0x1008 targets 0x1004
	check_Successors(t, cfg, 0x1004, 0x1004)
	//
	if cfg.PredCount(0x1004) != 2 {
		t.Errorf("block 0x1004 should have two predecessors")
	}
}

func Test_Oracle_00(t *testing.T) {
	// one block, no boundaries
	blocks, cfg := build_Cfg(t, 0x1000, rv.Addi(1, 0, 1))
	oracle := NewEdgeCutOracle(blocks, cfg)
	//
	if oracle.NumBoundaries() != 0 {
		t.Errorf("unexpected boundary count %d", oracle.NumBoundaries())
	}
}

func Test_Oracle_01(t *testing.T) {
	// a fallthrough edge costs one at the boundary it crosses
	blocks, cfg := build_Cfg(t, 0x1000,
		rv.Addi(1, 0, 1),
		rv.Addi(2, 0, 2),
		rv.Jal(0, -4),
	)
	//
	oracle := NewEdgeCutOracle(blocks, cfg)
	//
	if oracle.NumBoundaries() != 1 {
		t.Fatalf("unexpected boundary count %d", oracle.NumBoundaries())
	}
	// boundary 0 is crossed by the fallthrough edge 0->1; the back edge 1->1
	// is a self loop and crosses nothing
	if oracle.Penalty(0) != 1 {
		t.Errorf("unexpected penalty %d at boundary 0", oracle.Penalty(0))
	}
	// out-of-range boundaries cost nothing
	if oracle.Penalty(5) != 0 {
		t.Errorf("out-of-range boundary should cost 0")
	}
}

func Test_Oracle_02(t *testing.T) {
	// a long branch crosses every boundary in between
	blocks, cfg := build_Cfg(t, 0x1000,
		rv.Beq(1, 2, 16), // 0x1000 -> 0x1010
		rv.Ebreak(),      // 0x1004
		rv.Ebreak(),      // 0x1008
		rv.Ebreak(),      // 0x100c
		rv.Ebreak(),      // 0x1010
	)
	//
	if len(blocks) != 5 {
		t.Fatalf("expected five blocks, got %d", len(blocks))
	}
	//
	oracle := NewEdgeCutOracle(blocks, cfg)
	// edges: 0x1000->0x1010 (boundaries 0-3) and 0x1000->0x1004 (boundary 0)
	for b, expected := range []uint{2, 1, 1, 1} {
		if p := oracle.Penalty(uint(b)); p != expected {
			t.Errorf("boundary %d: penalty %d, expected %d", b, p, expected)
		}
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func build_Cfg(t *testing.T, base uint32, words ...uint32) ([]Block, *Cfg) {
	t.Helper()
	//
	program := rv.NewProgram(base, words)
	blocks := build_Blocks(t, DefaultConfig(), base, words...)
	//
	return blocks, ExtractCfg(blocks, program)
}

func check_Successors(t *testing.T, cfg *Cfg, pc uint32, expected ...uint32) {
	t.Helper()
	//
	succs := cfg.Successors(pc)
	//
	if len(succs) != len(expected) || (len(expected) > 0 && !slices.Equal(succs, expected)) {
		t.Errorf("block 0x%x: successors %v, expected %v", pc, succs, expected)
	}
}
