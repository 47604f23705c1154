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
package rv

import (
	"testing"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
)

func Test_Translate_00(t *testing.T) {
	// plain ALU instructions do not end their block
	fragment := translate(t, 0x1000, Addi(1, 2, 42))
	//
	if fragment.Terminal {
		t.Errorf("addi should not be terminal")
	}
	//
	if fragment.MemEvents != 0 {
		t.Errorf("addi should contribute no memory events")
	}
	//
	if len(fragment.Code) != 1 {
		t.Fatalf("unexpected fragment size %d", len(fragment.Code))
	}
	//
	if _, ok := fragment.Code[0].(gen.SetReg); !ok {
		t.Errorf("expected a register write, got %T", fragment.Code[0])
	}
}

func Test_Translate_01(t *testing.T) {
	// loads and stores contribute one memory event each
	if translate(t, 0x1000, Lw(1, 2, 0)).MemEvents != 1 {
		t.Errorf("lw should contribute one memory event")
	}
	//
	if translate(t, 0x1000, Sw(2, 1, 0)).MemEvents != 1 {
		t.Errorf("sw should contribute one memory event")
	}
}

func Test_Translate_02(t *testing.T) {
	// jal: link write, pc assignment, direct transfer
	fragment := translate(t, 0x1000, Jal(1, 16))
	//
	if !fragment.Terminal {
		t.Fatalf("jal must be terminal")
	}
	//
	link, ok := fragment.Code[0].(gen.SetReg)
	if !ok || link.Index != 1 {
		t.Errorf("expected link write to x1 first")
	}
	//
	ret, ok := fragment.Code[2].(gen.ReturnDirect)
	if !ok || ret.Pc != 0x1010 {
		t.Errorf("expected direct transfer to 0x1010")
	}
}

func Test_Translate_03(t *testing.T) {
	// jalr: the pc assignment must precede the link write, since rd and rs1
	// may alias
	fragment := translate(t, 0x1000, Jalr(1, 1, 0))
	//
	if !fragment.Terminal {
		t.Fatalf("jalr must be terminal")
	}
	//
	if _, ok := fragment.Code[0].(gen.SetPc); !ok {
		t.Errorf("expected pc assignment first, got %T", fragment.Code[0])
	}
	//
	if _, ok := fragment.Code[1].(gen.SetReg); !ok {
		t.Errorf("expected link write second, got %T", fragment.Code[1])
	}
	//
	if _, ok := fragment.Code[2].(gen.ReturnDispatch); !ok {
		t.Errorf("expected dispatching return last, got %T", fragment.Code[2])
	}
}

func Test_Translate_04(t *testing.T) {
	// branches produce a two-way conditional, each arm transferring control
	fragment := translate(t, 0x1000, Beq(1, 2, 8))
	//
	if !fragment.Terminal || len(fragment.Code) != 1 {
		t.Fatalf("branch must be a single terminal conditional")
	}
	//
	cond, ok := fragment.Code[0].(gen.If)
	if !ok {
		t.Fatalf("expected a conditional, got %T", fragment.Code[0])
	}
	//
	check_Transfer(t, cond.Then, 0x1008)
	check_Transfer(t, cond.Else, 0x1004)
}

func Test_Translate_05(t *testing.T) {
	// ecall advances the pc past itself before delegating
	fragment := translate(t, 0x1000, Ecall())
	//
	if !fragment.Terminal {
		t.Fatalf("ecall must be terminal")
	}
	//
	setpc, ok := fragment.Code[0].(gen.SetPc)
	if !ok {
		t.Fatalf("expected pc assignment first")
	}
	//
	if imm, ok := setpc.Target.(gen.Imm); !ok || imm.Value != 0x1004 {
		t.Errorf("ecall should set pc to 0x1004")
	}
	//
	if _, ok := fragment.Code[1].(gen.ReturnEcall); !ok {
		t.Errorf("expected ecall return, got %T", fragment.Code[1])
	}
}

func Test_Translate_06(t *testing.T) {
	// unimp traps
	fragment := translate(t, 0x1000, Unimp())
	//
	if !fragment.Terminal || len(fragment.Code) != 1 {
		t.Fatalf("unimp must be a single terminal statement")
	}
	//
	if _, ok := fragment.Code[0].(gen.Trap); !ok {
		t.Errorf("expected a trap, got %T", fragment.Code[0])
	}
}

func Test_Translate_07(t *testing.T) {
	// fence is a no-op on a single-threaded core
	fragment := translate(t, 0x1000, EncI(0x0f, 0x0, 0, 0, 0))
	//
	if fragment.Terminal || len(fragment.Code) != 0 {
		t.Errorf("fence should translate to nothing")
	}
}

func Test_Translate_08(t *testing.T) {
	// unknown encodings must be refused outright
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on unknown instruction")
		}
	}()
	//
	translate(t, 0x1000, 0xffffffff)
}

// ===================================================================
// Test Helpers
// ===================================================================

func translate(t *testing.T, pc uint32, word uint32) Fragment {
	t.Helper()
	//
	leaders := NewLeaderSet(pc)
	//
	return StdTranslator{}.Translate(pc, Decode(word), leaders)
}

func check_Transfer(t *testing.T, stmts []gen.Stmt, target uint32) {
	t.Helper()
	//
	if len(stmts) != 2 {
		t.Fatalf("expected a two-statement transfer, got %d statements", len(stmts))
	}
	//
	setpc, ok := stmts[0].(gen.SetPc)
	if !ok {
		t.Fatalf("expected pc assignment, got %T", stmts[0])
	}
	//
	if imm, ok := setpc.Target.(gen.Imm); !ok || imm.Value != target {
		t.Errorf("expected pc := 0x%x", target)
	}
	//
	ret, ok := stmts[1].(gen.ReturnDirect)
	if !ok || ret.Pc != target {
		t.Errorf("expected direct transfer to 0x%x", target)
	}
}
