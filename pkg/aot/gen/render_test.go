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
package gen

import (
	"strings"
	"testing"
)

func Test_Render_00(t *testing.T) {
	// register write with a binary expression
	check_Render(t, []Stmt{
		SetReg{Index: 3, Value: Bin{Op: "+", Lhs: Reg{Index: 1}, Rhs: Imm{Value: 0x10}}},
	},
		"c.SetReg(3, (c.Reg(1) + 0x10))",
	)
}

func Test_Render_01(t *testing.T) {
	// control-transfer epilogue
	check_Render(t, []Stmt{
		AddMemEvents{Count: 2},
		BumpClock{Count: 3},
		CheckBoundary{},
		SetPc{Target: Imm{Value: 0x1010}},
		ReturnDirect{Name: "fn_00001010", Pc: 0x1010},
	},
		"c.AddMemEvents(2)",
		"c.BumpClock(3)",
		"c.CheckChunkBoundary()",
		"c.SetPc(0x1010)",
		"return rt.Direct(fn_00001010), nil",
	)
}

func Test_Render_02(t *testing.T) {
	// loads allocate distinct temporaries and propagate errors
	body := render(t, []Stmt{
		Load{Width: "Word", Dst: 5, Addr: Reg{Index: 2}},
		Load{Width: "Word", Dst: 6, Addr: Reg{Index: 3}},
	})
	//
	check_Contains(t, body,
		"v0, err := c.LoadWord(c.Reg(2))",
		"v1, err := c.LoadWord(c.Reg(3))",
		"return rt.Halt(), err",
		"c.SetReg(5, v0)",
		"c.SetReg(6, v1)",
	)
}

func Test_Render_03(t *testing.T) {
	// signed sub-word loads reinterpret before widening
	body := render(t, []Stmt{
		Load{Width: "Byte", Signed: true, Dst: 4, Addr: Reg{Index: 1}},
		Load{Width: "Half", Signed: true, Dst: 5, Addr: Reg{Index: 1}},
	})
	//
	check_Contains(t, body,
		"c.SetReg(4, uint32(int32(int8(v0))))",
		"c.SetReg(5, uint32(int32(int16(v1))))",
	)
}

func Test_Render_04(t *testing.T) {
	// unsigned sub-word loads keep the zero-extended value
	body := render(t, []Stmt{
		Load{Width: "Byte", Dst: 4, Addr: Reg{Index: 1}},
	})
	//
	check_Contains(t, body, "c.SetReg(4, v0)")
	//
	if strings.Contains(body, "int8") {
		t.Errorf("unsigned load must not sign extend:\n%s", body)
	}
}

func Test_Render_05(t *testing.T) {
	// stores scope their error check
	body := render(t, []Stmt{
		Store{Width: "Half", Addr: Reg{Index: 2}, Value: Reg{Index: 3}},
	})
	//
	check_Contains(t, body,
		"if err := c.StoreHalf(c.Reg(2), c.Reg(3)); err != nil {",
		"return rt.Halt(), err",
	)
}

func Test_Render_06(t *testing.T) {
	// branches indent both arms
	body := render(t, []Stmt{
		If{
			Cond: Bin{Op: "==", Lhs: Reg{Index: 1}, Rhs: Reg{Index: 2}},
			Then: []Stmt{ReturnDynamic{Pc: 0x2000}},
			Else: []Stmt{ReturnHalt{}},
		},
	})
	//
	check_Contains(t, body,
		"if (c.Reg(1) == c.Reg(2)) {",
		"\t\treturn rt.Dynamic(0x2000), nil",
		"} else {",
		"\t\treturn rt.Halt(), nil",
	)
}

func Test_Render_07(t *testing.T) {
	// a branch without an else arm renders no else
	body := render(t, []Stmt{
		If{
			Cond: Bin{Op: "!=", Lhs: Reg{Index: 1}, Rhs: Imm{Value: 0}},
			Then: []Stmt{BumpClock{Count: 1}},
		},
	})
	//
	if strings.Contains(body, "else") {
		t.Errorf("unexpected else arm:\n%s", body)
	}
}

func Test_Render_08(t *testing.T) {
	// remaining terminators
	check_Render(t, []Stmt{ReturnEcall{}}, "return c.Ecall()")
	check_Render(t, []Stmt{ReturnInterpret{}}, "return c.Interpret()")
	check_Render(t, []Stmt{ReturnDispatch{}}, "return rt.Dynamic(c.Pc()), nil")
	check_Render(t, []Stmt{Trap{Msg: "unimplemented instruction"}},
		`return rt.Halt(), errors.New("unimplemented instruction")`)
}

func Test_Render_09(t *testing.T) {
	// helper application
	check_Render(t, []Stmt{
		SetReg{Index: 7, Value: Fun{Name: "rt.Mulh", Args: []Expr{Reg{Index: 1}, Reg{Index: 2}}}},
	},
		"c.SetReg(7, rt.Mulh(c.Reg(1), c.Reg(2)))",
	)
}

func Test_Split_00(t *testing.T) {
	stmts := []Stmt{
		SetReg{Index: 1, Value: Imm{Value: 1}},
		BumpClock{Count: 1},
		SetPc{Target: Imm{Value: 0x1004}},
		ReturnDirect{Name: "fn_00001004", Pc: 0x1004},
	}
	//
	body, epilogue, ok := SplitAtSetPc(stmts)
	//
	if !ok || len(body) != 2 || len(epilogue) != 2 {
		t.Fatalf("expected 2+2 split, got %d+%d (%t)", len(body), len(epilogue), ok)
	}
	//
	if _, isSetPc := epilogue[0].(SetPc); !isSetPc {
		t.Errorf("epilogue must start at the pc assignment")
	}
}

func Test_Split_01(t *testing.T) {
	// no top-level SetPc means no split
	stmts := []Stmt{SetReg{Index: 1, Value: Imm{Value: 1}}, ReturnHalt{}}
	//
	body, epilogue, ok := SplitAtSetPc(stmts)
	//
	if ok || len(body) != 2 || epilogue != nil {
		t.Errorf("expected unsplit fragment")
	}
}

func Test_Split_02(t *testing.T) {
	// SetPc nested within a branch arm is not a split point
	stmts := []Stmt{
		If{Cond: Imm{Value: 1}, Then: []Stmt{SetPc{Target: Imm{Value: 0x2000}}}},
		ReturnHalt{},
	}
	//
	if _, _, ok := SplitAtSetPc(stmts); ok {
		t.Errorf("nested pc assignment must not split")
	}
}

func Test_MapReturns_00(t *testing.T) {
	stmts := []Stmt{
		If{
			Cond: Imm{Value: 1},
			Then: []Stmt{ReturnDirect{Name: "fn_00002000", Pc: 0x2000}},
			Else: []Stmt{ReturnDirect{Name: "fn_00003000", Pc: 0x3000}},
		},
	}
	//
	mapped := MapReturns(stmts, func(ret ReturnDirect) Stmt {
		return ReturnDynamic{Pc: ret.Pc}
	})
	//
	nested := mapped[0].(If)
	//
	if _, ok := nested.Then[0].(ReturnDynamic); !ok {
		t.Errorf("then arm not rewritten")
	}
	//
	if _, ok := nested.Else[0].(ReturnDynamic); !ok {
		t.Errorf("else arm not rewritten")
	}
	// original fragment untouched
	if _, ok := stmts[0].(If).Then[0].(ReturnDirect); !ok {
		t.Errorf("rewrite must not mutate its input")
	}
}

func Test_HasTrap_00(t *testing.T) {
	if HasTrap([]Stmt{ReturnHalt{}}) {
		t.Errorf("no trap present")
	}
	//
	if !HasTrap([]Stmt{Trap{Msg: "x"}}) {
		t.Errorf("trap not found")
	}
	//
	nested := []Stmt{If{Cond: Imm{Value: 1}, Else: []Stmt{Trap{Msg: "x"}}}}
	if !HasTrap(nested) {
		t.Errorf("nested trap not found")
	}
}

func Test_Name_00(t *testing.T) {
	if got := BlockName(0x1000); got != "fn_00001000" {
		t.Errorf("unexpected block name %s", got)
	}
	//
	if got := SuperblockName(0x80000000); got != "sb_80000000" {
		t.Errorf("unexpected superblock name %s", got)
	}
	//
	if got := ChunkPackage(7); got != "chunk0007" {
		t.Errorf("unexpected package name %s", got)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func render(t *testing.T, stmts []Stmt) string {
	t.Helper()
	//
	var renderer Renderer
	//
	return renderer.RenderBody(stmts, "\t")
}

// check_Render asserts the rendered body consists of exactly the expected
// lines, each indented by one tab.
func check_Render(t *testing.T, stmts []Stmt, expected ...string) {
	t.Helper()
	//
	body := render(t, stmts)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	//
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(expected), len(lines), body)
	}
	//
	for i := range expected {
		if lines[i] != "\t"+expected[i] {
			t.Errorf("line %d: expected %q, got %q", i, "\t"+expected[i], lines[i])
		}
	}
}

func check_Contains(t *testing.T, body string, fragments ...string) {
	t.Helper()
	//
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			t.Errorf("missing %q in:\n%s", f, body)
		}
	}
}
