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
	"fmt"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
)

// Fragment is the translation of a single instruction: a code fragment, a
// flag indicating whether the instruction ends its block, and the number of
// static memory read/write events the instruction contributes (batched by the
// block builder rather than recorded per instruction).
type Fragment struct {
	Code      []gen.Stmt
	Terminal  bool
	MemEvents uint
}

// Translator turns one instruction into its code fragment.  The leader set is
// made available so a translator can tell whether a fallthrough address
// begins another block.
type Translator interface {
	Translate(pc uint32, insn Instruction, leaders *LeaderSet) Fragment
}

// StdTranslator is the stock RV32IM translator.  It panics on opcodes it does
// not understand: an ahead-of-time build cannot silently skip instructions.
type StdTranslator struct{}

// Translate implementation for the Translator interface.
func (p StdTranslator) Translate(pc uint32, insn Instruction, leaders *LeaderSet) Fragment {
	var (
		rd  = insn.Rd
		rs1 = gen.Reg{Index: insn.Rs1}
		rs2 = gen.Reg{Index: insn.Rs2}
		imm = gen.Imm{Value: uint32(insn.Imm)}
	)
	//
	switch insn.Opcode {
	case OpLui:
		return assign(rd, imm)
	case OpAuipc:
		return assign(rd, gen.Imm{Value: pc + uint32(insn.Imm)})
	case OpAddi:
		return assign(rd, bin("+", rs1, imm))
	case OpXori:
		return assign(rd, bin("^", rs1, imm))
	case OpOri:
		return assign(rd, bin("|", rs1, imm))
	case OpAndi:
		return assign(rd, bin("&", rs1, imm))
	case OpSlti:
		return assign(rd, bool32(bin("<", signed(rs1), signed(imm))))
	case OpSltiu:
		return assign(rd, bool32(bin("<", rs1, imm)))
	case OpSlli:
		return assign(rd, bin("<<", rs1, imm))
	case OpSrli:
		return assign(rd, bin(">>", rs1, imm))
	case OpSrai:
		return assign(rd, unsigned(bin(">>", signed(rs1), imm)))
	case OpAdd:
		return assign(rd, bin("+", rs1, rs2))
	case OpSub:
		return assign(rd, bin("-", rs1, rs2))
	case OpXor:
		return assign(rd, bin("^", rs1, rs2))
	case OpOr:
		return assign(rd, bin("|", rs1, rs2))
	case OpAnd:
		return assign(rd, bin("&", rs1, rs2))
	case OpSll:
		return assign(rd, bin("<<", rs1, shamt(rs2)))
	case OpSrl:
		return assign(rd, bin(">>", rs1, shamt(rs2)))
	case OpSra:
		return assign(rd, unsigned(bin(">>", signed(rs1), shamt(rs2))))
	case OpSlt:
		return assign(rd, bool32(bin("<", signed(rs1), signed(rs2))))
	case OpSltu:
		return assign(rd, bool32(bin("<", rs1, rs2)))
	case OpMul:
		return assign(rd, bin("*", rs1, rs2))
	case OpMulh:
		return assign(rd, helper("rt.Mulh", rs1, rs2))
	case OpMulhsu:
		return assign(rd, helper("rt.Mulhsu", rs1, rs2))
	case OpMulhu:
		return assign(rd, helper("rt.Mulhu", rs1, rs2))
	case OpDiv:
		return assign(rd, helper("rt.Div", rs1, rs2))
	case OpDivu:
		return assign(rd, helper("rt.Divu", rs1, rs2))
	case OpRem:
		return assign(rd, helper("rt.Rem", rs1, rs2))
	case OpRemu:
		return assign(rd, helper("rt.Remu", rs1, rs2))
	case OpLb:
		return load("Byte", true, rd, rs1, imm)
	case OpLbu:
		return load("Byte", false, rd, rs1, imm)
	case OpLh:
		return load("Half", true, rd, rs1, imm)
	case OpLhu:
		return load("Half", false, rd, rs1, imm)
	case OpLw:
		return load("Word", false, rd, rs1, imm)
	case OpSb:
		return store("Byte", rs1, rs2, imm)
	case OpSh:
		return store("Half", rs1, rs2, imm)
	case OpSw:
		return store("Word", rs1, rs2, imm)
	case OpFence:
		// Memory ordering is trivial on a single-threaded core.
		return Fragment{}
	case OpJal:
		return translateJal(pc, insn)
	case OpJalr:
		return translateJalr(pc, insn)
	case OpBeq:
		return branch(pc, insn, bin("==", rs1, rs2))
	case OpBne:
		return branch(pc, insn, bin("!=", rs1, rs2))
	case OpBlt:
		return branch(pc, insn, bin("<", signed(rs1), signed(rs2)))
	case OpBge:
		return branch(pc, insn, bin(">=", signed(rs1), signed(rs2)))
	case OpBltu:
		return branch(pc, insn, bin("<", rs1, rs2))
	case OpBgeu:
		return branch(pc, insn, bin(">=", rs1, rs2))
	case OpEcall:
		return Fragment{
			Code:     []gen.Stmt{gen.SetPc{Target: gen.Imm{Value: pc + Width}}, gen.ReturnEcall{}},
			Terminal: true,
		}
	case OpEbreak:
		return Fragment{Code: []gen.Stmt{gen.ReturnHalt{}}, Terminal: true}
	case OpUnimp:
		return Fragment{
			Code:     []gen.Stmt{gen.Trap{Msg: fmt.Sprintf("unimplemented instruction at 0x%08x", pc)}},
			Terminal: true,
		}
	}
	// Unknown encodings are a malformed program, which an AOT build must
	// refuse outright.
	panic(fmt.Sprintf("unsupported instruction 0x%08x: %s", pc, insn))
}

func translateJal(pc uint32, insn Instruction) Fragment {
	target := pc + uint32(insn.Imm)
	//
	return Fragment{
		Code: []gen.Stmt{
			gen.SetReg{Index: insn.Rd, Value: gen.Imm{Value: pc + Width}},
			gen.SetPc{Target: gen.Imm{Value: target}},
			gen.ReturnDirect{Name: gen.BlockName(target), Pc: target},
		},
		Terminal: true,
	}
}

func translateJalr(pc uint32, insn Instruction) Fragment {
	// The target is computed before the link write, since rd and rs1 may be
	// the same register.
	target := bin("&", bin("+", gen.Reg{Index: insn.Rs1}, gen.Imm{Value: uint32(insn.Imm)}),
		gen.Imm{Value: 0xfffffffe})
	//
	return Fragment{
		Code: []gen.Stmt{
			gen.SetPc{Target: target},
			gen.SetReg{Index: insn.Rd, Value: gen.Imm{Value: pc + Width}},
			gen.ReturnDispatch{},
		},
		Terminal: true,
	}
}

func branch(pc uint32, insn Instruction, cond gen.Expr) Fragment {
	var (
		taken   = transfer(pc + uint32(insn.Imm))
		untaken = transfer(pc + Width)
	)
	//
	return Fragment{
		Code:     []gen.Stmt{gen.If{Cond: cond, Then: taken, Else: untaken}},
		Terminal: true,
	}
}

func transfer(target uint32) []gen.Stmt {
	return []gen.Stmt{
		gen.SetPc{Target: gen.Imm{Value: target}},
		gen.ReturnDirect{Name: gen.BlockName(target), Pc: target},
	}
}

// ============================================================================
// Helpers
// ============================================================================

func assign(rd uint, value gen.Expr) Fragment {
	return Fragment{Code: []gen.Stmt{gen.SetReg{Index: rd, Value: value}}}
}

func load(width string, signed bool, rd uint, base, offset gen.Expr) Fragment {
	return Fragment{
		Code:      []gen.Stmt{gen.Load{Width: width, Signed: signed, Dst: rd, Addr: bin("+", base, offset)}},
		MemEvents: 1,
	}
}

func store(width string, base, value, offset gen.Expr) Fragment {
	return Fragment{
		Code:      []gen.Stmt{gen.Store{Width: width, Addr: bin("+", base, offset), Value: value}},
		MemEvents: 1,
	}
}

func bin(op string, lhs, rhs gen.Expr) gen.Expr {
	return gen.Bin{Op: op, Lhs: lhs, Rhs: rhs}
}

func helper(name string, args ...gen.Expr) gen.Expr {
	return gen.Fun{Name: name, Args: args}
}

func signed(e gen.Expr) gen.Expr {
	return gen.Fun{Name: "int32", Args: []gen.Expr{e}}
}

func unsigned(e gen.Expr) gen.Expr {
	return gen.Fun{Name: "uint32", Args: []gen.Expr{e}}
}

func bool32(e gen.Expr) gen.Expr {
	return gen.Fun{Name: "rt.Bool32", Args: []gen.Expr{e}}
}

func shamt(e gen.Expr) gen.Expr {
	return bin("&", e, gen.Imm{Value: 31})
}
