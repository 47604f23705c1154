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

// Opcode identifies a decoded RV32IM instruction.
type Opcode uint8

// Supported RV32IM opcodes.  OpUnknown marks an encoding this compiler does
// not understand; OpUnimp is the canonical trap instruction.
const (
	OpUnknown Opcode = iota
	OpLui
	OpAuipc
	OpJal
	OpJalr
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu
	OpLb
	OpLh
	OpLw
	OpLbu
	OpLhu
	OpSb
	OpSh
	OpSw
	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpFence
	OpEcall
	OpEbreak
	OpUnimp
)

// Class partitions opcodes by their control-flow behaviour, which is what
// block formation and successor computation care about.
type Class uint8

const (
	// ClassOther marks instructions which simply fall through.
	ClassOther Class = iota
	// ClassJump marks unconditional, statically targeted jumps.
	ClassJump
	// ClassIndirect marks register-targeted jumps.
	ClassIndirect
	// ClassBranch marks conditional branches.
	ClassBranch
	// ClassSyscall marks environment calls and breakpoints.
	ClassSyscall
	// ClassTrap marks the unimplemented-instruction trap.
	ClassTrap
)

var opcodeNames = [...]string{
	"unknown", "lui", "auipc", "jal", "jalr",
	"beq", "bne", "blt", "bge", "bltu", "bgeu",
	"lb", "lh", "lw", "lbu", "lhu",
	"sb", "sh", "sw",
	"addi", "slti", "sltiu", "xori", "ori", "andi", "slli", "srli", "srai",
	"add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and",
	"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu",
	"fence", "ecall", "ebreak", "unimp",
}

func (p Opcode) String() string {
	if int(p) < len(opcodeNames) {
		return opcodeNames[p]
	}
	//
	return "???"
}

// Class returns the control-flow class of this opcode.
func (p Opcode) Class() Class {
	switch p {
	case OpJal:
		return ClassJump
	case OpJalr:
		return ClassIndirect
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		return ClassBranch
	case OpEcall, OpEbreak:
		return ClassSyscall
	case OpUnimp, OpUnknown:
		return ClassTrap
	default:
		return ClassOther
	}
}

// IsTerminal reports whether an instruction of this opcode always ends its
// enclosing block.
func (p Opcode) IsTerminal() bool {
	return p.Class() != ClassOther
}
