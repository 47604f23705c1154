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

import "fmt"

// Width is the byte width of every instruction (RV32, no compressed
// encodings).
const Width = 4

// Instruction is one decoded instruction.  Instructions are immutable values
// owned by the input program.
type Instruction struct {
	// Word is the raw 32-bit encoding this instruction was decoded from.
	Word uint32
	// Opcode of this instruction.
	Opcode Opcode
	// Rd is the destination register (0..31).
	Rd uint
	// Rs1 is the first source register (0..31).
	Rs1 uint
	// Rs2 is the second source register (0..31).
	Rs2 uint
	// Imm is the (sign extended) immediate operand.
	Imm int32
}

// Target computes the statically known control-transfer target of a jump or
// branch instruction at a given address, returning false for every other
// opcode.
func (p Instruction) Target(pc uint32) (uint32, bool) {
	switch p.Opcode.Class() {
	case ClassJump, ClassBranch:
		return pc + uint32(p.Imm), true
	default:
		return 0, false
	}
}

func (p Instruction) String() string {
	return fmt.Sprintf("%s rd=%d rs1=%d rs2=%d imm=%d", p.Opcode, p.Rd, p.Rs1, p.Rs2, p.Imm)
}

// Decode a single 32-bit instruction word.  Unrecognised encodings decode as
// OpUnknown; whether that is tolerated is the caller's concern (the AOT
// translator refuses them, see Translate).
func Decode(word uint32) Instruction {
	insn := decode(word)
	insn.Word = word
	//
	return insn
}

func decode(word uint32) Instruction {
	var (
		opcode = word & 0x7f
		rd     = uint((word >> 7) & 0x1f)
		funct3 = (word >> 12) & 0x7
		rs1    = uint((word >> 15) & 0x1f)
		rs2    = uint((word >> 20) & 0x1f)
		funct7 = word >> 25
	)
	//
	switch opcode {
	case 0x37:
		return Instruction{Opcode: OpLui, Rd: rd, Imm: immU(word)}
	case 0x17:
		return Instruction{Opcode: OpAuipc, Rd: rd, Imm: immU(word)}
	case 0x6f:
		return Instruction{Opcode: OpJal, Rd: rd, Imm: immJ(word)}
	case 0x67:
		if funct3 == 0 {
			return Instruction{Opcode: OpJalr, Rd: rd, Rs1: rs1, Imm: immI(word)}
		}
	case 0x63:
		return decodeBranch(word, funct3, rs1, rs2)
	case 0x03:
		return decodeLoad(word, funct3, rd, rs1)
	case 0x23:
		return decodeStore(word, funct3, rs1, rs2)
	case 0x13:
		return decodeOpImm(word, funct3, funct7, rd, rs1)
	case 0x33:
		return decodeOp(funct3, funct7, rd, rs1, rs2)
	case 0x0f:
		return Instruction{Opcode: OpFence}
	case 0x73:
		switch word {
		case 0x00000073:
			return Instruction{Opcode: OpEcall}
		case 0x00100073:
			return Instruction{Opcode: OpEbreak}
		case 0xc0001073:
			return Instruction{Opcode: OpUnimp}
		}
	}
	// unimp is conventionally encoded as the all-zero word as well.
	if word == 0 {
		return Instruction{Opcode: OpUnimp}
	}
	//
	return Instruction{Opcode: OpUnknown}
}

func decodeBranch(word, funct3 uint32, rs1, rs2 uint) Instruction {
	var opcodes = [8]Opcode{OpBeq, OpBne, OpUnknown, OpUnknown, OpBlt, OpBge, OpBltu, OpBgeu}
	//
	if op := opcodes[funct3]; op != OpUnknown {
		return Instruction{Opcode: op, Rs1: rs1, Rs2: rs2, Imm: immB(word)}
	}
	//
	return Instruction{Opcode: OpUnknown}
}

func decodeLoad(word, funct3 uint32, rd, rs1 uint) Instruction {
	var opcodes = [8]Opcode{OpLb, OpLh, OpLw, OpUnknown, OpLbu, OpLhu, OpUnknown, OpUnknown}
	//
	if op := opcodes[funct3]; op != OpUnknown {
		return Instruction{Opcode: op, Rd: rd, Rs1: rs1, Imm: immI(word)}
	}
	//
	return Instruction{Opcode: OpUnknown}
}

func decodeStore(word, funct3 uint32, rs1, rs2 uint) Instruction {
	var opcodes = [8]Opcode{OpSb, OpSh, OpSw, OpUnknown, OpUnknown, OpUnknown, OpUnknown, OpUnknown}
	//
	if op := opcodes[funct3]; op != OpUnknown {
		return Instruction{Opcode: op, Rs1: rs1, Rs2: rs2, Imm: immS(word)}
	}
	//
	return Instruction{Opcode: OpUnknown}
}

func decodeOpImm(word, funct3, funct7 uint32, rd, rs1 uint) Instruction {
	var (
		insn  = Instruction{Rd: rd, Rs1: rs1, Imm: immI(word)}
		shamt = int32((word >> 20) & 0x1f)
	)
	//
	switch funct3 {
	case 0x0:
		insn.Opcode = OpAddi
	case 0x2:
		insn.Opcode = OpSlti
	case 0x3:
		insn.Opcode = OpSltiu
	case 0x4:
		insn.Opcode = OpXori
	case 0x6:
		insn.Opcode = OpOri
	case 0x7:
		insn.Opcode = OpAndi
	case 0x1:
		if funct7 == 0x00 {
			insn.Opcode, insn.Imm = OpSlli, shamt
		} else {
			insn.Opcode = OpUnknown
		}
	case 0x5:
		switch funct7 {
		case 0x00:
			insn.Opcode, insn.Imm = OpSrli, shamt
		case 0x20:
			insn.Opcode, insn.Imm = OpSrai, shamt
		default:
			insn.Opcode = OpUnknown
		}
	}
	//
	return insn
}

func decodeOp(funct3, funct7 uint32, rd, rs1, rs2 uint) Instruction {
	var (
		base = [8]Opcode{OpAdd, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpOr, OpAnd}
		alt  = [8]Opcode{OpSub, OpUnknown, OpUnknown, OpUnknown, OpUnknown, OpSra, OpUnknown, OpUnknown}
		muls = [8]Opcode{OpMul, OpMulh, OpMulhsu, OpMulhu, OpDiv, OpDivu, OpRem, OpRemu}
		//
		insn = Instruction{Rd: rd, Rs1: rs1, Rs2: rs2}
	)
	//
	switch funct7 {
	case 0x00:
		insn.Opcode = base[funct3]
	case 0x20:
		insn.Opcode = alt[funct3]
	case 0x01:
		insn.Opcode = muls[funct3]
	default:
		insn.Opcode = OpUnknown
	}
	//
	return insn
}

// ============================================================================
// Immediate extraction
// ============================================================================

func immI(w uint32) int32 {
	return int32(w) >> 20
}

func immS(w uint32) int32 {
	return (int32(w) >> 25 << 5) | int32((w>>7)&0x1f)
}

func immB(w uint32) int32 {
	return (int32(w) >> 31 << 12) |
		int32((w>>7)&0x1)<<11 |
		int32((w>>25)&0x3f)<<5 |
		int32((w>>8)&0xf)<<1
}

func immU(w uint32) int32 {
	return int32(w & 0xfffff000)
}

func immJ(w uint32) int32 {
	return (int32(w) >> 31 << 20) |
		int32((w>>12)&0xff)<<12 |
		int32((w>>20)&0x1)<<11 |
		int32((w>>21)&0x3ff)<<1
}
