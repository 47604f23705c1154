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

// Instruction encoders, used for constructing test programs and by tooling.
// Each encoder produces one 32-bit instruction word accepted by Decode.

// EncR encodes an R-type instruction.
func EncR(opcode, funct3, funct7 uint32, rd, rs1, rs2 uint) uint32 {
	return (funct7 << 25) | uint32(rs2)<<20 | uint32(rs1)<<15 | (funct3 << 12) | uint32(rd)<<7 | opcode
}

// EncI encodes an I-type instruction.
func EncI(opcode, funct3 uint32, rd, rs1 uint, imm int32) uint32 {
	return uint32(imm&0xfff)<<20 | uint32(rs1)<<15 | (funct3 << 12) | uint32(rd)<<7 | opcode
}

// EncS encodes an S-type instruction.
func EncS(opcode, funct3 uint32, rs1, rs2 uint, imm int32) uint32 {
	u := uint32(imm & 0xfff)
	//
	return (u>>5)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | (funct3 << 12) | (u&0x1f)<<7 | opcode
}

// EncB encodes a B-type instruction.
func EncB(opcode, funct3 uint32, rs1, rs2 uint, imm int32) uint32 {
	u := uint32(imm)
	//
	return ((u>>12)&0x1)<<31 | ((u>>5)&0x3f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		(funct3 << 12) | ((u>>1)&0xf)<<8 | ((u>>11)&0x1)<<7 | opcode
}

// EncU encodes a U-type instruction.
func EncU(opcode uint32, rd uint, imm uint32) uint32 {
	return (imm & 0xfffff000) | uint32(rd)<<7 | opcode
}

// EncJ encodes a J-type instruction.
func EncJ(opcode uint32, rd uint, imm int32) uint32 {
	u := uint32(imm)
	//
	return ((u>>20)&0x1)<<31 | ((u>>1)&0x3ff)<<21 | ((u>>11)&0x1)<<20 | ((u>>12)&0xff)<<12 |
		uint32(rd)<<7 | opcode
}

// ============================================================================
// Mnemonics
// ============================================================================

// Addi encodes "addi rd, rs1, imm".
func Addi(rd, rs1 uint, imm int32) uint32 {
	return EncI(0x13, 0x0, rd, rs1, imm)
}

// Add encodes "add rd, rs1, rs2".
func Add(rd, rs1, rs2 uint) uint32 {
	return EncR(0x33, 0x0, 0x00, rd, rs1, rs2)
}

// Sub encodes "sub rd, rs1, rs2".
func Sub(rd, rs1, rs2 uint) uint32 {
	return EncR(0x33, 0x0, 0x20, rd, rs1, rs2)
}

// Mul encodes "mul rd, rs1, rs2".
func Mul(rd, rs1, rs2 uint) uint32 {
	return EncR(0x33, 0x0, 0x01, rd, rs1, rs2)
}

// Div encodes "div rd, rs1, rs2".
func Div(rd, rs1, rs2 uint) uint32 {
	return EncR(0x33, 0x4, 0x01, rd, rs1, rs2)
}

// Lui encodes "lui rd, imm" (imm taken as the final register value).
func Lui(rd uint, imm uint32) uint32 {
	return EncU(0x37, rd, imm)
}

// Jal encodes "jal rd, offset".
func Jal(rd uint, offset int32) uint32 {
	return EncJ(0x6f, rd, offset)
}

// Jalr encodes "jalr rd, rs1, imm".
func Jalr(rd, rs1 uint, imm int32) uint32 {
	return EncI(0x67, 0x0, rd, rs1, imm)
}

// Beq encodes "beq rs1, rs2, offset".
func Beq(rs1, rs2 uint, offset int32) uint32 {
	return EncB(0x63, 0x0, rs1, rs2, offset)
}

// Bne encodes "bne rs1, rs2, offset".
func Bne(rs1, rs2 uint, offset int32) uint32 {
	return EncB(0x63, 0x1, rs1, rs2, offset)
}

// Blt encodes "blt rs1, rs2, offset".
func Blt(rs1, rs2 uint, offset int32) uint32 {
	return EncB(0x63, 0x4, rs1, rs2, offset)
}

// Lw encodes "lw rd, imm(rs1)".
func Lw(rd, rs1 uint, imm int32) uint32 {
	return EncI(0x03, 0x2, rd, rs1, imm)
}

// Lb encodes "lb rd, imm(rs1)".
func Lb(rd, rs1 uint, imm int32) uint32 {
	return EncI(0x03, 0x0, rd, rs1, imm)
}

// Sw encodes "sw rs2, imm(rs1)".
func Sw(rs1, rs2 uint, imm int32) uint32 {
	return EncS(0x23, 0x2, rs1, rs2, imm)
}

// Ecall encodes "ecall".
func Ecall() uint32 {
	return 0x00000073
}

// Ebreak encodes "ebreak".
func Ebreak() uint32 {
	return 0x00100073
}

// Unimp encodes the canonical "unimp" word.
func Unimp() uint32 {
	return 0xc0001073
}
