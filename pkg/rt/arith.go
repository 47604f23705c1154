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
package rt

import "math"

// Helpers called from compiled code for the RV32IM operations which do not
// map onto a single Go operator.  Division semantics follow the RISC-V
// specification: division by zero yields all-ones (quotient) or the dividend
// (remainder), and the one signed overflow case wraps.

// Bool32 widens a comparison result to a register value.
func Bool32(b bool) uint32 {
	if b {
		return 1
	}
	//
	return 0
}

// Mulh returns the high word of the signed 64-bit product.
func Mulh(a, b uint32) uint32 {
	return uint32(uint64(int64(int32(a))*int64(int32(b))) >> 32)
}

// Mulhsu returns the high word of the signed-by-unsigned 64-bit product.
func Mulhsu(a, b uint32) uint32 {
	return uint32(uint64(int64(int32(a))*int64(b)) >> 32)
}

// Mulhu returns the high word of the unsigned 64-bit product.
func Mulhu(a, b uint32) uint32 {
	return uint32((uint64(a) * uint64(b)) >> 32)
}

// Div performs signed division.
func Div(a, b uint32) uint32 {
	switch {
	case b == 0:
		return math.MaxUint32
	case a == 0x80000000 && b == math.MaxUint32:
		// MinInt32 / -1 overflows and wraps to itself.
		return a
	default:
		return uint32(int32(a) / int32(b))
	}
}

// Divu performs unsigned division.
func Divu(a, b uint32) uint32 {
	if b == 0 {
		return math.MaxUint32
	}
	//
	return a / b
}

// Rem computes the signed remainder.
func Rem(a, b uint32) uint32 {
	switch {
	case b == 0:
		return a
	case a == 0x80000000 && b == math.MaxUint32:
		return 0
	default:
		return uint32(int32(a) % int32(b))
	}
}

// Remu computes the unsigned remainder.
func Remu(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	//
	return a % b
}
