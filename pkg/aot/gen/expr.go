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
	"fmt"
	"strings"
)

// Expr represents an expression within an emitted code fragment.  Expressions
// are pure (no register or memory effects) and render to a single Go
// expression over the execution core.
type Expr interface {
	// String renders this expression as Go source.
	String() string
}

// Reg reads a tracked register of the execution core.
type Reg struct {
	Index uint
}

func (p Reg) String() string {
	return fmt.Sprintf("c.Reg(%d)", p.Index)
}

// Imm is a 32-bit literal.
type Imm struct {
	Value uint32
}

func (p Imm) String() string {
	return fmt.Sprintf("0x%x", p.Value)
}

// Bin applies a binary operator.  The operator string is the Go operator
// itself (e.g. "+", "&", "==") and both operands are uint32-typed, so
// comparison results must be consumed by If rather than assigned.
type Bin struct {
	Op       string
	Lhs, Rhs Expr
}

func (p Bin) String() string {
	return fmt.Sprintf("(%s %s %s)", p.Lhs.String(), p.Op, p.Rhs.String())
}

// Fun applies a named helper (e.g. a conversion such as "int32", or one of
// the arithmetic helpers of the runtime package) to its arguments.
type Fun struct {
	Name string
	Args []Expr
}

func (p Fun) String() string {
	var args []string
	//
	for _, a := range p.Args {
		args = append(args, a.String())
	}
	//
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(args, ", "))
}
