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

// Stmt represents one statement within an emitted code fragment.  Fragments
// are assembled structurally (never by textual splicing) so that later passes,
// such as stripping a block's control-transfer epilogue during superblock
// fusion, are slices over statements.
type Stmt interface {
	isStmt()
}

// SetReg writes a tracked register of the execution core.
type SetReg struct {
	Index uint
	Value Expr
}

// SetPc assigns the reserved virtual program counter field.  This statement
// doubles as the structural marker for the start of a block's control-transfer
// epilogue: everything from the first SetPc onwards is the epilogue.
type SetPc struct {
	Target Expr
}

// BumpClock advances the execution clock by a given instruction count.
type BumpClock struct {
	Count uint
}

// AddMemEvents records a batched count of memory read/write events.
type AddMemEvents struct {
	Count uint
}

// CheckBoundary performs the proof-segment boundary check.
type CheckBoundary struct{}

// Load reads memory into a tracked register, propagating any (alignment)
// error.  Width is one of "Byte", "Half" or "Word"; Signed requests sign
// extension of sub-word loads.
type Load struct {
	Width  string
	Signed bool
	Dst    uint
	Addr   Expr
}

// Store writes a tracked register (or other expression) to memory,
// propagating any (alignment) error.  Width is one of "Byte", "Half" or
// "Word".
type Store struct {
	Width string
	Addr  Expr
	Value Expr
}

// If branches on a condition.  Cond must render to a Go boolean expression.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ReturnDirect transfers control to a statically resolved function within the
// same compilation unit.  The literal target address is carried alongside the
// identifier so that the cross-chunk rewriter can downgrade the transfer
// without re-deriving it.
type ReturnDirect struct {
	Name string
	Pc   uint32
}

// ReturnDynamic transfers control to an address which must be re-dispatched.
type ReturnDynamic struct {
	Pc uint32
}

// ReturnHalt terminates the program.
type ReturnHalt struct{}

// ReturnEcall delegates to the core's environment-call handler, returning
// whatever step it produces.
type ReturnEcall struct{}

// ReturnInterpret delegates to the core's per-instruction interpreter,
// returning whatever step it produces.
type ReturnInterpret struct{}

// ReturnDispatch transfers control to whatever address has just been assigned
// to the program counter, forcing a round trip through the global dispatcher.
// This is how register-targeted jumps leave a block.
type ReturnDispatch struct{}

// Trap aborts execution with a program-level error.
type Trap struct {
	Msg string
}

func (SetReg) isStmt()          {}
func (SetPc) isStmt()           {}
func (BumpClock) isStmt()       {}
func (AddMemEvents) isStmt()    {}
func (CheckBoundary) isStmt()   {}
func (Load) isStmt()            {}
func (Store) isStmt()           {}
func (If) isStmt()              {}
func (ReturnDirect) isStmt()    {}
func (ReturnDynamic) isStmt()   {}
func (ReturnHalt) isStmt()      {}
func (ReturnEcall) isStmt()     {}
func (ReturnInterpret) isStmt() {}
func (ReturnDispatch) isStmt()  {}
func (Trap) isStmt()            {}

// SplitAtSetPc splits a fragment at its first top-level SetPc statement,
// returning the leading body and the trailing epilogue.  The third result is
// false if the fragment contains no top-level SetPc, in which case the whole
// fragment is returned as body.
func SplitAtSetPc(stmts []Stmt) ([]Stmt, []Stmt, bool) {
	for i, s := range stmts {
		if _, ok := s.(SetPc); ok {
			return stmts[:i], stmts[i:], true
		}
	}
	//
	return stmts, nil, false
}

// MapReturns rewrites every ReturnDirect statement within a fragment
// (recursing through If branches) via the given function, returning the
// rewritten fragment.  Other statements are preserved as-is.
func MapReturns(stmts []Stmt, fn func(ReturnDirect) Stmt) []Stmt {
	var out []Stmt
	//
	for _, s := range stmts {
		switch s := s.(type) {
		case ReturnDirect:
			out = append(out, fn(s))
		case If:
			out = append(out, If{
				Cond: s.Cond,
				Then: MapReturns(s.Then, fn),
				Else: MapReturns(s.Else, fn),
			})
		default:
			out = append(out, s)
		}
	}
	//
	return out
}

// HasTrap reports whether a fragment contains a Trap statement, recursing
// through If branches.  Used to decide whether the enclosing unit needs the
// errors import.
func HasTrap(stmts []Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case Trap:
			return true
		case If:
			if HasTrap(s.Then) || HasTrap(s.Else) {
				return true
			}
		}
	}
	//
	return false
}

// WalkReturns visits every ReturnDirect statement within a fragment,
// recursing through If branches.
func WalkReturns(stmts []Stmt, fn func(ReturnDirect)) {
	for _, s := range stmts {
		switch s := s.(type) {
		case ReturnDirect:
			fn(s)
		case If:
			WalkReturns(s.Then, fn)
			WalkReturns(s.Else, fn)
		}
	}
}
