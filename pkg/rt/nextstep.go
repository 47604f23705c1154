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

// BlockFn is the signature shared by every compiled block (and superblock)
// function.  A block function executes against a given execution core and
// reports, via its NextStep, where control should go afterwards.
type BlockFn func(Core) (NextStep, error)

// StepKind distinguishes the three possible outcomes of executing a compiled
// block function.
type StepKind uint8

const (
	// StepDirect indicates control continues at a statically known function
	// within the same compilation unit.
	StepDirect StepKind = iota
	// StepDynamic indicates control continues at a given address which must be
	// resolved through the global dispatcher.
	StepDynamic
	// StepHalt indicates the program has terminated.
	StepHalt
)

// NextStep is the control protocol linking compiled block functions with the
// outer run loop.  Every compiled function returns one of three variants:
// Direct (a resolved function pointer), Dynamic (an address requiring
// re-dispatch) or Halt.
type NextStep struct {
	kind StepKind
	fn   BlockFn
	pc   uint32
}

// Direct constructs a step continuing at a statically resolved function.
func Direct(fn BlockFn) NextStep {
	return NextStep{kind: StepDirect, fn: fn}
}

// Dynamic constructs a step continuing at a given address, to be resolved via
// the dispatcher (or, failing that, the interpreter).
func Dynamic(pc uint32) NextStep {
	return NextStep{kind: StepDynamic, pc: pc}
}

// Halt constructs the terminal step.
func Halt() NextStep {
	return NextStep{kind: StepHalt}
}

// Kind returns the variant of this step.
func (p NextStep) Kind() StepKind {
	return p.kind
}

// Fn returns the resolved function of a Direct step.
func (p NextStep) Fn() BlockFn {
	if p.kind != StepDirect {
		panic("not a direct step")
	}
	//
	return p.fn
}

// Pc returns the target address of a Dynamic step.
func (p NextStep) Pc() uint32 {
	if p.kind != StepDynamic {
		panic("not a dynamic step")
	}
	//
	return p.pc
}
