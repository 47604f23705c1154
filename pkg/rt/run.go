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

// Run drives execution of a compiled program against a given core, starting
// from the core's current program counter.  Each iteration executes exactly
// one compiled block (or superblock, or one interpreted run when no compiled
// function covers the address) and then chains on its NextStep.  The yield
// condition is checked before every step, so the driver can suspend execution
// at proof-segment boundaries; no suspension ever happens mid-block.
func Run(c Core, table *DispatchTable) error {
	var (
		step = Dynamic(c.Pc())
		err  error
	)
	//
	for step.Kind() != StepHalt {
		if c.ShouldYield() {
			return nil
		}
		//
		switch step.Kind() {
		case StepDirect:
			step, err = step.Fn()(c)
		case StepDynamic:
			c.SetPc(step.Pc())
			// Resolve through the dispatcher, falling back to the
			// interpreter for addresses outside every chunk.
			if fn := table.LookupBlock(step.Pc()); fn != nil {
				step, err = fn(c)
			} else {
				step, err = c.Interpret()
			}
		}
		//
		if err != nil {
			return err
		}
	}
	//
	return nil
}
