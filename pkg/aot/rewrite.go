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
package aot

import (
	"github.com/consensys/go-rvaot/pkg/aot/gen"
)

// RewriteCrossChunk post-processes one chunk's emitted functions.  A direct,
// compile-time-resolved transfer can only name a function defined in the same
// compilation unit, so any direct transfer whose target is absent from the
// chunk's own function set is downgraded to a dynamic, address-based
// transfer; transfers whose target was folded into a superblock are
// redirected to the superblock's entry identifier instead.  This changes only
// the representation of the transfer, never its semantics.
func RewriteCrossChunk(funcs []EmittedFunc, superblocks []Superblock) {
	var (
		exported = make(map[string]bool, len(funcs))
		folded   = make(map[string]string, len(superblocks))
	)
	//
	for _, fn := range funcs {
		exported[fn.Name] = true
	}
	//
	for _, sb := range superblocks {
		folded[gen.BlockName(sb.EntryPc)] = sb.EntryName
	}
	//
	for i := range funcs {
		funcs[i].Body = gen.MapReturns(funcs[i].Body, func(ret gen.ReturnDirect) gen.Stmt {
			switch {
			case folded[ret.Name] != "":
				return gen.ReturnDirect{Name: folded[ret.Name], Pc: ret.Pc}
			case !exported[ret.Name]:
				return gen.ReturnDynamic{Pc: ret.Pc}
			default:
				return ret
			}
		})
	}
}
