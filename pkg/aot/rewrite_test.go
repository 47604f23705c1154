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
	"testing"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
)

func Test_Rewrite_00(t *testing.T) {
	// transfers to functions within the unit are untouched
	funcs := []EmittedFunc{
		{Name: "fn_00001000", Body: []gen.Stmt{gen.ReturnDirect{Name: "fn_00001004", Pc: 0x1004}}},
		{Name: "fn_00001004", Body: []gen.Stmt{gen.ReturnHalt{}}},
	}
	//
	RewriteCrossChunk(funcs, nil)
	//
	ret, ok := funcs[0].Body[0].(gen.ReturnDirect)
	if !ok || ret.Name != "fn_00001004" {
		t.Errorf("intra-chunk transfer should be preserved")
	}
}

func Test_Rewrite_01(t *testing.T) {
	// transfers leaving the unit are downgraded to dynamic dispatch
	funcs := []EmittedFunc{
		{Name: "fn_00001000", Body: []gen.Stmt{gen.ReturnDirect{Name: "fn_00009000", Pc: 0x9000}}},
	}
	//
	RewriteCrossChunk(funcs, nil)
	//
	ret, ok := funcs[0].Body[0].(gen.ReturnDynamic)
	if !ok || ret.Pc != 0x9000 {
		t.Errorf("cross-chunk transfer should become dynamic, got %T", funcs[0].Body[0])
	}
}

func Test_Rewrite_02(t *testing.T) {
	// transfers to a folded superblock head are redirected to the fused entry
	superblocks := []Superblock{{EntryPc: 0x1004, EntryName: gen.SuperblockName(0x1004)}}
	//
	funcs := []EmittedFunc{
		{Name: "fn_00001000", Body: []gen.Stmt{gen.ReturnDirect{Name: gen.BlockName(0x1004), Pc: 0x1004}}},
		{Name: gen.SuperblockName(0x1004), Pc: 0x1004, Superblock: true, Body: []gen.Stmt{gen.ReturnHalt{}}},
	}
	//
	RewriteCrossChunk(funcs, superblocks)
	//
	ret, ok := funcs[0].Body[0].(gen.ReturnDirect)
	if !ok || ret.Name != gen.SuperblockName(0x1004) {
		t.Errorf("transfer to folded head should be redirected, got %v", funcs[0].Body[0])
	}
}

func Test_Rewrite_03(t *testing.T) {
	// rewriting recurses into conditional arms
	funcs := []EmittedFunc{
		{Name: "fn_00001000", Body: []gen.Stmt{
			gen.If{
				Cond: gen.Imm{Value: 1},
				Then: []gen.Stmt{gen.ReturnDirect{Name: "fn_00009000", Pc: 0x9000}},
				Else: []gen.Stmt{gen.ReturnDirect{Name: "fn_00001000", Pc: 0x1000}},
			},
		}},
	}
	//
	RewriteCrossChunk(funcs, nil)
	//
	cond := funcs[0].Body[0].(gen.If)
	//
	if _, ok := cond.Then[0].(gen.ReturnDynamic); !ok {
		t.Errorf("taken arm should be downgraded")
	}
	//
	if ret, ok := cond.Else[0].(gen.ReturnDirect); !ok || ret.Name != "fn_00001000" {
		t.Errorf("untaken arm should be preserved")
	}
}
