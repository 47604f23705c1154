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

// Renderer translates code fragments into Go source.  A renderer is stateful
// only to allocate unique names for the temporaries introduced by Load
// statements; temporaries are scoped to one function body, so a fresh
// renderer is used per emitted function.
type Renderer struct {
	temps uint
}

// RenderBody renders a fragment as the body of an emitted function, indented
// by the given prefix (one tab per nesting level).
func (p *Renderer) RenderBody(stmts []Stmt, indent string) string {
	var builder strings.Builder
	//
	for _, s := range stmts {
		p.renderStmt(&builder, s, indent)
	}
	//
	return builder.String()
}

func (p *Renderer) renderStmt(builder *strings.Builder, stmt Stmt, indent string) {
	switch s := stmt.(type) {
	case SetReg:
		fmt.Fprintf(builder, "%sc.SetReg(%d, %s)\n", indent, s.Index, s.Value.String())
	case SetPc:
		fmt.Fprintf(builder, "%sc.SetPc(%s)\n", indent, s.Target.String())
	case BumpClock:
		fmt.Fprintf(builder, "%sc.BumpClock(%d)\n", indent, s.Count)
	case AddMemEvents:
		fmt.Fprintf(builder, "%sc.AddMemEvents(%d)\n", indent, s.Count)
	case CheckBoundary:
		fmt.Fprintf(builder, "%sc.CheckChunkBoundary()\n", indent)
	case Load:
		p.renderLoad(builder, s, indent)
	case Store:
		fmt.Fprintf(builder, "%sif err := c.Store%s(%s, %s); err != nil {\n",
			indent, s.Width, s.Addr.String(), s.Value.String())
		fmt.Fprintf(builder, "%s\treturn rt.Halt(), err\n%s}\n", indent, indent)
	case If:
		fmt.Fprintf(builder, "%sif %s {\n", indent, s.Cond.String())
		builder.WriteString(p.RenderBody(s.Then, indent+"\t"))
		//
		if len(s.Else) > 0 {
			fmt.Fprintf(builder, "%s} else {\n", indent)
			builder.WriteString(p.RenderBody(s.Else, indent+"\t"))
		}
		//
		fmt.Fprintf(builder, "%s}\n", indent)
	case ReturnDirect:
		fmt.Fprintf(builder, "%sreturn rt.Direct(%s), nil\n", indent, s.Name)
	case ReturnDynamic:
		fmt.Fprintf(builder, "%sreturn rt.Dynamic(0x%x), nil\n", indent, s.Pc)
	case ReturnHalt:
		fmt.Fprintf(builder, "%sreturn rt.Halt(), nil\n", indent)
	case ReturnEcall:
		fmt.Fprintf(builder, "%sreturn c.Ecall()\n", indent)
	case ReturnInterpret:
		fmt.Fprintf(builder, "%sreturn c.Interpret()\n", indent)
	case ReturnDispatch:
		fmt.Fprintf(builder, "%sreturn rt.Dynamic(c.Pc()), nil\n", indent)
	case Trap:
		fmt.Fprintf(builder, "%sreturn rt.Halt(), errors.New(%q)\n", indent, s.Msg)
	default:
		panic(fmt.Sprintf("unknown statement %T", stmt))
	}
}

func (p *Renderer) renderLoad(builder *strings.Builder, s Load, indent string) {
	tmp := fmt.Sprintf("v%d", p.temps)
	p.temps++
	//
	fmt.Fprintf(builder, "%s%s, err := c.Load%s(%s)\n", indent, tmp, s.Width, s.Addr.String())
	fmt.Fprintf(builder, "%sif err != nil {\n%s\treturn rt.Halt(), err\n%s}\n", indent, indent, indent)
	fmt.Fprintf(builder, "%sc.SetReg(%d, %s)\n", indent, s.Dst, loadConversion(s, tmp))
}

// Sub-word loads are zero extended by the core; signed loads reinterpret the
// low bits before widening again.
func loadConversion(s Load, tmp string) string {
	if !s.Signed {
		return tmp
	}
	//
	switch s.Width {
	case "Byte":
		return fmt.Sprintf("uint32(int32(int8(%s)))", tmp)
	case "Half":
		return fmt.Sprintf("uint32(int32(int16(%s)))", tmp)
	default:
		return tmp
	}
}
