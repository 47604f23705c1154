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
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/bavard"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-rvaot/pkg/aot/gen"
	"github.com/consensys/go-rvaot/pkg/rv"
)

const copyrightHolder = "Consensys Software Inc."

// rtImport is the runtime package every emitted unit depends upon.
const rtImport = "github.com/consensys/go-rvaot/pkg/rt"

// Emit writes one compilation unit per chunk plus the top-level dispatch unit
// below a given directory, along with the metrics artifact when enabled.
func (p *Compiler) Emit(artifact *Artifact, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	//
	for i := range artifact.Chunks {
		if err := p.emitChunk(&artifact.Chunks[i], dir); err != nil {
			return fmt.Errorf("emitting chunk %d: %w", artifact.Chunks[i].Index, err)
		}
	}
	//
	if err := p.emitDispatch(artifact, dir); err != nil {
		return fmt.Errorf("emitting dispatch unit: %w", err)
	}
	//
	if artifact.Metrics != nil {
		if err := writeMetrics(artifact.Metrics, filepath.Join(dir, "metrics.json")); err != nil {
			return err
		}
	}
	//
	log.Infof("emitted %d chunk units to %s", len(artifact.Chunks), dir)
	//
	return nil
}

type chunkTmplData struct {
	PcMin, PcMax string
	NeedErrors   bool
	RtImport     string
	LookupDecls  string
	LookupBody   string
	Functions    []funcTmplData
}

type funcTmplData struct {
	Name      string
	InsnCount uint
	Body      string
}

func (p *Compiler) emitChunk(chunk *CompiledChunk, dir string) error {
	var (
		pkg  = gen.ChunkPackage(chunk.Index)
		path = filepath.Join(dir, pkg)
		data = chunkTmplData{
			PcMin:       fmt.Sprintf("0x%x", chunk.PcMin),
			PcMax:       fmt.Sprintf("0x%x", chunk.PcMax),
			RtImport:    rtImport,
			LookupDecls: chunk.Strategy.RenderDecls(),
			LookupBody:  chunk.Strategy.RenderBody(),
		}
	)
	//
	for _, fn := range chunk.Funcs {
		renderer := gen.Renderer{}
		//
		data.Functions = append(data.Functions, funcTmplData{
			Name:      fn.Name,
			InsnCount: fn.InsnCount,
			Body:      renderer.RenderBody(fn.Body, "\t"),
		})
		//
		data.NeedErrors = data.NeedErrors || gen.HasTrap(fn.Body)
	}
	//
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	//
	return bavard.GenerateFromString(filepath.Join(path, "chunk.go"), []string{chunkTemplate}, data,
		bavard.Apache2(copyrightHolder, 2025),
		bavard.Package(pkg),
		bavard.GeneratedBy("go-rvaot"))
}

type dispatchTmplData struct {
	Digest     string
	PcMin      string
	PageShift  uint
	RtImport   string
	ImportPath string
	Chunks     []dispatchChunkTmplData
	PageHints  []uint32
}

type dispatchChunkTmplData struct {
	Package      string
	PcMin, PcMax string
}

func (p *Compiler) emitDispatch(artifact *Artifact, dir string) error {
	data := dispatchTmplData{
		Digest:     ProgramDigest(artifact.Program),
		PcMin:      fmt.Sprintf("0x%x", artifact.Dispatch.PcMin),
		PageShift:  artifact.Dispatch.PageShift,
		RtImport:   rtImport,
		ImportPath: p.cfg.ImportPath,
		PageHints:  artifact.Dispatch.PageHints,
	}
	//
	for i, r := range artifact.Dispatch.Chunks {
		data.Chunks = append(data.Chunks, dispatchChunkTmplData{
			Package: gen.ChunkPackage(uint(i)),
			PcMin:   fmt.Sprintf("0x%x", r.PcMin),
			PcMax:   fmt.Sprintf("0x%x", r.PcMax),
		})
	}
	//
	path := filepath.Join(dir, "dispatch")
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	//
	return bavard.GenerateFromString(filepath.Join(path, "dispatch.go"), []string{dispatchTemplate}, data,
		bavard.Apache2(copyrightHolder, 2025),
		bavard.Package("dispatch"),
		bavard.GeneratedBy("go-rvaot"))
}

func writeMetrics(metrics *ProgramMetrics, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	//
	defer file.Close()
	//
	return metrics.WriteJson(file)
}

// ProgramDigest commits to the instruction stream the units were compiled
// from, so a loader can verify that compiled units and program match.  MiMC
// is used since the digest may later be recomputed in-circuit; each 32-byte
// block carries one instruction word (or the base address) in its low bytes,
// hence always lies below the field modulus.
func ProgramDigest(program rv.Program) string {
	var (
		hasher = mimc.NewMiMC()
		block  [32]byte
	)
	//
	binary.BigEndian.PutUint32(block[28:], program.Base)
	hasher.Write(block[:])
	//
	for _, insn := range program.Code {
		binary.BigEndian.PutUint32(block[28:], insn.Word)
		hasher.Write(block[:])
	}
	//
	return "0x" + hex.EncodeToString(hasher.Sum(nil))
}

// ============================================================================
// Templates
// ============================================================================

const chunkTemplate = `
{{- if .NeedErrors}}
import (
	"errors"

	"{{.RtImport}}"
)
{{- else}}
import (
	"{{.RtImport}}"
)
{{- end}}

// PcMin and PcMax delimit the address range covered by this chunk.
const (
	PcMin uint32 = {{.PcMin}}
	PcMax uint32 = {{.PcMax}}
)

{{.LookupDecls}}
// Lookup resolves an address to its compiled function, or nil if the address
// is not a block entry of this chunk.  A nil result means the address must be
// resolved dynamically via the global dispatcher.
func Lookup(pc uint32) rt.BlockFn {
{{.LookupBody}}}
{{range .Functions}}
func {{.Name}}(c rt.Core) (rt.NextStep, error) {
	if !c.CanFit({{.InsnCount}}) || c.Unconstrained() {
		return c.Interpret()
	}
{{.Body}}}
{{end}}
`

const dispatchTemplate = `
import (
{{- range .Chunks}}
	"{{$.ImportPath}}/{{.Package}}"
{{- end}}

	"{{.RtImport}}"
)

// ProgramDigest commits to the instruction stream these units were compiled
// from.
const ProgramDigest = "{{.Digest}}"

// Table maps any program counter to the chunk owning it, in effectively
// constant time via the page-hint index.
var Table = rt.DispatchTable{
	PcMin:     {{.PcMin}},
	PageShift: {{.PageShift}},
	Chunks: []rt.ChunkDescriptor{
{{- range .Chunks}}
		{PcMin: {{.PcMin}}, PcMax: {{.PcMax}}, Lookup: {{.Package}}.Lookup},
{{- end}}
	},
	PageHints: []uint32{
{{- range .PageHints}}
		{{.}},
{{- end}}
	},
}

// Run drives execution against a given core until it halts, yields or fails.
func Run(c rt.Core) error {
	return rt.Run(c, &Table)
}
`
