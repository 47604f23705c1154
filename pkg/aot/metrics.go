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
	"encoding/json"
	"io"
	"os"

	"github.com/consensys/go-rvaot/pkg/rv"
)

// MetricsEnv enables metrics collection when set (in addition to the Metrics
// configuration flag).
const MetricsEnv = "RVAOT_METRICS"

// MetricsEnabled determines whether the statistics artifact should be
// collected.
func MetricsEnabled(cfg Config) bool {
	return cfg.Metrics || os.Getenv(MetricsEnv) != ""
}

// ChunkMetrics records per-chunk statistics.
type ChunkMetrics struct {
	Index       uint    `json:"index"`
	PcMin       uint32  `json:"pc_min"`
	PcMax       uint32  `json:"pc_max"`
	Blocks      uint    `json:"blocks"`
	Insns       uint    `json:"insns"`
	Superblocks uint    `json:"superblocks"`
	Strategy    string  `json:"strategy"`
	Density     float64 `json:"density"`
}

// ProgramMetrics records program-level statistics along with the per-chunk
// breakdown.
type ProgramMetrics struct {
	Insns          uint           `json:"insns"`
	Blocks         uint           `json:"blocks"`
	TerminalBlocks uint           `json:"terminal_blocks"`
	Chunks         []ChunkMetrics `json:"chunks"`
}

func collectMetrics(artifact *Artifact) *ProgramMetrics {
	metrics := &ProgramMetrics{Insns: artifact.Program.Len(), Blocks: uint(len(artifact.Blocks))}
	//
	for _, b := range artifact.Blocks {
		if b.Terminal {
			metrics.TerminalBlocks++
		}
	}
	//
	for _, c := range artifact.Chunks {
		var insns uint
		//
		for _, b := range c.Blocks {
			insns += b.InsnCount
		}
		//
		span := uint32(c.PcMax-c.PcMin)/rv.Width + 1
		//
		metrics.Chunks = append(metrics.Chunks, ChunkMetrics{
			Index:       c.Index,
			PcMin:       c.PcMin,
			PcMax:       c.PcMax,
			Blocks:      uint(len(c.Blocks)),
			Insns:       insns,
			Superblocks: uint(len(c.Superblocks)),
			Strategy:    c.Strategy.Kind().String(),
			Density:     float64(len(c.Blocks)) / float64(span),
		})
	}
	//
	return metrics
}

// WriteJson serialises the metrics artifact.
func (p *ProgramMetrics) WriteJson(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	//
	return encoder.Encode(p)
}
