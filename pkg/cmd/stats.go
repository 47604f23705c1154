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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-rvaot/pkg/aot"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] program_file",
	Short: "report chunking statistics for a program image.",
	Long: `Compile a raw RISC-V program image and report how it was partitioned,
	 without emitting any compilation units.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		config := configFromFlags(cmd)
		program := readProgramFile(args[0], GetUint32(cmd, "base"))
		//
		artifact, err := aot.NewCompiler(config).Compile(program, nil)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		printStats(artifact)
	},
}

func printStats(artifact *aot.Artifact) {
	fmt.Printf("%d instructions, %d blocks, %d chunks\n",
		artifact.Program.Len(), len(artifact.Blocks), len(artifact.Chunks))
	fmt.Printf("dispatch: page shift %d, %d page hints\n",
		artifact.Dispatch.PageShift, len(artifact.Dispatch.PageHints))
	fmt.Println()
	//
	var maxBlocks int
	//
	for i := range artifact.Chunks {
		if n := len(artifact.Chunks[i].Blocks); n > maxBlocks {
			maxBlocks = n
		}
	}
	//
	width := terminalWidth()
	//
	fmt.Printf("%5s %10s %10s %7s %7s %12s\n", "chunk", "pc_min", "pc_max", "blocks", "supers", "lookup")
	//
	for i := range artifact.Chunks {
		chunk := &artifact.Chunks[i]
		//
		fmt.Printf("%5d 0x%08x 0x%08x %7d %7d %12s %s\n",
			chunk.Index, chunk.PcMin, chunk.PcMax, len(chunk.Blocks), len(chunk.Superblocks),
			chunk.Strategy.Kind(), histogramBar(len(chunk.Blocks), maxBlocks, width-58))
	}
}

// Determine the width available for the histogram column, falling back to a
// fixed width when stdout is not a terminal.
func terminalWidth() int {
	if term.IsTerminal(0) {
		if width, _, err := term.GetSize(0); err == nil {
			return width
		}
	}
	//
	return 80
}

func histogramBar(n, max, width int) string {
	if max == 0 || width <= 0 {
		return ""
	}
	//
	return strings.Repeat("*", (n*width)/max)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Uint("blocks-per-chunk", 0, "fix the target number of blocks per chunk")
	statsCmd.Flags().Uint("target-chunks", 0, "request a given number of chunks")
	statsCmd.Flags().Uint("max-chunks", 512, "bound the number of chunks produced")
	statsCmd.Flags().Uint32("max-addr-gap", 0x10000, "largest address gap tolerated within one chunk")
	statsCmd.Flags().Uint("max-block-insns", 64, "cap the number of instructions per block")
	statsCmd.Flags().Uint("max-superblock-insns", 256, "cap the number of instructions per superblock")
	statsCmd.Flags().Uint("inline-max", 4, "instruction count at or below which blocks are inline-eligible")
	statsCmd.Flags().Uint("small-match-max", 8, "entry count at or below which small-match lookup is used")
	statsCmd.Flags().Uint32("dense-max-span", 8192, "largest address span for dense-index lookup")
	statsCmd.Flags().Float64("dense-min-density", 0.25, "minimum entry density for dense-index lookup")
	statsCmd.Flags().String("lookup", "", "force a lookup strategy (small-match|dense-index|run-table)")
	statsCmd.Flags().Bool("no-cfg", false, "disable CFG-aware chunk partitioning")
	statsCmd.Flags().Bool("metrics", false, "collect compilation metrics")
	statsCmd.Flags().String("import-path", "aotgen", "import path of the emitted units")
}
