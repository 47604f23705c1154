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

	"github.com/consensys/go-rvaot/pkg/aot"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] program_file",
	Short: "compile a program image into native compilation units.",
	Long: `Compile a raw RISC-V program image into one Go compilation unit per chunk,
	 plus a dispatch unit mapping addresses to their compiled blocks.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		config := configFromFlags(cmd)
		output := GetString(cmd, "output")
		// Parse program image
		program := readProgramFile(args[0], GetUint32(cmd, "base"))
		// Compile into chunks
		compiler := aot.NewCompiler(config)
		//
		artifact, err := compiler.Compile(program, nil)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		// Emit compilation units
		if err := compiler.Emit(artifact, output); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// Construct a compiler configuration from the command-line flags, starting
// from the stock tuning.
func configFromFlags(cmd *cobra.Command) aot.Config {
	config := aot.DefaultConfig()
	//
	config.BlocksPerChunk = GetUint(cmd, "blocks-per-chunk")
	config.TargetChunks = GetUint(cmd, "target-chunks")
	config.MaxChunks = GetUint(cmd, "max-chunks")
	config.MaxAddrGap = GetUint32(cmd, "max-addr-gap")
	config.MaxBlockInsns = GetUint(cmd, "max-block-insns")
	config.MaxSuperblockInsns = GetUint(cmd, "max-superblock-insns")
	config.BlockInlineMax = GetUint(cmd, "inline-max")
	config.SmallMatchMax = GetUint(cmd, "small-match-max")
	config.DenseMaxSpan = GetUint32(cmd, "dense-max-span")
	config.DenseMinDensity = GetFloat(cmd, "dense-min-density")
	config.CFGChunking = !GetFlag(cmd, "no-cfg")
	config.Metrics = config.Metrics || GetFlag(cmd, "metrics")
	config.ImportPath = GetString(cmd, "import-path")
	//
	if strategy := GetString(cmd, "lookup"); strategy != "" {
		kind, err := aot.ParseStrategy(strategy)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		config.ForceStrategy = kind
	}
	//
	return config
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "aotgen", "specify output directory.")
	compileCmd.Flags().String("import-path", "aotgen", "import path of the emitted units")
	compileCmd.Flags().Uint("blocks-per-chunk", 0, "fix the target number of blocks per chunk")
	compileCmd.Flags().Uint("target-chunks", 0, "request a given number of chunks")
	compileCmd.Flags().Uint("max-chunks", 512, "bound the number of chunks produced")
	compileCmd.Flags().Uint32("max-addr-gap", 0x10000, "largest address gap tolerated within one chunk")
	compileCmd.Flags().Uint("max-block-insns", 64, "cap the number of instructions per block")
	compileCmd.Flags().Uint("max-superblock-insns", 256, "cap the number of instructions per superblock")
	compileCmd.Flags().Uint("inline-max", 4, "instruction count at or below which blocks are inline-eligible")
	compileCmd.Flags().Uint("small-match-max", 8, "entry count at or below which small-match lookup is used")
	compileCmd.Flags().Uint32("dense-max-span", 8192, "largest address span for dense-index lookup")
	compileCmd.Flags().Float64("dense-min-density", 0.25, "minimum entry density for dense-index lookup")
	compileCmd.Flags().String("lookup", "", "force a lookup strategy (small-match|dense-index|run-table)")
	compileCmd.Flags().Bool("no-cfg", false, "disable CFG-aware chunk partitioning")
	compileCmd.Flags().Bool("metrics", false, "write compilation metrics alongside the units")
}
