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

import "fmt"

// BlockName returns the function identifier of the plain block rooted at a
// given address.
func BlockName(pc uint32) string {
	return fmt.Sprintf("fn_%08x", pc)
}

// SuperblockName returns the function identifier of the fused superblock
// whose entry is at a given address.
func SuperblockName(pc uint32) string {
	return fmt.Sprintf("sb_%08x", pc)
}

// ChunkPackage returns the package name of a given chunk's compilation unit.
func ChunkPackage(idx uint) string {
	return fmt.Sprintf("chunk%04d", idx)
}
