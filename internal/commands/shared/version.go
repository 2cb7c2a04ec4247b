// Copyright 2025 The atlasmcp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shared holds state common to all commands: build-time version
// information and global flag values.
package shared

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	configPath string
	jsonOutput bool
)

// SetVersion records build-time version information (called from main).
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// RegisterFlagPointers returns pointers for the global persistent flags.
func RegisterFlagPointers() (jsonFlag *bool, configFlag *string) {
	return &jsonOutput, &configPath
}

// GetJSON reports whether --json output was requested.
func GetJSON() bool {
	return jsonOutput
}

// GetConfigPath returns the --config flag value, possibly empty.
func GetConfigPath() string {
	return configPath
}
