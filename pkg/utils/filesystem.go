// Copyright 2025 Kadir Pekel
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

// Package utils provides filesystem helpers shared by the CLI and the
// agent runtime.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDanaDir ensures the .dana directory exists under homeDir, creating
// it (and any missing parents, e.g. .dana/chats) if absent. Returns the
// full path to .dana.
//
// Used for:
// - the REPL history file: {homeDir}/.dana_history
// - per-agent conversation memory: {homeDir}/.dana/chats/<type>_conversation.json
func EnsureDanaDir(homeDir string) (string, error) {
	var danaDir string
	if homeDir == "" || homeDir == "." {
		danaDir = ".dana"
	} else {
		danaDir = filepath.Join(homeDir, ".dana")
	}

	if err := os.MkdirAll(filepath.Join(danaDir, "chats"), 0755); err != nil {
		return "", fmt.Errorf("failed to create .dana directory at '%s': %w", danaDir, err)
	}

	return danaDir, nil
}
