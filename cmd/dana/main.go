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

// Command dana is the CLI for the Dana language runtime.
//
// Usage:
//
//	dana repl
//	dana run script.dana
//	dana version
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/aitomatic/dana/pkg/config"
	"github.com/aitomatic/dana/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Repl    ReplCmd    `cmd:"" default:"1" help:"Start the interactive REPL."`
	Run     RunCmd     `cmd:"" help:"Execute a .dana script file."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config   string `short:"c" help:"Path to a YAML config file." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)."`
}

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("dana"),
		kong.Description("Interpreter and REPL for the Dana agent-programming language."),
		kong.UsageOnError(),
	)

	settings, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dana: config error: %v\n", err)
		os.Exit(1)
	}
	if cli.LogLevel != "" {
		settings.LogLevel = cli.LogLevel
	}
	level, _ := logger.ParseLevel(settings.LogLevel)
	logger.Init(level, os.Stderr)

	go func() {
		<-sigCh
		logger.Get().Info("interrupted, shutting down")
		os.Exit(130)
	}()

	if err := kctx.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "dana: %v\n", err)
		os.Exit(1)
	}
}
