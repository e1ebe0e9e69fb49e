package main

import (
	"os"
	"path/filepath"

	"github.com/aitomatic/dana/pkg/config"
	"github.com/aitomatic/dana/pkg/repl"
	"github.com/aitomatic/dana/pkg/transcoder"
)

// ReplCmd starts the interactive REPL (spec §4.5), the CLI's default
// command when invoked with no subcommand.
type ReplCmd struct{}

func (c *ReplCmd) Run(settings config.Settings) error {
	ctx, err := buildContext(settings)
	if err != nil {
		return err
	}

	historyPath := settings.HistoryPath
	if historyPath == "" {
		historyPath = filepath.Join(config.HomeDir(), ".dana_history")
	}
	history := repl.LoadHistory(historyPath, settings.HistoryMaxLines)

	trans := transcoder.New(ctx.Resources, repl.ParseFuncFor())

	r := repl.New(os.Stdin, os.Stdout, ctx, history, trans)
	return r.Run()
}
