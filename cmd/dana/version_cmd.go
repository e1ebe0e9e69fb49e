package main

import (
	"fmt"
	"runtime/debug"

	"github.com/aitomatic/dana/pkg/config"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(_ config.Settings) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("dana %s\n", version)
	return nil
}
