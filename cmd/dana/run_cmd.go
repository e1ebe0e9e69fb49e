package main

import (
	"fmt"
	"os"

	"github.com/aitomatic/dana/pkg/config"
	"github.com/aitomatic/dana/pkg/danaerr"
	"github.com/aitomatic/dana/pkg/interp"
	"github.com/aitomatic/dana/pkg/lang/parser"
)

// RunCmd executes a .dana script file non-interactively.
type RunCmd struct {
	File string `arg:"" help:"Path to a .dana source file." type:"path"`
}

func (c *RunCmd) Run(settings config.Settings) error {
	source, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	ctx, err := buildContext(settings)
	if err != nil {
		return err
	}

	result := parser.Parse(string(source))
	if !result.IsValid {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("%s: parse failed", c.File)
	}

	in := interp.New(ctx)
	_, err = in.Execute(result.Program)
	for _, line := range ctx.GetAndClearOutput() {
		fmt.Fprintln(os.Stdout, line)
	}
	if err != nil {
		if de, ok := err.(*danaerr.Error); ok {
			fmt.Fprintln(os.Stderr, de.Display())
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return fmt.Errorf("%s: execution failed", c.File)
	}
	return nil
}
