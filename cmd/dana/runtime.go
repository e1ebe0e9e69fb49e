package main

import (
	"fmt"

	"github.com/aitomatic/dana/pkg/agent"
	"github.com/aitomatic/dana/pkg/config"
	"github.com/aitomatic/dana/pkg/interp"
	"github.com/aitomatic/dana/pkg/llmres"
	"github.com/aitomatic/dana/pkg/llmres/gemini"
	"github.com/aitomatic/dana/pkg/llmres/mock"
	"github.com/aitomatic/dana/pkg/logger"
	"github.com/aitomatic/dana/pkg/promise"
	"github.com/aitomatic/dana/pkg/utils"
)

// buildContext constructs an interp.Context wired per settings: a
// worker pool for Promise resolution, the mock LLM resource when
// DANA_MOCK_LLM is set, and a Gemini resource when an API key is
// configured. Only one "llm" resource may be registered; mock takes
// precedence when both are configured, since it is the explicit
// opt-in for deterministic testing.
func buildContext(settings config.Settings) (*interp.Context, error) {
	ctx := interp.NewContext()
	if level, err := logger.ParseLevel(settings.LogLevel); err == nil {
		ctx.LogLevel = level
	}
	ctx.MaxSteps = settings.MaxSteps

	homeDir := config.HomeDir()
	if _, err := utils.EnsureDanaDir(homeDir); err != nil {
		return nil, fmt.Errorf("ensure .dana directory: %w", err)
	}

	pool := promise.NewPool(4)
	ctx.AgentEnv = agent.Environment{
		HomeDir:         homeDir,
		Pool:            pool,
		DefaultMaxTurns: settings.MemoryMaxTurns,
	}

	switch {
	case settings.MockLLM:
		res := mock.New("mock")
		if err := ctx.Resources.Register(llmres.DefaultResourceName, res); err != nil {
			return nil, err
		}
		ctx.AgentEnv.DefaultResource = res
	case settings.GeminiAPIKey != "":
		res, err := gemini.New(llmres.DefaultResourceName, gemini.Config{
			APIKey: settings.GeminiAPIKey,
			Model:  settings.GeminiModel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure gemini resource: %w", err)
		}
		if err := ctx.Resources.Register(llmres.DefaultResourceName, res); err != nil {
			return nil, err
		}
		ctx.AgentEnv.DefaultResource = res
	}

	return ctx, nil
}
