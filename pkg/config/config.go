// Package config loads Dana's runtime settings: log level, history/memory
// limits, the loop step cap, and the optional Gemini model name. Grounded
// on the teacher's env-file loading and `${VAR:-default}` expansion
// (config/env.go) and its koanf-based file+confmap loading pipeline
// (pkg/config/koanf_loader.go), trimmed to the two providers Dana actually
// needs — the teacher's consul/etcd/zookeeper remote providers have no
// home in a single-process REPL and are dropped rather than wired to a
// component that would never exercise them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings holds every ambient knob the runtime reads at startup.
type Settings struct {
	LogLevel        string `koanf:"log_level"`
	HistoryPath     string `koanf:"history_path"`
	HistoryMaxLines int    `koanf:"history_max_lines"`
	MemoryMaxTurns  int    `koanf:"memory_max_turns"`
	MaxSteps        int    `koanf:"max_steps"`
	NLPOnBoot       bool   `koanf:"nlp_on_boot"`
	GeminiModel     string `koanf:"gemini_model"`
	GeminiAPIKey    string `koanf:"gemini_api_key"`
	MockLLM         bool   `koanf:"mock_llm"`
}

// Defaults returns the Settings used when no config file or environment
// variable overrides a field.
func Defaults() Settings {
	return Settings{
		LogLevel:        "info",
		HistoryPath:     defaultHistoryPath(),
		HistoryMaxLines: 1000,
		MemoryMaxTurns:  20,
		MaxSteps:        100_000,
		NLPOnBoot:       false,
		GeminiModel:     "gemini-2.0-flash",
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dana_history"
	}
	return filepath.Join(home, ".dana_history")
}

// HomeDir returns the directory Dana stores its state under (conversation
// memory, history): the user's home directory, or "." if it cannot be
// determined.
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Load builds Settings by layering, lowest to highest priority:
// defaults < an optional YAML config file at path < environment variables
// prefixed DANA_ (plus the bare LOG_LEVEL, spec §6). .env/.env.local files
// are loaded into the process environment first, so their values take part
// in the environment layer. path may be "" to skip the file layer.
func Load(path string) (Settings, error) {
	if err := loadEnvFiles(); err != nil {
		return Settings{}, err
	}

	k := koanf.New(".")
	defaults := Defaults()
	defaultMap := map[string]any{
		"log_level":         defaults.LogLevel,
		"history_path":      defaults.HistoryPath,
		"history_max_lines": defaults.HistoryMaxLines,
		"memory_max_turns":  defaults.MemoryMaxTurns,
		"max_steps":         defaults.MaxSteps,
		"nlp_on_boot":       defaults.NLPOnBoot,
		"gemini_model":      defaults.GeminiModel,
	}
	if err := k.Load(confmap.Provider(defaultMap, "."), nil); err != nil {
		return Settings{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Settings{}, fmt.Errorf("config: load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(envProvider(), nil); err != nil {
		return Settings{}, fmt.Errorf("config: load environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	s.MockLLM = isTruthy(os.Getenv("DANA_MOCK_LLM"))
	return s, nil
}

// envProvider maps DANA_* environment variables onto Settings' koanf keys,
// e.g. DANA_LOG_LEVEL -> log_level, DANA_MAX_STEPS -> max_steps.
func envProvider() *confmapEnvProvider {
	return &confmapEnvProvider{prefix: "DANA_"}
}

type confmapEnvProvider struct {
	prefix string
}

func (p *confmapEnvProvider) Read() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], p.prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], p.prefix))
		out[key] = expandEnvVars(parts[1])
	}
	return out, nil
}

func (p *confmapEnvProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("confmapEnvProvider does not support ReadBytes")
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// loadEnvFiles loads .env.local (highest) then .env (lowest), matching the
// teacher's config.LoadEnvFiles priority order. Missing files are not an
// error.
func loadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

var (
	envWithDefault = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-(.*?)\}`)
	envBraced      = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// expandEnvVars supports ${VAR:-default} and ${VAR} expansion within
// config values, per the teacher's config/env.go.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	s = envWithDefault.ReplaceAllStringFunc(s, func(m string) string {
		parts := envWithDefault.FindStringSubmatch(m)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
	s = envBraced.ReplaceAllStringFunc(s, func(m string) string {
		parts := envBraced.FindStringSubmatch(m)
		return os.Getenv(parts[1])
	})
	return s
}
