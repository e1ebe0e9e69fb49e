// Package mock provides the deterministic echo LLM resource the runtime
// registers when DANA_MOCK_LLM is set (spec §6), so programs and tests run
// without a network or an API key.
package mock

import "fmt"

// Resource echoes its prompt back in a fixed, deterministic shape, making
// reason(...) output reproducible in tests and CI.
type Resource struct {
	name string
}

// New constructs the mock resource under the given logging name.
func New(name string) *Resource {
	if name == "" {
		name = "mock"
	}
	return &Resource{name: name}
}

func (r *Resource) Kind() string  { return "llm" }
func (r *Resource) Name() string  { return r.name }
func (r *Resource) Model() string { return "dana-mock" }

func (r *Resource) ChatCompletion(prompt, systemPrompt string) (string, error) {
	return fmt.Sprintf("[mock response to %q]", prompt), nil
}
