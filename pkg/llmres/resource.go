// Package llmres defines the LLM resource abstraction Dana programs reach
// through reason(...): a minimal interface the runtime depends on, plus a
// registry so the CLI can wire in whichever concrete provider is available.
package llmres

import "github.com/aitomatic/dana/pkg/registry"

// Resource is the minimal interface the runtime depends on (spec §4.9). The
// runtime never parses provider responses; it receives a final string.
// Failures surface as an error from ChatCompletion and are converted to
// failed Promises by the caller.
type Resource interface {
	// Kind is always "llm"; kept as a method (rather than a type assertion)
	// so the registry can hold other resource kinds in the future without
	// a breaking change.
	Kind() string
	// Name identifies the resource for logging.
	Name() string
	// Model is the provider's model identifier, or "" if not applicable.
	Model() string
	ChatCompletion(prompt, systemPrompt string) (string, error)
}

// Registry holds named LLM resources; "llm" is the conventional default
// name reason(...) looks up.
type Registry = registry.BaseRegistry[Resource]

// NewRegistry constructs an empty resource registry.
func NewRegistry() *Registry {
	return registry.NewBaseRegistry[Resource]()
}

// DefaultResourceName is the key reason(...) looks up per spec §4.3.
const DefaultResourceName = "llm"
