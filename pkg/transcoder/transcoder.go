// Package transcoder implements Dana's optional NLP front end (spec
// §4.6): a small set of deterministic regex fast-paths, falling back to
// one LLM-assisted translation attempt with a single parse-error-guided
// retry. Grounded on the teacher's prompt-construction style in
// pkg/llms (system + user prompt pairs passed straight to
// ChatCompletion) and on mitchellh/mapstructure for decoding the
// retry path's structured JSON reply, per the teacher's config
// decoding usage.
package transcoder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aitomatic/dana/pkg/danaerr"
	"github.com/aitomatic/dana/pkg/llmres"
	"github.com/aitomatic/dana/pkg/state"
)

var (
	numberRe     = regexp.MustCompile(`^\s*-?\d+(\.\d+)?\s*$`)
	arithmeticRe = regexp.MustCompile(`^\s*\d+\s*[+\-*/]\s*\d+\s*$`)
	assignRe     = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*=\s*(.+)$`)
)

// knownScopes mirrors pkg/state's closed scope set; an assignment whose
// left side names a scope is not rewritten as a bare local (spec §4.6
// step 1, third pattern's "when <name> is not already a known scope").
var knownScopes = map[string]bool{
	string(state.ScopePrivate): true,
	string(state.ScopePublic):  true,
	string(state.ScopeSystem):  true,
	string(state.ScopeLocal):   true,
	string(state.ScopeTemp):    true,
	string(state.ScopeAgent):   true,
	string(state.ScopeWorld):   true,
}

// Deterministic tries the three required regex fast-paths (spec §4.6
// step 1) without calling an LLM. ok is false when nothing matched.
func Deterministic(input string) (source string, ok bool) {
	trimmed := input

	if numberRe.MatchString(trimmed) {
		return fmt.Sprintf("private.result = %s", strings.TrimSpace(trimmed)), true
	}
	if arithmeticRe.MatchString(trimmed) {
		return fmt.Sprintf("private.result = %s", strings.TrimSpace(trimmed)), true
	}
	if m := assignRe.FindStringSubmatch(trimmed); m != nil {
		name, value := m[1], strings.TrimSpace(m[2])
		if !knownScopes[name] {
			return fmt.Sprintf("private.%s = %s", name, value), true
		}
	}
	return "", false
}

// ParseFunc parses a chunk of Dana source into a validity flag and an
// error list rendering — kept abstract here so pkg/transcoder does not
// import pkg/lang/parser and create a dependency cycle risk; cmd/dana
// wires pkg/lang/parser.Parse in.
type ParseFunc func(source string) (valid bool, errText string)

// Transcoder translates free-form text into Dana source, per spec §4.6.
type Transcoder struct {
	Resources *llmres.Registry
	Parse     ParseFunc
}

// New constructs a Transcoder bound to a resource registry and a parse
// validity check used to drive the LLM retry loop.
func New(resources *llmres.Registry, parse ParseFunc) *Transcoder {
	return &Transcoder{Resources: resources, Parse: parse}
}

const systemPrompt = `You translate a single line of free-form English into Dana source code.
Dana statements look like: private.x = 1 + 2, print(private.x), if private.x > 0: ... .
Respond with Dana source only, no explanation, no markdown fences.`

const retryPromptTemplate = `The previous translation failed to parse with this error:
%s

Respond again, but this time reply with a JSON object of the exact shape {"dana_source": "..."} containing only valid Dana source in the string value.`

type retryReply struct {
	DanaSource string `mapstructure:"dana_source"`
}

// Translate implements spec §4.6: deterministic patterns first, then one
// LLM attempt with a single structured retry on parse failure.
func (t *Transcoder) Translate(input string) (string, error) {
	if source, ok := Deterministic(input); ok {
		return source, nil
	}

	res, ok := t.Resources.Get(llmres.DefaultResourceName)
	if !ok {
		return "", danaerr.New(danaerr.KindRuntime, "NLP mode requires an LLM")
	}

	source, err := res.ChatCompletion(input, systemPrompt)
	if err != nil {
		return "", danaerr.Wrap(danaerr.KindRuntime, "transcoder LLM call failed", err)
	}
	source = stripFences(source)
	if valid, parseErrText := t.Parse(source); valid {
		return source, nil
	} else {
		retryPrompt := fmt.Sprintf(retryPromptTemplate, parseErrText)
		raw, err := res.ChatCompletion(retryPrompt, systemPrompt)
		if err != nil {
			return "", friendlyErr(err)
		}
		decoded, decErr := decodeRetryReply(raw)
		if decErr != nil {
			return "", friendlyErr(decErr)
		}
		decoded = stripFences(decoded)
		if valid, _ := t.Parse(decoded); !valid {
			return "", friendlyErr(fmt.Errorf("retry reply did not parse"))
		}
		return decoded, nil
	}
}

func friendlyErr(cause error) error {
	return danaerr.Wrap(danaerr.KindRuntime, "I couldn't understand that — try rephrasing or write Dana directly", cause)
}

// decodeRetryReply accepts either a bare {"dana_source": "..."} JSON
// object or, defensively, raw Dana source if the model ignored the
// JSON instruction on retry.
func decodeRetryReply(raw string) (string, error) {
	trimmed := strings.TrimSpace(stripFences(raw))
	if strings.HasPrefix(trimmed, "{") {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return "", fmt.Errorf("decode retry reply: %w", err)
		}
		var r retryReply
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &r})
		if err != nil {
			return "", err
		}
		if err := dec.Decode(m); err != nil {
			return "", fmt.Errorf("decode retry reply: %w", err)
		}
		if r.DanaSource == "" {
			return "", fmt.Errorf("retry reply missing dana_source")
		}
		return r.DanaSource, nil
	}
	return trimmed, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```dana")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
