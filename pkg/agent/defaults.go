package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aitomatic/dana/pkg/memory"
	"github.com/aitomatic/dana/pkg/promise"
	"github.com/aitomatic/dana/pkg/state"
)

// defaultMethodNames lists the four default methods (plan, solve, remember,
// recall) plus chat, per spec §4.7/§4.8. Method precedence consults the type's own
// Methods map first; these names are the fallback.
var defaultMethodNames = map[string]bool{
	"plan": true, "solve": true, "remember": true, "recall": true, "chat": true,
}

// IsDefaultMethod reports whether name is one of the built-in fallback
// methods every agent type supplies.
func IsDefaultMethod(name string) bool { return defaultMethodNames[name] }

// Dispatch resolves and invokes method on inst: the type's own method map
// takes precedence, falling back to the five default methods, per spec
// §4.7 "Method precedence". An unknown, non-default method name is an
// error.
func Dispatch(inst *Instance, method string, args []state.Value, env Environment) (state.Value, error) {
	if fn, ok := inst.typ.Methods[method]; ok {
		return fn(inst, args)
	}
	switch method {
	case "plan":
		return defaultPlan(inst, args)
	case "solve":
		return defaultSolve(inst, args)
	case "remember":
		return defaultRemember(inst, args)
	case "recall":
		return defaultRecall(inst, args)
	case "chat":
		return defaultChat(inst, args, env)
	}
	return state.None, fmt.Errorf("agent type %q has no method %q", inst.TypeName, method)
}

func argString(args []state.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i].String()
}

// fieldSummary renders the instance's fields as "k=v, k2=v2" in sorted key
// order, for deterministic plan/solve output.
func (inst *Instance) fieldSummary() string {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	keys := make([]string, 0, len(inst.Fields))
	for k := range inst.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, inst.Fields[k].String())
	}
	return strings.Join(parts, ", ")
}

// defaultPlan returns a deterministic summary string; side-effect-free per
// spec §4.7.
func defaultPlan(inst *Instance, args []state.Value) (state.Value, error) {
	task := argString(args, 0)
	summary := fmt.Sprintf("[%s] plan for %q (fields: %s)", inst.TypeName, task, inst.fieldSummary())
	return state.String(summary), nil
}

// defaultSolve has the same shape as defaultPlan.
func defaultSolve(inst *Instance, args []state.Value) (state.Value, error) {
	problem := argString(args, 0)
	summary := fmt.Sprintf("[%s] solution for %q (fields: %s)", inst.TypeName, problem, inst.fieldSummary())
	return state.String(summary), nil
}

// defaultRemember stores value under key in the instance's memory map,
// always succeeding.
func defaultRemember(inst *Instance, args []state.Value) (state.Value, error) {
	if len(args) < 2 {
		return state.None, fmt.Errorf("remember(key, value) requires 2 arguments")
	}
	key := args[0].String()
	inst.mu.Lock()
	if inst.InstMemory == nil {
		inst.InstMemory = map[string]state.Value{}
	}
	inst.InstMemory[key] = args[1]
	inst.mu.Unlock()
	return state.Bool(true), nil
}

// defaultRecall returns the value previously remembered under key, or None.
func defaultRecall(inst *Instance, args []state.Value) (state.Value, error) {
	if len(args) < 1 {
		return state.None, fmt.Errorf("recall(key) requires 1 argument")
	}
	key := args[0].String()
	inst.mu.Lock()
	v, ok := inst.InstMemory[key]
	inst.mu.Unlock()
	if !ok {
		return state.None, nil
	}
	return v, nil
}

// standardSystemPrompt builds the system prompt chat() sends: the agent's
// type name, its field values, and the last N turns of history, per spec
// §4.8 step 2.
func standardSystemPrompt(inst *Instance, history []memory.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are agent %q with fields: %s.\n", inst.TypeName, inst.fieldSummary())
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "user: %s\nassistant: %s\n", t.User, t.Assistant)
		}
	}
	return b.String()
}

// stockChatResponse is the deterministic fallback chat() uses when no LLM
// resource is available at all, per spec §7 Fallbacks.
func stockChatResponse(inst *Instance, message string) string {
	return fmt.Sprintf("[%s] (no LLM configured) acknowledged: %s", inst.TypeName, message)
}

// defaultChat implements spec §4.8: lazily creates conversation memory,
// resolves an LLM (instance-bound, then env default, then a stock
// response), issues the call via a Promise, and appends the resulting turn
// on delivery.
func defaultChat(inst *Instance, args []state.Value, env Environment) (state.Value, error) {
	if len(args) < 1 {
		return state.None, fmt.Errorf("chat(message) requires 1 argument")
	}
	message := args[0].String()

	conv := inst.conversationMemory(env)
	history := conv.Last(0) // all turns currently retained, already bounded by the memory's own cap
	systemPrompt := standardSystemPrompt(inst, history)
	turnNumber := conv.NextTurnNumber()

	resource := inst.Resource
	if resource == nil {
		resource = env.DefaultResource
	}

	label := "chat"
	var p *promise.Promise
	if resource == nil {
		text := stockChatResponse(inst, message)
		p = promise.NewResolved(label, text)
		_ = conv.Append(memory.Turn{User: message, Assistant: text, TurnNumber: turnNumber, CreatedAt: time.Now()})
	} else if env.Pool == nil {
		text, err := resource.ChatCompletion(message, systemPrompt)
		if err != nil {
			errText := fmt.Sprintf("LLM error: %s", err)
			_ = conv.Append(memory.Turn{User: message, Assistant: errText, TurnNumber: turnNumber, CreatedAt: time.Now()})
			p = promise.NewResolved(label, errText)
		} else {
			_ = conv.Append(memory.Turn{User: message, Assistant: text, TurnNumber: turnNumber, CreatedAt: time.Now()})
			p = promise.NewResolved(label, text)
		}
	} else {
		p = promise.New(env.Pool, label, func() (string, error) {
			text, err := resource.ChatCompletion(message, systemPrompt)
			if err != nil {
				errText := fmt.Sprintf("LLM error: %s", err)
				_ = conv.Append(memory.Turn{User: message, Assistant: errText, TurnNumber: turnNumber, CreatedAt: time.Now()})
				return errText, nil // spec §4.8.5: error is recorded, not raised, the Promise still resolves
			}
			_ = conv.Append(memory.Turn{User: message, Assistant: text, TurnNumber: turnNumber, CreatedAt: time.Now()})
			return text, nil
		})
	}

	return state.Ref(state.KindPromise, p), nil
}
