// Package interp implements Dana's tree-walking interpreter (spec §4.3): a
// statement-at-a-time executor over an ast.Program, backed by a scoped
// State Store, a print sink, a log-level gate, and a hook into the agent
// struct system for method dispatch.
package interp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aitomatic/dana/pkg/agent"
	"github.com/aitomatic/dana/pkg/danaerr"
	"github.com/aitomatic/dana/pkg/lang/ast"
	"github.com/aitomatic/dana/pkg/llmres"
	"github.com/aitomatic/dana/pkg/promise"
	"github.com/aitomatic/dana/pkg/state"
)

// DefaultMaxSteps is the default loop-step cap (spec §4.3).
const DefaultMaxSteps = 100_000

// Context is the runtime context a program executes against: the State
// Store, the agent-type registry, the LLM resource registry, and the
// ambient configuration default methods and reason() need.
type Context struct {
	State        *state.Store
	AgentTypes   *agent.TypeRegistry
	Resources    *llmres.Registry
	LogLevel     slog.Level
	MaxSteps     int
	AgentEnv     agent.Environment

	output []string
	steps  int
}

// NewContext constructs a Context with all registries initialized.
func NewContext() *Context {
	return &Context{
		State:      state.New(),
		AgentTypes: agent.NewTypeRegistry(),
		Resources:  llmres.NewRegistry(),
		LogLevel:   slog.LevelInfo,
		MaxSteps:   DefaultMaxSteps,
	}
}

// GetAndClearOutput drains the print buffer, returning everything printed
// since the last drain.
func (c *Context) GetAndClearOutput() []string {
	out := c.output
	c.output = nil
	return out
}

func (c *Context) print(s string) {
	c.output = append(c.output, s)
}

// Interpreter executes ast.Programs against a Context.
type Interpreter struct {
	ctx *Context
}

// New constructs an Interpreter bound to ctx.
func New(ctx *Context) *Interpreter {
	return &Interpreter{ctx: ctx}
}

// Execute runs tree to completion, returning the value of the last
// top-level expression statement or assignment, if any (spec §4.3
// "execute_program(tree, context) -> last_value?").
func (in *Interpreter) Execute(tree *ast.Program) (state.Value, error) {
	var last state.Value
	for _, stmt := range tree.Statements {
		v, err := in.execStmt(stmt)
		if err != nil {
			return state.None, err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) execStmt(stmt ast.Stmt) (state.Value, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return in.execAssign(s)
	case *ast.ExprStmt:
		return in.evalExpr(s.X)
	case *ast.IfStmt:
		return in.execIf(s)
	case *ast.WhileStmt:
		return in.execWhile(s)
	default:
		return state.None, in.errAt(stmt.Position(), danaerr.KindInterpret, "unknown statement type")
	}
}

// execAssign is the load-bearing RHS-before-store sequence point: evalExpr
// runs to completion, and only then is the store touched. A naive
// implementation that bound the target name into scope before evaluating
// the RHS would break `private.a = private.a + 1`; this ordering is what
// makes that pattern work.
func (in *Interpreter) execAssign(s *ast.AssignStmt) (state.Value, error) {
	if !hasDot(s.Target) {
		return state.None, in.errAt(s.Position(), danaerr.KindValidation, fmt.Sprintf("cannot assign to bare scope name %q; use scope.name", s.Target))
	}
	value, err := in.evalExpr(s.Value)
	if err != nil {
		return state.None, err
	}
	if err := in.ctx.State.Set(s.Target, value); err != nil {
		return state.None, in.errAt(s.Position(), danaerr.KindState, err.Error())
	}
	return value, nil
}

func hasDot(s string) bool {
	for _, c := range s {
		if c == '.' {
			return true
		}
	}
	return false
}

func (in *Interpreter) execIf(s *ast.IfStmt) (state.Value, error) {
	cond, err := in.evalExpr(s.Cond)
	if err != nil {
		return state.None, err
	}
	if cond.Truthy() {
		return in.execBlock(s.Body)
	}
	for _, elif := range s.Elifs {
		c, err := in.evalExpr(elif.Cond)
		if err != nil {
			return state.None, err
		}
		if c.Truthy() {
			return in.execBlock(elif.Body)
		}
	}
	if s.Else != nil {
		return in.execBlock(s.Else)
	}
	return state.None, nil
}

func (in *Interpreter) execWhile(s *ast.WhileStmt) (state.Value, error) {
	var last state.Value
	for {
		in.ctx.steps++
		if in.maxSteps() > 0 && in.ctx.steps > in.maxSteps() {
			return state.None, in.errAt(s.Position(), danaerr.KindInterpret,
				fmt.Sprintf("loop exceeded step cap (%d)", in.maxSteps()))
		}
		cond, err := in.evalExpr(s.Cond)
		if err != nil {
			return state.None, err
		}
		if !cond.Truthy() {
			return last, nil
		}
		v, err := in.execBlock(s.Body)
		if err != nil {
			return state.None, err
		}
		last = v
	}
}

func (in *Interpreter) maxSteps() int {
	if in.ctx.MaxSteps > 0 {
		return in.ctx.MaxSteps
	}
	return DefaultMaxSteps
}

func (in *Interpreter) execBlock(stmts []ast.Stmt) (state.Value, error) {
	var last state.Value
	for _, s := range stmts {
		v, err := in.execStmt(s)
		if err != nil {
			return state.None, err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) errAt(pos ast.Pos, kind danaerr.Kind, msg string) *danaerr.Error {
	return danaerr.New(kind, msg).WithLocation(danaerr.Location{
		Line: pos.Line, Column: pos.Column, SourceText: pos.SourceText,
	})
}

// ---- Expression evaluation ----

func (in *Interpreter) evalExpr(expr ast.Expr) (state.Value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return state.Int(e.Value), nil
	case *ast.FloatLit:
		return state.Float(e.Value), nil
	case *ast.StringLit:
		return state.String(e.Value), nil
	case *ast.BoolLit:
		return state.Bool(e.Value), nil
	case *ast.NoneLit:
		return state.None, nil
	case *ast.Ident:
		return in.evalIdent(e)
	case *ast.UnaryExpr:
		return in.evalUnary(e)
	case *ast.BinaryExpr:
		return in.evalBinary(e)
	case *ast.CallExpr:
		return in.evalCall(e)
	case *ast.SequenceLit:
		return in.evalSequenceLit(e)
	case *ast.MapLit:
		return in.evalMapLit(e)
	default:
		return state.None, in.errAt(expr.Position(), danaerr.KindInterpret, "unknown expression type")
	}
}

// evalSequenceLit evaluates each element in source order, left to right.
func (in *Interpreter) evalSequenceLit(e *ast.SequenceLit) (state.Value, error) {
	elems := make([]state.Value, len(e.Elements))
	for i, el := range e.Elements {
		v, err := in.evalExpr(el)
		if err != nil {
			return state.None, err
		}
		elems[i] = v
	}
	return state.Sequence(elems), nil
}

// evalMapLit evaluates each entry's value in source order, then builds a
// Mapping that preserves that order.
func (in *Interpreter) evalMapLit(e *ast.MapLit) (state.Value, error) {
	pairs := make(map[string]state.Value, len(e.Entries))
	order := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		v, err := in.evalExpr(entry.Value)
		if err != nil {
			return state.None, err
		}
		pairs[entry.Key] = v
		order[i] = entry.Key
	}
	return state.Mapping(pairs, order), nil
}

// evalIdent resolves a dotted or bare identifier. A dotted reference goes
// straight to the State Store; a bare single word probes
// private/public/system in order, per spec §3.
func (in *Interpreter) evalIdent(e *ast.Ident) (state.Value, error) {
	if hasDot(e.Name) {
		return in.ctx.State.Get(e.Name, state.None), nil
	}
	for _, scope := range []state.Scope{state.ScopePrivate, state.ScopePublic, state.ScopeSystem} {
		if v, ok := in.ctx.State.GetScope(scope)[e.Name]; ok {
			return v, nil
		}
	}
	return state.None, nil
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpr) (state.Value, error) {
	v, err := in.evalExpr(e.X)
	if err != nil {
		return state.None, err
	}
	v = in.force(v)
	switch e.Op {
	case "not":
		return state.Bool(!v.Truthy()), nil
	case "-":
		switch v.Kind() {
		case state.KindInt:
			return state.Int(-v.AsInt()), nil
		case state.KindFloat:
			return state.Float(-v.AsFloat()), nil
		default:
			return state.None, in.errAt(e.Position(), danaerr.KindInterpret, fmt.Sprintf("unary - not supported on %s", v.Kind()))
		}
	default:
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "unknown unary operator")
	}
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr) (state.Value, error) {
	// and/or short-circuit; evaluate the right side only when necessary.
	if e.Op == "and" {
		l, err := in.evalExpr(e.Left)
		if err != nil {
			return state.None, err
		}
		if !in.force(l).Truthy() {
			return l, nil
		}
		return in.evalExpr(e.Right)
	}
	if e.Op == "or" {
		l, err := in.evalExpr(e.Left)
		if err != nil {
			return state.None, err
		}
		if in.force(l).Truthy() {
			return l, nil
		}
		return in.evalExpr(e.Right)
	}

	l, err := in.evalExpr(e.Left)
	if err != nil {
		return state.None, err
	}
	r, err := in.evalExpr(e.Right)
	if err != nil {
		return state.None, err
	}
	l, r = in.force(l), in.force(r)

	switch e.Op {
	case "+":
		return in.evalAdd(e, l, r)
	case "-", "*", "/":
		return in.evalArith(e, l, r)
	case "==":
		return state.Bool(state.Equal(l, r)), nil
	case "!=":
		return state.Bool(!state.Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		return in.evalCompare(e, l, r)
	default:
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "unknown binary operator")
	}
}

func (in *Interpreter) evalAdd(e *ast.BinaryExpr, l, r state.Value) (state.Value, error) {
	if l.Kind() == state.KindString || r.Kind() == state.KindString {
		return state.String(l.String() + r.String()), nil
	}
	return in.evalArith(e, l, r)
}

func (in *Interpreter) evalArith(e *ast.BinaryExpr, l, r state.Value) (state.Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret,
			fmt.Sprintf("operator %s not supported on %s and %s", e.Op, l.Kind(), r.Kind()))
	}
	if l.Kind() == state.KindFloat || r.Kind() == state.KindFloat {
		lf, rf := asFloat(l), asFloat(r)
		switch e.Op {
		case "+":
			return state.Float(lf + rf), nil
		case "-":
			return state.Float(lf - rf), nil
		case "*":
			return state.Float(lf * rf), nil
		case "/":
			if rf == 0 {
				return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "division by zero")
			}
			return state.Float(lf / rf), nil
		}
	}
	li, ri := l.AsInt(), r.AsInt()
	switch e.Op {
	case "+":
		return state.Int(li + ri), nil
	case "-":
		return state.Int(li - ri), nil
	case "*":
		return state.Int(li * ri), nil
	case "/":
		if ri == 0 {
			return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "division by zero")
		}
		return state.Int(li / ri), nil
	}
	return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "unknown arithmetic operator")
}

func (in *Interpreter) evalCompare(e *ast.BinaryExpr, l, r state.Value) (state.Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret,
			fmt.Sprintf("operator %s not supported on %s and %s", e.Op, l.Kind(), r.Kind()))
	}
	lf, rf := asFloat(l), asFloat(r)
	var result bool
	switch e.Op {
	case "<":
		result = lf < rf
	case "<=":
		result = lf <= rf
	case ">":
		result = lf > rf
	case ">=":
		result = lf >= rf
	}
	return state.Bool(result), nil
}

func isNumeric(v state.Value) bool {
	return v.Kind() == state.KindInt || v.Kind() == state.KindFloat
}

func asFloat(v state.Value) float64 {
	if v.Kind() == state.KindFloat {
		return v.AsFloat()
	}
	return float64(v.AsInt())
}

// force resolves a Promise-kinded value, per spec §5 "an arithmetic
// operator applied to a Promise operand" forces resolution. Resolution
// failures surface as a string describing the error rather than aborting
// evaluation, matching reason()'s "failures surface... as a failed
// Promise" contract: a forced failed Promise degrades to its error text.
func (in *Interpreter) force(v state.Value) state.Value {
	if v.Kind() != state.KindPromise {
		return v
	}
	p, ok := v.AsRef().(*promise.Promise)
	if !ok {
		return v
	}
	text, err := p.Resolve()
	if err != nil {
		return state.String(fmt.Sprintf("<promise error: %s>", err))
	}
	return state.String(text)
}

// evalCall dispatches print/log.*/reason, agent(...) construction, and
// agent method calls.
func (in *Interpreter) evalCall(e *ast.CallExpr) (state.Value, error) {
	args := make([]state.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := in.evalExpr(a)
		if err != nil {
			return state.None, err
		}
		args[i] = v
	}

	switch {
	case e.Callee == "print":
		var s string
		if len(args) > 0 {
			s = in.force(args[0]).String()
		}
		in.ctx.print(s)
		return state.None, nil

	case hasPrefix(e.Callee, "log."):
		return in.evalLog(e, args)

	case e.Callee == "reason":
		return in.evalReason(e, args)

	default:
		return in.evalMethodOrUnknown(e, args)
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func (in *Interpreter) evalLog(e *ast.CallExpr, args []state.Value) (state.Value, error) {
	levelName := e.Callee[len("log."):]
	level, ok := logLevels[levelName]
	if !ok {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, fmt.Sprintf("unknown log level %q", levelName))
	}
	if level < in.ctx.LogLevel {
		return state.None, nil
	}
	var msg string
	if len(args) > 0 {
		msg = in.force(args[0]).String()
	}
	slog.Log(context.Background(), level, msg)
	return state.None, nil
}

// evalReason builds a Promise around the "llm" resource's ChatCompletion,
// per spec §4.3. With no resource registered, it resolves to a deterministic
// string including the prompt (spec §7 Fallbacks).
func (in *Interpreter) evalReason(e *ast.CallExpr, args []state.Value) (state.Value, error) {
	var prompt string
	if len(args) > 0 {
		prompt = in.force(args[0]).String()
	}
	const standardSystemPrompt = "You are a helpful reasoning assistant."

	resource, ok := in.ctx.Resources.Get(llmres.DefaultResourceName)
	if !ok {
		text := fmt.Sprintf("[no LLM configured] reasoned about: %s", prompt)
		return state.Ref(state.KindPromise, promise.NewResolved("reason", text)), nil
	}

	var p *promise.Promise
	if in.ctx.AgentEnv.Pool == nil {
		text, err := resource.ChatCompletion(prompt, standardSystemPrompt)
		if err != nil {
			p = promise.NewFailed("reason", err)
		} else {
			p = promise.NewResolved("reason", text)
		}
	} else {
		p = promise.New(in.ctx.AgentEnv.Pool, "reason", func() (string, error) {
			return resource.ChatCompletion(prompt, standardSystemPrompt)
		})
	}
	return state.Ref(state.KindPromise, p), nil
}

// evalMethodOrUnknown handles `instance.method(args)` dispatch (spec
// §4.3 "Method dispatch") and `agent(name, fields)` instance construction.
func (in *Interpreter) evalMethodOrUnknown(e *ast.CallExpr, args []state.Value) (state.Value, error) {
	if e.Callee == "agent" {
		return in.evalAgentConstructor(e, args)
	}

	instName, method, ok := splitLastDot(e.Callee)
	if !ok {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, fmt.Sprintf("unknown function %q", e.Callee))
	}
	instVal := in.ctx.State.Get(instName, state.None)
	inst, ok := instVal.AsRef().(*agent.Instance)
	if !ok {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, fmt.Sprintf("%q is not an agent instance", instName))
	}
	v, err := agent.Dispatch(inst, method, args, in.ctx.AgentEnv)
	if err != nil {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, err.Error())
	}
	return v, nil
}

func splitLastDot(s string) (string, string, bool) {
	idx := -1
	for i, c := range s {
		if c == '.' {
			idx = i
		}
	}
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// evalAgentConstructor implements `agent(name, fields_map)`. name must be a
// string literal/value; fields_map must be a mapping Value.
func (in *Interpreter) evalAgentConstructor(e *ast.CallExpr, args []state.Value) (state.Value, error) {
	if len(args) < 1 {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, "agent(name, fields) requires at least a name")
	}
	name := args[0].String()
	fields := map[string]state.Value{}
	if len(args) > 1 {
		m, _ := args[1].AsMapping()
		for k, v := range m {
			fields[k] = v
		}
	}
	inst, err := agent.New(in.ctx.AgentTypes, name, fields)
	if err != nil {
		return state.None, in.errAt(e.Position(), danaerr.KindInterpret, err.Error())
	}
	return state.Ref(state.KindAgent, inst), nil
}
