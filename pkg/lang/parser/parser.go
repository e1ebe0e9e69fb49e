// Package parser builds a Dana ast.Program from a token stream via
// recursive descent, following the grammar in spec §4.2: statements are
// assignments, bare expressions, if/elif/else chains, and while loops, each
// block delimited by a trailing colon plus an INDENT/DEDENT pair.
package parser

import (
	"fmt"
	"strings"

	"github.com/aitomatic/dana/pkg/lang/ast"
	"github.com/aitomatic/dana/pkg/lang/lexer"
)

// ParseError is one failure location the parser recovered from, carrying the
// caret-ready source line for display — never a panic, matching the
// "malformed input never brings down the interpreter" contract.
type ParseError struct {
	Line, Column int
	SourceLine   string
	Msg          string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseResult is the outcome of parsing one fragment of Dana source: either
// a complete Program, or a non-empty Errors list (never both populated with
// a usable Program; on error Program is nil).
type ParseResult struct {
	IsValid bool
	Program *ast.Program
	Errors  []*ParseError
}

// Parse tokenizes and parses source in one step.
func Parse(source string) *ParseResult {
	toks, err := lexer.Lex(source)
	if err != nil {
		le, _ := err.(*lexer.LexError)
		if le == nil {
			return &ParseResult{Errors: []*ParseError{{Msg: err.Error()}}}
		}
		return &ParseResult{Errors: []*ParseError{{Line: le.Line, Column: le.Column, SourceLine: le.SourceLine, Msg: le.Msg}}}
	}
	p := &parser{toks: toks}
	prog := p.parseProgram()
	if len(p.errs) > 0 {
		return &ParseResult{Errors: p.errs}
	}
	return &ParseResult{IsValid: true, Program: prog}
}

type parser struct {
	toks []lexer.Token
	pos  int
	errs []*ParseError
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) peek(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) at(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	p.errorf("expected %s, found %s", t, p.cur().Type)
	return lexer.Token{}, false
}

func (p *parser) errorf(format string, args ...any) {
	tok := p.cur()
	p.errs = append(p.errs, &ParseError{
		Line:       tok.Line,
		Column:     tok.Column,
		SourceLine: tok.SourceLine,
		Msg:        fmt.Sprintf(format, args...),
	})
}

// skipNewlines consumes any run of blank NEWLINE tokens between statements.
func (p *parser) skipNewlines() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.at(lexer.EOF) && len(p.errs) == 0 {
		stmt := p.parseStmt()
		if stmt == nil {
			break
		}
		prog.Statements = append(prog.Statements, stmt)
		p.skipNewlines()
	}
	return prog
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.cur().Type {
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	default:
		return p.parseSimpleStmt()
	}
}

// parseBlock consumes "COLON NEWLINE INDENT stmt* DEDENT".
func (p *parser) parseBlock() []ast.Stmt {
	if _, ok := p.expect(lexer.COLON); !ok {
		return nil
	}
	if p.at(lexer.NEWLINE) {
		p.advance()
	}
	if _, ok := p.expect(lexer.INDENT); !ok {
		return nil
	}
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.at(lexer.DEDENT) && !p.at(lexer.EOF) && len(p.errs) == 0 {
		s := p.parseStmt()
		if s == nil {
			break
		}
		stmts = append(stmts, s)
		p.skipNewlines()
	}
	p.expect(lexer.DEDENT)
	return stmts
}

func (p *parser) parseIf() ast.Stmt {
	tok := p.advance() // IF
	cond := p.parseExpr()
	body := p.parseBlock()
	n := &ast.IfStmt{Cond: cond, Body: body}
	n.Pos = tokPos(tok)
	for p.at(lexer.ELIF) {
		p.advance()
		ec := p.parseExpr()
		eb := p.parseBlock()
		n.Elifs = append(n.Elifs, ast.ElifClause{Cond: ec, Body: eb})
	}
	if p.at(lexer.ELSE) {
		p.advance()
		n.Else = p.parseBlock()
	}
	return n
}

func (p *parser) parseWhile() ast.Stmt {
	tok := p.advance() // WHILE
	cond := p.parseExpr()
	body := p.parseBlock()
	n := &ast.WhileStmt{Cond: cond, Body: body}
	n.Pos = tokPos(tok)
	return n
}

// parseSimpleStmt parses an assignment or a bare expression statement, then
// consumes the trailing NEWLINE (or EOF).
func (p *parser) parseSimpleStmt() ast.Stmt {
	startTok := p.cur()
	if p.at(lexer.IDENT) && p.isAssignAhead() {
		target := p.parseDottedName()
		p.expect(lexer.ASSIGN)
		value := p.parseExpr()
		stmt := &ast.AssignStmt{Target: target, Value: value}
		stmt.Pos = tokPos(startTok)
		p.endStmt()
		return stmt
	}
	x := p.parseExpr()
	if x == nil {
		return nil
	}
	stmt := &ast.ExprStmt{X: x}
	stmt.Pos = tokPos(startTok)
	p.endStmt()
	return stmt
}

// isAssignAhead scans the dotted-identifier run starting at the current
// token and reports whether it is immediately followed by a bare "=" (not
// "=="), distinguishing an assignment from an expression statement that
// merely begins with an identifier.
func (p *parser) isAssignAhead() bool {
	i := p.pos
	if p.toks[i].Type != lexer.IDENT {
		return false
	}
	i++
	for i+1 < len(p.toks) && p.toks[i].Type == lexer.DOT && p.toks[i+1].Type == lexer.IDENT {
		i += 2
	}
	return i < len(p.toks) && p.toks[i].Type == lexer.ASSIGN
}

func (p *parser) parseDottedName() string {
	var parts []string
	tok, _ := p.expect(lexer.IDENT)
	parts = append(parts, tok.Lit)
	for p.at(lexer.DOT) {
		p.advance()
		t, ok := p.expect(lexer.IDENT)
		if !ok {
			break
		}
		parts = append(parts, t.Lit)
	}
	return strings.Join(parts, ".")
}

func (p *parser) endStmt() {
	if p.at(lexer.NEWLINE) {
		p.advance()
		return
	}
	if p.at(lexer.EOF) || p.at(lexer.DEDENT) {
		return
	}
	p.errorf("expected end of statement, found %s", p.cur().Type)
}

func tokPos(t lexer.Token) ast.Pos {
	return ast.Pos{Line: t.Line, Column: t.Column, SourceText: t.SourceLine}
}

// ---- Expression grammar, precedence low to high:
// or -> and -> not -> comparison -> additive -> multiplicative -> unary -> primary

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(lexer.OR) {
		tok := p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{Op: "or", Left: left, Right: right, Base: baseAt(tok)}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.at(lexer.AND) {
		tok := p.advance()
		right := p.parseNot()
		left = &ast.BinaryExpr{Op: "and", Left: left, Right: right, Base: baseAt(tok)}
	}
	return left
}

func (p *parser) parseNot() ast.Expr {
	if p.at(lexer.NOT) {
		tok := p.advance()
		x := p.parseNot()
		return &ast.UnaryExpr{Op: "not", X: x, Base: baseAt(tok)}
	}
	return p.parseComparison()
}

var cmpOps = map[lexer.TokenType]string{
	lexer.EQ: "==", lexer.NEQ: "!=", lexer.LT: "<", lexer.LE: "<=", lexer.GT: ">", lexer.GE: ">=",
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if op, ok := cmpOps[p.cur().Type]; ok {
		tok := p.advance()
		right := p.parseAdditive()
		return &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: baseAt(tok)}
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		tok := p.advance()
		op := "+"
		if tok.Type == lexer.MINUS {
			op = "-"
		}
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: baseAt(tok)}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.at(lexer.STAR) || p.at(lexer.SLASH) {
		tok := p.advance()
		op := "*"
		if tok.Type == lexer.SLASH {
			op = "/"
		}
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Base: baseAt(tok)}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.at(lexer.MINUS) {
		tok := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: "-", X: x, Base: baseAt(tok)}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		var v int64
		fmt.Sscanf(tok.Lit, "%d", &v)
		return &ast.IntLit{Value: v, Base: baseAt(tok)}
	case lexer.FLOAT:
		p.advance()
		var v float64
		fmt.Sscanf(tok.Lit, "%g", &v)
		return &ast.FloatLit{Value: v, Base: baseAt(tok)}
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Lit, Base: baseAt(tok)}
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Base: baseAt(tok)}
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Base: baseAt(tok)}
	case lexer.NONE:
		p.advance()
		return &ast.NoneLit{Base: baseAt(tok)}
	case lexer.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACKET:
		return p.parseSequenceLit()
	case lexer.LBRACE:
		return p.parseMapLit()
	case lexer.IDENT:
		return p.parseIdentOrCall()
	default:
		p.errorf("unexpected token %s", tok.Type)
		if !p.at(lexer.EOF) {
			p.advance()
		}
		return &ast.NoneLit{Base: baseAt(tok)}
	}
}

// parseIdentOrCall parses a dotted name, then if followed by "(" parses it
// as a call (log.info(...), instance.method(...), print(...), reason(...)).
func (p *parser) parseIdentOrCall() ast.Expr {
	startTok := p.cur()
	name := p.parseDottedName()
	if p.at(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		if !p.at(lexer.RPAREN) {
			args = append(args, p.parseExpr())
			for p.at(lexer.COMMA) {
				p.advance()
				args = append(args, p.parseExpr())
			}
		}
		p.expect(lexer.RPAREN)
		return &ast.CallExpr{Callee: name, Args: args, Base: baseAt(startTok)}
	}
	return &ast.Ident{Name: name, Base: baseAt(startTok)}
}

// parseSequenceLit parses "[" (expr ("," expr)*)? "]".
func (p *parser) parseSequenceLit() ast.Expr {
	startTok := p.advance() // LBRACKET
	var elems []ast.Expr
	if !p.at(lexer.RBRACKET) {
		elems = append(elems, p.parseExpr())
		for p.at(lexer.COMMA) {
			p.advance()
			if p.at(lexer.RBRACKET) {
				break
			}
			elems = append(elems, p.parseExpr())
		}
	}
	p.expect(lexer.RBRACKET)
	return &ast.SequenceLit{Elements: elems, Base: baseAt(startTok)}
}

// parseMapLit parses "{" (STRING ":" expr ("," STRING ":" expr)*)? "}",
// per spec §3: mapping keys are always string literals.
func (p *parser) parseMapLit() ast.Expr {
	startTok := p.advance() // LBRACE
	var entries []ast.MapEntry
	if !p.at(lexer.RBRACE) {
		entries = append(entries, p.parseMapEntry())
		for p.at(lexer.COMMA) {
			p.advance()
			if p.at(lexer.RBRACE) {
				break
			}
			entries = append(entries, p.parseMapEntry())
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.MapLit{Entries: entries, Base: baseAt(startTok)}
}

func (p *parser) parseMapEntry() ast.MapEntry {
	keyTok, ok := p.expect(lexer.STRING)
	if !ok {
		return ast.MapEntry{}
	}
	p.expect(lexer.COLON)
	value := p.parseExpr()
	return ast.MapEntry{Key: keyTok.Lit, Value: value}
}

func baseAt(t lexer.Token) ast.Pos {
	return tokPos(t)
}
