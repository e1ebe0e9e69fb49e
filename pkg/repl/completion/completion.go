// Package completion implements the REPL's input-completion checker (spec
// §4.4): a pure function deciding whether a fragment of typed input is
// ready to execute or needs another line. Deliberately not built on
// pkg/lang/lexer: that lexer rejects malformed indentation outright, while
// a completion check must tolerate an in-progress, not-yet-valid fragment
// and reason about it line by line. It shares the lexer's string-aware
// bracket-scanning approach at a lighter weight instead.
package completion

import (
	"regexp"
	"strings"
)

var bareWordRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z_.]*$`)

// IsComplete implements spec §4.4's seven rules. It is conservative: when
// in doubt it returns false.
func IsComplete(text string) bool {
	trimmed := strings.TrimRight(text, "\n")

	if strings.TrimSpace(trimmed) == "" {
		return true // rule 1
	}

	lines := strings.Split(trimmed, "\n")

	// Rule 7: explicit "##" terminator line ends a multi-line block.
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "##" {
		return true
	}

	if len(lines) == 1 {
		line := lines[0]
		if bareWordRe.MatchString(strings.TrimSpace(line)) {
			return true // rule 2
		}
		if !bracketsBalanced(line) {
			return false // rule 4
		}
		if eq := assignRHS(line); eq != "" {
			return strings.TrimSpace(eq) != "" // rule 3
		}
		if strings.HasSuffix(strings.TrimSpace(line), "=") {
			return false // rule 3: nothing after the "="
		}
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			return false // rule 5: a block opener alone is never complete
		}
		return true
	}

	return isCompleteMultiline(lines)
}

// assignRHS returns the right-hand side text of a top-level "=" assignment
// on a single line, or "" if the line isn't a bare assignment (this is a
// light heuristic, not the full parser: it only looks for an unquoted,
// unbracketed "=" that is not part of "==", "!=", "<=", ">=").
func assignRHS(line string) string {
	depth := 0
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			prev := byte(0)
			if i > 0 {
				prev = line[i-1]
			}
			next := byte(0)
			if i+1 < len(line) {
				next = line[i+1]
			}
			if prev == '=' || prev == '!' || prev == '<' || prev == '>' || next == '=' {
				continue
			}
			return line[i+1:]
		}
	}
	return ""
}

// bracketsBalanced reports whether (), [], {} are balanced on line, ignoring
// bracket characters inside string literals.
func bracketsBalanced(line string) bool {
	return netBracketDepth(line) == 0
}

// netBracketDepth returns the bracket nesting delta a line contributes,
// ignoring brackets inside string literals. Negative means more closes than
// opens (a dedent-causing or malformed line).
func netBracketDepth(line string) int {
	depth := 0
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// indentOf counts leading spaces.
func indentOf(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// isCompleteMultiline applies rules 4-6 across a multi-line fragment: overall
// bracket balance, and an indent-stack walk verifying every dedent returns to
// a previously seen level.
func isCompleteMultiline(lines []string) bool {
	totalDepth := 0
	indents := []int{0}
	lastColonIndent := -1

	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		totalDepth += netBracketDepth(line)
		if totalDepth < 0 {
			return false // more closes than opens anywhere: malformed
		}

		indent := indentOf(line)
		top := indents[len(indents)-1]
		switch {
		case indent > top:
			indents = append(indents, indent)
		case indent < top:
			found := false
			for i := len(indents) - 1; i >= 0; i-- {
				if indents[i] == indent {
					indents = indents[:i+1]
					found = true
					break
				}
			}
			if !found {
				return false // rule 6: dedent to an unseen level
			}
		}

		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "else:") || trimmedLine == "else:" {
			if lastColonIndent >= 0 && indent != lastColonIndent {
				return false // rule 6: else: must align with its if:
			}
		}
		if strings.HasSuffix(trimmedLine, ":") {
			lastColonIndent = indent
			if idx == len(lines)-1 {
				return false // rule 5: trailing block opener needs a body
			}
		}
	}

	if totalDepth != 0 {
		return false
	}

	// The fragment is syntactically closed only once the final line is not
	// itself more indented than its block header expects further content;
	// conservatively require the last non-blank line to be a real statement,
	// not a dangling colon (already checked above) and not deeper than the
	// current top indent with nothing following.
	return true
}
