// Package postal normalizes Canadian postal codes and resolves them to
// coordinates using an offline reference dataset.
package postal

import (
	"regexp"
	"strings"
)

// codePattern matches a correctly spaced Canadian postal code. The letters
// D, F, I, O, Q and U are never issued and are rejected separately since Go
// regexps have no lookahead.
var codePattern = regexp.MustCompile(`^[A-VXY][0-9][A-Z] [0-9][A-Z][0-9]$`)

const forbiddenLetters = "DFIOQU"

// Normalize cleans up a raw postal-code string: leading whitespace is
// trimmed, a 6-character code gets its missing middle space inserted, and
// the result is uppercased. An empty input stays empty; Normalize never
// fails. It is idempotent.
func Normalize(raw string) string {
	pc := strings.TrimLeft(raw, " ")
	if pc == "" {
		return ""
	}
	if len(pc) == 6 {
		pc = pc[:3] + " " + pc[3:]
	}
	return strings.ToUpper(pc)
}

// Valid reports whether code is a normalized, well-formed Canadian postal
// code. Callers should Normalize first.
func Valid(code string) bool {
	if !codePattern.MatchString(code) {
		return false
	}
	return !strings.ContainsAny(code, forbiddenLetters)
}
