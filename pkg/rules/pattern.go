package rules

import (
	"strings"

	"dcmsort/pkg/metadata"
)

// RelOp is a relational comparison operator in a rule pattern
type RelOp string

const (
	OpLt RelOp = "lt"
	OpLe RelOp = "le"
	OpGt RelOp = "gt"
	OpGe RelOp = "ge"
	OpEq RelOp = "eq"
)

// IsRelOp reports whether s names a known relational operator
func IsRelOp(s string) bool {
	switch RelOp(s) {
	case OpLt, OpLe, OpGt, OpGe, OpEq:
		return true
	}
	return false
}

type patternKind int

const (
	patternWildcard patternKind = iota
	patternRelational
	patternSequence
	patternAny
)

// Pattern is one atomic test against a single attribute value. Patterns
// are compiled at rule-load time and never fail at match time: a value
// that is absent or the wrong shape is a non-match, not an error.
type Pattern struct {
	kind  patternKind
	text  string    // wildcard literal
	op    RelOp     // relational operator
	bound float64   // relational bound
	seq   []string  // ordered-sequence pattern
	alts  []Pattern // any-of alternatives
}

// Wildcard returns a pattern matching the value's string form, with `*`
// matching any run of characters. No other metacharacters exist.
func Wildcard(text string) Pattern {
	return Pattern{kind: patternWildcard, text: text}
}

// Relational returns a pattern comparing the value's numeric form
// against bound with op
func Relational(op RelOp, bound float64) Pattern {
	return Pattern{kind: patternRelational, op: op, bound: bound}
}

// SequenceEq returns a pattern requiring element-wise equality against
// the full sequence: order-sensitive and length-sensitive
func SequenceEq(elems ...string) Pattern {
	return Pattern{kind: patternSequence, seq: elems}
}

// AnyOf returns a pattern that matches when any alternative matches
func AnyOf(alts ...Pattern) Pattern {
	return Pattern{kind: patternAny, alts: alts}
}

// Match tests the pattern against one attribute value
func (p Pattern) Match(v metadata.Value) bool {
	switch p.kind {
	case patternWildcard:
		s, ok := v.AsString()
		return ok && wildcardMatch(p.text, s)
	case patternRelational:
		f, ok := v.AsFloat()
		return ok && compareNumeric(p.op, f, p.bound)
	case patternSequence:
		seq, ok := v.AsSequence()
		return ok && sequenceEqual(p.seq, seq)
	case patternAny:
		for _, alt := range p.alts {
			if alt.Match(v) {
				return true
			}
		}
		return false
	}
	return false
}

func compareNumeric(op RelOp, value, bound float64) bool {
	switch op {
	case OpLt:
		return value < bound
	case OpLe:
		return value <= bound
	case OpGt:
		return value > bound
	case OpGe:
		return value >= bound
	case OpEq:
		return value == bound
	}
	return false
}

func sequenceEqual(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// wildcardMatch matches s against a pattern where `*` matches zero or
// more characters and everything else is literal. Deliberately not a
// glob or regexp: no escapes, no `?`, no character classes.
func wildcardMatch(pattern, s string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	segments := strings.Split(pattern, "*")

	// First segment is anchored at the start
	if !strings.HasPrefix(s, segments[0]) {
		return false
	}
	s = s[len(segments[0]):]

	// Last segment is anchored at the end
	last := segments[len(segments)-1]
	if !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	// Middle segments must appear in order
	for _, seg := range segments[1 : len(segments)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(s, seg)
		if idx < 0 {
			return false
		}
		s = s[idx+len(seg):]
	}
	return true
}
