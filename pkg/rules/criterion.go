package rules

import "dcmsort/pkg/metadata"

// Criterion maps attribute names to patterns. Every entry must match
// the record for the criterion to match.
type Criterion map[string]Pattern

// Matches evaluates the criterion against a record. An attribute listed
// in the criterion but absent from the record fails that entry, which
// fails the whole criterion. Evaluation never returns an error and
// never mutates the record.
func (c Criterion) Matches(rec metadata.Record) bool {
	for field, pattern := range c {
		v, ok := rec.Get(field)
		if !ok {
			return false
		}
		if !pattern.Match(v) {
			return false
		}
	}
	return true
}
