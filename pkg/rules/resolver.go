package rules

import (
	"github.com/rs/zerolog"

	"dcmsort/pkg/logging"
	"dcmsort/pkg/metadata"
)

// Resolver matches records against an ordered rule list. The rule list
// is fixed at construction and shared read-only, so a single Resolver
// is safe for concurrent use across worker goroutines.
type Resolver struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewResolver creates a resolver over the given ordered rule list
func NewResolver(ruleList []Rule) *Resolver {
	return &Resolver{
		rules:  ruleList,
		logger: logging.GetLogger("rules.resolver"),
	}
}

// Rules returns the resolver's rule list
func (r *Resolver) Rules() []Rule {
	return r.rules
}

// Resolve scans the rule list in declared order and returns the first
// rule whose criteria block matches the record. There is no scoring and
// no backtracking: rule authors list more specific rules first. When no
// rule matches the Result reports Matched=false and the caller routes
// the record to the unclassified bucket.
func (r *Resolver) Resolve(rec metadata.Record) Result {
	for i := range r.rules {
		if r.rules[i].Criteria.Matches(rec) {
			r.logger.Debug().
				Int("rule", i).
				Str("datatype", r.rules[i].Datatype).
				Str("suffix", r.rules[i].Suffix).
				Msg("Record matched rule")
			return Result{Matched: true, Rule: &r.rules[i], Index: i}
		}
	}

	r.logger.Debug().
		Int("ruleCount", len(r.rules)).
		Msg("Record matched no rule")
	return Result{Matched: false, Index: -1}
}
