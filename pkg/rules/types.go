package rules

// Rule is one ordered classification rule: a criteria block plus the
// category it assigns. Rules are immutable after loading; their relative
// order in the rule file decides precedence.
type Rule struct {
	// Datatype is the top-level category (e.g. "anat", "func", "dwi")
	Datatype string

	// Suffix is the category suffix (e.g. "T1w", "bold")
	Suffix string

	// CustomEntities is an optional extra label component spliced into
	// the output label (e.g. "ce-GD")
	CustomEntities string

	// Criteria is the AND-combined set of per-attribute patterns that
	// must all match for this rule to apply
	Criteria Criterion
}

// Result is the outcome of resolving one record against a rule list.
// Matched is false when no rule applied; the zero Result is therefore a
// valid "unclassified" outcome and is distinguishable from a match on a
// rule with empty label fields.
type Result struct {
	Matched bool

	// Rule is the winning rule; nil when Matched is false
	Rule *Rule

	// Index is the winning rule's position in the rule list; -1 when
	// Matched is false
	Index int
}
