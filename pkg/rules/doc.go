// Package rules implements the declarative classification engine for dcmsort.
//
// A rule file describes an ordered list of rules, each mapping a criteria
// block to a category (datatype, suffix, optional custom entities). Records
// are matched against rules strictly in declared order and the first match
// wins, so more specific rules must be listed before the broader rules that
// overlap them.
//
// # Criteria Conventions
//
// Each criteria block maps attribute names to patterns. All attributes in a
// block must match (logical AND). A pattern is one of:
//
//   - `AX FLAIR` - literal string match
//   - `*FLAIR*` - wildcard match, `*` matches any run of characters
//   - `{"le": 2.5}` - relational comparison (lt, le, gt, ge, eq)
//   - `["ORIGINAL", "PRIMARY", "M"]` - ordered-sequence equality
//   - `{"any": [...]}` - OR over a list of the above
//
// Sequence patterns are order- and length-sensitive: they exist to tell
// apart acquisitions whose ImageType orderings differ, so no set semantics
// are applied.
//
// # Failure Semantics
//
// Malformed rules (unknown operator, bad `any` list, missing datatype) are
// rejected when the rule file is loaded. Matching itself never fails: an
// attribute that is absent from a record, or that cannot be coerced to the
// shape a pattern needs, simply does not match.
//
// # Configuration
//
// Rule files may be JSON (the documented default, compatible with
// dcm2bids-style description lists), YAML, or TOML:
//
//	{
//	  "descriptions": [
//	    {
//	      "datatype": "anat",
//	      "suffix": "T1w",
//	      "criteria": {
//	        "SeriesDescription": {"any": ["*mprage*", "*TFE*"]},
//	        "SliceThickness": {"le": 2.5}
//	      }
//	    }
//	  ]
//	}
package rules
