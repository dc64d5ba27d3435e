// Package bids synthesizes canonical category labels from matched rules.
package bids

import "strings"

// LabelSeparator splits the datatype from the suffix components
const LabelSeparator = "/"

// BuildLabel composes the category label for a matched rule from its
// datatype, suffix, and optional custom entities: "anat/T1w",
// "anat/T1w_ce-GD". It is a pure function of the rule fields; any
// record-dependent variant (magnitude vs phase and the like) is already
// captured by the criteria that selected the rule.
func BuildLabel(datatype, suffix, customEntities string) string {
	var b strings.Builder
	b.WriteString(datatype)
	b.WriteString(LabelSeparator)
	b.WriteString(suffix)
	if customEntities != "" {
		b.WriteString("_")
		b.WriteString(customEntities)
	}
	return b.String()
}

// SplitLabel splits a category label into its datatype and suffix
// components. A label without a separator is all datatype.
func SplitLabel(label string) (datatype, suffix string) {
	idx := strings.Index(label, LabelSeparator)
	if idx < 0 {
		return label, ""
	}
	return label[:idx], label[idx+len(LabelSeparator):]
}
