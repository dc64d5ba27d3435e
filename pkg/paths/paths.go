// Package paths turns classification results into destination paths.
// Path building is plumbing around the rule engine: it only consumes
// the record and the resolved category, never feeds back into matching.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dcmsort/pkg/bids"
	"dcmsort/pkg/metadata"
	"dcmsort/pkg/rules"
)

// UnknownComponent stands in for absent attributes in destination paths
const UnknownComponent = "UNKNOWN"

// DefaultUnclassifiedDir is the bucket for records no rule matched
const DefaultUnclassifiedDir = "unclassified"

// Layout renders destination directories for classified records
type Layout struct {
	// UnclassifiedDir is the top-level bucket for unmatched records;
	// empty means DefaultUnclassifiedDir
	UnclassifiedDir string
}

// Dir returns the destination directory, relative to the output root,
// for a record and its classification. Matched records land in
// <datatype>/<patient-id>/<suffix components>; unmatched records land
// in the unclassified bucket under the original sorter's
// patient/date/series layout.
func (l Layout) Dir(rec metadata.Record, result rules.Result) string {
	patientID := SanitizeComponent(rec.StringOr(metadata.PatientID, UnknownComponent))

	if result.Matched {
		label := bids.BuildLabel(result.Rule.Datatype, result.Rule.Suffix, result.Rule.CustomEntities)
		datatype, suffix := bids.SplitLabel(label)
		return filepath.Join(SanitizeComponent(datatype), patientID, SanitizeComponent(suffix))
	}

	bucket := l.UnclassifiedDir
	if bucket == "" {
		bucket = DefaultUnclassifiedDir
	}
	studyDate := SanitizeComponent(rec.StringOr(metadata.StudyDate, UnknownComponent))
	series := SanitizeComponent(rec.StringOr(metadata.SeriesDescription, UnknownComponent))
	return filepath.Join(bucket, patientID, studyDate, series)
}

// SanitizeComponent makes one path component filesystem-safe: spaces
// and dots become underscores, `*` is dropped, and characters reserved
// on common filesystems are removed. An empty result falls back to
// UnknownComponent so a path never collapses.
func SanitizeComponent(component string) string {
	replacer := strings.NewReplacer(" ", "_", ".", "_", "*", "")
	component = replacer.Replace(component)

	var b strings.Builder
	for _, r := range component {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?':
			continue
		}
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return UnknownComponent
	}
	return out
}

// UniqueName returns a filename that does not yet exist in dir by
// appending _1, _2, ... before the extension until the name is free.
func UniqueName(dir, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	candidate := filename
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}
