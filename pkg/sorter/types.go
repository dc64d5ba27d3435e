package sorter

import (
	"sync/atomic"

	"dcmsort/pkg/anonymize"
	"dcmsort/pkg/metadata"
)

// Codec is the decoder/encoder collaborator. Decode extracts a metadata
// record from a file; Rewrite applies a redaction mutation while
// copying a dataset to a new path.
type Codec interface {
	Decode(path string) (metadata.Record, error)
	Rewrite(src, dst string, mutation anonymize.Mutation) error
}

// Options configures one sorting run
type Options struct {
	// InputDir is walked recursively for candidate files
	InputDir string

	// OutputDir is the root of the sorted hierarchy
	OutputDir string

	// Move relocates files instead of copying them
	Move bool

	// Force overwrites existing destination files instead of picking
	// a unique name
	Force bool

	// Workers bounds per-file parallelism; 0 means max(2, NumCPU/2)
	Workers int
}

// Stats counts per-file outcomes for one run. Counters are atomic so
// workers update them without coordination.
type Stats struct {
	Found        atomic.Int64 // files seen by the walk
	Skipped      atomic.Int64 // known non-DICOM extensions
	Failed       atomic.Int64 // decode or write failures
	Sorted       atomic.Int64 // files placed under a matched category
	Unclassified atomic.Int64 // files placed in the unclassified bucket
}

// Summary is a plain-value snapshot of Stats for reporting
type Summary struct {
	Found        int64
	Skipped      int64
	Failed       int64
	Sorted       int64
	Unclassified int64
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() Summary {
	return Summary{
		Found:        s.Found.Load(),
		Skipped:      s.Skipped.Load(),
		Failed:       s.Failed.Load(),
		Sorted:       s.Sorted.Load(),
		Unclassified: s.Unclassified.Load(),
	}
}
