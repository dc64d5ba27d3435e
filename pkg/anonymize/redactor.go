package anonymize

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"dcmsort/pkg/errors"
	"dcmsort/pkg/logging"
	"dcmsort/pkg/metadata"
)

// AnonymizedName replaces PatientName in scrubbed records
const AnonymizedName = "ANONYMIZED"

// Mutation maps attribute names to replacement values for the encoder
// to apply to the underlying dataset. An empty string clears the field.
type Mutation map[string]string

// Redactor produces sanitized copies of metadata records. Scrubbing is
// limited to PatientName and PatientBirthDate; PatientID is only ever
// remapped through the correlation table, never cleared. A single
// Redactor is safe for concurrent use: the missing-ID ledger is the
// only mutable state and is lock-protected.
type Redactor struct {
	scrub  bool
	table  Table
	logger zerolog.Logger

	mu      sync.Mutex
	missing map[string]struct{}
}

// NewRedactor creates a redactor. scrub controls clearing of name and
// birth date; table, when non-nil, enables identifier remapping.
func NewRedactor(scrub bool, table Table) *Redactor {
	return &Redactor{
		scrub:   scrub,
		table:   table,
		logger:  logging.GetLogger("anonymize.redactor"),
		missing: make(map[string]struct{}),
	}
}

// Active reports whether redaction should run at all: either scrubbing
// was requested or a correlation table was supplied.
func (r *Redactor) Active() bool {
	return r.scrub || r.table != nil
}

// Redact returns a sanitized copy of the record plus the mutation the
// encoder must apply to the stored dataset. The input record is never
// modified. Attributes absent from the record stay absent: redaction
// never invents fields.
func (r *Redactor) Redact(rec metadata.Record) (metadata.Record, Mutation) {
	out := rec.Clone()
	mutation := make(Mutation)

	if r.scrub {
		if _, ok := out.Get(metadata.PatientName); ok {
			out[metadata.PatientName] = metadata.String(AnonymizedName)
			mutation[metadata.PatientName] = AnonymizedName
		}
		if _, ok := out.Get(metadata.PatientBirthDate); ok {
			out[metadata.PatientBirthDate] = metadata.String("")
			mutation[metadata.PatientBirthDate] = ""
		}
	}

	if r.table != nil {
		if v, ok := out.Get(metadata.PatientID); ok {
			if id, isStr := v.AsString(); isStr {
				replacement, hit := r.table.Replace(id)
				if hit {
					out[metadata.PatientID] = metadata.String(replacement)
					mutation[metadata.PatientID] = replacement
				} else {
					r.recordMissing(id)
				}
			}
		}
	}

	return out, mutation
}

func (r *Redactor) recordMissing(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.missing[id]; !seen {
		r.logger.Debug().Str("patientID", id).Msg("PatientID not in correlation table")
	}
	r.missing[id] = struct{}{}
}

// MissingIDs returns the sorted set of identifiers that were looked up
// but absent from the correlation table.
func (r *Redactor) MissingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.missing))
	for id := range r.missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WriteMissingLog writes the missing-ID ledger to path, one identifier
// per line. It is a no-op when the ledger is empty.
func (r *Redactor) WriteMissingLog(path string) error {
	ids := r.MissingIDs()
	if len(ids) == 0 {
		return nil
	}

	content := strings.Join(ids, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write missing-ID log %s", path)
	}

	r.logger.Info().
		Str("path", path).
		Int("count", len(ids)).
		Msg("Wrote missing PatientID log")
	return nil
}
