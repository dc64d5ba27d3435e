// Package metadata defines the per-file attribute record the rule engine
// evaluates. A record maps attribute names to values that are either a
// scalar (string or number) or an ordered string sequence.
//
// Records are read from a decoded file once and never mutated afterwards.
// All coercions are soft: a value that cannot be read in the requested
// shape reports absence rather than an error, since absence is data for
// the matcher, not a failure.
package metadata

import "strconv"

// Well-known attribute names used by classification and redaction.
const (
	PatientID         = "PatientID"
	PatientName       = "PatientName"
	PatientBirthDate  = "PatientBirthDate"
	StudyDate         = "StudyDate"
	SeriesNumber      = "SeriesNumber"
	SeriesDescription = "SeriesDescription"
	SliceThickness    = "SliceThickness"
	EchoTime          = "EchoTime"
	ProtocolName      = "ProtocolName"
	ImageType         = "ImageType"
	SOPInstanceUID    = "SOPInstanceUID"
)

type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindSequence
)

// Value holds one attribute value: a scalar string, a scalar number,
// or an ordered sequence of strings.
type Value struct {
	kind valueKind
	str  string
	num  float64
	seq  []string
}

// String constructs a scalar string value
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// Number constructs a scalar numeric value
func Number(f float64) Value {
	return Value{kind: kindNumber, num: f}
}

// Sequence constructs an ordered string-sequence value
func Sequence(elems ...string) Value {
	return Value{kind: kindSequence, seq: elems}
}

// AsString returns the value coerced to a string. Sequences do not
// coerce to strings; the matcher compares them element-wise instead.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case kindString:
		return v.str, true
	case kindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64), true
	default:
		return "", false
	}
}

// AsFloat returns the value coerced to a number. String scalars are
// parsed; anything unparseable reports absence.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindString:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsSequence returns the value as an ordered string sequence.
// Scalars do not promote to single-element sequences.
func (v Value) AsSequence() ([]string, bool) {
	if v.kind != kindSequence {
		return nil, false
	}
	return v.seq, true
}

// IsSequence reports whether the value is sequence-shaped
func (v Value) IsSequence() bool {
	return v.kind == kindSequence
}

// Record maps attribute names to values for one decoded file
type Record map[string]Value

// Get is the explicit get-or-absent accessor. A missing attribute is
// never an error; callers treat absence as a non-match.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// StringOr returns the attribute coerced to a string, or fallback when
// the attribute is absent or not string-shaped. Used by path building,
// which mirrors the original tool's 'UNKNOWN' placeholder behavior.
func (r Record) StringOr(field, fallback string) string {
	v, ok := r[field]
	if !ok {
		return fallback
	}
	s, ok := v.AsString()
	if !ok {
		return fallback
	}
	return s
}

// Clone returns a copy of the record that shares no mutable state with
// the original. Sequence backing arrays are copied.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v.kind == kindSequence {
			seq := make([]string, len(v.seq))
			copy(seq, v.seq)
			v.seq = seq
		}
		out[k] = v
	}
	return out
}
