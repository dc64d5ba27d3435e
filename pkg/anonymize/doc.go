// Package anonymize scrubs identifying attributes from metadata records
// and optionally remaps patient identifiers through a correlation table.
//
// Redaction is independent of classification and never touches the
// attributes classification rules key on; the pipeline classifies every
// record before redacting it, so rules always see pre-redaction values.
package anonymize
