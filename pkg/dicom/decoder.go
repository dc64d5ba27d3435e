// Package dicom is the decoder boundary: it extracts metadata records
// from DICOM files and applies redaction mutations back onto datasets.
// The rule engine never sees this package; it only consumes the records
// produced here.
package dicom

import (
	"github.com/rs/zerolog"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dcmsort/pkg/errors"
	"dcmsort/pkg/logging"
	"dcmsort/pkg/metadata"
)

// attributeTags maps record attribute names to their DICOM tags.
// Everything classification or redaction can key on is listed here.
var attributeTags = map[string]tag.Tag{
	metadata.PatientID:         tag.PatientID,
	metadata.PatientName:       tag.PatientName,
	metadata.PatientBirthDate:  tag.PatientBirthDate,
	metadata.StudyDate:         tag.StudyDate,
	metadata.SeriesNumber:      tag.SeriesNumber,
	metadata.SeriesDescription: tag.SeriesDescription,
	metadata.SliceThickness:    tag.SliceThickness,
	metadata.EchoTime:          tag.EchoTime,
	metadata.ProtocolName:      tag.ProtocolName,
	metadata.ImageType:         tag.ImageType,
	metadata.SOPInstanceUID:    tag.SOPInstanceUID,
}

// sequenceAttributes always decode as ordered sequences, even with a
// single element, because rules compare them element-wise
var sequenceAttributes = map[string]bool{
	metadata.ImageType: true,
}

// Decoder reads DICOM files into metadata records
type Decoder struct {
	logger zerolog.Logger
}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{logger: logging.GetLogger("dicom.decoder")}
}

// Decode parses a DICOM file and extracts the known attributes into a
// record. Pixel data is skipped: classification only needs headers.
// A file that is not parseable DICOM yields an error; the caller skips
// the file and the run continues.
func (d *Decoder) Decode(path string) (metadata.Record, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDecode, "not a DICOM file: %s", path)
	}

	rec := make(metadata.Record, len(attributeTags))
	for name, t := range attributeTags {
		el, err := ds.FindElementByTag(t)
		if err != nil || el == nil {
			continue
		}
		if v, ok := elementValue(name, el.Value.GetValue()); ok {
			rec[name] = v
		}
	}

	d.logger.Trace().
		Str("path", path).
		Int("attributes", len(rec)).
		Msg("Decoded file")
	return rec, nil
}

// elementValue converts a parsed element value into a record value
func elementValue(name string, raw interface{}) (metadata.Value, bool) {
	switch v := raw.(type) {
	case []string:
		if len(v) == 0 {
			return metadata.Value{}, false
		}
		if sequenceAttributes[name] || len(v) > 1 {
			return metadata.Sequence(v...), true
		}
		return metadata.String(v[0]), true
	case []int:
		if len(v) == 0 {
			return metadata.Value{}, false
		}
		return metadata.Number(float64(v[0])), true
	case []float64:
		if len(v) == 0 {
			return metadata.Value{}, false
		}
		return metadata.Number(v[0]), true
	case string:
		return metadata.String(v), true
	}
	return metadata.Value{}, false
}
