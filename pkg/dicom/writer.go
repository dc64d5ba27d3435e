package dicom

import (
	"os"

	"github.com/suyashkumar/dicom"

	"dcmsort/pkg/anonymize"
	"dcmsort/pkg/errors"
)

// Rewrite parses src, applies the mutation map to the named elements,
// and writes the result to dst. Elements listed in the mutation but
// absent from the dataset are left absent: redaction never invents
// fields. The full dataset including pixel data is carried through.
func (d *Decoder) Rewrite(src, dst string, mutation anonymize.Mutation) error {
	ds, err := dicom.ParseFile(src, nil)
	if err != nil {
		return errors.Wrapf(err, errors.ErrDecode, "not a DICOM file: %s", src)
	}

	for name, replacement := range mutation {
		t, known := attributeTags[name]
		if !known {
			continue
		}
		existing, err := ds.FindElementByTag(t)
		if err != nil || existing == nil {
			continue
		}
		el, err := dicom.NewElement(t, []string{replacement})
		if err != nil {
			return errors.Wrapf(err, errors.ErrEncode, "failed to build replacement element %s", name)
		}
		for i := range ds.Elements {
			if ds.Elements[i].Tag == t {
				ds.Elements[i] = el
			}
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create %s", dst)
	}
	defer func() { _ = out.Close() }()

	if err := dicom.Write(out, ds, dicom.SkipVRVerification()); err != nil {
		return errors.Wrapf(err, errors.ErrEncode, "failed to write %s", dst)
	}
	return nil
}
