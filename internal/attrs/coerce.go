package attrs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/groblegark/krecords/internal/model"
)

// Canonical storage forms. Attribute values are stored as text regardless of
// declared type; writes normalize to these so that reads and the indexed
// (field_api_name, value) point query compare like for like.
const (
	dateLayout     = "2006-01-02"
	datetimeLayout = time.RFC3339
)

// acceptedTimeLayouts are the input encodings Canonicalize tolerates for
// date and datetime values. Callers (e.g. the import pipeline) are expected
// to have already parsed free-form text down to one of these.
var acceptedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

// Canonicalize coerces a raw value to its canonical string form for the
// field's data type. An empty raw value passes through unchanged: it reads
// as null. Errors are per-value write failures, reported per field by
// SetAttributes rather than failing the batch.
func Canonicalize(f *model.FieldDefinition, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	switch f.DataType {
	case model.TypeNumber, model.TypeCurrency:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return "", fmt.Errorf("not a number: %q", raw)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil

	case model.TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return "", fmt.Errorf("not a boolean: %q", raw)
		}
		return strconv.FormatBool(b), nil

	case model.TypeDate:
		t, err := parseAccepted(raw)
		if err != nil {
			return "", err
		}
		return t.UTC().Format(dateLayout), nil

	case model.TypeDatetime:
		t, err := parseAccepted(raw)
		if err != nil {
			return "", err
		}
		return t.UTC().Format(datetimeLayout), nil

	case model.TypePicklist:
		values := f.PicklistValues()
		for _, v := range values {
			if v == raw {
				return raw, nil
			}
		}
		return "", fmt.Errorf("%q is not a picklist option", raw)

	default:
		// text, textarea, rich_text, email, url, lookup: stored verbatim.
		// Lookup values are record ids with no enforced referential
		// integrity; dangling values are a normal state.
		return raw, nil
	}
}

func parseAccepted(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value: %q", raw)
}
