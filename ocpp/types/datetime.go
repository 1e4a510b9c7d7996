package types

import (
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// DateTime wraps time.Time for RFC 3339 / ISO-8601 UTC wire
// compatibility, exactly as the teacher's types.DateTime does, but
// with a lenient UnmarshalJSON: some deployed Central Systems still
// emit legacy ISO-8601 variants (no colon in the offset, no
// sub-second component) that time.RFC3339 rejects outright.
type DateTime struct {
	time.Time
}

// NewDateTime creates a new DateTime, embedding a time.Time.
func NewDateTime(t time.Time) *DateTime {
	return &DateTime{Time: t.UTC()}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.UTC().Format(time.RFC3339Nano) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		d.Time = t.UTC()
		return nil
	}
	t, err := iso8601.ParseString(s)
	if err != nil {
		return err
	}
	d.Time = t.UTC()
	return nil
}

// IsZero reports whether the DateTime carries the zero time.Time.
func (d *DateTime) IsZero() bool {
	return d == nil || d.Time.IsZero()
}
