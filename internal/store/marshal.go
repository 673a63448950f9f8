package store

import (
	"fmt"
	"time"

	"github.com/roach88/lawstack/internal/param"
)

// Values are stored as plain JSON. Numbers round-trip through their
// JSON text, so an integral real number ("132900") comes back as an
// integer; coerce against the catalogue's declared type when the kind
// matters.

func marshalValue(v param.Value) (string, error) {
	b, err := param.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(b), nil
}

func unmarshalValue(s string) (param.Value, error) {
	v, err := param.UnmarshalValue([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

// Timestamps are stored as RFC 3339 with nanoseconds, in UTC.

func marshalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time %q: %w", s, err)
	}
	return t, nil
}
