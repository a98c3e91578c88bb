package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/validate"
)

// Now returns the current time at the precision the document store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ParseTime normalizes a client-supplied timestamp. Strings are parsed with
// validate.ParseDate; numbers are epoch milliseconds.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Truncate(time.Millisecond), nil
	case string:
		parsed, err := validate.ParseDate(t)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC().Truncate(time.Millisecond), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, fmt.Errorf("invalid timestamp %v", t)
		}
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

// extras copies doc without the reserved keys.
func extras(doc map[string]any, reserved ...string) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, k := range reserved {
		delete(out, k)
	}
	return out
}

// flatten merges the free-form fields under the fixed ones for JSON output.
func flatten(fields map[string]any, fixed map[string]any) ([]byte, error) {
	out := make(map[string]any, len(fields)+len(fixed))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range fixed {
		out[k] = v
	}
	return json.Marshal(out)
}
