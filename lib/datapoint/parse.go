package datapoint

import (
	"github.com/go-faster/errors"
	"strconv"
	"strings"
)

// ParseLine parses a single protocol line (with or without the trailing newline)
// back into a DataPoint.
func ParseLine(line string) (DataPoint, error) {
	fields := strings.Fields(strings.TrimSuffix(line, "\n"))
	if len(fields) < 4 {
		return DataPoint{}, errors.Wrapf(ErrInvalid, "expected at least 4 fields, got %d", len(fields))
	}
	if fields[0] != "put" {
		return DataPoint{}, errors.Wrapf(ErrInvalid, "unknown command %q", fields[0])
	}

	ts, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return DataPoint{}, errors.Wrapf(ErrInvalid, "timestamp %q", fields[2])
	}

	value, err := ParseValue(fields[3])
	if err != nil {
		return DataPoint{}, err
	}

	var tags map[string]string
	if len(fields) > 4 {
		tags = make(map[string]string, len(fields)-4)
		for _, tag := range fields[4:] {
			k, v, ok := strings.Cut(tag, "=")
			if !ok {
				return DataPoint{}, errors.Wrapf(ErrInvalid, "tag %q is not key=value", tag)
			}
			if _, dup := tags[k]; dup {
				return DataPoint{}, errors.Wrapf(ErrInvalid, "duplicate tag key %q", k)
			}
			tags[k] = v
		}
	}

	return New(fields[1], ts, value, tags)
}

// ParseValue parses an integer literal first and falls back to a decimal literal
func ParseValue(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, errors.Wrapf(ErrInvalid, "value %q", s)
	}
	return Float(f), nil
}
