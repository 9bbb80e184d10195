package datapoint

import (
	"github.com/go-faster/errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalid is returned for every data point that cannot be represented on the wire
var ErrInvalid = errors.New("invalid data point")

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is the numeric value of a data point (integer or floating point)
type Value struct {
	i       int64
	f       float64
	isFloat bool
}

// Int creates an integer value
func Int(v int64) Value {
	return Value{i: v}
}

// Float creates a floating point value
func Float(v float64) Value {
	return Value{f: v, isFloat: true}
}

// IsFloat reports whether the value holds a floating point number
func (v Value) IsFloat() bool {
	return v.isFloat
}

// Int64 returns the value as integer (floats are truncated)
func (v Value) Int64() int64 {
	if v.isFloat {
		return int64(v.f)
	}
	return v.i
}

// Float64 returns the value as float
func (v Value) Float64() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// AppendTo appends the literal representation of the value to dst
func (v Value) AppendTo(dst []byte) []byte {
	if v.isFloat {
		return strconv.AppendFloat(dst, v.f, 'f', -1, 64)
	}
	return strconv.AppendInt(dst, v.i, 10)
}

func (v Value) String() string {
	return string(v.AppendTo(nil))
}

// --------------------------------------------------------------------------
// DataPoint
// --------------------------------------------------------------------------

// DataPoint is a single immutable time-series record
type DataPoint struct {
	metric    string
	timestamp int64
	value     Value
	tags      map[string]string
	tagKeys   []string // sorted, cached for formatting
}

// New creates a validated data point. The tags map is copied, so later changes
// by the caller do not affect the point.
func New(metric string, timestamp int64, value Value, tags map[string]string) (DataPoint, error) {
	if err := validateToken(metric); err != nil {
		return DataPoint{}, errors.Wrapf(err, "metric %q", metric)
	}
	if value.isFloat && (math.IsNaN(value.f) || math.IsInf(value.f, 0)) {
		return DataPoint{}, errors.Wrapf(ErrInvalid, "value %v is not finite", value.f)
	}

	p := DataPoint{
		metric:    metric,
		timestamp: timestamp,
		value:     value,
	}

	if len(tags) > 0 {
		p.tags = make(map[string]string, len(tags))
		p.tagKeys = make([]string, 0, len(tags))
		for k, v := range tags {
			if err := validateToken(k); err != nil {
				return DataPoint{}, errors.Wrapf(err, "tag key %q", k)
			}
			if strings.ContainsRune(k, '=') {
				return DataPoint{}, errors.Wrapf(ErrInvalid, "tag key %q contains '='", k)
			}
			if err := validateToken(v); err != nil {
				return DataPoint{}, errors.Wrapf(err, "tag value %q of key %q", v, k)
			}
			if strings.ContainsRune(v, '=') {
				return DataPoint{}, errors.Wrapf(ErrInvalid, "tag value %q of key %q contains '='", v, k)
			}
			p.tags[k] = v
			p.tagKeys = append(p.tagKeys, k)
		}
		sort.Strings(p.tagKeys)
	}

	return p, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and constants.
func MustNew(metric string, timestamp int64, value Value, tags map[string]string) DataPoint {
	p, err := New(metric, timestamp, value, tags)
	if err != nil {
		panic(err)
	}
	return p
}

func (p DataPoint) Metric() string {
	return p.metric
}

func (p DataPoint) Timestamp() int64 {
	return p.timestamp
}

func (p DataPoint) Value() Value {
	return p.value
}

// Tags returns a copy of the tag set
func (p DataPoint) Tags() map[string]string {
	out := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		out[k] = v
	}
	return out
}

// AppendLine appends the line protocol representation of the point to dst:
// put <metric> <timestamp> <value> [<tagKey>=<tagValue> ...]\n
func (p DataPoint) AppendLine(dst []byte) []byte {
	dst = append(dst, "put "...)
	dst = append(dst, p.metric...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, p.timestamp, 10)
	dst = append(dst, ' ')
	dst = p.value.AppendTo(dst)
	for _, k := range p.tagKeys {
		dst = append(dst, ' ')
		dst = append(dst, k...)
		dst = append(dst, '=')
		dst = append(dst, p.tags[k]...)
	}
	return append(dst, '\n')
}

// String returns the newline-terminated protocol line
func (p DataPoint) String() string {
	return string(p.AppendLine(make([]byte, 0, 64)))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// validateToken checks that s is usable as a single space-separated protocol field
func validateToken(s string) error {
	if s == "" {
		return errors.Wrap(ErrInvalid, "empty")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.Wrap(ErrInvalid, "contains whitespace")
	}
	return nil
}
