// Package datapoint defines the immutable time-series record that tsput delivers
// to the remote store, together with its line protocol representation.
//
// Every data point serializes to exactly one newline-terminated line:
//
//	put <metric> <timestamp> <value> [<tagKey>=<tagValue> ...]\n
//
// Key Components:
//
//   - DataPoint: a metric name, a millisecond timestamp, a numeric Value and a set of
//     tags. Built once via New and never mutated afterward (the tag map is copied).
//
//   - Value: either an integer or a finite floating point number. Integers are
//     written as integer literals, floats as plain decimal literals without exponent.
//
//   - AppendLine / String: line protocol formatting. Tags are written in sorted key
//     order so that the output is deterministic, although the store treats them as a set.
//
//   - ParseLine: the inverse of String, used by the sink server to validate what it receives.
//
// Usage Example:
//
//	p, err := datapoint.New("cpu", 1700000000000, datapoint.Int(42), map[string]string{"host": "a"})
//	if err != nil {
//	  return err
//	}
//	fmt.Print(p.String()) // put cpu 1700000000000 42 host=a\n
package datapoint
