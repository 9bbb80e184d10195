package serializer

import "github.com/ValentinKolb/tsput/lib/datapoint"

// IPutSerializer is the interface for all data point serializers
type IPutSerializer interface {
	// Serialize serializes the given points, in order, into a single payload
	// It returns the payload and an error if any
	Serialize(points ...datapoint.DataPoint) ([]byte, error)
	// GetName returns the name of the wire format (e.g. "line")
	GetName() string
}
