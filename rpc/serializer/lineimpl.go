package serializer

import (
	"github.com/ValentinKolb/tsput/lib/datapoint"
	"github.com/go-faster/errors"
	"github.com/valyala/bytebufferpool"
)

// ErrEmptyPayload is returned when Serialize is called without any point
var ErrEmptyPayload = errors.New("no data points to serialize")

// lineSerializerImpl implements IPutSerializer for the newline-delimited put protocol
type lineSerializerImpl struct {
	buffers bytebufferpool.Pool
}

// NewLineSerializer creates a new line protocol serializer
func NewLineSerializer() IPutSerializer {
	return &lineSerializerImpl{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPutSerializer)
// --------------------------------------------------------------------------

func (s *lineSerializerImpl) GetName() string {
	return "line"
}

func (s *lineSerializerImpl) Serialize(points ...datapoint.DataPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPayload
	}

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	for i, p := range points {
		// the zero DataPoint was never validated by datapoint.New
		if p.Metric() == "" {
			return nil, errors.Wrapf(datapoint.ErrInvalid, "point %d has no metric", i)
		}
		buf.B = p.AppendLine(buf.B)
	}

	// copy out, the buffer goes back to the pool
	payload := make([]byte, len(buf.B))
	copy(payload, buf.B)
	return payload, nil
}
