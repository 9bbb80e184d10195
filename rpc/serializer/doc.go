// Package serializer turns data points into the payload bytes that the client
// writes to a pooled connection.
//
// Key Components:
//
//   - IPutSerializer: Core interface that all serializer implementations must satisfy.
//
//   - lineSerializerImpl: Line protocol implementation. A single point becomes one
//     "put ..." line, a batch becomes the concatenation of its lines in the order the
//     caller supplied them, so that a whole batch is sent with one write.
//
// Thread Safety:
//
//	Serializers are stateless and safe for concurrent use. The line serializer reuses
//	scratch buffers through a bytebufferpool.Pool; the returned payload is always a
//	fresh slice owned by the caller.
//
// Usage:
//
//	s := serializer.NewLineSerializer()
//	payload, err := s.Serialize(p1, p2, p3)
package serializer
