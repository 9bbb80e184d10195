package common

import (
	"io"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorKindsUnwrap(t *testing.T) {
	write := &WriteError{ConnID: 3, Cause: io.ErrClosedPipe}
	exhausted := &RetriesExhaustedError{Attempts: 4, Cause: write}

	require.True(t, errors.Is(exhausted, io.ErrClosedPipe))

	var we *WriteError
	require.True(t, errors.As(exhausted, &we))
	require.Equal(t, uint64(3), we.ConnID)

	acquire := &AcquireError{Endpoint: "localhost:4242", Cause: ErrPoolClosed}
	require.True(t, errors.Is(acquire, ErrPoolClosed))
	require.Contains(t, acquire.Error(), "localhost:4242")
}
