package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestFailPassesErrorThrough(t *testing.T) {
	_, span := Start(context.Background(), "test")
	defer span.End()

	boom := errors.New("boom")
	assert.Same(t, boom, Fail(span, boom))
	assert.NoError(t, Fail(span, nil))
}
