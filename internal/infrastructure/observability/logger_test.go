package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGlobalLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	buf := captureGlobalLogger(t)

	LoggerFromContext(context.Background()).Info().Msg("hello")

	line := lastLine(t, buf)
	assert.Equal(t, "hello", line["message"])
	assert.NotContains(t, line, "request_id")
}

func TestWithLogFields_Accumulates(t *testing.T) {
	buf := captureGlobalLogger(t)

	ctx := WithLogFields(context.Background(), "request_id", "req-1")
	ctx = WithLogFields(ctx, "user_id", "u1")
	LoggerFromContext(ctx).Info().Msg("created place")

	line := lastLine(t, buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "u1", line["user_id"])
}

func TestWithLogFields_IgnoresDanglingKey(t *testing.T) {
	buf := captureGlobalLogger(t)

	ctx := WithLogFields(context.Background(), "request_id")
	LoggerFromContext(ctx).Info().Msg("x")

	assert.NotContains(t, lastLine(t, buf), "request_id")
}
