package log

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxReturnsStoredLogger(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)

	l := Ctx(ctx)
	l.Warn().Str("key", "value").Msg("something happened")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"key":"value"`)
	assert.Contains(t, out, "something happened")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	l := Ctx(context.Background())
	assert.Equal(t, L(), l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" WARNING "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}
