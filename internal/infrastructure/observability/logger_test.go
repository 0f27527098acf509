package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestInitLogger_ParsesLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	InitLogger("test", "production", "debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitLogger("test", "production", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestRecordHelpers_AcceptNilMetrics(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordRefresh(ctx, nil, "fetched", 3)
		RecordMatch(ctx, nil, "matched")
		RecordTranslationFailure(ctx, nil, "en")
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, 0)
	})
}

func TestInitMetrics_WithGlobalNoopProvider(t *testing.T) {
	metrics, err := InitMetrics()

	assert.NoError(t, err)
	assert.NotPanics(t, func() {
		RecordRefresh(context.Background(), metrics, "fetched", 3)
	})
}
