package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/domain"
)

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0))
}

func TestMetricsObserveTiers(t *testing.T) {
	m := NewMetrics()
	m.ObserveTiers([]domain.TierSummary{
		{Tier: domain.Tier1, Capacity: 4, Free: 3, Occupied: 1},
		{Tier: domain.Tier2, Capacity: 2, Free: 0, Occupied: 2},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.tierSlots.WithLabelValues("TIER_1", "free")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tierSlots.WithLabelValues("TIER_1", "occupied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tierSlots.WithLabelValues("TIER_2", "occupied")))
}

func TestMetricsRecordRequest(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/parking/slots", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/api/v1/parking/slots", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/v1/parking/vehicles", "POST", "NO_CAPACITY")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/v1/parking/slots", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues("POST", "/api/v1/parking/vehicles", "NO_CAPACITY")))

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	nilMetrics.ObserveTiers(nil)
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.TelemetryConfig{ServiceName: "test"}, "dev")
	require.NoError(t, err)

	_, span := tel.Tracer().Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, tel.Shutdown(context.Background()))
}
