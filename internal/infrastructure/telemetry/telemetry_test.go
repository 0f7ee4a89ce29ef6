package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{ServiceName: "test"}, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "test"}, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{ServiceName: "test"}, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Same(t, logger, telemetry.BridgeLogger(logger, "test", lp, zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(ctx))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, logger)
	require.NoError(t, err)
	assert.False(t, profiler.IsEnabled())
	assert.NoError(t, profiler.Stop())
	assert.NoError(t, profiler.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         true,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "crm",
		ProfileTypes:    []string{"cpu", "heap"},
	}, zap.NewNop())
	assert.ErrorContains(t, err, "heap")
}

func TestConversionMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics, err := telemetry.NewConversionMetrics(provider.Meter("test"))
	require.NoError(t, err)

	metrics.RecordConversion(ctx, 6, telemetry.OutcomeConverted, "", 20*time.Millisecond)
	metrics.RecordConversion(ctx, 6, telemetry.OutcomeRejected, "LEAD_ALREADY_CONVERTED", time.Millisecond)
	metrics.RecordLeadCreated(ctx, 6)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if m.Name == "crm_lead_conversions_total" {
				sum := m.Data.(metricdata.Sum[int64])
				assert.Len(t, sum.DataPoints, 2)
			}
		}
	}
	assert.True(t, found["crm_lead_conversions_total"])
	assert.True(t, found["crm_lead_conversion_duration_seconds"])
	assert.True(t, found["crm_leads_created_total"])

	var nilMetrics *telemetry.ConversionMetrics
	assert.NotPanics(t, func() { nilMetrics.RecordConversion(ctx, 1, telemetry.OutcomeFailed, "", 0) })

	_, err = telemetry.NewConversionMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := telemetry.StartServiceSpan(context.Background(), "lead_conversion", "convert")
	id := int64(42)
	telemetry.SetInt64(span, telemetry.SpanAttrLeadID, &id)
	telemetry.RecordError(span, assert.AnError)
	assert.NotEmpty(t, telemetry.TraceID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "lead_conversion.convert", ended[0].Name())
	assert.Len(t, ended[0].Events(), 1)
	assert.Empty(t, telemetry.TraceID(context.Background()))
}

func TestDBTracingPlugin(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	disabled := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{}, zap.NewNop())
	require.NoError(t, disabled.RegisterOtelGorm(db))

	enabled := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, enabled.RegisterOtelGorm(db))

	var one int
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}
