package exporters

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLogExporter_ExportSpans(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	spans := tracetest.SpanStubs{{
		Name:       "consolidation.Consolidator.Merge",
		StartTime:  start,
		EndTime:    start.Add(15 * time.Millisecond),
		Attributes: []attribute.KeyValue{attribute.StringSlice("prisoner.numbers", []string{"A3333AA", "A4444AA"})},
	}}.Snapshots()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	assert.NoError(t, NewLogExporter(logger).ExportSpans(context.Background(), spans))
	assert.NoError(t, NewLogExporter(nil).ExportSpans(context.Background(), spans))
	assert.NoError(t, NewLogExporter(logger).Shutdown(context.Background()))
}
