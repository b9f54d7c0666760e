package item

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zhouzirui/item-service/backend/internal/handler/item"

// metricsRecorder holds the instruments updated by item handlers.
type metricsRecorder struct {
	itemsCreated metric.Int64Counter
	itemsDeleted metric.Int64Counter
}

func newMetricsRecorder() (*metricsRecorder, error) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	itemsCreated, err := meter.Int64Counter(
		"items.created",
		metric.WithDescription("Total number of items created"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	itemsDeleted, err := meter.Int64Counter(
		"items.deleted",
		metric.WithDescription("Total number of items deleted"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsRecorder{
		itemsCreated: itemsCreated,
		itemsDeleted: itemsDeleted,
	}, nil
}

func (m *metricsRecorder) recordCreated(ctx context.Context) {
	m.itemsCreated.Add(ctx, 1)
}

func (m *metricsRecorder) recordDeleted(ctx context.Context) {
	m.itemsDeleted.Add(ctx, 1)
}
