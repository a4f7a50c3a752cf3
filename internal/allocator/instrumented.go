package allocator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/parking-service/internal/domain"
)

// InstrumentedAllocator wraps SlotAllocator with spans and OTel metrics.
type InstrumentedAllocator struct {
	*SlotAllocator
	tracer trace.Tracer

	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram
	occupancy         metric.Int64UpDownCounter
}

// NewInstrumentedAllocator registers the allocator instruments on meter.
func NewInstrumentedAllocator(base *SlotAllocator, tracer trace.Tracer, meter metric.Meter) (*InstrumentedAllocator, error) {
	operations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of allocator operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("parking_operation_duration_seconds",
		metric.WithDescription("Duration of allocator operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	occupancy, err := meter.Int64UpDownCounter("parking_tier_occupancy",
		metric.WithDescription("Current number of occupied slots per tier"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedAllocator{
		SlotAllocator:     base,
		tracer:            tracer,
		operations:        operations,
		operationDuration: operationDuration,
		occupancy:         occupancy,
	}, nil
}

// Assign traces SlotAllocator.Assign.
func (ia *InstrumentedAllocator) Assign(ctx context.Context, category domain.VehicleCategory, vehicleID string) (domain.Occupancy, error) {
	ctx, span := ia.tracer.Start(ctx, "allocator.assign",
		trace.WithAttributes(
			attribute.String("vehicle.category", string(category)),
			attribute.String("vehicle.id", vehicleID),
		))
	defer span.End()

	start := time.Now()
	occ, err := ia.SlotAllocator.Assign(category, vehicleID)

	labels := []attribute.KeyValue{attribute.String("operation", "assign")}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", failureStatus(err)))
	} else {
		span.SetAttributes(
			attribute.String("parking.token", string(occ.Token)),
			attribute.Int("parking.slot", occ.Slot),
		)
		span.AddEvent("slot_allocated")
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("tier", occ.Tier.String()),
		)
		ia.occupancy.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", occ.Tier.String())))
	}
	ia.record(ctx, start, labels)
	return occ, err
}

// Release traces SlotAllocator.Release.
func (ia *InstrumentedAllocator) Release(ctx context.Context, token domain.Token) (domain.Occupancy, error) {
	ctx, span := ia.tracer.Start(ctx, "allocator.release",
		trace.WithAttributes(attribute.String("parking.token", string(token))))
	defer span.End()

	start := time.Now()
	occ, err := ia.SlotAllocator.Release(token)

	labels := []attribute.KeyValue{attribute.String("operation", "release")}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", failureStatus(err)))
	} else {
		span.SetAttributes(
			attribute.String("vehicle.id", occ.VehicleID),
			attribute.Int("parking.slot", occ.Slot),
		)
		span.AddEvent("slot_released")
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("tier", occ.Tier.String()),
		)
		ia.occupancy.Add(ctx, -1, metric.WithAttributes(attribute.String("tier", occ.Tier.String())))
	}
	ia.record(ctx, start, labels)
	return occ, err
}

// Lookup traces SlotAllocator.Lookup.
func (ia *InstrumentedAllocator) Lookup(ctx context.Context, token domain.Token) (domain.Occupancy, error) {
	_, span := ia.tracer.Start(ctx, "allocator.lookup",
		trace.WithAttributes(attribute.String("parking.token", string(token))))
	defer span.End()

	occ, err := ia.SlotAllocator.Lookup(token)
	if err != nil {
		span.AddEvent("token_not_found")
	}
	return occ, err
}

// Snapshot traces SlotAllocator.Snapshot.
func (ia *InstrumentedAllocator) Snapshot(ctx context.Context) []domain.SlotState {
	ctx, span := ia.tracer.Start(ctx, "allocator.snapshot")
	defer span.End()

	start := time.Now()
	states := ia.SlotAllocator.Snapshot()
	span.SetAttributes(attribute.Int("slots.count", len(states)))

	ia.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "snapshot"),
		attribute.String("status", "success"),
	))
	return states
}

// Summary returns per-tier counts without a span.
func (ia *InstrumentedAllocator) Summary(_ context.Context) []domain.TierSummary {
	return ia.SlotAllocator.Summary()
}

func (ia *InstrumentedAllocator) record(ctx context.Context, start time.Time, labels []attribute.KeyValue) {
	ia.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	ia.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(err, ErrNoCapacity):
		return "no_capacity"
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	default:
		return "failed"
	}
}
