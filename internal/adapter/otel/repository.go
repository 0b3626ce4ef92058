package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voltmile/claimflow/internal/domain"
)

const tracerName = "github.com/voltmile/claimflow/internal/adapter/otel"

// TracingRepository wraps a domain.ClaimRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.ClaimRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.ClaimRepository.
var _ domain.ClaimRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.ClaimRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, claim domain.Claim) error {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.Create",
		trace.WithAttributes(
			attribute.String("claim.id", claim.ID),
			attribute.String("claim.number", claim.ClaimNumber),
			attribute.String("claim.vin", claim.VIN),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Claim, error) {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.GetByID",
		trace.WithAttributes(attribute.String("claim.id", id)),
	)
	defer span.End()

	claim, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return claim, err
}

func (r *TracingRepository) GetByNumber(ctx context.Context, number string) (domain.Claim, error) {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.GetByNumber",
		trace.WithAttributes(attribute.String("claim.number", number)),
	)
	defer span.End()

	claim, err := r.next.GetByNumber(ctx, number)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return claim, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Claim, error) {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.VIN != "" {
		span.SetAttributes(attribute.String("filter.vin", filter.VIN))
	}

	claims, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(claims)))
	}
	return claims, err
}

func (r *TracingRepository) Update(ctx context.Context, claim domain.Claim) error {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.Update",
		trace.WithAttributes(
			attribute.String("claim.id", claim.ID),
			attribute.String("claim.status", string(claim.Status)),
			attribute.Int("claim.version", claim.Version),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) NextClaimNumber(ctx context.Context, year int) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ClaimRepository.NextClaimNumber",
		trace.WithAttributes(attribute.Int("claim.year", year)),
	)
	defer span.End()

	number, err := r.next.NextClaimNumber(ctx, year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("claim.number", number))
	}
	return number, err
}
