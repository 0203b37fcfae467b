package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Validator probes a Home Mind API before a config entry is created.
type Validator struct {
	prober  port.HealthProber
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewValidator creates the setup validator.
func NewValidator(prober port.HealthProber, metrics *observability.Metrics, logger *zap.Logger) *Validator {
	return &Validator{prober: prober, metrics: metrics, logger: logger}
}

// Validate checks that apiURL answers its health endpoint with status "ok".
// Bad statuses, unhealthy bodies and transport failures all return
// *domain.ErrCannotConnect. Anything else (e.g. a body that is not JSON) is
// returned as is and shown to the user as an unknown error.
func (v *Validator) Validate(ctx context.Context, apiURL string) (*domain.ValidationInfo, error) {
	ctx, span := tracer.Start(ctx, "Validator.Validate")
	defer span.End()

	apiURL = domain.NormalizeAPIURL(apiURL)
	span.SetAttributes(attribute.String("api.url", apiURL))

	start := time.Now()
	health, err := v.prober.Health(ctx, apiURL)
	v.metrics.RecordRequestDuration("health", time.Since(start))

	if err != nil {
		v.metrics.IncrExternalError("health")

		var apiErr *domain.ErrAPI
		if errors.As(err, &apiErr) {
			v.logger.Error("error connecting to Home Mind API",
				zap.String("api_url", apiURL),
				zap.Error(err),
			)
			reason := ""
			if apiErr.StatusCode != 0 {
				reason = fmt.Sprintf("API returned status %d", apiErr.StatusCode)
			}
			return nil, &domain.ErrCannotConnect{Reason: reason, Err: err}
		}
		return nil, fmt.Errorf("health check: %w", err)
	}

	if health == nil || health.Status != domain.HealthStatusOK {
		v.logger.Warn("Home Mind API reported unhealthy",
			zap.String("api_url", apiURL),
			zap.Any("health", health),
		)
		return nil, &domain.ErrCannotConnect{Reason: "API health check failed"}
	}

	return &domain.ValidationInfo{Title: domain.EntryTitle}, nil
}
