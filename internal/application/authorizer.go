package application

import (
	"context"

	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

// Authorizer runs domain.Authorize against the identity carried by ctx and
// records the outcome.
type Authorizer struct {
	logger  ports.Logger
	metrics ports.Metrics
}

func NewAuthorizer(logger ports.Logger, metrics ports.Metrics) *Authorizer {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Authorizer{logger: logger, metrics: metrics}
}

func (a *Authorizer) Authorize(ctx context.Context, act domain.Action) error {
	name := "unknown"
	if act != nil {
		name = act.Name()
	}
	decision := domain.Authorize(domain.IdentityFrom(ctx), act)
	a.metrics.ObserveDecision(name, decision)
	if !decision.Allowed {
		a.logger.Warn(ctx, "authorization denied", "action", name, "reason", string(decision.Reason))
	}
	return decision.Err()
}
