package admission

import (
	"context"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/config"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Decision represents the outcome of an admission check.
type Decision struct {
	Allow   bool
	Problem *Problem
}

// Request describes a pending resource-creation call (engine.Create).
type Request struct {
	Zone   resource.ZoneID
	Family notifier.Family
}

// RuntimeState is the live zone/resource state the caller samples from the
// engine immediately before deciding whether to admit req.
type RuntimeState struct {
	// ZoneDeclared reports whether Zone was ever configured or registered
	// via DeclareZone. An undeclared zone can never hold resources.
	ZoneDeclared bool
	// ResourcesActive is how many resources of Family already exist in
	// Zone.
	ResourcesActive int
}

// CapacityController abstracts the admission logic.
type CapacityController interface {
	Check(ctx context.Context, req Request, state RuntimeState) Decision
}

// Controller implements CapacityController with deterministic rules,
// independent of the arbitration policy itself: admission decides whether a
// resource may be created at all, arbitration decides who holds it.
type Controller struct {
	cfg config.AppConfig
}

// NewController creates a new admission controller with the given configuration.
func NewController(cfg config.AppConfig) *Controller {
	return &Controller{cfg: cfg}
}

// Check evaluates whether a resource-creation request should be admitted.
//
// Rules (strict order):
//  1. Zone not declared -> reject
//  2. Monitoring state invalid -> reject (fail closed)
//  3. Per-zone resource cap reached -> reject
//  4. Allow
func (c *Controller) Check(ctx context.Context, req Request, state RuntimeState) Decision {
	if !state.ZoneDeclared {
		return Decision{
			Allow:   false,
			Problem: NewZoneUnknown(int32(req.Zone)),
		}
	}

	if state.ResourcesActive < 0 {
		return Decision{
			Allow:   false,
			Problem: NewStateUnknown(),
		}
	}

	limit := c.cfg.Limits.MaxResourcesPerZone
	if limit > 0 && state.ResourcesActive >= limit {
		return Decision{
			Allow:   false,
			Problem: NewZoneFull(req.Family.String(), state.ResourcesActive, limit),
		}
	}

	return Decision{Allow: true}
}
