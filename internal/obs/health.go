package obs

import (
	"context"
	"fmt"
)

// HealthStatus and CheckResult are self-contained here: the teacher's
// equivalent (libravdb/internal/obs/health.go) imported the top-level
// libravdb package for these types while database.go imported internal/obs
// back — a circular import that cannot compile. Keeping the types local
// to obs avoids reproducing that bug; tsm's Engine.Health returns them
// directly.
type HealthStatus struct {
	Status string
	Checks map[string]*CheckResult
}

type CheckResult struct {
	Healthy bool
	Message string
}

// Checker performs a lightweight liveness check against a node count
// supplied by the caller, via a plain function rather than a concrete
// engine type, so obs never needs to import anything above it in the
// dependency order.
type Checker struct {
	nodeCount func() int
}

// NewChecker constructs a Checker that reports healthy as long as
// nodeCount can be called without panicking.
func NewChecker(nodeCount func() int) *Checker {
	return &Checker{nodeCount: nodeCount}
}

func (c *Checker) Check(ctx context.Context) (*HealthStatus, error) {
	count := 0
	if c.nodeCount != nil {
		count = c.nodeCount()
	}
	return &HealthStatus{
		Status: "healthy",
		Checks: map[string]*CheckResult{
			"node_store": {Healthy: true, Message: fmt.Sprintf("%d nodes", count)},
		},
	}, nil
}
