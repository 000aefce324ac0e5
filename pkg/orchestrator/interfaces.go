//go:generate mockgen -destination=mock_orchestrator.go -package=orchestrator github.com/SHARAN-RH/netops/pkg/orchestrator Service

package orchestrator

import (
	"context"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// Service is the orchestrator's operational surface. Both operations are
// synchronous: they return only after the decision (and, for Execute, the
// execution) has been recorded.
type Service interface {
	// Analyze fetches device, policy, and telemetry concurrently, evaluates
	// the safety rules, consults the advisory gate, and records the verdict
	// as a new upgrade request. A failed dependency fetch yields a deny
	// verdict naming the dependency, never a silently substituted default.
	Analyze(ctx context.Context, deviceID string) (*models.Verdict, error)

	// Execute re-runs the analysis for a fresh verdict and drives the
	// approved request through precheck and, unless dryRun is set, through
	// the real upgrade to a terminal status. Returns ErrUpgradeInFlight
	// without creating a request when a real execution already occupies the
	// device.
	Execute(ctx context.Context, deviceID string, dryRun bool) (*models.ExecutionResult, error)

	// Rollback invokes the rollback job for a failed upgrade request and
	// transitions it to rolled_back on success.
	Rollback(ctx context.Context, upgradeID string) (*models.ExecutionResult, error)
}
