//go:generate mockgen -destination=mock_executor.go -package=executor github.com/SHARAN-RH/netops/pkg/executor Runner

package executor

import (
	"context"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// Runner is the automation executor adapter. Implementations must bound every
// invocation with a wall-clock timeout and actively terminate the underlying
// job when it expires; merely abandoning the wait leaves orphaned device
// operations behind.
type Runner interface {
	// Run invokes the named job against a device with the given extra
	// variables. checkMode requests a dry run that must not change device
	// state. The returned JobResult captures exit code, output streams, and
	// elapsed time; a non-zero exit or a timeout is reported in the result,
	// not as an error. Errors are reserved for invocations that never ran.
	Run(ctx context.Context, job, deviceID string, variables map[string]string, checkMode bool) (*models.JobResult, error)
}
