//go:generate mockgen -destination=mock_gate.go -package=gate github.com/SHARAN-RH/netops/pkg/gate Gate,HTTPClient

package gate

import (
	"context"
	"net/http"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// Gate is the advisory second-opinion step applied after rule evaluation.
// Review never fails open: any gate error yields a deny verdict, so the
// method returns a verdict unconditionally.
type Gate interface {
	Review(ctx context.Context, device *models.Device, policy *models.Policy,
		snapshot *models.HealthSnapshot, rule *models.Verdict) *models.Verdict
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
