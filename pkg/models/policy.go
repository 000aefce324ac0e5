package models

// PolicySource identifies which layer of the policy resolution produced the
// effective policy for a device.
type PolicySource string

const (
	PolicySourceOverride PolicySource = "override"
	PolicySourceRule     PolicySource = "rule"
	PolicySourceDefault  PolicySource = "default"
)

// Policy is the resolved set of thresholds governing upgrade approval for one
// device. Resolution precedence is device override > vendor/model rule >
// system defaults; exactly one effective policy exists per evaluation.
type Policy struct {
	MaxCPUPercent     float64      `json:"max_cpu_percent"`
	MinFreeMemPercent float64      `json:"min_free_mem_percent"`
	MaxCriticalErrors int64        `json:"max_critical_errors"`
	RequireWindow     bool         `json:"require_maintenance_window"`
	CooldownHours     int          `json:"cooldown_hours"`
	Source            PolicySource `json:"source"`
}

// DefaultPolicy returns the system-default thresholds applied when no stored
// rule matches a device's vendor and model.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxCPUPercent:     75,
		MinFreeMemPercent: 25,
		MaxCriticalErrors: 0,
		RequireWindow:     false,
		CooldownHours:     24,
		Source:            PolicySourceDefault,
	}
}
