// Package policy implements the deterministic rule evaluation that decides
// whether a device may be upgraded. Evaluation is a pure function over
// already-fetched data; it performs no I/O and no retries.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// missingErrorsSentinel stands in for an absent critical-error count. Any
// positive threshold is exceeded by it, so a missing metric can never pass.
const missingErrorsSentinel = int64(1 << 31)

const ruleConfidence = 1.0

// Evaluate applies the four safety predicates to the snapshot in a fixed
// order: CPU, memory, errors, maintenance window. Missing snapshot fields are
// treated as worst-case values. The reason string is byte-stable for
// identical inputs.
func Evaluate(device *models.Device, pol *models.Policy, snapshot *models.HealthSnapshot, now time.Time) *models.Verdict {
	conditions := make([]string, 0, 4)
	approve := true

	cpu := float64(100)
	cpuNote := " (metric unavailable)"
	if snapshot.CPUAvg != nil {
		cpu = *snapshot.CPUAvg
		cpuNote = ""
	}

	if cpu <= pol.MaxCPUPercent {
		conditions = append(conditions, fmt.Sprintf("cpu avg %.1f%% within limit %.1f%%%s", cpu, pol.MaxCPUPercent, cpuNote))
	} else {
		approve = false
		conditions = append(conditions, fmt.Sprintf("cpu avg %.1f%% exceeds limit %.1f%%%s", cpu, pol.MaxCPUPercent, cpuNote))
	}

	mem := float64(0)
	memNote := " (metric unavailable)"
	if snapshot.MemFreeMin != nil {
		mem = *snapshot.MemFreeMin
		memNote = ""
	}

	if mem >= pol.MinFreeMemPercent {
		conditions = append(conditions, fmt.Sprintf("free memory min %.1f%% above floor %.1f%%%s", mem, pol.MinFreeMemPercent, memNote))
	} else {
		approve = false
		conditions = append(conditions, fmt.Sprintf("free memory min %.1f%% below floor %.1f%%%s", mem, pol.MinFreeMemPercent, memNote))
	}

	errs := missingErrorsSentinel
	errsNote := " (metric unavailable)"
	if snapshot.CriticalErrors != nil {
		errs = *snapshot.CriticalErrors
		errsNote = ""
	}

	if errs <= pol.MaxCriticalErrors {
		conditions = append(conditions, fmt.Sprintf("critical errors %d within limit %d%s", errs, pol.MaxCriticalErrors, errsNote))
	} else {
		approve = false
		conditions = append(conditions, fmt.Sprintf("critical errors %d exceed limit %d%s", errs, pol.MaxCriticalErrors, errsNote))
	}

	switch {
	case !pol.RequireWindow:
		conditions = append(conditions, "maintenance window not required")
	case device.Window == nil:
		approve = false
		conditions = append(conditions, "maintenance window required but device has none configured")
	case device.Window.Contains(now):
		conditions = append(conditions, fmt.Sprintf("inside maintenance window %s", windowSpan(device.Window)))
	default:
		approve = false
		conditions = append(conditions, fmt.Sprintf("outside maintenance window %s", windowSpan(device.Window)))
	}

	return &models.Verdict{
		Approve:       approve,
		Reason:        strings.Join(conditions, "; "),
		Confidence:    ruleConfidence,
		Conditions:    conditions,
		TargetVersion: device.UpgradeVersion(),
		DecidedBy:     models.DecidedByEvaluator,
		Metrics: &models.MetricsSummary{
			CPUAvg:         snapshot.CPUAvg,
			MemFreeMin:     snapshot.MemFreeMin,
			CriticalErrors: snapshot.CriticalErrors,
			RiskScore:      snapshot.RiskScore(),
			RuleApprove:    approve,
			RuleReason:     strings.Join(conditions, "; "),
		},
	}
}

func windowSpan(w *models.MaintenanceWindow) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d UTC",
		w.StartMinute/60, w.StartMinute%60, w.EndMinute/60, w.EndMinute%60)
}
