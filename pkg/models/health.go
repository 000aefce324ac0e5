package models

import (
	"time"
)

// HealthSnapshot is a point-in-time aggregation of device telemetry over a
// trailing window. Nil fields mean the metric series had no data; the policy
// evaluator treats missing values as worst-case, never as passing.
type HealthSnapshot struct {
	DeviceID       string    `json:"device_id"`
	Window         string    `json:"window"`
	CPUAvg         *float64  `json:"cpu_avg,omitempty"`
	MemFreeMin     *float64  `json:"mem_free_min,omitempty"`
	CriticalErrors *int64    `json:"critical_errors,omitempty"`
	CollectedAt    time.Time `json:"collected_at"`
}

// Risk score bands, mirroring the operator runbook's traffic-light model.
const (
	riskCPUHigh     = 85
	riskCPUElevated = 75
	riskCPUWarm     = 60

	riskMemCritical = 20
	riskMemLow      = 30
	riskMemWarm     = 40

	riskErrorsHigh = 5
	riskErrorsSome = 2

	maxRiskScore = 100
)

// RiskScore condenses the snapshot into a 0-100 score, higher meaning riskier.
// Missing metrics score as worst-case, consistent with fail-closed evaluation.
func (s *HealthSnapshot) RiskScore() int {
	cpu := float64(100)
	if s.CPUAvg != nil {
		cpu = *s.CPUAvg
	}

	mem := float64(0)
	if s.MemFreeMin != nil {
		mem = *s.MemFreeMin
	}

	errs := int64(riskErrorsHigh + 1)
	if s.CriticalErrors != nil {
		errs = *s.CriticalErrors
	}

	score := 0

	switch {
	case cpu > riskCPUHigh:
		score += 40
	case cpu > riskCPUElevated:
		score += 25
	case cpu > riskCPUWarm:
		score += 10
	}

	switch {
	case mem < riskMemCritical:
		score += 35
	case mem < riskMemLow:
		score += 20
	case mem < riskMemWarm:
		score += 10
	}

	switch {
	case errs > riskErrorsHigh:
		score += 25
	case errs > riskErrorsSome:
		score += 15
	case errs > 0:
		score += 10
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	return score
}

// Complete reports whether all three metrics were fetched.
func (s *HealthSnapshot) Complete() bool {
	return s.CPUAvg != nil && s.MemFreeMin != nil && s.CriticalErrors != nil
}
