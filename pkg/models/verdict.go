package models

// DecidedBy identifies the component that produced the final verdict.
type DecidedBy string

const (
	DecidedByEvaluator DecidedBy = "evaluator"
	DecidedByGate      DecidedBy = "gate"
)

// Verdict is the outcome of an upgrade readiness analysis.
type Verdict struct {
	Approve       bool            `json:"approve"`
	Reason        string          `json:"reason"`
	Confidence    float64         `json:"confidence"`
	Conditions    []string        `json:"conditions,omitempty"`
	TargetVersion string          `json:"target_version,omitempty"`
	DecidedBy     DecidedBy       `json:"decided_by"`
	Metrics       *MetricsSummary `json:"metrics,omitempty"`
}

// MetricsSummary carries the structured inputs behind a verdict. When the
// advisory gate overrides the rule verdict, the rule outcome is retained here
// so the audit trail keeps both decisions.
type MetricsSummary struct {
	CPUAvg         *float64 `json:"cpu_avg,omitempty"`
	MemFreeMin     *float64 `json:"mem_free_min,omitempty"`
	CriticalErrors *int64   `json:"critical_errors,omitempty"`
	RiskScore      int      `json:"risk_score"`
	RuleApprove    bool     `json:"rule_approve"`
	RuleReason     string   `json:"rule_reason"`
}

// Decision returns the stored decision string for this verdict.
func (v *Verdict) Decision() string {
	if v.Approve {
		return "approve"
	}

	return "deny"
}
