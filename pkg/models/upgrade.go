package models

import (
	"encoding/json"
	"time"
)

// UpgradeStatus is the state of an upgrade request in the execution state
// machine. Transitions form a DAG: pending -> denied, pending -> precheck,
// precheck -> running|failed, running -> success|failed, failed -> rolled_back.
type UpgradeStatus string

const (
	StatusPending    UpgradeStatus = "pending"
	StatusDenied     UpgradeStatus = "denied"
	StatusPrecheck   UpgradeStatus = "precheck"
	StatusRunning    UpgradeStatus = "running"
	StatusSuccess    UpgradeStatus = "success"
	StatusFailed     UpgradeStatus = "failed"
	StatusRolledBack UpgradeStatus = "rolled_back"
)

// Terminal reports whether no further transitions are possible from s.
// A failed request may still be rolled back, so failed is non-terminal only
// with respect to rollback; for the single-flight invariant it counts as
// terminal because it no longer occupies the device.
func (s UpgradeStatus) Terminal() bool {
	switch s {
	case StatusDenied, StatusSuccess, StatusFailed, StatusRolledBack:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal edge of the
// state machine.
func (s UpgradeStatus) CanTransition(next UpgradeStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusDenied || next == StatusPrecheck
	case StatusPrecheck:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusSuccess || next == StatusFailed
	case StatusFailed:
		return next == StatusRolledBack
	default:
		return false
	}
}

// UpgradeRequest is one recorded upgrade decision and, if approved, the
// execution that followed it. Immutable once its status is terminal.
type UpgradeRequest struct {
	ID            string          `json:"id"`
	DeviceID      string          `json:"device_id"`
	RequestedBy   string          `json:"requested_by"`
	Decision      string          `json:"decision"`
	Reason        string          `json:"reason"`
	DecidedBy     DecidedBy       `json:"decided_by"`
	SourceVersion string          `json:"source_version"`
	TargetVersion string          `json:"target_version,omitempty"`
	Status        UpgradeStatus   `json:"status"`
	// ExecutionRequested marks records created by a real Execute call; they
	// block the device until terminal and are never superseded by a newer
	// decision.
	ExecutionRequested bool            `json:"execution_requested,omitempty"`
	Result             json.RawMessage `json:"result,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AuditEvent is an append-only record of a meaningful transition. The
// orchestrator only ever inserts these.
type AuditEvent struct {
	ID        string          `json:"id"`
	DeviceID  string          `json:"device_id"`
	UpgradeID string          `json:"upgrade_id,omitempty"`
	Event     string          `json:"event"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// JobResult is the captured outcome of one automation executor invocation.
type JobResult struct {
	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	ElapsedMs int64  `json:"elapsed_ms"`
	TimedOut  bool   `json:"timed_out,omitempty"`
}

// Succeeded reports whether the executor job completed with a zero exit code.
func (r *JobResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0 && !r.TimedOut
}

// ExecutionResult is returned by Execute once the state machine reaches a
// stopping point for the call.
type ExecutionResult struct {
	UpgradeID     string        `json:"upgrade_id"`
	DeviceID      string        `json:"device_id"`
	Status        UpgradeStatus `json:"status"`
	Reason        string        `json:"reason,omitempty"`
	TargetVersion string        `json:"target_version,omitempty"`
	Precheck      *JobResult    `json:"precheck,omitempty"`
	Apply         *JobResult    `json:"apply,omitempty"`
}
