/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/executor"
	"github.com/SHARAN-RH/netops/pkg/models"
)

// maxReasonOutput bounds how much executor output is folded into a reason
// string. Full output is always preserved in the audit details.
const maxReasonOutput = 512

// Execute implements Service. The decision record exists before any executor
// invocation, and every invocation's outcome is recorded before the call
// returns. A dry run stops at precheck and does not occupy the device
// afterwards.
func (o *Orchestrator) Execute(ctx context.Context, deviceID string, dryRun bool) (*models.ExecutionResult, error) {
	active, err := o.db.GetActiveUpgrade(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if active != nil && active.ExecutionRequested {
		return nil, fmt.Errorf("%w: request %s is %s", db.ErrUpgradeInFlight, active.ID, active.Status)
	}

	// Always a fresh analysis: device and telemetry state may have changed
	// since any earlier verdict.
	a, err := o.analyzeDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	req, err := o.recordDecision(ctx, deviceID, a, !dryRun)
	if err != nil {
		return nil, err
	}

	result := &models.ExecutionResult{
		UpgradeID:     req.ID,
		DeviceID:      deviceID,
		Reason:        a.verdict.Reason,
		TargetVersion: req.TargetVersion,
	}

	if !a.verdict.Approve {
		if err := o.transition(ctx, req, models.StatusPending, models.StatusDenied, reasonDetails(a.verdict.Reason)); err != nil {
			return nil, err
		}

		result.Status = models.StatusDenied

		return result, nil
	}

	if err := o.transition(ctx, req, models.StatusPending, models.StatusPrecheck, nil); err != nil {
		return nil, err
	}

	variables := map[string]string{
		"target_version": req.TargetVersion,
		"source_version": req.SourceVersion,
	}

	precheck, err := o.runJob(ctx, req, executor.JobUpgrade, variables, true, models.StatusPrecheck)
	if err != nil {
		return nil, err
	}

	result.Precheck = precheck

	if !precheck.Succeeded() {
		result.Status = models.StatusFailed
		result.Reason = failureReason("precheck", precheck)

		return result, nil
	}

	if dryRun {
		result.Status = models.StatusPrecheck
		result.Reason = "precheck passed, dry run requested"

		return result, nil
	}

	if err := o.transition(ctx, req, models.StatusPrecheck, models.StatusRunning, jobDetails(precheck)); err != nil {
		return nil, err
	}

	apply, err := o.runJob(ctx, req, executor.JobUpgrade, variables, false, models.StatusRunning)
	if err != nil {
		return nil, err
	}

	result.Apply = apply

	if !apply.Succeeded() {
		result.Status = models.StatusFailed
		result.Reason = failureReason("upgrade", apply)

		return result, nil
	}

	if err := o.transition(ctx, req, models.StatusRunning, models.StatusSuccess, jobDetails(apply)); err != nil {
		return nil, err
	}

	result.Status = models.StatusSuccess
	result.Reason = fmt.Sprintf("upgraded to %s", req.TargetVersion)

	return result, nil
}

// Rollback implements Service. Only failed requests may be rolled back; a
// failed rollback leaves the request in failed and is recorded in the audit
// trail.
func (o *Orchestrator) Rollback(ctx context.Context, upgradeID string) (*models.ExecutionResult, error) {
	req, err := o.db.GetUpgrade(ctx, upgradeID)
	if err != nil {
		return nil, err
	}

	if req.Status != models.StatusFailed {
		return nil, fmt.Errorf("%w: request %s is %s", ErrRollbackNotAllowed, upgradeID, req.Status)
	}

	variables := map[string]string{
		"target_version": req.SourceVersion,
	}

	rollback, err := o.executor.Run(ctx, executor.JobRollback, req.DeviceID, variables, false)
	if err != nil {
		o.auditJobError(ctx, req, executor.JobRollback, err)
		return nil, fmt.Errorf("%w: rollback of %s: %w", ErrExecutionAborted, upgradeID, err)
	}

	result := &models.ExecutionResult{
		UpgradeID:     req.ID,
		DeviceID:      req.DeviceID,
		TargetVersion: req.SourceVersion,
		Apply:         rollback,
	}

	if !rollback.Succeeded() {
		o.auditEvent(ctx, req, "rollback_failed", jobDetails(rollback))

		result.Status = models.StatusFailed
		result.Reason = failureReason("rollback", rollback)

		return result, nil
	}

	if err := o.transition(ctx, req, models.StatusFailed, models.StatusRolledBack, jobDetails(rollback)); err != nil {
		return nil, err
	}

	result.Status = models.StatusRolledBack
	result.Reason = fmt.Sprintf("rolled back to %s", req.SourceVersion)

	return result, nil
}

// runJob invokes the executor and records the outcome against the request's
// current status. A job that produced a result transitions on its exit code;
// a job that never ran transitions to failed and surfaces the start error.
func (o *Orchestrator) runJob(
	ctx context.Context, req *models.UpgradeRequest,
	job string, variables map[string]string, checkMode bool,
	from models.UpgradeStatus,
) (*models.JobResult, error) {
	jobResult, err := o.executor.Run(ctx, job, req.DeviceID, variables, checkMode)
	if err != nil {
		details := reasonDetails(err.Error())
		if terr := o.transition(ctx, req, from, models.StatusFailed, details); terr != nil {
			return nil, terr
		}

		return nil, fmt.Errorf("%w: %s for %s: %w", ErrExecutionAborted, job, req.DeviceID, err)
	}

	if !jobResult.Succeeded() {
		stage := "upgrade"
		if checkMode {
			stage = "precheck"
		}

		details, _ := json.Marshal(map[string]interface{}{
			"reason": failureReason(stage, jobResult),
			"job":    jobResult,
		})

		if err := o.transition(ctx, req, from, models.StatusFailed, details); err != nil {
			return nil, err
		}
	}

	return jobResult, nil
}

func (o *Orchestrator) auditEvent(ctx context.Context, req *models.UpgradeRequest, event string, details json.RawMessage) {
	err := o.db.InsertAuditEvent(ctx, &models.AuditEvent{
		ID:        uuid.NewString(),
		DeviceID:  req.DeviceID,
		UpgradeID: req.ID,
		Event:     event,
		Details:   details,
		CreatedAt: o.now().UTC(),
	})
	if err != nil {
		o.logger.Error().Err(err).
			Str("upgrade_id", req.ID).
			Str("event", event).
			Msg("Failed to insert audit event")
	}
}

func (o *Orchestrator) auditJobError(ctx context.Context, req *models.UpgradeRequest, job string, jobErr error) {
	details, _ := json.Marshal(map[string]string{"job": job, "error": jobErr.Error()})
	o.auditEvent(ctx, req, "job_start_failed", details)
}

// failureReason condenses an executor outcome into the human-readable reason
// stored on the request. Timeouts get their own wording so operators can tell
// a slow job from a broken one.
func failureReason(stage string, r *models.JobResult) string {
	if r.TimedOut {
		return fmt.Sprintf("%s timed out after %dms and the job was terminated", stage, r.ElapsedMs)
	}

	output := strings.TrimSpace(r.Stderr)
	if output == "" {
		output = strings.TrimSpace(r.Stdout)
	}

	if len(output) > maxReasonOutput {
		output = output[:maxReasonOutput] + "..."
	}

	return fmt.Sprintf("%s failed with exit code %d: %s", stage, r.ExitCode, output)
}

func jobDetails(r *models.JobResult) json.RawMessage {
	details, _ := json.Marshal(map[string]interface{}{"job": r})
	return details
}
