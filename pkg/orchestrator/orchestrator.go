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

// Package orchestrator composes the inventory store, telemetry store,
// advisory gate, and automation executor into the upgrade decision and
// execution flow. All safety-relevant ambiguity resolves to denial.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/executor"
	"github.com/SHARAN-RH/netops/pkg/gate"
	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
	"github.com/SHARAN-RH/netops/pkg/natsutil"
	"github.com/SHARAN-RH/netops/pkg/policy"
	"github.com/SHARAN-RH/netops/pkg/telemetry"
)

const (
	defaultWindow    = "1h"
	defaultRequester = "netops"
)

// Config holds the orchestrator's own settings; backend settings live with
// their adapters.
type Config struct {
	// Window is the trailing telemetry window for health snapshots.
	Window string

	// Requester is recorded on upgrade requests this instance creates.
	Requester string
}

// Deps are the adapters the orchestrator composes. All are required except
// Events, which defaults to a no-op publisher.
type Deps struct {
	DB        db.Service
	Telemetry telemetry.Store
	Executor  executor.Runner
	Gate      gate.Gate
	Events    natsutil.Publisher
	Logger    logger.Logger
}

// Orchestrator implements Service.
type Orchestrator struct {
	db        db.Service
	telemetry telemetry.Store
	executor  executor.Runner
	gate      gate.Gate
	events    natsutil.Publisher
	logger    logger.Logger
	window    string
	requester string
	now       func() time.Time
}

// New wires an orchestrator from its adapters.
func New(cfg *Config, deps *Deps) *Orchestrator {
	window := cfg.Window
	if window == "" {
		window = defaultWindow
	}

	requester := cfg.Requester
	if requester == "" {
		requester = defaultRequester
	}

	events := deps.Events
	if events == nil {
		events = natsutil.NoopPublisher{}
	}

	return &Orchestrator{
		db:        deps.DB,
		telemetry: deps.Telemetry,
		executor:  deps.Executor,
		gate:      deps.Gate,
		events:    events,
		logger:    deps.Logger,
		window:    window,
		requester: requester,
		now:       time.Now,
	}
}

// analysis bundles the fetched inputs with the final verdict. device is nil
// only when the inventory fetch itself failed.
type analysis struct {
	device   *models.Device
	policy   *models.Policy
	snapshot *models.HealthSnapshot
	verdict  *models.Verdict
}

// Analyze implements Service. The verdict is persisted as a new upgrade
// request; denied verdicts are transitioned to their terminal status
// immediately so they never occupy the device.
func (o *Orchestrator) Analyze(ctx context.Context, deviceID string) (*models.Verdict, error) {
	a, err := o.analyzeDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	req, err := o.recordDecision(ctx, deviceID, a, false)
	if err != nil {
		return nil, err
	}

	if !a.verdict.Approve {
		if err := o.transition(ctx, req, models.StatusPending, models.StatusDenied, reasonDetails(a.verdict.Reason)); err != nil {
			return nil, err
		}
	}

	o.logger.Info().
		Str("device_id", deviceID).
		Str("upgrade_id", req.ID).
		Str("decision", a.verdict.Decision()).
		Str("decided_by", string(a.verdict.DecidedBy)).
		Msg("Analysis complete")

	return a.verdict, nil
}

// analyzeDevice fetches the three inputs concurrently and runs the evaluator
// and gate. Fetch failures other than an unknown device become deny verdicts
// naming the failed dependency.
func (o *Orchestrator) analyzeDevice(ctx context.Context, deviceID string) (*analysis, error) {
	var (
		device   *models.Device
		pol      *models.Policy
		snapshot *models.HealthSnapshot

		deviceErr, policyErr, snapshotErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		device, deviceErr = o.db.GetDevice(gctx, deviceID)
		return nil
	})

	g.Go(func() error {
		pol, policyErr = o.db.GetEffectivePolicy(gctx, deviceID)
		return nil
	})

	g.Go(func() error {
		snapshot, snapshotErr = o.telemetry.Snapshot(gctx, deviceID, o.window)
		return nil
	})

	_ = g.Wait()

	if deviceErr != nil {
		if errors.Is(deviceErr, db.ErrDeviceNotFound) {
			return nil, deviceErr
		}

		return &analysis{verdict: dependencyDenial("inventory store", deviceErr)}, nil
	}

	if policyErr != nil {
		return &analysis{device: device, verdict: dependencyDenial("policy resolution", policyErr)}, nil
	}

	if snapshotErr != nil {
		return &analysis{device: device, policy: pol, verdict: dependencyDenial("telemetry store", snapshotErr)}, nil
	}

	rule := policy.Evaluate(device, pol, snapshot, o.now())
	final := o.gate.Review(ctx, device, pol, snapshot, rule)

	return &analysis{device: device, policy: pol, snapshot: snapshot, verdict: final}, nil
}

// dependencyDenial builds the closed verdict returned when a required fetch
// fails. The reason names the dependency so operators can tell a denial on
// merit from a denial on availability.
func dependencyDenial(dependency string, err error) *models.Verdict {
	return &models.Verdict{
		Approve:    false,
		Reason:     fmt.Sprintf("dependency unavailable: %s: %v", dependency, err),
		Confidence: 0,
		DecidedBy:  models.DecidedByEvaluator,
	}
}

// recordDecision persists the verdict as a new pending upgrade request and
// publishes the decision event.
func (o *Orchestrator) recordDecision(
	ctx context.Context, deviceID string, a *analysis, executionRequested bool,
) (*models.UpgradeRequest, error) {
	req := &models.UpgradeRequest{
		ID:                 uuid.NewString(),
		DeviceID:           deviceID,
		RequestedBy:        o.requester,
		Decision:           a.verdict.Decision(),
		Reason:             a.verdict.Reason,
		DecidedBy:          a.verdict.DecidedBy,
		TargetVersion:      a.verdict.TargetVersion,
		Status:             models.StatusPending,
		ExecutionRequested: executionRequested,
		CreatedAt:          o.now().UTC(),
	}

	if a.device != nil {
		req.SourceVersion = a.device.CurrentVersion
	}

	if err := o.db.RecordDecision(ctx, req); err != nil {
		return nil, err
	}

	if err := o.events.PublishDecision(ctx, &models.DecisionEventData{
		DeviceID:      deviceID,
		UpgradeID:     req.ID,
		Decision:      req.Decision,
		Reason:        req.Reason,
		Confidence:    a.verdict.Confidence,
		DecidedBy:     req.DecidedBy,
		TargetVersion: req.TargetVersion,
		Timestamp:     req.CreatedAt,
	}); err != nil {
		o.logger.Warn().Err(err).Str("upgrade_id", req.ID).Msg("Failed to publish decision event")
	}

	return req, nil
}

// transition moves the request through one state machine edge. The store
// writes the status change and its audit event atomically; the bus event is
// best-effort on top.
func (o *Orchestrator) transition(
	ctx context.Context, req *models.UpgradeRequest,
	from, to models.UpgradeStatus, details json.RawMessage,
) error {
	if err := o.db.UpdateStatus(ctx, req.ID, req.DeviceID, from, to, details); err != nil {
		return err
	}

	req.Status = to

	if err := o.events.PublishStatusChange(ctx, &models.StatusEventData{
		DeviceID:   req.DeviceID,
		UpgradeID:  req.ID,
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  o.now().UTC(),
	}); err != nil {
		o.logger.Warn().Err(err).Str("upgrade_id", req.ID).Msg("Failed to publish status event")
	}

	o.logger.Info().
		Str("upgrade_id", req.ID).
		Str("device_id", req.DeviceID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Upgrade status changed")

	return nil
}

func reasonDetails(reason string) json.RawMessage {
	details, _ := json.Marshal(map[string]string{"reason": reason})
	return details
}
