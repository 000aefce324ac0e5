package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/executor"
	"github.com/SHARAN-RH/netops/pkg/gate"
	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
	"github.com/SHARAN-RH/netops/pkg/telemetry"
)

type fixture struct {
	db        *db.MockService
	telemetry *telemetry.MockStore
	executor  *executor.MockRunner
	gate      *gate.MockGate
	orch      *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		db:        db.NewMockService(ctrl),
		telemetry: telemetry.NewMockStore(ctrl),
		executor:  executor.NewMockRunner(ctrl),
		gate:      gate.NewMockGate(ctrl),
	}

	f.orch = New(&Config{Window: "1h", Requester: "test"}, &Deps{
		DB:        f.db,
		Telemetry: f.telemetry,
		Executor:  f.executor,
		Gate:      f.gate,
		Logger:    logger.NewTestLogger(),
	})
	f.orch.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	return f
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int64) *int64       { return &v }

func testDevice() *models.Device {
	return &models.Device{
		ID:             "R1",
		Vendor:         "cisco",
		Model:          "isr4431",
		CurrentVersion: "15.1",
		TargetVersion:  "15.2",
	}
}

func healthySnapshot() *models.HealthSnapshot {
	return &models.HealthSnapshot{
		DeviceID:       "R1",
		Window:         "1h",
		CPUAvg:         floatPtr(60),
		MemFreeMin:     floatPtr(40),
		CriticalErrors: intPtr(0),
	}
}

// expectFetches wires the concurrent fan-out for a healthy analysis.
func (f *fixture) expectFetches(snapshot *models.HealthSnapshot) {
	f.db.EXPECT().GetDevice(gomock.Any(), "R1").Return(testDevice(), nil)
	f.db.EXPECT().GetEffectivePolicy(gomock.Any(), "R1").Return(models.DefaultPolicy(), nil)
	f.telemetry.EXPECT().Snapshot(gomock.Any(), "R1", "1h").Return(snapshot, nil)
}

// expectGatePassThrough makes the gate return the rule verdict unchanged.
func (f *fixture) expectGatePassThrough() {
	f.gate.EXPECT().
		Review(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *models.Device, _ *models.Policy,
			_ *models.HealthSnapshot, rule *models.Verdict) *models.Verdict {
			return rule
		})
}

func TestAnalyze_ApprovedAndRecorded(t *testing.T) {
	f := newFixture(t)

	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	var recorded *models.UpgradeRequest

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.UpgradeRequest) error {
			recorded = req
			return nil
		})

	verdict, err := f.orch.Analyze(context.Background(), "R1")
	require.NoError(t, err)

	assert.True(t, verdict.Approve)
	require.NotNil(t, recorded)
	assert.Equal(t, models.StatusPending, recorded.Status)
	assert.False(t, recorded.ExecutionRequested)
	assert.Equal(t, "approve", recorded.Decision)
	assert.Equal(t, "15.1", recorded.SourceVersion)
	assert.Equal(t, "15.2", recorded.TargetVersion)
	assert.Equal(t, "test", recorded.RequestedBy)
}

func TestAnalyze_DeniedTransitionsToTerminal(t *testing.T) {
	f := newFixture(t)

	snapshot := healthySnapshot()
	snapshot.CPUAvg = floatPtr(90)

	f.expectFetches(snapshot)
	f.expectGatePassThrough()

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)
	f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
		models.StatusPending, models.StatusDenied, gomock.Any()).Return(nil)

	verdict, err := f.orch.Analyze(context.Background(), "R1")
	require.NoError(t, err)

	assert.False(t, verdict.Approve)
	assert.Contains(t, verdict.Reason, "cpu avg 90.0% exceeds limit 75.0%")
}

func TestAnalyze_DeviceNotFound(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetDevice(gomock.Any(), "R1").Return(nil, db.ErrDeviceNotFound)
	f.db.EXPECT().GetEffectivePolicy(gomock.Any(), "R1").Return(models.DefaultPolicy(), nil)
	f.telemetry.EXPECT().Snapshot(gomock.Any(), "R1", "1h").Return(healthySnapshot(), nil)

	verdict, err := f.orch.Analyze(context.Background(), "R1")

	assert.ErrorIs(t, err, db.ErrDeviceNotFound)
	assert.Nil(t, verdict)
}

func TestAnalyze_TelemetryFailureDeniesCitingDependency(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetDevice(gomock.Any(), "R1").Return(testDevice(), nil)
	f.db.EXPECT().GetEffectivePolicy(gomock.Any(), "R1").Return(models.DefaultPolicy(), nil)
	f.telemetry.EXPECT().Snapshot(gomock.Any(), "R1", "1h").
		Return(nil, telemetry.ErrSnapshotIncomplete)

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)
	f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
		models.StatusPending, models.StatusDenied, gomock.Any()).Return(nil)

	verdict, err := f.orch.Analyze(context.Background(), "R1")
	require.NoError(t, err)

	assert.False(t, verdict.Approve)
	assert.Contains(t, verdict.Reason, "dependency unavailable: telemetry store")
	assert.Zero(t, verdict.Confidence)
}

func TestAnalyze_Idempotent(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		f.expectFetches(healthySnapshot())
		f.expectGatePassThrough()
		f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)
	}

	first, err := f.orch.Analyze(context.Background(), "R1")
	require.NoError(t, err)

	second, err := f.orch.Analyze(context.Background(), "R1")
	require.NoError(t, err)

	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.Approve, second.Approve)
}

func TestExecute_RejectsInFlightRequest(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(&models.UpgradeRequest{
		ID:                 "u-active",
		DeviceID:           "R1",
		Status:             models.StatusRunning,
		ExecutionRequested: true,
	}, nil)

	result, err := f.orch.Execute(context.Background(), "R1", false)

	assert.ErrorIs(t, err, db.ErrUpgradeInFlight)
	assert.Nil(t, result)
}

func TestExecute_AnalysisLeftoverDoesNotBlock(t *testing.T) {
	f := newFixture(t)

	// A pending analysis record is superseded by RecordDecision, not a
	// reason to reject the call.
	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(&models.UpgradeRequest{
		ID:       "u-analysis",
		DeviceID: "R1",
		Status:   models.StatusPending,
	}, nil)

	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()
	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)
	f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
		models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil)

	f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
		Return(&models.JobResult{ExitCode: 0, Stdout: "ok"}, nil)

	result, err := f.orch.Execute(context.Background(), "R1", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrecheck, result.Status)
}

func TestExecute_DryRunStopsAtPrecheck(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	var recorded *models.UpgradeRequest

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.UpgradeRequest) error {
			recorded = req
			return nil
		})
	f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
		models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil)

	// Only the check-mode invocation; the real job must not run.
	f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
		Return(&models.JobResult{ExitCode: 0, Stdout: "check ok", ElapsedMs: 1200}, nil)

	result, err := f.orch.Execute(context.Background(), "R1", true)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPrecheck, result.Status)
	require.NotNil(t, recorded)
	assert.False(t, recorded.ExecutionRequested)
	require.NotNil(t, result.Precheck)
	assert.Nil(t, result.Apply)
}

func TestExecute_FullRunSucceeds(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	var recorded *models.UpgradeRequest

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *models.UpgradeRequest) error {
			recorded = req
			return nil
		})

	gomock.InOrder(
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPrecheck, models.StatusRunning, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusRunning, models.StatusSuccess, gomock.Any()).Return(nil),
	)

	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
			Return(&models.JobResult{ExitCode: 0}, nil),
		f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1",
			map[string]string{"target_version": "15.2", "source_version": "15.1"}, false).
			Return(&models.JobResult{ExitCode: 0, Stdout: "changed"}, nil),
	)

	result, err := f.orch.Execute(context.Background(), "R1", false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, "upgraded to 15.2", result.Reason)
	require.NotNil(t, recorded)
	assert.True(t, recorded.ExecutionRequested)
}

func TestExecute_DeniedStopsBeforeExecutor(t *testing.T) {
	f := newFixture(t)

	snapshot := healthySnapshot()
	snapshot.CriticalErrors = intPtr(5)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(snapshot)
	f.expectGatePassThrough()

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)
	f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
		models.StatusPending, models.StatusDenied, gomock.Any()).Return(nil)

	result, err := f.orch.Execute(context.Background(), "R1", false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDenied, result.Status)
	assert.Contains(t, result.Reason, "critical errors 5 exceed limit 0")
}

func TestExecute_PrecheckFailureRecordsDiagnostics(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)

	var failureDetails json.RawMessage

	gomock.InOrder(
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPrecheck, models.StatusFailed, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string,
				_, _ models.UpgradeStatus, details json.RawMessage) error {
				failureDetails = details
				return nil
			}),
	)

	f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
		Return(&models.JobResult{ExitCode: 2, Stderr: "unreachable host"}, nil)

	result, err := f.orch.Execute(context.Background(), "R1", false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "precheck failed with exit code 2")
	assert.Contains(t, result.Reason, "unreachable host")
	assert.Contains(t, string(failureDetails), "unreachable host")
}

func TestExecute_TimeoutGetsTimeoutReason(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)

	gomock.InOrder(
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPrecheck, models.StatusRunning, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusRunning, models.StatusFailed, gomock.Any()).Return(nil),
	)

	gomock.InOrder(
		f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
			Return(&models.JobResult{ExitCode: 0}, nil),
		f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), false).
			Return(&models.JobResult{ExitCode: -1, TimedOut: true, ElapsedMs: 600000}, nil),
	)

	result, err := f.orch.Execute(context.Background(), "R1", false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "timed out after 600000ms")
}

func TestExecute_SingleFlightViaStore(t *testing.T) {
	f := newFixture(t)

	// Losing side of a concurrent execute race: the store's unique index
	// rejects the insert after the snapshot of active upgrades was empty.
	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()
	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(db.ErrUpgradeInFlight)

	result, err := f.orch.Execute(context.Background(), "R1", false)

	assert.ErrorIs(t, err, db.ErrUpgradeInFlight)
	assert.Nil(t, result)
}

func TestRollback_FailedRequestRollsBack(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetUpgrade(gomock.Any(), "u-1").Return(&models.UpgradeRequest{
		ID:            "u-1",
		DeviceID:      "R1",
		Status:        models.StatusFailed,
		SourceVersion: "15.1",
		TargetVersion: "15.2",
	}, nil)

	f.executor.EXPECT().Run(gomock.Any(), "rollback", "R1",
		map[string]string{"target_version": "15.1"}, false).
		Return(&models.JobResult{ExitCode: 0}, nil)

	f.db.EXPECT().UpdateStatus(gomock.Any(), "u-1", "R1",
		models.StatusFailed, models.StatusRolledBack, gomock.Any()).Return(nil)

	result, err := f.orch.Rollback(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRolledBack, result.Status)
	assert.Equal(t, "rolled back to 15.1", result.Reason)
}

func TestRollback_RejectsNonFailedRequest(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetUpgrade(gomock.Any(), "u-1").Return(&models.UpgradeRequest{
		ID:       "u-1",
		DeviceID: "R1",
		Status:   models.StatusSuccess,
	}, nil)

	result, err := f.orch.Rollback(context.Background(), "u-1")

	assert.ErrorIs(t, err, ErrRollbackNotAllowed)
	assert.Nil(t, result)
}

func TestRollback_FailedRollbackStaysFailed(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetUpgrade(gomock.Any(), "u-1").Return(&models.UpgradeRequest{
		ID:            "u-1",
		DeviceID:      "R1",
		Status:        models.StatusFailed,
		SourceVersion: "15.1",
	}, nil)

	f.executor.EXPECT().Run(gomock.Any(), "rollback", "R1", gomock.Any(), false).
		Return(&models.JobResult{ExitCode: 4, Stderr: "playbook error"}, nil)

	f.db.EXPECT().InsertAuditEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *models.AuditEvent) error {
			assert.Equal(t, "rollback_failed", event.Event)
			return nil
		})

	result, err := f.orch.Rollback(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "rollback failed with exit code 4")
}

func TestExecute_ExecutorStartFailureAborts(t *testing.T) {
	f := newFixture(t)

	f.db.EXPECT().GetActiveUpgrade(gomock.Any(), "R1").Return(nil, nil)
	f.expectFetches(healthySnapshot())
	f.expectGatePassThrough()

	f.db.EXPECT().RecordDecision(gomock.Any(), gomock.Any()).Return(nil)

	gomock.InOrder(
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPending, models.StatusPrecheck, gomock.Any()).Return(nil),
		f.db.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), "R1",
			models.StatusPrecheck, models.StatusFailed, gomock.Any()).Return(nil),
	)

	f.executor.EXPECT().Run(gomock.Any(), "upgrade", "R1", gomock.Any(), true).
		Return(nil, errors.New("binary not found"))

	result, err := f.orch.Execute(context.Background(), "R1", false)

	assert.ErrorIs(t, err, ErrExecutionAborted)
	assert.Nil(t, result)
}
