package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
	"github.com/SHARAN-RH/netops/pkg/orchestrator"
)

type apiFixture struct {
	orch   *orchestrator.MockService
	store  *db.MockService
	server *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &apiFixture{
		orch:  orchestrator.NewMockService(ctrl),
		store: db.NewMockService(ctrl),
	}

	srv := NewServer(f.orch, f.store, logger.NewTestLogger())
	f.server = httptest.NewServer(srv.Router())
	t.Cleanup(f.server.Close)

	return f
}

func (f *apiFixture) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	resp, err := http.Post(f.server.URL+path, "application/json", &buf)
	require.NoError(t, err)

	return resp
}

func (f *apiFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestHandleAnalyze(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Analyze(gomock.Any(), "R1").Return(&models.Verdict{
		Approve:   true,
		Reason:    "all conditions met",
		DecidedBy: models.DecidedByEvaluator,
	}, nil)

	resp := f.post(t, "/api/devices/R1/analyze", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	verdict := decodeBody[models.Verdict](t, resp)
	assert.True(t, verdict.Approve)
	assert.Equal(t, "all conditions met", verdict.Reason)
}

func TestHandleAnalyze_UnknownDevice(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Analyze(gomock.Any(), "ghost").Return(nil, db.ErrDeviceNotFound)

	resp := f.post(t, "/api/devices/ghost/analyze", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Error, "device not found")
}

func TestHandleUpgrade_DryRunFlag(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Execute(gomock.Any(), "R1", true).Return(&models.ExecutionResult{
		UpgradeID: "u-1",
		DeviceID:  "R1",
		Status:    models.StatusPrecheck,
	}, nil)

	resp := f.post(t, "/api/devices/R1/upgrade", upgradeRequestBody{DryRun: true})

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[models.ExecutionResult](t, resp)
	assert.Equal(t, models.StatusPrecheck, result.Status)
}

func TestHandleUpgrade_EmptyBodyMeansRealRun(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Execute(gomock.Any(), "R1", false).Return(&models.ExecutionResult{
		UpgradeID: "u-1",
		DeviceID:  "R1",
		Status:    models.StatusSuccess,
	}, nil)

	resp := f.post(t, "/api/devices/R1/upgrade", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleUpgrade_InFlightConflict(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Execute(gomock.Any(), "R1", false).Return(nil, db.ErrUpgradeInFlight)

	resp := f.post(t, "/api/devices/R1/upgrade", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleRollback_NotAllowed(t *testing.T) {
	f := newAPIFixture(t)

	f.orch.EXPECT().Rollback(gomock.Any(), "u-1").Return(nil, orchestrator.ErrRollbackNotAllowed)

	resp := f.post(t, "/api/upgrades/u-1/rollback", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleListUpgrades_LimitParam(t *testing.T) {
	f := newAPIFixture(t)

	f.store.EXPECT().ListRecentUpgrades(gomock.Any(), "R1", 5).
		Return([]*models.UpgradeRequest{{ID: "u-1", DeviceID: "R1", Status: models.StatusSuccess}}, nil)

	resp := f.get(t, "/api/devices/R1/upgrades?limit=5")

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	upgrades := decodeBody[[]*models.UpgradeRequest](t, resp)
	require.Len(t, upgrades, 1)
	assert.Equal(t, "u-1", upgrades[0].ID)
}

func TestHandleListUpgrades_LimitCapped(t *testing.T) {
	f := newAPIFixture(t)

	f.store.EXPECT().ListRecentUpgrades(gomock.Any(), "R1", maxListLimit).
		Return([]*models.UpgradeRequest{}, nil)

	resp := f.get(t, "/api/devices/R1/upgrades?limit=100000")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleGetDevice(t *testing.T) {
	f := newAPIFixture(t)

	f.store.EXPECT().GetDevice(gomock.Any(), "R1").Return(&models.Device{
		ID:             "R1",
		Hostname:       "r1.lab",
		CurrentVersion: "15.1",
	}, nil)

	resp := f.get(t, "/api/devices/R1")

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	device := decodeBody[models.Device](t, resp)
	assert.Equal(t, "r1.lab", device.Hostname)
}

func TestHandleListAudit(t *testing.T) {
	f := newAPIFixture(t)

	f.store.EXPECT().ListAuditEvents(gomock.Any(), "R1", defaultListLimit).
		Return([]*models.AuditEvent{{ID: "a-1", DeviceID: "R1", Event: "decision_recorded"}}, nil)

	resp := f.get(t, "/api/devices/R1/audit")

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	events := decodeBody[[]*models.AuditEvent](t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, "decision_recorded", events[0].Event)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.get(t, "/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
