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

//go:generate mockgen -destination=mock_db.go -package=db github.com/SHARAN-RH/netops/pkg/db Service

package db

import (
	"context"
	"encoding/json"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// Service is the inventory and upgrade-history store consumed by the
// orchestrator. Implementations must make RecordDecision an atomic
// check-and-create so the single-flight invariant holds across processes.
type Service interface {
	// GetDevice returns the device or ErrDeviceNotFound.
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)

	// GetEffectivePolicy resolves the policy for a device: device override
	// fields take precedence over the best vendor/model rule match, which
	// takes precedence over system defaults.
	GetEffectivePolicy(ctx context.Context, deviceID string) (*models.Policy, error)

	// RecordDecision inserts a new upgrade request in pending status.
	// Records without execution intent still occupying the device (pending
	// analysis records, precheck dry-run leftovers) are superseded with an
	// audit event in the same transaction. Returns ErrUpgradeInFlight when a
	// real execution already occupies the device.
	RecordDecision(ctx context.Context, req *models.UpgradeRequest) error

	// UpdateStatus moves an upgrade request from one status to another and
	// appends exactly one audit event carrying the before/after statuses and
	// details, in a single transaction. Returns ErrInvalidTransition when
	// the request is not currently in the from status.
	UpdateStatus(ctx context.Context, upgradeID, deviceID string, from, to models.UpgradeStatus, details json.RawMessage) error

	// GetUpgrade returns one upgrade request or ErrUpgradeNotFound.
	GetUpgrade(ctx context.Context, upgradeID string) (*models.UpgradeRequest, error)

	// GetActiveUpgrade returns the device's non-terminal upgrade request, or
	// nil when the device is idle.
	GetActiveUpgrade(ctx context.Context, deviceID string) (*models.UpgradeRequest, error)

	// ListRecentUpgrades returns the device's most recent upgrade requests,
	// newest first.
	ListRecentUpgrades(ctx context.Context, deviceID string, limit int) ([]*models.UpgradeRequest, error)

	// InsertAuditEvent appends one audit event. Audit rows are never updated
	// or deleted.
	InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error

	// ListAuditEvents returns the device's most recent audit events, newest
	// first.
	ListAuditEvents(ctx context.Context, deviceID string, limit int) ([]*models.AuditEvent, error)

	// Close releases the connection pool.
	Close()
}
