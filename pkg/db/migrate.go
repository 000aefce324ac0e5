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

package db

import (
	"context"
	"fmt"
)

// migrations are applied in order on startup. Statements must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL DEFAULT '',
		mgmt_ip TEXT NOT NULL,
		vendor TEXT NOT NULL,
		model TEXT NOT NULL,
		current_version TEXT NOT NULL,
		target_version TEXT,
		window_start_minute INT,
		window_end_minute INT,
		last_upgraded_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS upgrade_policies (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		vendor TEXT NOT NULL,
		model TEXT NOT NULL,
		max_cpu_percent DOUBLE PRECISION NOT NULL,
		min_free_mem_percent DOUBLE PRECISION NOT NULL,
		max_critical_errors BIGINT NOT NULL DEFAULT 0,
		require_maintenance_window BOOLEAN NOT NULL DEFAULT FALSE,
		cooldown_hours INT NOT NULL DEFAULT 24,
		priority INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS device_policy_overrides (
		device_id TEXT PRIMARY KEY REFERENCES devices(id),
		max_cpu_percent DOUBLE PRECISION,
		min_free_mem_percent DOUBLE PRECISION,
		max_critical_errors BIGINT,
		require_maintenance_window BOOLEAN,
		cooldown_hours INT
	)`,
	`CREATE TABLE IF NOT EXISTS upgrades (
		id UUID PRIMARY KEY,
		device_id TEXT NOT NULL REFERENCES devices(id),
		requested_by TEXT NOT NULL DEFAULT '',
		decision TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		decided_by TEXT NOT NULL DEFAULT 'evaluator',
		source_version TEXT NOT NULL DEFAULT '',
		target_version TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		execution_requested BOOLEAN NOT NULL DEFAULT FALSE,
		result JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Backs the at-most-one-in-flight-request-per-device invariant. The
	// conditional insert in RecordDecision relies on this index, so the
	// guarantee holds across orchestrator instances.
	`CREATE UNIQUE INDEX IF NOT EXISTS upgrades_single_flight_idx
		ON upgrades (device_id)
		WHERE status IN ('pending', 'precheck', 'running')`,
	`CREATE INDEX IF NOT EXISTS upgrades_device_created_idx
		ON upgrades (device_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		device_id TEXT NOT NULL,
		upgrade_id UUID,
		event TEXT NOT NULL,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_device_created_idx
		ON audit_events (device_id, created_at DESC)`,
}

// migrate creates the schema if it does not exist.
func (d *DB) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %w", ErrFailedToInit, i, err)
		}
	}

	d.logger.Debug().Int("statements", len(migrations)).Msg("Schema migration complete")

	return nil
}
