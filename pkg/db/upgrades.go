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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/SHARAN-RH/netops/pkg/models"
)

const upgradeColumns = `
	id, device_id, requested_by, decision, reason, decided_by,
	source_version, COALESCE(target_version, ''), status,
	execution_requested, result, created_at, updated_at`

const eventStatusPrefix = "upgrade_status:"

// RecordDecision inserts a new upgrade request in pending status. Records not
// tied to a real execution (ExecutionRequested false) left behind by an
// earlier Analyze or a completed dry run are superseded first, so the
// single-flight index only ever rejects genuine concurrent activity. The
// supersede, insert, and audit writes commit atomically.
func (d *DB) RecordDecision(ctx context.Context, req *models.UpgradeRequest) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToInsert, err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := d.supersedeStaleDecisions(ctx, tx, req.DeviceID); err != nil {
		return err
	}

	const insertUpgrade = `
		INSERT INTO upgrades (id, device_id, requested_by, decision, reason,
			decided_by, source_version, target_version, status,
			execution_requested, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $11)`

	_, err = tx.Exec(ctx, insertUpgrade,
		req.ID, req.DeviceID, req.RequestedBy, req.Decision, req.Reason,
		req.DecidedBy, req.SourceVersion, req.TargetVersion, req.Status,
		req.ExecutionRequested, req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: device %s", ErrUpgradeInFlight, req.DeviceID)
		}

		return fmt.Errorf("%w: upgrade for %s: %w", ErrFailedToInsert, req.DeviceID, err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"decision":   req.Decision,
		"reason":     req.Reason,
		"decided_by": req.DecidedBy,
		"target_ver": req.TargetVersion,
	})

	if err := insertAuditTx(ctx, tx, &models.AuditEvent{
		ID:        uuid.NewString(),
		DeviceID:  req.DeviceID,
		UpgradeID: req.ID,
		Event:     "decision_recorded",
		Details:   details,
		CreatedAt: req.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// supersedeStaleDecisions clears records for the device that carry no real
// execution intent: pending analysis records become denied, precheck dry-run
// leftovers become failed, each with an audit event. Records created by a
// real Execute are left alone; the caller's insert will collide with them
// instead.
func (d *DB) supersedeStaleDecisions(ctx context.Context, tx pgx.Tx, deviceID string) error {
	const supersede = `
		UPDATE upgrades
		SET status = CASE status WHEN 'pending' THEN 'denied' ELSE 'failed' END,
		    reason = reason || ' (superseded by newer decision)',
		    updated_at = now()
		WHERE device_id = $1 AND status IN ('pending', 'precheck') AND NOT execution_requested
		RETURNING id, status`

	rows, err := tx.Query(ctx, supersede, deviceID)
	if err != nil {
		return fmt.Errorf("%w: supersede stale for %s: %w", ErrFailedToQuery, deviceID, err)
	}

	type superseded struct {
		id     string
		status models.UpgradeStatus
	}

	var cleared []superseded

	for rows.Next() {
		var s superseded
		if err := rows.Scan(&s.id, &s.status); err != nil {
			rows.Close()
			return fmt.Errorf("%w: %w", ErrFailedToQuery, err)
		}

		cleared = append(cleared, s)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	for _, s := range cleared {
		before := models.StatusPending
		if s.status == models.StatusFailed {
			before = models.StatusPrecheck
		}

		details, _ := json.Marshal(map[string]string{
			"before": string(before),
			"after":  string(s.status),
			"cause":  "superseded by newer decision",
		})

		if err := insertAuditTx(ctx, tx, &models.AuditEvent{
			ID:        uuid.NewString(),
			DeviceID:  deviceID,
			UpgradeID: s.id,
			Event:     eventStatusPrefix + string(s.status),
			Details:   details,
		}); err != nil {
			return err
		}
	}

	return nil
}

// UpdateStatus transitions an upgrade request and appends exactly one audit
// event, atomically. The WHERE status guard keeps transitions monotonic even
// when two orchestrator instances race on the same request.
func (d *DB) UpdateStatus(
	ctx context.Context, upgradeID, deviceID string,
	from, to models.UpgradeStatus, details json.RawMessage,
) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToInsert, err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	const update = `
		UPDATE upgrades
		SET status = $1, result = COALESCE($2, result), updated_at = now()
		WHERE id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, update, to, details, upgradeID, from)
	if err != nil {
		return fmt.Errorf("%w: status of %s: %w", ErrFailedToInsert, upgradeID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: upgrade %s is not %s", ErrInvalidTransition, upgradeID, from)
	}

	audit := map[string]interface{}{
		"before": string(from),
		"after":  string(to),
	}

	if len(details) > 0 {
		audit["details"] = json.RawMessage(details)
	}

	auditJSON, _ := json.Marshal(audit)

	if err := insertAuditTx(ctx, tx, &models.AuditEvent{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		UpgradeID: upgradeID,
		Event:     eventStatusPrefix + string(to),
		Details:   auditJSON,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetUpgrade returns one upgrade request or ErrUpgradeNotFound.
func (d *DB) GetUpgrade(ctx context.Context, upgradeID string) (*models.UpgradeRequest, error) {
	query := `SELECT ` + upgradeColumns + ` FROM upgrades WHERE id = $1`

	req, err := scanUpgrade(d.pool.QueryRow(ctx, query, upgradeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUpgradeNotFound, upgradeID)
		}

		return nil, fmt.Errorf("%w: upgrade %s: %w", ErrFailedToQuery, upgradeID, err)
	}

	return req, nil
}

// GetActiveUpgrade returns the device's non-terminal upgrade request, or nil
// when the device is idle.
func (d *DB) GetActiveUpgrade(ctx context.Context, deviceID string) (*models.UpgradeRequest, error) {
	query := `SELECT ` + upgradeColumns + `
		FROM upgrades
		WHERE device_id = $1 AND status IN ('pending', 'precheck', 'running')
		LIMIT 1`

	req, err := scanUpgrade(d.pool.QueryRow(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: active upgrade for %s: %w", ErrFailedToQuery, deviceID, err)
	}

	return req, nil
}

// ListRecentUpgrades returns the device's most recent upgrade requests,
// newest first.
func (d *DB) ListRecentUpgrades(ctx context.Context, deviceID string, limit int) ([]*models.UpgradeRequest, error) {
	query := `SELECT ` + upgradeColumns + `
		FROM upgrades
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := d.pool.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: upgrades for %s: %w", ErrFailedToQuery, deviceID, err)
	}
	defer rows.Close()

	requests := make([]*models.UpgradeRequest, 0, limit)

	for rows.Next() {
		req, err := scanUpgrade(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
		}

		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return requests, nil
}

func scanUpgrade(row pgx.Row) (*models.UpgradeRequest, error) {
	req := &models.UpgradeRequest{}

	err := row.Scan(
		&req.ID,
		&req.DeviceID,
		&req.RequestedBy,
		&req.Decision,
		&req.Reason,
		&req.DecidedBy,
		&req.SourceVersion,
		&req.TargetVersion,
		&req.Status,
		&req.ExecutionRequested,
		&req.Result,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return req, nil
}
