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
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// InsertAuditEvent appends one audit event outside any transition.
func (d *DB) InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	return insertAuditTx(ctx, d.pool, event)
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so audit writes can
// join a transition's transaction or run standalone.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// insertAuditTx appends one audit event using the given executor.
func insertAuditTx(ctx context.Context, tx execer, event *models.AuditEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const insert = `
		INSERT INTO audit_events (id, device_id, upgrade_id, event, details, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6)`

	_, err := tx.Exec(ctx, insert,
		event.ID, event.DeviceID, event.UpgradeID, event.Event, event.Details, createdAt)
	if err != nil {
		return fmt.Errorf("%w: audit event %s: %w", ErrFailedToInsert, event.Event, err)
	}

	return nil
}

// ListAuditEvents returns the device's most recent audit events, newest first.
func (d *DB) ListAuditEvents(ctx context.Context, deviceID string, limit int) ([]*models.AuditEvent, error) {
	const query = `
		SELECT id, device_id, COALESCE(upgrade_id::text, ''), event, details, created_at
		FROM audit_events
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := d.pool.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: audit events for %s: %w", ErrFailedToQuery, deviceID, err)
	}
	defer rows.Close()

	events := make([]*models.AuditEvent, 0, limit)

	for rows.Next() {
		event := &models.AuditEvent{}

		err := rows.Scan(&event.ID, &event.DeviceID, &event.UpgradeID,
			&event.Event, &event.Details, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return events, nil
}
