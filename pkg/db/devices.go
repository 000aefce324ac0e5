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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SHARAN-RH/netops/pkg/models"
)

// GetDevice returns the device or ErrDeviceNotFound.
func (d *DB) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	const query = `
		SELECT id, hostname, mgmt_ip, vendor, model, current_version,
		       COALESCE(target_version, ''), window_start_minute,
		       window_end_minute, last_upgraded_at
		FROM devices
		WHERE id = $1`

	device := &models.Device{}

	var windowStart, windowEnd *int

	err := d.pool.QueryRow(ctx, query, deviceID).Scan(
		&device.ID,
		&device.Hostname,
		&device.MgmtIP,
		&device.Vendor,
		&device.Model,
		&device.CurrentVersion,
		&device.TargetVersion,
		&windowStart,
		&windowEnd,
		&device.LastUpgradedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}

		return nil, fmt.Errorf("%w: device %s: %w", ErrFailedToQuery, deviceID, err)
	}

	if windowStart != nil && windowEnd != nil {
		device.Window = &models.MaintenanceWindow{
			StartMinute: *windowStart,
			EndMinute:   *windowEnd,
		}
	}

	return device, nil
}
