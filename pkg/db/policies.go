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

// policyOverride carries the nullable per-device override columns. Nil fields
// fall through to the matched rule or the defaults.
type policyOverride struct {
	MaxCPUPercent     *float64
	MinFreeMemPercent *float64
	MaxCriticalErrors *int64
	RequireWindow     *bool
	CooldownHours     *int
}

// GetEffectivePolicy resolves the effective policy for a device. Precedence
// is device override > highest-priority vendor/model rule > system defaults;
// first match wins within each layer, so resolution is deterministic.
func (d *DB) GetEffectivePolicy(ctx context.Context, deviceID string) (*models.Policy, error) {
	rule, err := d.matchPolicyRule(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	override, err := d.getPolicyOverride(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return resolvePolicy(override, rule, d.defaults), nil
}

// matchPolicyRule returns the stored rule matching the device's vendor and
// model, or nil when none matches.
func (d *DB) matchPolicyRule(ctx context.Context, deviceID string) (*models.Policy, error) {
	const query = `
		SELECT p.max_cpu_percent, p.min_free_mem_percent, p.max_critical_errors,
		       p.require_maintenance_window, p.cooldown_hours
		FROM upgrade_policies p
		JOIN devices r ON r.vendor = p.vendor AND r.model = p.model
		WHERE r.id = $1
		ORDER BY p.priority DESC, p.id ASC
		LIMIT 1`

	rule := &models.Policy{Source: models.PolicySourceRule}

	err := d.pool.QueryRow(ctx, query, deviceID).Scan(
		&rule.MaxCPUPercent,
		&rule.MinFreeMemPercent,
		&rule.MaxCriticalErrors,
		&rule.RequireWindow,
		&rule.CooldownHours,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: policy rule for %s: %w", ErrFailedToQuery, deviceID, err)
	}

	return rule, nil
}

// getPolicyOverride returns the device's override row, or nil when absent.
func (d *DB) getPolicyOverride(ctx context.Context, deviceID string) (*policyOverride, error) {
	const query = `
		SELECT max_cpu_percent, min_free_mem_percent, max_critical_errors,
		       require_maintenance_window, cooldown_hours
		FROM device_policy_overrides
		WHERE device_id = $1`

	override := &policyOverride{}

	err := d.pool.QueryRow(ctx, query, deviceID).Scan(
		&override.MaxCPUPercent,
		&override.MinFreeMemPercent,
		&override.MaxCriticalErrors,
		&override.RequireWindow,
		&override.CooldownHours,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: policy override for %s: %w", ErrFailedToQuery, deviceID, err)
	}

	return override, nil
}

// resolvePolicy layers the override fields over the matched rule over the
// defaults and returns the single effective policy.
func resolvePolicy(override *policyOverride, rule, defaults *models.Policy) *models.Policy {
	effective := *defaults
	effective.Source = models.PolicySourceDefault

	if rule != nil {
		effective = *rule
		effective.Source = models.PolicySourceRule
	}

	if override == nil {
		return &effective
	}

	overridden := false

	if override.MaxCPUPercent != nil {
		effective.MaxCPUPercent = *override.MaxCPUPercent
		overridden = true
	}

	if override.MinFreeMemPercent != nil {
		effective.MinFreeMemPercent = *override.MinFreeMemPercent
		overridden = true
	}

	if override.MaxCriticalErrors != nil {
		effective.MaxCriticalErrors = *override.MaxCriticalErrors
		overridden = true
	}

	if override.RequireWindow != nil {
		effective.RequireWindow = *override.RequireWindow
		overridden = true
	}

	if override.CooldownHours != nil {
		effective.CooldownHours = *override.CooldownHours
		overridden = true
	}

	if overridden {
		effective.Source = models.PolicySourceOverride
	}

	return &effective
}
