package models

import (
	"time"
)

// Device represents a managed network device subject to upgrade. Owned by the
// inventory store; the orchestrator reads it and never mutates it directly.
type Device struct {
	ID             string              `json:"id"`
	Hostname       string              `json:"hostname"`
	MgmtIP         string              `json:"mgmt_ip"`
	Vendor         string              `json:"vendor"`
	Model          string              `json:"model"`
	CurrentVersion string              `json:"current_version"`
	TargetVersion  string              `json:"target_version,omitempty"`
	Window         *MaintenanceWindow  `json:"maintenance_window,omitempty"`
	LastUpgradedAt *time.Time          `json:"last_upgraded_at,omitempty"`
}

// MaintenanceWindow is a recurring daily interval during which device-affecting
// work is permitted. Start and End are minutes-of-day in UTC; a window that
// wraps midnight (End < Start) is valid.
type MaintenanceWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

const minutesPerDay = 24 * 60

// Contains reports whether t falls inside the window.
func (w *MaintenanceWindow) Contains(t time.Time) bool {
	if w == nil {
		return false
	}

	minute := t.UTC().Hour()*60 + t.UTC().Minute()

	start := w.StartMinute % minutesPerDay
	end := w.EndMinute % minutesPerDay

	if start <= end {
		return minute >= start && minute < end
	}

	// Wraps midnight.
	return minute >= start || minute < end
}

// UpgradeVersion is the version an approved upgrade should install: the
// device's target version when set, otherwise its current version.
func (d *Device) UpgradeVersion() string {
	if d.TargetVersion != "" {
		return d.TargetVersion
	}

	return d.CurrentVersion
}
