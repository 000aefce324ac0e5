package models

import (
	"time"
)

// CloudEvent is the envelope used for events published to the message bus,
// following the CloudEvents 1.0 attribute names.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype,omitempty"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// DecisionEventData is the payload for upgrade decision events.
type DecisionEventData struct {
	DeviceID      string    `json:"device_id"`
	UpgradeID     string    `json:"upgrade_id"`
	Decision      string    `json:"decision"`
	Reason        string    `json:"reason"`
	Confidence    float64   `json:"confidence"`
	DecidedBy     DecidedBy `json:"decided_by"`
	TargetVersion string    `json:"target_version,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// StatusEventData is the payload for upgrade status transition events.
type StatusEventData struct {
	DeviceID   string        `json:"device_id"`
	UpgradeID  string        `json:"upgrade_id"`
	FromStatus UpgradeStatus `json:"from_status"`
	ToStatus   UpgradeStatus `json:"to_status"`
	Detail     string        `json:"detail,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
