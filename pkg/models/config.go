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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SHARAN-RH/netops/pkg/logger"
)

var (
	errInvalidDuration     = errors.New("invalid duration")
	errDatabaseRequired    = errors.New("database host and name are required")
	errTelemetryRequired   = errors.New("telemetry url, org, and bucket are required")
	errExecutorRequired    = errors.New("executor playbook dir and inventory are required")
	errGateEndpointMissing = errors.New("advisory gate enabled but endpoint not set")
)

// Duration wraps time.Duration for JSON configs, accepting either a duration
// string ("30s") or nanoseconds as a number.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// DBConfig holds PostgreSQL connection settings for the inventory store.
type DBConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Database        string `json:"database"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	SSLMode         string `json:"ssl_mode,omitempty"`
	ApplicationName string `json:"application_name,omitempty"`
	Migrate         bool   `json:"migrate,omitempty"`
}

// TelemetryConfig holds InfluxDB connection settings plus the trailing window
// used for health snapshots.
type TelemetryConfig struct {
	URL     string   `json:"url"`
	Token   string   `json:"token"`
	Org     string   `json:"org"`
	Bucket  string   `json:"bucket"`
	Window  string   `json:"window"`  // Flux duration literal, e.g. "1h"
	Timeout Duration `json:"timeout"` // per-query timeout
}

// ExecutorConfig holds settings for the ansible-playbook automation executor.
type ExecutorConfig struct {
	PlaybookDir string   `json:"playbook_dir"`
	Inventory   string   `json:"inventory"`
	Binary      string   `json:"binary,omitempty"` // defaults to ansible-playbook
	Timeout     Duration `json:"timeout"`
}

// GateConfig holds settings for the advisory second-opinion gate.
type GateConfig struct {
	Enabled   bool     `json:"enabled"`
	Endpoint  string   `json:"endpoint"`
	APIKey    string   `json:"api_key,omitempty"`
	Model     string   `json:"model,omitempty"`
	MaxTokens int      `json:"max_tokens,omitempty"`
	Timeout   Duration `json:"timeout"`
}

// EventsConfig holds NATS JetStream settings for the optional audit event
// stream. An empty URL disables publishing.
type EventsConfig struct {
	URL     string `json:"url"`
	Stream  string `json:"stream,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// CoreConfig is the top-level configuration for the orchestrator service.
type CoreConfig struct {
	ListenAddr string          `json:"listen_addr,omitempty"`
	Requester  string          `json:"requester,omitempty"`
	Database   DBConfig        `json:"database"`
	Telemetry  TelemetryConfig `json:"telemetry"`
	Executor   ExecutorConfig  `json:"executor"`
	Gate       GateConfig      `json:"gate"`
	Events     *EventsConfig   `json:"events,omitempty"`
	Defaults   *Policy         `json:"default_policy,omitempty"`
	Logging    *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *CoreConfig) Validate() error {
	if c.Database.Host == "" || c.Database.Database == "" {
		return errDatabaseRequired
	}

	if c.Telemetry.URL == "" || c.Telemetry.Org == "" || c.Telemetry.Bucket == "" {
		return errTelemetryRequired
	}

	if c.Executor.PlaybookDir == "" || c.Executor.Inventory == "" {
		return errExecutorRequired
	}

	if c.Gate.Enabled && c.Gate.Endpoint == "" {
		return errGateEndpointMissing
	}

	return nil
}
