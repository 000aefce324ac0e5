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

// Package telemetry implements the read-only telemetry adapter on InfluxDB.
package telemetry

import (
	"context"
	"fmt"
	"regexp"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"golang.org/x/sync/errgroup"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

const defaultQueryTimeout = 15 * time.Second

// Measurement and field names follow the collector's line protocol schema.
const (
	measurementCPU    = "cpu"
	fieldCPUUsage     = "usage_percent"
	measurementMem    = "mem"
	fieldMemFree      = "free_percent"
	measurementErrors = "errors"
	fieldErrorCount   = "count"
)

// windowPattern accepts Flux duration literals with second through week
// units, e.g. "30m" or "1h".
var windowPattern = regexp.MustCompile(`^[0-9]+(s|m|h|d|w)$`)

// tagPattern restricts values interpolated into Flux string literals.
var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// fluxQuerier is the subset of the InfluxDB query API the store uses.
type fluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// InfluxStore implements Store against an InfluxDB 2.x bucket.
type InfluxStore struct {
	client  influxdb2.Client
	query   fluxQuerier
	bucket  string
	timeout time.Duration
	logger  logger.Logger
}

// NewInfluxStore creates a Store from the telemetry configuration.
func NewInfluxStore(cfg *models.TelemetryConfig, log logger.Logger) *InfluxStore {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &InfluxStore{
		client:  client,
		query:   client.QueryAPI(cfg.Org),
		bucket:  cfg.Bucket,
		timeout: timeout,
		logger:  log,
	}
}

// Close releases the underlying client.
func (s *InfluxStore) Close() {
	s.client.Close()
}

// Aggregate runs one aggregation over a device's metric series.
func (s *InfluxStore) Aggregate(
	ctx context.Context, deviceID, window, measurement, field string, kind AggregationKind,
) (*float64, error) {
	flux, err := buildFlux(s.bucket, deviceID, window, measurement, field, kind)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.query.Query(queryCtx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s for %s: %w", ErrQueryFailed, measurement, field, deviceID, err)
	}

	var value *float64

	for result.Next() {
		if v, ok := toFloat(result.Record().Value()); ok {
			value = &v
			break
		}
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s/%s for %s: %w", ErrQueryFailed, measurement, field, deviceID, err)
	}

	return value, nil
}

// Snapshot fetches cpu average, minimum free memory, and critical error count
// concurrently. Any query failure dominates and the snapshot is reported
// incomplete; an empty series only leaves its field nil.
func (s *InfluxStore) Snapshot(ctx context.Context, deviceID, window string) (*models.HealthSnapshot, error) {
	snapshot := &models.HealthSnapshot{
		DeviceID:    deviceID,
		Window:      window,
		CollectedAt: time.Now().UTC(),
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		value, err := s.Aggregate(groupCtx, deviceID, window, measurementCPU, fieldCPUUsage, AggregateMean)
		if err != nil {
			return err
		}

		snapshot.CPUAvg = value

		return nil
	})

	g.Go(func() error {
		value, err := s.Aggregate(groupCtx, deviceID, window, measurementMem, fieldMemFree, AggregateMin)
		if err != nil {
			return err
		}

		snapshot.MemFreeMin = value

		return nil
	})

	g.Go(func() error {
		value, err := s.Aggregate(groupCtx, deviceID, window, measurementErrors, fieldErrorCount, AggregateSum)
		if err != nil {
			return err
		}

		// A device with no error points in the window has zero errors, not
		// unknown errors.
		count := int64(0)
		if value != nil {
			count = int64(*value)
		}

		snapshot.CriticalErrors = &count

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotIncomplete, err)
	}

	s.logger.Debug().
		Str("device_id", deviceID).
		Str("window", window).
		Msg("Collected health snapshot")

	return snapshot, nil
}

// buildFlux assembles the aggregation query. Inputs are validated before
// interpolation since Flux has no parameter binding for table literals.
func buildFlux(bucket, deviceID, window, measurement, field string, kind AggregationKind) (string, error) {
	if !windowPattern.MatchString(window) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}

	if !tagPattern.MatchString(deviceID) || !tagPattern.MatchString(measurement) || !tagPattern.MatchString(field) {
		return "", fmt.Errorf("%w: invalid identifier", ErrQueryFailed)
	}

	switch kind {
	case AggregateMean, AggregateMin, AggregateMax, AggregateSum, AggregateCount:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAggregation, kind)
	}

	extra := ""
	if measurement == measurementErrors {
		extra = ` and r.severity == "critical"`
	}

	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q and r.device_id == %q and r._field == %q%s)
  |> %s()`, bucket, window, measurement, deviceID, field, extra, kind), nil
}

func toFloat(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int64:
		return float64(value), true
	case uint64:
		return float64(value), true
	default:
		return 0, false
	}
}
