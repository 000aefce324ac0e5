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

// Package db implements the inventory, policy, and upgrade-history store on
// PostgreSQL.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

const (
	defaultPostgresPort = 5432
	defaultSSLMode      = "disable"

	pgUniqueViolation = "23505"
)

// DB implements Service on a pgx connection pool.
type DB struct {
	pool     *pgxpool.Pool
	defaults *models.Policy
	logger   logger.Logger
}

// New dials the configured Postgres instance and returns a Service. When
// cfg.Migrate is set the schema is created if missing. defaults supplies the
// system-default policy thresholds; nil uses the built-in defaults.
func New(ctx context.Context, cfg *models.DBConfig, defaults *models.Policy, log logger.Logger) (Service, error) {
	pool, err := pgxpool.New(ctx, connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	if defaults == nil {
		defaults = models.DefaultPolicy()
	}

	database := &DB{
		pool:     pool,
		defaults: defaults,
		logger:   log,
	}

	if cfg.Migrate {
		if err := database.migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("Connected to inventory store")

	return database, nil
}

// connString builds a postgres:// URL from the config.
func connString(cfg *models.DBConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	query := connURL.Query()

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	query.Set("sslmode", sslMode)

	if cfg.ApplicationName != "" {
		query.Set("application_name", cfg.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	return connURL.String()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Close releases the connection pool.
func (d *DB) Close() {
	d.pool.Close()
}
