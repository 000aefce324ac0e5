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

// Package executor runs device automation jobs through ansible-playbook.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

const (
	defaultBinary     = "ansible-playbook"
	defaultJobTimeout = 10 * time.Minute

	// killGracePeriod bounds how long Wait lingers after the context fires
	// before the process is forcibly killed.
	killGracePeriod = 5 * time.Second

	timeoutExitCode = -1
)

// JobUpgrade, JobRollback, and JobFacts are the jobs the runner knows how to
// execute. Each maps to a playbook under the configured playbook directory.
const (
	JobUpgrade  = "upgrade"
	JobRollback = "rollback"
	JobFacts    = "facts"
)

var playbooks = map[string]string{
	JobUpgrade:  "upgrade.yml",
	JobRollback: "rollback.yml",
	JobFacts:    "facts.yml",
}

var (
	ErrUnknownJob    = errors.New("unknown automation job")
	ErrInvalidDevice = errors.New("invalid device id")
	ErrJobStart      = errors.New("failed to start automation job")
)

// validDeviceID keeps device ids shell- and inventory-safe.
var validDeviceID = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

// AnsibleRunner implements Runner by spawning ansible-playbook.
type AnsibleRunner struct {
	playbookDir string
	inventory   string
	binary      string
	timeout     time.Duration
	logger      logger.Logger
}

// NewAnsibleRunner creates a Runner from the executor configuration.
func NewAnsibleRunner(cfg *models.ExecutorConfig, log logger.Logger) *AnsibleRunner {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultBinary
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	return &AnsibleRunner{
		playbookDir: cfg.PlaybookDir,
		inventory:   cfg.Inventory,
		binary:      binary,
		timeout:     timeout,
		logger:      log,
	}
}

// Run executes one playbook with a hard wall-clock timeout. On expiry the
// process is killed before the result is returned, so no job outlives its
// invocation.
func (r *AnsibleRunner) Run(
	ctx context.Context, job, deviceID string, variables map[string]string, checkMode bool,
) (*models.JobResult, error) {
	args, err := r.buildArgs(job, deviceID, variables, checkMode)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binary, args...)
	cmd.WaitDelay = killGracePeriod

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info().
		Str("job", job).
		Str("device_id", deviceID).
		Bool("check_mode", checkMode).
		Msg("Invoking automation job")

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	result := &models.JobResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ElapsedMs: elapsed.Milliseconds(),
	}

	switch {
	case runCtx.Err() != nil && ctx.Err() == nil:
		// The per-job timeout fired and CommandContext killed the process.
		result.ExitCode = timeoutExitCode
		result.TimedOut = true

		r.logger.Warn().
			Str("job", job).
			Str("device_id", deviceID).
			Dur("elapsed", elapsed).
			Msg("Automation job timed out and was killed")
	case err != nil:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrJobStart, job, err)
		}

		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = 0
	}

	r.logger.Debug().
		Str("job", job).
		Int("exit_code", result.ExitCode).
		Int64("elapsed_ms", result.ElapsedMs).
		Msg("Automation job finished")

	return result, nil
}

// buildArgs assembles the ansible-playbook argument list. Variables are
// passed with -e in sorted order so invocations are reproducible.
func (r *AnsibleRunner) buildArgs(job, deviceID string, variables map[string]string, checkMode bool) ([]string, error) {
	playbook, ok := playbooks[job]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}

	if !validDeviceID.MatchString(deviceID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDevice, deviceID)
	}

	args := []string{
		"-i", r.inventory,
		filepath.Join(r.playbookDir, playbook),
		"-e", "device_id=" + deviceID,
	}

	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, variables[k]))
	}

	if checkMode {
		args = append(args, "--check")
	}

	return args, nil
}
