package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

func testRunner(t *testing.T, binary string, timeout time.Duration) *AnsibleRunner {
	t.Helper()

	return NewAnsibleRunner(&models.ExecutorConfig{
		PlaybookDir: "/etc/netops/playbooks",
		Inventory:   "/etc/netops/inventory.ini",
		Binary:      binary,
		Timeout:     models.Duration(timeout),
	}, logger.NewTestLogger())
}

// writeScript creates an executable shell script for exercising the runner
// without ansible installed.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-playbook.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return path
}

func TestBuildArgs(t *testing.T) {
	runner := testRunner(t, "ansible-playbook", time.Minute)

	args, err := runner.buildArgs(JobUpgrade, "R1", map[string]string{
		"target_ver": "15.2",
		"approved":   "true",
	}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-i", "/etc/netops/inventory.ini",
		"/etc/netops/playbooks/upgrade.yml",
		"-e", "device_id=R1",
		"-e", "approved=true",
		"-e", "target_ver=15.2",
		"--check",
	}, args)
}

func TestBuildArgs_UnknownJob(t *testing.T) {
	runner := testRunner(t, "ansible-playbook", time.Minute)

	_, err := runner.buildArgs("reboot-everything", "R1", nil, false)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestBuildArgs_InvalidDeviceID(t *testing.T) {
	runner := testRunner(t, "ansible-playbook", time.Minute)

	_, err := runner.buildArgs(JobUpgrade, "R1; rm -rf /", nil, false)
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	script := writeScript(t, `echo "PLAY [upgrade]"; echo "diagnostic" >&2; exit 0`)
	runner := testRunner(t, script, time.Minute)

	result, err := runner.Run(context.Background(), JobUpgrade, "R1", map[string]string{"target_ver": "15.2"}, false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Succeeded())
	assert.Contains(t, result.Stdout, "PLAY [upgrade]")
	assert.Contains(t, result.Stderr, "diagnostic")
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(0))
}

func TestRun_NonZeroExitIsResultNotError(t *testing.T) {
	script := writeScript(t, `echo "precheck violation" >&2; exit 2`)
	runner := testRunner(t, script, time.Minute)

	result, err := runner.Run(context.Background(), JobUpgrade, "R1", nil, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ExitCode)
	assert.False(t, result.Succeeded())
	assert.Contains(t, result.Stderr, "precheck violation")
}

func TestRun_TimeoutKillsJob(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	runner := testRunner(t, script, 100*time.Millisecond)

	start := time.Now()
	result, err := runner.Run(context.Background(), JobUpgrade, "R1", nil, false)
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	assert.False(t, result.Succeeded())
	// The job must be terminated promptly, not waited out.
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_MissingBinary(t *testing.T) {
	runner := testRunner(t, "/nonexistent/ansible-playbook", time.Minute)

	_, err := runner.Run(context.Background(), JobUpgrade, "R1", nil, false)
	assert.ErrorIs(t, err, ErrJobStart)
}
