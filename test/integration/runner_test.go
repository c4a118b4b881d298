// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// End-to-end tests for the lintcheck runner against real subprocesses.
//
// A shell script standing in for cargo is placed first on PATH. It
// honors the dev-lintcheck calling convention: reads LINTCHECK_TOML,
// writes lintcheck-logs/<config-stem>_logs.txt into its working
// directory, and keeps a copy of the configuration it was given so the
// tests can inspect what the runner derived. The CI test additionally
// builds a real git repository with a feature branch.
package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/clippy-ci/lintcheck-runner/services/lintcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCargoClean emits a log with no lint findings.
const fakeCargoClean = `#!/bin/sh
set -e
if [ "$1" != "dev-lintcheck" ]; then
	echo "unexpected arguments: $*" >&2
	exit 64
fi
if [ -z "$LINTCHECK_TOML" ]; then
	echo "LINTCHECK_TOML not set" >&2
	exit 64
fi
stem=$(basename "$LINTCHECK_TOML" .toml)
mkdir -p lintcheck-logs
cp "$LINTCHECK_TOML" "lintcheck-logs/${stem}.seen"
{
	echo "checking crates for $stem"
	echo "ICEs:"
} > "lintcheck-logs/${stem}_logs.txt"
echo "checked $stem"
`

// fakeCargoFindings emits a log carrying a lint finding.
const fakeCargoFindings = `#!/bin/sh
set -e
stem=$(basename "$LINTCHECK_TOML" .toml)
mkdir -p lintcheck-logs
{
	echo "clippy::needless_borrow in src/lib.rs"
	echo "ICEs:"
} > "lintcheck-logs/${stem}_logs.txt"
`

func requireUnixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// installFakeCargo writes the script into a fresh directory and puts
// that directory first on PATH.
func installFakeCargo(t *testing.T, script string) {
	t.Helper()
	bin := t.TempDir()
	err := os.WriteFile(filepath.Join(bin, "cargo"), []byte(script), 0755)
	require.NoError(t, err)
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// setupWorkspace builds the directory layout the runner expects and
// returns its configuration.
func setupWorkspace(t *testing.T) lintcheck.Config {
	t.Helper()
	root := t.TempDir()

	cfg := lintcheck.Config{
		ClippyDir:  filepath.Join(root, "rust-clippy"),
		ConfigDir:  filepath.Join(root, "config"),
		LogsDir:    filepath.Join(root, "logs"),
		WorkDir:    root,
		BaseBranch: "main",
	}
	require.NoError(t, os.MkdirAll(cfg.ClippyDir, 0755))
	require.NoError(t, os.MkdirAll(cfg.ConfigDir, 0755))
	require.NoError(t, os.MkdirAll(cfg.LogsDir, 0755))

	writeCrates(t, cfg.ConfigDir, "passes.toml", "[crates]\ncrateA\n")
	writeCrates(t, cfg.ConfigDir, "integration.toml", "[crates]\ncrateX\n")
	return cfg
}

func writeCrates(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// TestAllMode_RealSubprocess drives both static checks through the
// real ExecCommandRunner and the fake checker.
func TestAllMode_RealSubprocess(t *testing.T) {
	requireUnixShell(t)
	installFakeCargo(t, fakeCargoClean)
	cfg := setupWorkspace(t)

	runner, err := lintcheck.NewRunner(cfg, lintcheck.WithQuiet(true))
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), lintcheck.ModeAll)
	require.NoError(t, err)
	require.Len(t, report.Checks, 2)

	// Integration runs first, then passes.
	assert.Equal(t, "integration", report.Checks[0].Name)
	assert.Equal(t, "passes", report.Checks[1].Name)
	for _, c := range report.Checks {
		assert.Equal(t, lintcheck.StatusPassed, c.Status, c.Name)
	}

	for _, name := range []string{"integration_logs.txt", "passes_logs.txt"} {
		content, err := os.ReadFile(filepath.Join(cfg.LogsDir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasSuffix(string(content), "ICEs:\n"), name)
	}

	// The checker saw the static configuration files themselves.
	seen, err := os.ReadFile(filepath.Join(cfg.ClippyDir, "lintcheck-logs", "passes.seen"))
	require.NoError(t, err)
	assert.Equal(t, "[crates]\ncrateA\n", string(seen))
}

// TestStrictness_RealSubprocess verifies the same findings log fails
// the passes check but not the integration check.
func TestStrictness_RealSubprocess(t *testing.T) {
	requireUnixShell(t)
	installFakeCargo(t, fakeCargoFindings)
	cfg := setupWorkspace(t)

	runner, err := lintcheck.NewRunner(cfg, lintcheck.WithQuiet(true))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), lintcheck.ModePasses)
	require.Error(t, err)
	assert.ErrorIs(t, err, lintcheck.ErrLintFindings)
	assert.Equal(t, lintcheck.ClassAssertion, lintcheck.ClassOf(err))

	report, err := runner.Run(context.Background(), lintcheck.ModeIntegration)
	require.NoError(t, err)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, lintcheck.StatusPassed, report.Checks[0].Status)
}

// TestCIMode_RealGit derives crate lists from a real git feature
// branch and runs both derived checks.
func TestCIMode_RealGit(t *testing.T) {
	requireUnixShell(t)
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	installFakeCargo(t, fakeCargoClean)
	cfg := setupWorkspace(t)

	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = cfg.WorkDir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	git("init", "-q")
	git("config", "user.email", "ci@example.com")
	git("config", "user.name", "ci")
	git("checkout", "-q", "-b", "main")
	git("add", "config")
	git("commit", "-q", "-m", "base crate lists")

	// Feature branch adds one crate to each list.
	git("checkout", "-q", "-b", "feature")
	writeCrates(t, cfg.ConfigDir, "passes.toml", "[crates]\ncrateA\ncrateB\n")
	writeCrates(t, cfg.ConfigDir, "integration.toml", "[crates]\ncrateX\ncrateY\n")
	git("commit", "-q", "-am", "add crates under test")

	// Scope temp files to this test so the leftover check below is
	// deterministic.
	t.Setenv("TMPDIR", t.TempDir())

	runner, err := lintcheck.NewRunner(cfg, lintcheck.WithQuiet(true))
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), lintcheck.ModeCI)
	require.NoError(t, err)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "ci_passes", report.Checks[0].Name)
	assert.Equal(t, "ci_integration", report.Checks[1].Name)

	for _, name := range []string{"ci_passes_logs.txt", "ci_integration_logs.txt"} {
		content, err := os.ReadFile(filepath.Join(cfg.LogsDir, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasSuffix(string(content), "ICEs:\n"), name)
	}

	// The derived configurations hold exactly the added crates.
	assert.Equal(t, "[crates]\ncrateB\n", seenConfig(t, cfg, "ci_passes"))
	assert.Equal(t, "[crates]\ncrateY\n", seenConfig(t, cfg, "ci_integration"))

	// The temporary derived configs are gone after the run.
	leftover, err := filepath.Glob(filepath.Join(os.TempDir(), "lintcheck-ci_*"))
	require.NoError(t, err)
	assert.Empty(t, leftover)
}

// seenConfig reads back the configuration content the fake checker
// received for a derived check.
func seenConfig(t *testing.T, cfg lintcheck.Config, check string) string {
	t.Helper()
	matches, err := filepath.Glob(
		filepath.Join(cfg.ClippyDir, "lintcheck-logs", "lintcheck-"+check+"-*.seen"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one config copy for %s", check)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(content)
}
