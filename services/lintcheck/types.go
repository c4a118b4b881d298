// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lintcheck

import (
	"fmt"
	"path/filepath"
	"time"
)

// =============================================================================
// MODE
// =============================================================================

// Mode selects which configuration set a run processes.
type Mode int

const (
	// ModeAll runs the integration check followed by the passes check.
	ModeAll Mode = iota

	// ModePasses runs only the passes check (strict: zero findings).
	ModePasses

	// ModeIntegration runs only the integration check (crash-only).
	ModeIntegration

	// ModeCI runs diff-derived variants of both checks against the
	// reference branch.
	ModeCI
)

// String returns the CLI token for the mode.
func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModePasses:
		return "passes"
	case ModeIntegration:
		return "integration"
	case ModeCI:
		return "ci"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode token.
//
// Description:
//
//	Accepts exactly the lowercase literals "all", "passes", "integration"
//	and "ci". There is no case folding and no prefix matching; anything
//	else fails with ErrUnknownMode quoting the offending token.
//
// Inputs:
//
//	token - The raw mode string from the command line.
//
// Outputs:
//
//	Mode - The parsed mode.
//	error - Non-nil if the token is not one of the four literals.
func ParseMode(token string) (Mode, error) {
	switch token {
	case "all":
		return ModeAll, nil
	case "passes":
		return ModePasses, nil
	case "integration":
		return ModeIntegration, nil
	case "ci":
		return ModeCI, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, token)
	}
}

// =============================================================================
// CHECK STATUS
// =============================================================================

// CheckStatus is the outcome recorded for a single check.
type CheckStatus int

const (
	// StatusPassed means the check ran and all assertions held.
	StatusPassed CheckStatus = iota

	// StatusFailed means the check ran but an assertion was violated.
	StatusFailed
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

// =============================================================================
// RESULTS
// =============================================================================

// CheckResult records the outcome of one checker invocation plus its
// log validation.
type CheckResult struct {
	// Name is the check label: "passes", "integration", "ci_passes" or
	// "ci_integration". It is also the log artifact key.
	Name string `json:"name"`

	// ConfigPath is the configuration file the checker ran against.
	// For CI checks this is the derived temporary file.
	ConfigPath string `json:"config_path"`

	// LogPath is the copied log artifact under the logs directory.
	LogPath string `json:"log_path"`

	// Status reports whether the check's assertions held.
	Status CheckStatus `json:"status"`

	// DurationMs is the wall-clock time of invocation plus validation.
	DurationMs int64 `json:"duration_ms"`

	// StdoutBytes and StderrBytes are the sizes of the captured checker
	// streams, kept for diagnostics without retaining the full text.
	StdoutBytes int `json:"stdout_bytes"`
	StderrBytes int `json:"stderr_bytes"`
}

// RunReport summarizes one full run.
//
// Checks appear in execution order. A run that aborts on a failed
// assertion still records the failing check with StatusFailed; a run
// that aborts before a check completes (subprocess or filesystem error)
// records only the checks that finished.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Mode is the CLI token the run was invoked with.
	Mode string `json:"mode"`

	// StartedAt is the run start time.
	StartedAt time.Time `json:"started_at"`

	// DurationMs is the total wall-clock time of the run.
	DurationMs int64 `json:"duration_ms"`

	// Checks lists per-check outcomes in execution order.
	Checks []CheckResult `json:"checks"`
}

// Failed reports whether any recorded check failed.
func (r *RunReport) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds the explicit path set and run parameters for a Runner.
//
// All directory fields must be absolute; the Runner never consults the
// process working directory.
//
// Thread Safety: Treat as immutable after creation.
type Config struct {
	// ClippyDir is the rust-clippy checkout the checker runs in. The
	// checker writes its logs to <ClippyDir>/lintcheck-logs/.
	ClippyDir string

	// ConfigDir holds the static configuration files passes.toml and
	// integration.toml.
	ConfigDir string

	// LogsDir is where log artifacts are copied to, one
	// <name>_logs.txt per check. Created if absent.
	LogsDir string

	// WorkDir is the repository root; CI diffs run here and diff
	// pathspecs are resolved relative to it.
	WorkDir string

	// BaseBranch is the reference branch CI diffs against,
	// e.g. "origin/main".
	BaseBranch string

	// CheckerTimeout bounds a single checker invocation. Zero means no
	// deadline: the invocation blocks until the subprocess exits.
	CheckerTimeout time.Duration
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	for _, d := range []struct {
		name string
		path string
	}{
		{"clippy dir", c.ClippyDir},
		{"config dir", c.ConfigDir},
		{"logs dir", c.LogsDir},
		{"work dir", c.WorkDir},
	} {
		if d.path == "" || !filepath.IsAbs(d.path) {
			return fmt.Errorf("%w: %s must be an absolute path, got %q",
				ErrInvalidConfig, d.name, d.path)
		}
	}
	if c.BaseBranch == "" {
		return fmt.Errorf("%w: base branch must not be empty", ErrInvalidConfig)
	}
	return nil
}

// passesConfig and integrationConfig return the static configuration
// file paths for the non-CI checks.
func (c *Config) passesConfig() string {
	return filepath.Join(c.ConfigDir, "passes.toml")
}

func (c *Config) integrationConfig() string {
	return filepath.Join(c.ConfigDir, "integration.toml")
}
