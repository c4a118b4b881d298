// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the runner's YAML configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// settingsValidate is the validator instance for runner settings.
// Initialized in init() with custom validators.
var settingsValidate *validator.Validate

func init() {
	settingsValidate = validator.New()

	// Register custom validator for Go duration strings
	_ = settingsValidate.RegisterValidation("duration", validateDuration)
}

// validateDuration accepts the empty string or anything
// time.ParseDuration accepts.
func validateDuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.ParseDuration(s)
	return err == nil
}

// =============================================================================
// Settings
// =============================================================================

// Settings is the full runner configuration as read from YAML.
//
// Relative paths are resolved against the configuration file's
// directory (or the working directory when built from defaults), so a
// checked-in lintcheck.yaml works from any invocation directory.
type Settings struct {
	// Paths locates the checkout, configurations and artifacts.
	Paths PathsConfig `yaml:"paths"`

	// CI holds the diff-derivation parameters for CI mode.
	CI CIConfig `yaml:"ci"`

	// Checker bounds the external checker invocation.
	Checker CheckerConfig `yaml:"checker"`

	// Logging configures the runner's own log output.
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig locates everything the runner touches on disk.
type PathsConfig struct {
	// ClippyDir is the rust-clippy checkout the checker runs in.
	ClippyDir string `yaml:"clippy_dir" validate:"required"`

	// ConfigDir holds passes.toml and integration.toml.
	ConfigDir string `yaml:"config_dir" validate:"required"`

	// LogsDir receives the copied log artifacts.
	LogsDir string `yaml:"logs_dir" validate:"required"`

	// WorkDir is the repository root for CI diffs.
	WorkDir string `yaml:"work_dir" validate:"required"`
}

// CIConfig holds the CI-mode parameters.
type CIConfig struct {
	// BaseBranch is the reference branch CI diffs against. Whether a
	// remote-tracking ref like "origin/main" exists depends on how CI
	// fetched the repository; the runner verifies it before diffing.
	BaseBranch string `yaml:"base_branch" validate:"required"`
}

// CheckerConfig bounds the checker subprocess.
type CheckerConfig struct {
	// Timeout bounds one checker invocation, as a Go duration string
	// like "45m". Empty means no deadline; full lintcheck runs build
	// hundreds of crates and routinely take the better part of an hour.
	Timeout string `yaml:"timeout" validate:"omitempty,duration"`
}

// TimeoutDuration returns the parsed timeout, or zero when unset.
// Validate guarantees the string parses.
func (c CheckerConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LoggingConfig configures the runner's structured logging.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir enables JSON file logging when set.
	Dir string `yaml:"dir"`

	// JSON switches stderr logging to JSON.
	JSON bool `yaml:"json"`
}

// DefaultSettings returns the conventional repository layout: the
// rust-clippy checkout, configuration directory and logs directory as
// siblings under the working directory.
func DefaultSettings() Settings {
	return Settings{
		Paths: PathsConfig{
			ClippyDir: "rust-clippy",
			ConfigDir: "config",
			LogsDir:   "logs",
			WorkDir:   ".",
		},
		CI: CIConfig{
			BaseBranch: "origin/main",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate validates the settings against their tags.
func (s *Settings) Validate() error {
	return settingsValidate.Struct(s)
}

// ResolvePaths makes every path absolute: a leading ~ expands to the
// home directory, other relative entries resolve against baseDir.
func (s *Settings) ResolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		if p[0] == '~' {
			if home, err := os.UserHomeDir(); err == nil {
				return filepath.Join(home, p[1:])
			}
			return p
		}
		return filepath.Join(baseDir, p)
	}
	s.Paths.ClippyDir = resolve(s.Paths.ClippyDir)
	s.Paths.ConfigDir = resolve(s.Paths.ConfigDir)
	s.Paths.LogsDir = resolve(s.Paths.LogsDir)
	s.Paths.WorkDir = resolve(s.Paths.WorkDir)
	if s.Logging.Dir != "" {
		s.Logging.Dir = resolve(s.Logging.Dir)
	}
}
