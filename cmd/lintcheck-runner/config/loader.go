// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable that points at the
	// configuration file when no --config flag is given.
	EnvConfigPath = "LINTCHECK_RUNNER_CONFIG"

	// DefaultFileName is the configuration file looked up in the
	// working directory when nothing else is specified.
	DefaultFileName = "lintcheck.yaml"
)

// Load reads, validates and path-resolves the runner settings.
//
// Resolution order:
//
//  1. The explicit path argument. A missing file is an error here,
//     since the caller asked for it by name.
//  2. The LINTCHECK_RUNNER_CONFIG environment variable, same rule.
//  3. lintcheck.yaml in the working directory, if present.
//  4. Built-in defaults resolved against the working directory.
//
// Relative paths inside the file are resolved against the file's own
// directory so the configuration can live in the repository it
// describes.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path = env
			explicit = true
		}
	}
	if !explicit {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	if path == "" {
		return defaults()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	settings.ResolvePaths(baseDir)
	return &settings, nil
}

// defaults returns the built-in settings resolved against the working
// directory.
func defaults() (*Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	settings := DefaultSettings()
	settings.ResolvePaths(cwd)
	return &settings, nil
}
