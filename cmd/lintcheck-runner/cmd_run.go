// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clippy-ci/lintcheck-runner/cmd/lintcheck-runner/config"
	"github.com/clippy-ci/lintcheck-runner/pkg/logging"
	"github.com/clippy-ci/lintcheck-runner/services/lintcheck"
	"github.com/clippy-ci/lintcheck-runner/services/lintcheck/telemetry"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runLintcheck(cmd *cobra.Command, args []string) {
	os.Exit(executeRun())
}

// executeRun carries one full run and returns the process exit code.
//
// It is separate from the cobra callback so the sequencing can be
// tested without terminating the test process. The mode token is
// checked before anything else so a typo cannot trigger config loading
// or filesystem work.
func executeRun() int {
	start := time.Now()

	mode, err := lintcheck.ParseMode(runMode)
	if err != nil {
		outputRunError(jsonOutput, "Invalid mode", err)
		return CLIExitError
	}

	settings, err := config.Load(configPath)
	if err != nil {
		outputRunError(jsonOutput, "Configuration error", err)
		return CLIExitError
	}
	if err := applyFlagOverrides(settings); err != nil {
		outputRunError(jsonOutput, "Invalid flag", err)
		return CLIExitError
	}

	logger := logging.New(logging.Config{
		Level:   logLevel(settings),
		LogDir:  settings.Logging.Dir,
		Service: "lintcheck-runner",
		JSON:    settings.Logging.JSON,
		Quiet:   quietOutput || jsonOutput,
	})
	defer logger.Close()

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		logger.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	// Cancel the run (and any in-flight checker subprocess) on
	// interrupt.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, cancelling run")
		cancel()
	}()

	opts := []lintcheck.Option{
		lintcheck.WithLogger(logger.Slog()),
		lintcheck.WithQuiet(quietOutput),
	}
	if jsonOutput {
		// Keep stdout clean for the JSON result; checker output still
		// reaches the operator on stderr.
		opts = append(opts, lintcheck.WithOutput(os.Stderr))
	}

	runner, err := lintcheck.NewRunner(lintcheck.Config{
		ClippyDir:      settings.Paths.ClippyDir,
		ConfigDir:      settings.Paths.ConfigDir,
		LogsDir:        settings.Paths.LogsDir,
		WorkDir:        settings.Paths.WorkDir,
		BaseBranch:     settings.CI.BaseBranch,
		CheckerTimeout: settings.Checker.TimeoutDuration(),
	}, opts...)
	if err != nil {
		outputRunError(jsonOutput, "Configuration error", err)
		return CLIExitError
	}

	report, runErr := runner.Run(runCtx, mode)

	if quietOutput {
		return exitCodeFor(runErr)
	}
	if jsonOutput {
		if err := outputRunJSON(os.Stdout, start, report, runErr); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return CLIExitError
		}
		return exitCodeFor(runErr)
	}

	renderRunText(os.Stdout, report, shouldColor(noColor))
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
	}
	return exitCodeFor(runErr)
}

// =============================================================================
// FLAG HANDLING
// =============================================================================

// applyFlagOverrides layers the per-run flags over the loaded settings.
//
// Directory flags are resolved against the process working directory,
// matching how an operator types them, while paths from the
// configuration file stay anchored to the file's own directory.
func applyFlagOverrides(s *config.Settings) error {
	dirs := []struct {
		flag   string
		target *string
	}{
		{clippyDirFlag, &s.Paths.ClippyDir},
		{configDirFlag, &s.Paths.ConfigDir},
		{logsDirFlag, &s.Paths.LogsDir},
	}
	for _, d := range dirs {
		if d.flag == "" {
			continue
		}
		abs, err := filepath.Abs(d.flag)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", d.flag, err)
		}
		*d.target = abs
	}

	if baseBranchFlag != "" {
		s.CI.BaseBranch = baseBranchFlag
	}
	if timeoutFlag != "" {
		if _, err := time.ParseDuration(timeoutFlag); err != nil {
			return fmt.Errorf("invalid --timeout value %q: %w", timeoutFlag, err)
		}
		s.Checker.Timeout = timeoutFlag
	}
	return nil
}

// logLevel picks the effective log level. --verbose wins over the
// configured level.
func logLevel(s *config.Settings) logging.Level {
	if verboseOutput {
		return logging.LevelDebug
	}
	switch s.Logging.Level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
