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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clippy-ci/lintcheck-runner/services/lintcheck/cratesfile"
	"github.com/clippy-ci/lintcheck-runner/services/lintcheck/gitdiff"
)

// Checker invocation constants. The checker is the lintcheck cargo
// subcommand inside the rust-clippy checkout; it reads its crate list
// from the file named by the LINTCHECK_TOML environment variable and
// writes its log keyed by that file's stem.
const (
	checkerName        = "cargo"
	checkerArg         = "dev-lintcheck"
	configEnvVar       = "LINTCHECK_TOML"
	checkerLogsDirName = "lintcheck-logs"
	logFileSuffix      = "_logs.txt"
)

// DiffSource supplies the reference-branch diff CI derivation needs.
// *gitdiff.Client satisfies it.
type DiffSource interface {
	Diff(ctx context.Context, base, pathspec string) (string, error)
	HasRef(ctx context.Context, ref string) bool
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner orchestrates checker invocations for one configured layout.
//
// # Description
//
// A Runner executes the four check modes: passes (strict, zero
// findings), integration (crash-only), ci (diff-derived variants of
// both) and all (integration then passes). Each check shells out to the
// checker, copies the produced log artifact into the logs directory and
// validates it.
//
// # Thread Safety
//
// A Runner is safe for concurrent use, but checks within one Run are
// strictly sequential by design: the log directory has exactly one
// writer and All mode's ordering is part of the contract.
type Runner struct {
	cfg    Config
	cmds   CommandRunner
	diffs  DiffSource
	logger *slog.Logger
	out    io.Writer
	quiet  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithCommandRunner replaces the subprocess capability, typically with
// MockCommandRunner in tests.
func WithCommandRunner(cr CommandRunner) Option {
	return func(r *Runner) { r.cmds = cr }
}

// WithDiffSource replaces the git diff source used by CI mode.
func WithDiffSource(ds DiffSource) Option {
	return func(r *Runner) { r.diffs = ds }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithOutput sets the writer that receives the checker stdout echo.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithQuiet suppresses the checker stdout echo.
func WithQuiet(quiet bool) Option {
	return func(r *Runner) { r.quiet = quiet }
}

// NewRunner creates a Runner for the given configuration.
//
// # Inputs
//
//   - cfg: Validated path set and run parameters. All directories must
//     be absolute.
//   - opts: Optional overrides; without them the Runner executes real
//     subprocesses and diffs via git in cfg.WorkDir.
//
// # Outputs
//
//   - *Runner: Ready-to-use runner.
//   - error: Non-nil if the configuration is invalid.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:    cfg,
		cmds:   NewExecCommandRunner(),
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.diffs == nil {
		gc, err := gitdiff.NewClient(cfg.WorkDir, 0)
		if err != nil {
			return nil, err
		}
		r.diffs = gc
	}

	return r, nil
}

// Run executes all checks the mode selects and reports the outcome.
//
// # Description
//
// Dispatches to exactly one of the four modes. Checks run strictly
// sequentially and the first failure aborts the run. The returned
// report is non-nil even on failure: completed checks are recorded, and
// a check that failed an assertion appears with StatusFailed.
//
// # Inputs
//
//	ctx - Context for cancellation. The default configuration sets no
//	      deadline; CheckerTimeout bounds individual invocations.
//	mode - The parsed run mode.
//
// # Outputs
//
//	*RunReport - Always non-nil; see above.
//	error - Non-nil on the first failed check or infrastructure error.
func (r *Runner) Run(ctx context.Context, mode Mode) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Mode:      mode.String(),
		StartedAt: time.Now(),
	}

	ctx, span := startRunSpan(ctx, report.RunID, mode)
	defer span.End()

	r.logger.Info("starting lintcheck run",
		"run_id", report.RunID,
		"mode", report.Mode,
		"clippy_dir", r.cfg.ClippyDir)

	var err error
	switch mode {
	case ModeAll:
		// Integration before passes, always.
		if err = r.runIntegration(ctx, report); err == nil {
			err = r.runPasses(ctx, report)
		}
	case ModePasses:
		err = r.runPasses(ctx, report)
	case ModeIntegration:
		err = r.runIntegration(ctx, report)
	case ModeCI:
		err = r.runCI(ctx, report)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	if err != nil {
		span.RecordError(err)
		r.logger.Error("lintcheck run failed",
			"run_id", report.RunID,
			"class", ClassOf(err).String(),
			"error", err)
		return report, err
	}

	r.logger.Info("lintcheck run complete",
		"run_id", report.RunID,
		"checks", len(report.Checks),
		"duration_ms", report.DurationMs)
	return report, nil
}

// =============================================================================
// CHECKS
// =============================================================================

// checkSpec describes one check to execute.
type checkSpec struct {
	// name labels the check and, via override, the log artifact.
	name string

	// config is the configuration file path, static or derived.
	config string

	// override renames the copied log artifact; empty keeps the
	// configuration file stem.
	override string

	// strict additionally rejects lint findings.
	strict bool
}

func (r *Runner) runPasses(ctx context.Context, report *RunReport) error {
	return r.runCheck(ctx, report, checkSpec{
		name:   "passes",
		config: r.cfg.passesConfig(),
		strict: true,
	})
}

func (r *Runner) runIntegration(ctx context.Context, report *RunReport) error {
	return r.runCheck(ctx, report, checkSpec{
		name:   "integration",
		config: r.cfg.integrationConfig(),
		strict: false,
	})
}

// runCI derives minimal configurations from the reference-branch diff
// and runs both checks against them, ci_passes first. Both renamed
// artifacts are produced even when a derived configuration is empty.
func (r *Runner) runCI(ctx context.Context, report *RunReport) error {
	if !r.diffs.HasRef(ctx, r.cfg.BaseBranch) {
		return NewCheckError("", ClassConfig, fmt.Errorf(
			"%w: reference branch %q not found in %s",
			ErrInvalidConfig, r.cfg.BaseBranch, r.cfg.WorkDir))
	}

	for _, c := range []struct {
		source string
		name   string
		strict bool
	}{
		{"passes", "ci_passes", true},
		{"integration", "ci_integration", false},
	} {
		if err := r.runDerivedCheck(ctx, report, c.source, c.name, c.strict); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runDerivedCheck(ctx context.Context, report *RunReport, source, name string, strict bool) error {
	cfgPath, cleanup, err := r.deriveConfig(ctx, source, name)
	if err != nil {
		return err
	}
	defer cleanup()

	return r.runCheck(ctx, report, checkSpec{
		name:     name,
		config:   cfgPath,
		override: name,
		strict:   strict,
	})
}

// deriveConfig builds the temporary configuration holding only the
// crate entries added relative to the reference branch.
func (r *Runner) deriveConfig(ctx context.Context, source, check string) (string, func(), error) {
	pathspec, err := filepath.Rel(r.cfg.WorkDir, filepath.Join(r.cfg.ConfigDir, source+".toml"))
	if err != nil {
		return "", nil, NewCheckError(check, ClassConfig,
			fmt.Errorf("resolve diff pathspec: %w", err))
	}

	patch, err := r.diffs.Diff(ctx, r.cfg.BaseBranch, pathspec)
	if err != nil {
		return "", nil, NewCheckError(check, ClassSubprocess, err)
	}

	entries, err := cratesfile.AddedEntries(patch)
	if err != nil {
		return "", nil, NewCheckError(check, ClassConfig, err)
	}
	r.logger.Info("derived CI configuration",
		"check", check,
		"base", r.cfg.BaseBranch,
		"entries", len(entries))

	path, cleanup, err := cratesfile.CreateTemp("", check, entries)
	if err != nil {
		return "", nil, NewCheckError(check, ClassFilesystem, err)
	}
	return path, cleanup, nil
}

// runCheck invokes the checker for one spec and validates the copied
// log. Completed checks are appended to the report; an assertion
// failure is recorded with StatusFailed before the error is returned.
func (r *Runner) runCheck(ctx context.Context, report *RunReport, spec checkSpec) error {
	ctx, span := startCheckSpan(ctx, spec.name, spec.config)
	defer span.End()
	start := time.Now()

	logPath, out, err := r.invokeChecker(ctx, spec.name, spec.config, spec.override)
	if err != nil {
		recordInvocation(ctx, spec.name, false)
		span.RecordError(err)
		return err
	}
	recordInvocation(ctx, spec.name, true)

	res := CheckResult{
		Name:        spec.name,
		ConfigPath:  spec.config,
		LogPath:     logPath,
		Status:      StatusPassed,
		StdoutBytes: len(out.Stdout),
		StderrBytes: len(out.Stderr),
	}

	verr := validateLogFile(spec.name, logPath, spec.strict)
	dur := time.Since(start)
	res.DurationMs = dur.Milliseconds()

	switch {
	case verr == nil:
		report.Checks = append(report.Checks, res)
		setCheckSpanResult(span, StatusPassed, logPath)
		recordCheckMetrics(ctx, spec.name, dur, StatusPassed)
		r.logger.Info("check passed", "check", spec.name, "log", logPath)
		return nil

	case ClassOf(verr) == ClassAssertion:
		res.Status = StatusFailed
		report.Checks = append(report.Checks, res)
		setCheckSpanResult(span, StatusFailed, logPath)
		recordCheckMetrics(ctx, spec.name, dur, StatusFailed)
		kind := "crash"
		if errors.Is(verr, ErrLintFindings) {
			kind = "findings"
		}
		recordRegression(ctx, spec.name, kind)
		span.RecordError(verr)
		r.logger.Error("check failed", "check", spec.name, "kind", kind, "log", logPath)
		return verr

	default:
		span.RecordError(verr)
		return verr
	}
}

// =============================================================================
// CHECKER INVOCATION
// =============================================================================

// invokeChecker runs the checker against one configuration file and
// copies the produced log artifact into the logs directory.
//
// The environment of the subprocess is the inherited one plus exactly
// LINTCHECK_TOML pointing at the absolute configuration path. On
// success the captured stdout is echoed for diagnostic visibility and
// the returned path names the copied artifact.
func (r *Runner) invokeChecker(ctx context.Context, check, configPath, override string) (string, *CommandOutput, error) {
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return "", nil, NewCheckError(check, ClassConfig,
			fmt.Errorf("resolve config path %s: %w", configPath, err))
	}

	if r.cfg.CheckerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.CheckerTimeout)
		defer cancel()
	}

	r.logger.Debug("invoking checker",
		"check", check,
		"config", absConfig,
		"dir", r.cfg.ClippyDir)

	out, err := r.cmds.Run(ctx, Command{
		Name: checkerName,
		Args: []string{checkerArg},
		Dir:  r.cfg.ClippyDir,
		Env:  []string{configEnvVar + "=" + absConfig},
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", nil, NewCheckError(check, ClassSubprocess,
				fmt.Errorf("%w: %v", ErrCheckerUnavailable, err))
		}
		return "", nil, NewCheckError(check, ClassSubprocess,
			fmt.Errorf("launch checker: %w", err))
	}
	if out.ExitCode != 0 {
		return "", nil, NewCheckError(check, ClassSubprocess, fmt.Errorf(
			"%w: %s %s exited with %d\nstderr:\n%s",
			ErrCheckerFailed, checkerName, checkerArg, out.ExitCode, out.Stderr))
	}

	if !r.quiet {
		fmt.Fprintf(r.out, "lintcheck stdout: %s\n", out.Stdout)
	}

	stem := configStem(absConfig)
	name := stem
	if override != "" {
		name = override
	}
	src := filepath.Join(r.cfg.ClippyDir, checkerLogsDirName, stem+logFileSuffix)
	dst := filepath.Join(r.cfg.LogsDir, name+logFileSuffix)
	if err := copyLog(src, dst); err != nil {
		return "", nil, NewCheckError(check, ClassFilesystem, err)
	}
	r.logger.Debug("log artifact copied", "src", src, "dst", dst)

	return dst, out, nil
}

// copyLog copies the checker-produced log to its destination, creating
// the logs directory on first use.
func copyLog(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrLogMissing, src)
		}
		return fmt.Errorf("read log %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("copy log to %s: %w", dst, err)
	}
	return nil
}

// configStem returns the configuration file name without extension,
// the key the checker uses for its log output.
func configStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
