// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lintcheck orchestrates clippy lintcheck runs as a regression
// gate for CI.
//
// The package shells out to the lintcheck cargo subcommand inside a
// rust-clippy checkout, collects the log artifact each run produces,
// and asserts the log is clean. It provides:
//
//   - Four run modes covering full and diff-scoped checking
//   - Log artifact collection into a stable logs directory
//   - A four-class error taxonomy separating regressions from tool
//     malfunctions
//   - Subprocess execution behind an interface so orchestration is
//     testable without cargo installed
//
// # Architecture
//
// Every check follows the same pipeline:
//
//	Config → Invoke checker (LINTCHECK_TOML) → Copy log → Validate → Result
//
// The checker reads its crate list from the file named by the
// LINTCHECK_TOML environment variable and writes its log to
// lintcheck-logs/<config-stem>_logs.txt inside the rust-clippy
// checkout. The runner copies that artifact into the logs directory,
// renaming it for CI checks, then applies the mode's assertions.
//
// # Check Modes
//
//	| Mode        | Configs checked                  | Assertion          |
//	|-------------|----------------------------------|--------------------|
//	| passes      | passes.toml                      | no findings, no ICE|
//	| integration | integration.toml                 | no ICE             |
//	| ci          | diff-derived subsets of both     | as above, per check|
//	| all         | integration.toml then passes.toml| as above, per check|
//
// CI mode diffs each static configuration against the reference branch
// and rebuilds it from only the added crate entries, so a pull request
// pays for the crates it adds rather than the whole list. CI runs the
// derived passes check first, then the derived integration check, and
// names the artifacts ci_passes_logs.txt and ci_integration_logs.txt.
//
// # Log Assertions
//
// A healthy log ends with the lintcheck ICE summary header and nothing
// after it; anything else means the checker crashed on some crate or
// the log was truncated. Strict checks (the passes configurations)
// additionally reject any occurrence of the "clippy::" finding marker.
//
// # Usage
//
//	cfg := lintcheck.Config{
//	    ClippyDir:  "/srv/ci/rust-clippy",
//	    ConfigDir:  "/srv/ci/config",
//	    LogsDir:    "/srv/ci/logs",
//	    WorkDir:    "/srv/ci",
//	    BaseBranch: "origin/main",
//	}
//	runner, err := lintcheck.NewRunner(cfg)
//	if err != nil {
//	    // Invalid configuration
//	}
//	report, err := runner.Run(ctx, lintcheck.ModeCI)
//	if err != nil {
//	    switch lintcheck.ClassOf(err) {
//	    case lintcheck.ClassAssertion:
//	        // Real regression: findings or a crash
//	    default:
//	        // Tool malfunction: config, subprocess or filesystem
//	    }
//	}
//
// # Thread Safety
//
// A Runner is safe for concurrent use; checks within one Run execute
// sequentially.
package lintcheck
