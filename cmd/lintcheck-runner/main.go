// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lintcheck-runner drives Clippy's lintcheck crate checks as a
// CI gate.
//
// The runner shells out to cargo dev-lintcheck inside a rust-clippy
// checkout, pointing the checker at a configuration file through the
// LINTCHECK_TOML environment variable. The produced log is copied into
// a stable artifact directory and then asserted on: the passes check
// requires a log with no lint findings, the integration check only
// requires that the checker finished without an internal compiler
// error.
//
// Usage:
//
//	lintcheck-runner --mode all
//	lintcheck-runner --mode passes
//	lintcheck-runner --mode integration
//	lintcheck-runner --mode ci
//
// CI mode derives its crate lists from the git diff against the
// reference branch, so only newly added crates are checked:
//
//	lintcheck-runner --mode ci --base-branch origin/master
//
// Machine-readable output for CI pipelines:
//
//	lintcheck-runner --mode ci --json
//	lintcheck-runner --mode all --quiet; echo $?
//
// Configuration is read from lintcheck.yaml in the working directory,
// from the file named by LINTCHECK_RUNNER_CONFIG, or from --config:
//
//	lintcheck-runner --mode all --config ci/lintcheck.yaml
package main

import "os"

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error and usage.
		os.Exit(CLIExitError)
	}
}
