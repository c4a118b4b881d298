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
	"fmt"

	"github.com/spf13/cobra"
)

const appVersion = "1.0.0"

// --- Global Command Variables ---
var (
	runMode        string // CLI token for the check mode (all/passes/integration/ci)
	configPath     string
	jsonOutput     bool
	quietOutput    bool
	verboseOutput  bool
	noColor        bool
	clippyDirFlag  string
	configDirFlag  string
	logsDirFlag    string
	baseBranchFlag string
	timeoutFlag    string

	rootCmd = &cobra.Command{
		Use:   "lintcheck-runner",
		Short: "Run Clippy's lintcheck crate checks and gate on the results",
		Long: `Run cargo dev-lintcheck over curated crate sets and assert on the logs.

The runner invokes the checker inside a rust-clippy checkout, copies the
produced log into a stable artifact directory, and inspects it: the
passes check requires a log free of lint findings, the integration check
only requires that the checker survived without an internal compiler
error. In ci mode the crate lists come from the git diff against the
reference branch instead of the static configuration files.

Examples:
  lintcheck-runner --mode all
  lintcheck-runner --mode passes
  lintcheck-runner --mode ci --base-branch origin/master
  lintcheck-runner --mode ci --json --quiet

Exit Codes:
  0 = All checks passed
  1 = A check failed its log assertions (lint findings or a crash)
  2 = Error (bad configuration, checker failure, missing artifacts)`,
		Run: runLintcheck,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the runner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lintcheck-runner %s\n", appVersion)
		},
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.Flags().StringVar(&runMode, "mode", "",
		"Check mode: all, passes, integration, or ci")
	_ = rootCmd.MarkFlagRequired("mode")

	rootCmd.Flags().StringVar(&configPath, "config", "",
		"Path to the runner configuration file (default: ./lintcheck.yaml)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output as JSON")
	rootCmd.Flags().BoolVar(&quietOutput, "quiet", false,
		"Only exit code, no output")
	rootCmd.Flags().BoolVar(&verboseOutput, "verbose", false,
		"Enable debug logging")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")

	// Per-run overrides for the configuration file values.
	rootCmd.Flags().StringVar(&clippyDirFlag, "clippy-dir", "",
		"Override the rust-clippy checkout directory")
	rootCmd.Flags().StringVar(&configDirFlag, "config-dir", "",
		"Override the directory holding passes.toml and integration.toml")
	rootCmd.Flags().StringVar(&logsDirFlag, "logs-dir", "",
		"Override the log artifact directory")
	rootCmd.Flags().StringVar(&baseBranchFlag, "base-branch", "",
		"Override the reference branch ci mode diffs against")
	rootCmd.Flags().StringVar(&timeoutFlag, "timeout", "",
		"Per-invocation checker timeout, e.g. '45m' (default: none)")

	rootCmd.AddCommand(versionCmd)
}
