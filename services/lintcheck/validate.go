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
	"os"
	"strings"
)

const (
	// lintFindingMarker identifies a reported lint anywhere in log text.
	lintFindingMarker = "clippy::"

	// crashSummaryTail is the exact tail of a crash-free log: the ICE
	// summary header with no entries after it. A log that does not end
	// with this recorded at least one crash, or was truncated.
	crashSummaryTail = "ICEs:\n"
)

// validateLog applies the post-run assertions to log content.
//
// Every log must end with the empty ICE summary. A strict check (the
// passes configurations) additionally rejects any lint finding, since
// its baseline is expected to be clean.
func validateLog(check string, log []byte, strict bool) error {
	text := string(log)
	if strict && strings.Contains(text, lintFindingMarker) {
		return NewCheckError(check, ClassAssertion,
			fmt.Errorf("%w (marker %q)", ErrLintFindings, lintFindingMarker))
	}
	if !strings.HasSuffix(text, crashSummaryTail) {
		return NewCheckError(check, ClassAssertion, ErrCrashDetected)
	}
	return nil
}

// validateLogFile reads a copied log artifact and validates it.
func validateLogFile(check, path string, strict bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewCheckError(check, ClassFilesystem,
			fmt.Errorf("read log %s: %w", path, err))
	}
	return validateLog(check, data, strict)
}
