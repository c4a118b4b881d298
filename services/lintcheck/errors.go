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
	"errors"
	"fmt"
)

// Sentinel errors for the lintcheck package.
var (
	// ErrUnknownMode is returned for a mode token that is not one of
	// "all", "passes", "integration" or "ci".
	ErrUnknownMode = errors.New("invalid mode option")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid runner configuration")

	// ErrCheckerUnavailable is returned when the checker executable
	// cannot be launched at all (not found in PATH).
	ErrCheckerUnavailable = errors.New("checker executable not found")

	// ErrCheckerFailed is returned when the checker exits non-zero.
	// The wrapped message carries the exit code and captured stderr.
	ErrCheckerFailed = errors.New("checker exited with non-zero status")

	// ErrLogMissing is returned when the checker reports success but
	// the expected log artifact is not where it should be.
	ErrLogMissing = errors.New("log artifact not found")

	// ErrLintFindings is returned when a strict check's log contains
	// the lint-finding marker. This is a real regression, not a tool
	// malfunction.
	ErrLintFindings = errors.New("log contains lint findings")

	// ErrCrashDetected is returned when a log does not end with the
	// empty ICE summary, meaning the checker recorded crashes (or the
	// log was truncated).
	ErrCrashDetected = errors.New("log does not end with an empty ICE summary")
)

// =============================================================================
// ERROR CLASSES
// =============================================================================

// Class groups failures by how callers should treat them: bad input,
// subprocess trouble, filesystem trouble, or a genuine regression.
type Class int

const (
	// ClassUnknown is the zero value for unclassified errors.
	ClassUnknown Class = iota

	// ClassConfig covers mode parse failures and invalid configuration,
	// including unparsable diff text during CI derivation. These occur
	// before any real work.
	ClassConfig

	// ClassSubprocess covers launch failures and non-zero exits of the
	// checker or git.
	ClassSubprocess

	// ClassFilesystem covers missing log artifacts and copy or read
	// failures.
	ClassFilesystem

	// ClassAssertion covers violated log assertions: lint findings in a
	// strict check, or a missing crash-free terminator.
	ClassAssertion
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassSubprocess:
		return "subprocess"
	case ClassFilesystem:
		return "filesystem"
	case ClassAssertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHECK ERROR
// =============================================================================

// CheckError is the structured failure of a single check.
//
// It names the check that failed, carries the taxonomy class, and wraps
// the underlying cause so errors.Is still matches the sentinels above.
type CheckError struct {
	// Check is the check label ("passes", "ci_integration", ...).
	// Empty for failures not tied to a specific check.
	Check string

	// Class is the taxonomy class of the failure.
	Class Class

	// Err is the underlying error.
	Err error
}

// NewCheckError builds a CheckError for the named check.
func NewCheckError(check string, class Class, err error) *CheckError {
	return &CheckError{Check: check, Class: class, Err: err}
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	if e.Check == "" {
		return fmt.Sprintf("%s error: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("check %s: %s error: %v", e.Check, e.Class, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// ClassOf recovers the taxonomy class from any error in a wrap chain.
//
// A *CheckError in the chain wins; otherwise the class is derived from
// the package sentinels. Errors that match neither report ClassUnknown.
func ClassOf(err error) Class {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Class
	}
	switch {
	case errors.Is(err, ErrUnknownMode), errors.Is(err, ErrInvalidConfig):
		return ClassConfig
	case errors.Is(err, ErrCheckerUnavailable), errors.Is(err, ErrCheckerFailed):
		return ClassSubprocess
	case errors.Is(err, ErrLogMissing):
		return ClassFilesystem
	case errors.Is(err, ErrLintFindings), errors.Is(err, ErrCrashDetected):
		return ClassAssertion
	default:
		return ClassUnknown
	}
}
