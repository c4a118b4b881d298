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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// -----------------------------------------------------------------------------
// Capability Interface
// -----------------------------------------------------------------------------

// Command describes one external process invocation.
type Command struct {
	// Name is the executable name or path.
	Name string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory for the process. Empty means the
	// caller's working directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment.
	Env []string
}

// CommandOutput carries the captured result of a completed process.
type CommandOutput struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the process exit status. Zero on success.
	ExitCode int
}

// CommandRunner abstracts external process execution.
//
// Direct exec.Command calls are not testable because they launch real
// processes. All subprocess work in this package goes through this
// interface so orchestration logic can be exercised with a double that
// simulates success, failure and log content.
//
// # Contract
//
// A process that starts and exits, with any status, yields a non-nil
// CommandOutput and a nil error; a non-zero status is data, not an
// error. A non-nil error means the process could not run to completion:
// the executable was not found, the context deadline expired, or the
// context was canceled.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*CommandOutput, error)
}

// -----------------------------------------------------------------------------
// Exec Implementation
// -----------------------------------------------------------------------------

// ExecCommandRunner implements CommandRunner using os/exec.
//
// This is the production implementation. Use MockCommandRunner in tests.
type ExecCommandRunner struct{}

// NewExecCommandRunner creates a ready-to-use ExecCommandRunner.
func NewExecCommandRunner() *ExecCommandRunner {
	return &ExecCommandRunner{}
}

// Run executes the command and captures its output.
func (r *ExecCommandRunner) Run(ctx context.Context, c Command) (*CommandOutput, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("command %s timed out: %w", c.Name, err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command %s canceled: %w", c.Name, err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandOutput{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
			}, nil
		}
		// Launch failure: executable missing, permission denied, bad dir.
		return nil, err
	}

	return &CommandOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}, nil
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockCommandRunner is a test double for CommandRunner.
//
// Configure the mock by setting RunFunc before use. Every invocation is
// recorded in Calls for order and argument verification.
//
// # Examples
//
//	mock := &MockCommandRunner{
//	    RunFunc: func(ctx context.Context, c Command) (*CommandOutput, error) {
//	        return &CommandOutput{Stdout: "ok", ExitCode: 0}, nil
//	    },
//	}
type MockCommandRunner struct {
	// RunFunc is called when Run is invoked. Panics if nil.
	RunFunc func(ctx context.Context, cmd Command) (*CommandOutput, error)

	// Calls records all invocations in order.
	Calls []Command

	// mu protects Calls for concurrent access.
	mu sync.Mutex
}

// Run delegates to RunFunc and records the call.
func (m *MockCommandRunner) Run(ctx context.Context, c Command) (*CommandOutput, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, c)
	m.mu.Unlock()
	if m.RunFunc == nil {
		panic("MockCommandRunner.RunFunc not set")
	}
	return m.RunFunc(ctx, c)
}

// Reset clears all recorded calls.
func (m *MockCommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// GetCalls returns a copy of all recorded calls.
func (m *MockCommandRunner) GetCalls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// Compile-time interface compliance checks.
var (
	_ CommandRunner = (*ExecCommandRunner)(nil)
	_ CommandRunner = (*MockCommandRunner)(nil)
)
