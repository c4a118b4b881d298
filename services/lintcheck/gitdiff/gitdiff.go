// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gitdiff provides the minimal git surface CI runs need: the
// diff of a configuration file against a reference branch, and a probe
// for whether that reference exists.
package gitdiff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a single git operation when the caller does not
// choose one.
const DefaultTimeout = 30 * time.Second

// Client executes git commands in a fixed repository.
//
// # Description
//
// Runs git with the repository root as working directory. Diffs compare
// the reference branch against the working tree, so uncommitted changes
// are visible, matching how changed crate lists are picked up in CI.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Client struct {
	repoPath string
	timeout  time.Duration
}

// NewClient creates a git client for the repository at repoPath.
//
// # Inputs
//
//   - repoPath: Absolute path to the repository root.
//   - timeout: Maximum duration for each git operation; zero or
//     negative selects DefaultTimeout.
//
// # Outputs
//
//   - *Client: Ready-to-use client.
//   - error: Non-nil if repoPath is not absolute.
func NewClient(repoPath string, timeout time.Duration) (*Client, error) {
	if !filepath.IsAbs(repoPath) {
		return nil, fmt.Errorf("repoPath must be absolute: %s", repoPath)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{repoPath: repoPath, timeout: timeout}, nil
}

// Diff returns the unified diff of pathspec between base and the
// working tree.
//
// # Inputs
//
//   - ctx: Context for timeout and cancellation.
//   - base: Reference to diff against, e.g. "origin/main".
//   - pathspec: Path restricting the diff, relative to the repository
//     root, e.g. "config/passes.toml".
//
// # Outputs
//
//   - string: Raw diff text. Empty when there are no changes.
//   - error: Non-nil if git cannot run or exits non-zero.
func (c *Client) Diff(ctx context.Context, base, pathspec string) (string, error) {
	return c.run(ctx, "diff", base, "--", pathspec)
}

// HasRef reports whether the repository knows the given reference.
//
// Uses `git rev-parse --verify --quiet`; any failure, including "not a
// git repository", reads as the reference being absent.
func (c *Client) HasRef(ctx context.Context, ref string) bool {
	_, err := c.run(ctx, "rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// run executes a git command and returns raw stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s: timeout after %v", args[0], c.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, stderr.String())
	}

	return stdout.String(), nil
}
