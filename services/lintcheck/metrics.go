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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for lintcheck operations.
var (
	tracer = otel.Tracer("lintcheck.runner")
	meter  = otel.Meter("lintcheck.runner")
)

// Metrics for lintcheck operations.
var (
	checkLatency     metric.Float64Histogram
	checksTotal      metric.Int64Counter
	invocationsTotal metric.Int64Counter
	regressionsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		checkLatency, err = meter.Float64Histogram(
			"lintcheck_check_duration_seconds",
			metric.WithDescription("Duration of one check (invocation plus validation)"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checksTotal, err = meter.Int64Counter(
			"lintcheck_checks_total",
			metric.WithDescription("Total number of checks run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		invocationsTotal, err = meter.Int64Counter(
			"lintcheck_invocations_total",
			metric.WithDescription("Total number of checker subprocess invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		regressionsTotal, err = meter.Int64Counter(
			"lintcheck_regressions_total",
			metric.WithDescription("Total number of failed log assertions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRunSpan creates the root span for a full run.
func startRunSpan(ctx context.Context, runID string, mode Mode) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.Run",
		trace.WithAttributes(
			attribute.String("lintcheck.run_id", runID),
			attribute.String("lintcheck.mode", mode.String()),
		),
	)
}

// startCheckSpan creates a span for a single check.
func startCheckSpan(ctx context.Context, check, configPath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.check",
		trace.WithAttributes(
			attribute.String("lintcheck.check", check),
			attribute.String("lintcheck.config", configPath),
		),
	)
}

// setCheckSpanResult sets the result attributes on a check span.
func setCheckSpanResult(span trace.Span, status CheckStatus, logPath string) {
	span.SetAttributes(
		attribute.String("lintcheck.status", status.String()),
		attribute.String("lintcheck.log", logPath),
	)
}

// recordCheckMetrics records metrics for one completed check.
func recordCheckMetrics(ctx context.Context, check string, duration time.Duration, status CheckStatus) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("status", status.String()),
	)
	checkLatency.Record(ctx, duration.Seconds(), attrs)
	checksTotal.Add(ctx, 1, attrs)
}

// recordInvocation records one checker subprocess invocation.
func recordInvocation(ctx context.Context, check string, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	invocationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.Bool("success", success),
	))
}

// recordRegression records a failed log assertion.
func recordRegression(ctx context.Context, check, kind string) {
	if err := initMetrics(); err != nil {
		return
	}
	regressionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("kind", kind),
	))
}
