// ════════════════════════════════════════════════════════════════════════════════════════════════
// threadpace - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point & System Orchestration
//
// Description:
//   Starts one managed OS thread, names and pins it, and drives a synthetic
//   workload through the paced run loop until interrupted or the configured
//   duration elapses.
//
// Phases:
//   - Phase 0: Configuration and logging
//   - Phase 1: Managed thread start (name, affinity, pacing config)
//   - Phase 2: Run loop with periodic statistic reports
//   - Phase 3: Shutdown and optional Prometheus exposition dump
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"threadpace/config"
	"threadpace/control"
	"threadpace/debug"
	"threadpace/native"
	"threadpace/promstat"
	"threadpace/runloop"
	"threadpace/thread"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		debug.DropError("FATAL", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// PHASE 0: configuration and logging
	cfg, err := config.NewConfig(args)
	if err != nil {
		return err
	}
	debug.Configure(cfg.Logging.Level, nil)
	lg := debug.Component("main")

	if !native.Supported() {
		debug.DropMessage("PLATFORM", "native thread control unavailable; name and affinity are skipped")
	}

	sleepFor, _ := config.ParseDuration(cfg.Run.SleepFor)
	cooldown, _ := config.ParseDuration(cfg.Run.Cooldown)
	duration, _ := config.ParseDuration(cfg.Run.Duration)
	reportEvery, _ := config.ParseDuration(cfg.Run.ReportEvery)

	// PHASE 1: managed thread
	th, err := newThread(cfg)
	if err != nil {
		return err
	}
	ctx, stop := setupSignalHandling(duration)
	defer stop()

	sw := control.New(cooldown)
	result, err := runloop.Go(ctx, th, syntheticLogic(cfg.Run.IdleEvery), runloop.Options{
		Switch:   sw,
		SleepFor: sleepFor,
	})
	if err != nil {
		return err
	}

	if cores, err := th.GetAffinity(); err == nil {
		lg.Info().Str("thread", th.Name()).Int("tid", th.TID()).Ints("cores", cores).Msg("thread started")
	} else {
		lg.Info().Str("thread", th.Name()).Int("tid", th.TID()).Err(err).Msg("thread started")
	}

	// PHASE 2: report until the loop exits
	if reportEvery <= 0 {
		reportEvery = time.Second
	}
	ticker := time.NewTicker(reportEvery)
	defer ticker.Stop()

	var runErr error
	done := ctx.Done()
wait:
	for {
		select {
		case <-ticker.C:
			runloop.LogSnapshot(&lg, th)
		case <-done:
			sw.Shutdown()
			done = nil
		case runErr = <-result:
			break wait
		}
	}
	th.Wait(5 * time.Second)
	runloop.LogSnapshot(&lg, th)

	// PHASE 3: shutdown
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	if cfg.Run.DumpMetrics {
		return dumpMetrics(th)
	}
	debug.DropMessage("SHUTDOWN", "run loop stopped")
	return nil
}

// newThread builds the unstarted managed thread described by cfg.
func newThread(cfg *config.AppConfig) (*thread.Thread, error) {
	pc, err := cfg.Pacing.Config()
	if err != nil {
		return nil, err
	}
	opts := []thread.Option{thread.WithConfig(&pc)}
	if native.Supported() {
		opts = append(opts, thread.WithName(cfg.Thread.Name), thread.WithAffinity(cfg.Thread.Cores))
	}
	return thread.New(opts...), nil
}

// syntheticLogic reports one item per call, except every idleEvery-th call
// which reports none.
func syntheticLogic(idleEvery int) runloop.Logic {
	calls := 0
	return func() int {
		calls++
		if idleEvery > 0 && calls%idleEvery == 0 {
			return 0
		}
		return 1
	}
}

// setupSignalHandling returns a context cancelled on SIGINT/SIGTERM or after
// limit, when limit is positive.
func setupSignalHandling(limit time.Duration) (context.Context, context.CancelFunc) {
	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if limit <= 0 {
		return ctx, stopSignals
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	return ctx, func() {
		cancel()
		stopSignals()
	}
}

// dumpMetrics writes the thread's collector output in text exposition format.
func dumpMetrics(th *thread.Thread) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(promstat.New(th)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}
