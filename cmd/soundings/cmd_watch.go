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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
	"github.com/AleutianAI/soundings/services/soundings/watch"
	"github.com/spf13/cobra"
)

func runWatch(cmd *cobra.Command, _ []string) {
	if err := watchMain(cmd.Context()); err != nil {
		fail(err)
	}
}

func watchMain(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(experimentFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return badArgs("experiment file %s not found (run 'soundings init' to create one)",
				experimentFile)
		}
		return err
	}

	// --serve needs the Prometheus exporter regardless of what the
	// workbench config says.
	exporter := ""
	if watchServe != "" {
		exporter = "prometheus"
	}
	a, err := openAppWith(ctx, exporter)
	if err != nil {
		return err
	}
	defer a.Close()

	if watchServe != "" {
		srv := serveMetrics(watchServe)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		ux.Info(fmt.Sprintf("Serving metrics on http://%s/metrics", watchServe))
	}

	// First pass before the watcher starts, so the two cannot overlap.
	refit(ctx, a)

	opts := &watch.Options{Logger: slog.Default()}
	if watchDebounce > 0 {
		opts.Debounce = watchDebounce
	}
	w, err := watch.New(experimentFile, func(hctx context.Context) {
		refit(hctx, a)
	}, opts)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	ux.Info(fmt.Sprintf("Watching %s (Ctrl-C to stop)", experimentFile))
	<-ctx.Done()
	ux.Info("Watch stopped")
	return nil
}

// refit runs one pipeline pass against the current file contents.
// Failures are reported and swallowed so the watch loop keeps going.
func refit(ctx context.Context, a *app) {
	mode := "fit"
	if watchCompare {
		mode = "compare"
	}
	st := ux.NewStageSpinner(mode, []string{"load", "sample"})
	st.Start()
	st.Advance()

	exp, err := config.Load(experimentFile)
	if err != nil {
		st.StopWithError(fmt.Sprintf("Config rejected: %v", err))
		return
	}
	pipe, err := a.newPipeline(exp)
	if err != nil {
		st.StopWithError(fmt.Sprintf("Pipeline rejected: %v", err))
		return
	}

	st.Advance()
	var artifacts []string
	if watchCompare {
		res, cerr := pipe.Compare(ctx)
		if cerr != nil {
			if errors.Is(cerr, context.Canceled) {
				st.Stop()
				return
			}
			st.StopWithError(fmt.Sprintf("Comparison failed: %v", cerr))
			return
		}
		artifacts = res.Artifacts
		st.StopWithSuccess(fmt.Sprintf("Run %s: %s favored (%s)",
			shortID(res.RunID), res.Comparison.Favored, res.Comparison.Verdict))
	} else {
		res, ferr := pipe.Fit(ctx)
		if ferr != nil {
			if errors.Is(ferr, context.Canceled) {
				st.Stop()
				return
			}
			st.StopWithError(fmt.Sprintf("Fit failed: %v", ferr))
			return
		}
		artifacts = res.Artifacts
		st.StopWithSuccess(fmt.Sprintf("Run %s complete", shortID(res.RunID)))
	}
	for _, p := range artifacts {
		ux.Artifact(p)
	}
}

// serveMetrics exposes the Prometheus registry on addr.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "error", err)
		}
	}()
	return srv
}
