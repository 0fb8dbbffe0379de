package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/soundings/pkg/ux"
	"github.com/AleutianAI/soundings/services/soundings/store"
	"github.com/spf13/cobra"
)

func runReport(cmd *cobra.Command, args []string) {
	if err := reportMain(cmd.Context(), args[0]); err != nil {
		fail(err)
	}
}

func reportMain(ctx context.Context, idArg string) error {
	start := time.Now()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveRunID(ctx, app.Runs, idArg)
	if err != nil {
		return err
	}
	rec, err := app.Runs.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s not found", id)
		}
		return err
	}
	if rec.Status != store.StatusComplete {
		return fmt.Errorf("run %s is %s, only complete runs can be re-rendered",
			shortID(id), rec.Status)
	}

	// The record's own experiment snapshot drives rendering, so the
	// pipeline is built from it rather than from any local file.
	pipe, err := app.newPipeline(&rec.Experiment)
	if err != nil {
		return err
	}

	sp := ux.NewSpinner(fmt.Sprintf("Rendering run %s", shortID(id)))
	sp.Start()
	paths, err := pipe.Render(ctx, rec, outputDir)
	if err != nil {
		sp.StopWithError("Render failed")
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Rendered %d artifacts", len(paths)))

	for _, p := range paths {
		ux.Artifact(p)
	}
	ux.Summary(len(rec.Results), len(paths), elapsedSince(start))
	return nil
}
