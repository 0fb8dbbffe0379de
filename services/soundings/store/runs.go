// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/soundings/pkg/validation"
	"github.com/AleutianAI/soundings/services/soundings/config"
	"github.com/AleutianAI/soundings/services/soundings/diag"
	"github.com/AleutianAI/soundings/services/soundings/evidence"
	"github.com/AleutianAI/soundings/services/soundings/sampler"
	"github.com/AleutianAI/soundings/services/soundings/telemetry"
)

// ErrNotFound is returned when a run or chain does not exist.
var ErrNotFound = errors.New("store: not found")

const (
	runKeyPrefix   = "run:"
	chainKeyPrefix = "chain:"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Kind is the pipeline that produced a run.
type Kind string

const (
	KindFit     Kind = "fit"
	KindCompare Kind = "compare"
)

// ModelResult holds everything recorded about one fitted model.
type ModelResult struct {
	// MAP is the maximum a posteriori estimate used to seed the walkers.
	MAP []float64 `json:"map,omitempty"`

	// Converged reports whether the MAP search converged; when false,
	// MAP is the prior midpoint.
	Converged bool `json:"converged"`

	// Acceptance is the mean walker acceptance rate of the fit chain.
	Acceptance float64 `json:"acceptance"`

	// Summaries holds per-parameter marginal statistics.
	Summaries []diag.ParamSummary `json:"summaries,omitempty"`

	// Evidence is the thermodynamic integration estimate, present on
	// comparison runs.
	Evidence *evidence.Estimate `json:"evidence,omitempty"`
}

// Comparison records a two-model evidence comparison.
type Comparison struct {
	// ModelA and ModelB name the compared models; LogBayesFactor is
	// log Z_A - log Z_B, so a positive value favors ModelA.
	ModelA string `json:"model_a"`
	ModelB string `json:"model_b"`

	LogBayesFactor float64 `json:"log_bayes_factor"`

	// BayesFactor is exp(LogBayesFactor); infinite for strongly
	// separated models.
	BayesFactor float64 `json:"bayes_factor"`

	// Favored names the model with the larger evidence.
	Favored string `json:"favored"`

	// Verdict is the Kass-Raftery strength label.
	Verdict string `json:"verdict"`
}

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Error holds the failure message for failed runs.
	Error string `json:"error,omitempty"`

	// DataDigest fingerprints the observation set the run fitted.
	DataDigest string `json:"data_digest,omitempty"`

	// Experiment is the full configuration snapshot, sufficient to
	// regenerate the dataset and re-render every artifact.
	Experiment config.Experiment `json:"experiment"`

	// Results holds per-model outcomes, keyed by model name.
	Results map[string]ModelResult `json:"results,omitempty"`

	// Comparison is present on compare runs.
	Comparison *Comparison `json:"comparison,omitempty"`

	// Artifacts lists files written for this run.
	Artifacts []string `json:"artifacts,omitempty"`
}

// NewRun mints a running record for the given pipeline and experiment.
func NewRun(kind Kind, exp config.Experiment) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:         uuid.NewString(),
		Kind:       kind,
		Status:     StatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
		Experiment: exp,
		Results:    make(map[string]ModelResult),
	}
}

// Name returns the experiment name the run belongs to.
func (r *Run) Name() string { return r.Experiment.Name }

// Complete marks the run finished.
func (r *Run) Complete() {
	r.Status = StatusComplete
	r.UpdatedAt = time.Now().UTC()
}

// Fail marks the run failed with the given cause.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now().UTC()
}

// RunStore is the typed record layer over the database.
//
// Thread Safety: safe for concurrent use; BadgerDB handles conflict
// detection between concurrent writers.
type RunStore struct {
	db      *DB
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewRunStore creates a RunStore.
//
// Inputs:
//
//	db - Open database. Must not be nil.
//	logger - Logger for store events. If nil, uses slog.Default().
//	metrics - Telemetry instruments. May be nil.
func NewRunStore(db *DB, logger *slog.Logger, metrics *telemetry.Metrics) (*RunStore, error) {
	if db == nil {
		return nil, errors.New("store: db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunStore{db: db, logger: logger, metrics: metrics}, nil
}

// SaveRun writes the record under run:<id>, stamping UpdatedAt.
func (s *RunStore) SaveRun(ctx context.Context, rec *Run) error {
	if rec == nil {
		return errors.New("store: record must not be nil")
	}
	if err := validation.ValidateRunID(rec.ID); err != nil {
		return s.recordOp(ctx, "save_run", err)
	}

	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return s.recordOp(ctx, "save_run", fmt.Errorf("store: encode run %s: %w", rec.ID, err))
	}

	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(runKey(rec.ID), data)
	})
	if err == nil {
		telemetry.LoggerWithTrace(ctx, s.logger).Debug("store: run saved",
			slog.String("run_id", rec.ID),
			slog.String("status", string(rec.Status)),
		)
	}
	return s.recordOp(ctx, "save_run", err)
}

// GetRun reads the record stored under run:<id>.
func (s *RunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := validation.ValidateRunID(id); err != nil {
		return nil, s.recordOp(ctx, "get_run", err)
	}

	var rec Run
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, s.recordOp(ctx, "get_run", err)
	}
	return &rec, s.recordOp(ctx, "get_run", nil)
}

// ListRuns returns every run record, newest first.
func (s *RunStore) ListRuns(ctx context.Context) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("store: decode %s: %w", it.Item().Key(), err)
			}
			runs = append(runs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, s.recordOp(ctx, "list_runs", err)
	}

	slices.SortFunc(runs, func(a, b *Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return runs, s.recordOp(ctx, "list_runs", nil)
}

// DeleteRun removes a run record and every chain stored with it.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	if err := validation.ValidateRunID(id); err != nil {
		return s.recordOp(ctx, "delete_run", err)
	}

	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		if err := txn.Delete(runKey(id)); err != nil {
			return err
		}

		// Collect chain keys first; deleting while iterating is not
		// supported.
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chainKeyPrefix + id + ":")
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		telemetry.LoggerWithTrace(ctx, s.logger).Debug("store: run deleted",
			slog.String("run_id", id))
	}
	return s.recordOp(ctx, "delete_run", err)
}

// SaveChain writes a model's chain under chain:<id>:<model>, gzipped.
// Chains dominate the database size; compressing the JSON keeps values
// well under BadgerDB's per-transaction limit.
func (s *RunStore) SaveChain(ctx context.Context, id, modelName string, chain *sampler.Chain) error {
	if err := validation.ValidateRunID(id); err != nil {
		return s.recordOp(ctx, "save_chain", err)
	}
	if chain == nil {
		return errors.New("store: chain must not be nil")
	}

	data, err := json.Marshal(chain)
	if err != nil {
		return s.recordOp(ctx, "save_chain", fmt.Errorf("store: encode chain %s/%s: %w", id, modelName, err))
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return s.recordOp(ctx, "save_chain", fmt.Errorf("store: compress chain %s/%s: %w", id, modelName, err))
	}
	if err := zw.Close(); err != nil {
		return s.recordOp(ctx, "save_chain", fmt.Errorf("store: compress chain %s/%s: %w", id, modelName, err))
	}

	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(chainKey(id, modelName), buf.Bytes())
	})
	return s.recordOp(ctx, "save_chain", err)
}

// GetChain reads a model's chain back.
func (s *RunStore) GetChain(ctx context.Context, id, modelName string) (*sampler.Chain, error) {
	if err := validation.ValidateRunID(id); err != nil {
		return nil, s.recordOp(ctx, "get_chain", err)
	}

	var chain sampler.Chain
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(chainKey(id, modelName))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("chain %s/%s: %w", id, modelName, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			zr, err := gzip.NewReader(bytes.NewReader(val))
			if err != nil {
				return fmt.Errorf("store: decompress chain %s/%s: %w", id, modelName, err)
			}
			data, err := io.ReadAll(zr)
			if err != nil {
				return fmt.Errorf("store: decompress chain %s/%s: %w", id, modelName, err)
			}
			if err := zr.Close(); err != nil {
				return err
			}
			return json.Unmarshal(data, &chain)
		})
	})
	if err != nil {
		return nil, s.recordOp(ctx, "get_chain", err)
	}
	return &chain, s.recordOp(ctx, "get_chain", nil)
}

func (s *RunStore) recordOp(ctx context.Context, op string, err error) error {
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.StoreOpsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		))
	}
	return err
}

func runKey(id string) []byte {
	return []byte(runKeyPrefix + id)
}

func chainKey(id, modelName string) []byte {
	return []byte(chainKeyPrefix + id + ":" + modelName)
}
