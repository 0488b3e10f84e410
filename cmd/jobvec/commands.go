// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/ingestion"
	"github.com/poiesic/jobvec/normalize"
	"github.com/poiesic/jobvec/reconcile"
	"github.com/poiesic/jobvec/server"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	db, err := openDatabase(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	var reconciler *reconcile.Reconciler
	opts := []server.Option{server.WithAPIKey(c.String("api-key"))}
	if !c.Bool("no-reconcile") {
		reconciler, err = db.NewReconciler(reconcileConfig(c))
		if err != nil {
			return fmt.Errorf("failed to create reconciler: %w", err)
		}
		opts = append(opts, server.WithReconciler(reconciler))
	}

	srv, err := db.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s (%d dims)\n", db.Model().Name, db.Model().Dimension)
	fmt.Fprintf(c.App.ErrWriter, "Listening on %s\n", c.String("addr"))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx, c.String("addr"))
	})
	if reconciler != nil {
		g.Go(func() error {
			return reconciler.Run(gCtx)
		})
	}
	return g.Wait()
}

func watchCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	db, err := openDatabase(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	reconciler, err := db.NewReconciler(reconcileConfig(c))
	if err != nil {
		return fmt.Errorf("failed to create reconciler: %w", err)
	}

	if c.Bool("once") {
		processed, err := reconciler.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		stats := reconciler.Stats()
		fmt.Fprintf(c.App.Writer, "Processed %d documents (%d failed)\n", processed, stats.Failed)
		return nil
	}

	fmt.Fprintf(c.App.ErrWriter, "Watching %s for under-embedded jobs\n", c.String("db"))
	return reconciler.Run(ctx)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one input file is required (use - for stdin)")
	}
	path := c.Args().First()

	format := ingestion.Format(c.String("format"))
	if format == "" {
		if path == "-" {
			return errors.New("--format is required when reading stdin")
		}
		var err error
		if format, err = ingestion.FormatFromPath(path); err != nil {
			return err
		}
	}

	var input io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	ctx, stop := signalContext(c)
	defer stop()

	db, err := openDatabase(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	loader, err := db.NewLoader(
		ingestion.WithMaxSaved(c.Int("max-saved")),
		ingestion.WithIDPrefix(c.String("id-prefix")),
		ingestion.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	)
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	stats, err := loader.Load(ctx, input, format)
	if stats != nil {
		fmt.Fprintf(c.App.Writer, "Rows: %d, saved: %d, skipped: %d, failed: %d in %s\n",
			stats.Rows, stats.Saved, stats.Skipped, stats.Failed, stats.Elapsed.Round(time.Millisecond))
		if stats.Capped {
			fmt.Fprintf(c.App.Writer, "Stopped at the limit of %d saved records\n", c.Int("max-saved"))
		}
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func processCommand(c *cli.Context) error {
	var input io.Reader = os.Stdin
	if c.NArg() > 0 && c.Args().First() != "-" {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	var raw map[string]any
	if err := json.NewDecoder(input).Decode(&raw); err != nil || raw == nil {
		return fmt.Errorf("%w: input must be a JSON object", core.ErrMalformedInput)
	}

	db, err := openDatabase(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewPipeline()
	if err != nil {
		return err
	}

	job, err := pipeline.Process(c.Context, core.RawRecord(raw), fallbackID(c.String("id"), raw))
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}

// fallbackID returns explicit if set, else the record's job_id or id, else a new UUID.
func fallbackID(explicit string, raw map[string]any) string {
	if explicit != "" {
		return explicit
	}
	for _, key := range []string{core.FieldJobID, "id"} {
		if id := normalize.CleanString(raw[key]); id != nil {
			return *id
		}
	}
	return uuid.NewString()
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := db.JobRepository()
	total, err := repo.CountTotal(c.Context)
	if err != nil {
		return err
	}
	ready, err := repo.CountReady(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Total: %d\nReady: %d\nPending: %d\n", total, ready, total-ready)
	return nil
}
