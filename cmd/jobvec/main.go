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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/jobvec"
	"github.com/poiesic/jobvec/ai"
	"github.com/poiesic/jobvec/embed"
	"github.com/poiesic/jobvec/ingestion"
	"github.com/poiesic/jobvec/reconcile"
)

func main() {
	// Flag defaults read the environment, so .env has to be loaded before parsing.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	reconcileDefaults := reconcile.DefaultConfig()

	return &cli.App{
		Name:  "jobvec",
		Usage: "Normalize, embed and reconcile job postings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"JOBVEC_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and run the reconciler",
				Action: serveCommand,
				Flags: flags(storeFlags(), encoderFlags(), reconcileFlags(reconcileDefaults), []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8000",
						EnvVars: []string{"JOBVEC_ADDR"},
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Require this key in X-API-Key or a bearer token",
						EnvVars: []string{"JOBVEC_API_KEY"},
					},
					&cli.BoolFlag{
						Name:  "no-reconcile",
						Usage: "Serve the API without the background reconciler",
					},
				}),
			},
			{
				Name:   "watch",
				Usage:  "Run the reconciler until interrupted",
				Action: watchCommand,
				Flags: flags(storeFlags(), encoderFlags(), reconcileFlags(reconcileDefaults), []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single scan and exit",
					},
				}),
			},
			{
				Name:      "ingest",
				Usage:     "Load a CSV or JSON Lines file of job postings",
				ArgsUsage: "<file|->",
				Action:    ingestCommand,
				Flags: flags(storeFlags(), encoderFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Input format (csv, jsonl); guessed from the extension when empty",
					},
					&cli.IntFlag{
						Name:  "max-saved",
						Usage: "Stop after saving this many records",
						Value: ingestion.DefaultMaxSaved,
					},
					&cli.StringFlag{
						Name:  "id-prefix",
						Usage: "Prefix for ids of rows without one",
						Value: ingestion.DefaultIDPrefix,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N rows",
						Value: 10,
					},
				}),
			},
			{
				Name:      "process",
				Usage:     "Process one JSON job record and print the stored result",
				ArgsUsage: "[file]",
				Action:    processCommand,
				Flags: flags(storeFlags(), encoderFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Fallback job id; defaults to the record's job_id or id, then a new UUID",
					},
				}),
			},
			{
				Name:   "stats",
				Usage:  "Print document counts",
				Action: statsCommand,
				Flags:  storeFlags(),
			},
		},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"JOBVEC_DB"},
		},
	}
}

func encoderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "encoder",
			Usage:   "Encoder kind (openai, hashing)",
			Value:   ai.EncoderOpenAI,
			EnvVars: []string{"JOBVEC_ENCODER"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   ai.DefaultEmbeddingHost,
			EnvVars: []string{"JOBVEC_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   ai.DefaultEmbeddingModel,
			EnvVars: []string{"JOBVEC_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"JOBVEC_EMBEDDING_TOKEN", "OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "dimension",
			Usage:   "Vector dimension the model produces",
			Value:   ai.DefaultDimension,
			EnvVars: []string{"JOBVEC_DIMENSION"},
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Concurrent encoder calls",
			Value: embed.DefaultPoolSize,
		},
	}
}

func reconcileFlags(defaults *reconcile.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Documents fetched per scan",
			Value: defaults.BatchSize,
		},
		&cli.DurationFlag{
			Name:  "idle-interval",
			Usage: "Pause after a scan that found nothing to do",
			Value: defaults.IdleInterval,
		},
		&cli.DurationFlag{
			Name:  "busy-interval",
			Usage: "Pause after a productive scan",
			Value: defaults.BusyInterval,
		},
		&cli.DurationFlag{
			Name:  "recovery-interval",
			Usage: "Pause after a failed scan",
			Value: defaults.RecoveryInterval,
		},
		&cli.Float64Flag{
			Name:    "max-rate",
			Usage:   "Maximum documents per second; 0 is unlimited",
			EnvVars: []string{"JOBVEC_MAX_RATE"},
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum encoding attempts per document",
			Value: defaults.MaxRetries,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: defaults.RetryDelay,
		},
	}
}

func aiConfig(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithEncoder(c.String("encoder")),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("embedding-token")),
		ai.WithDimension(c.Int("dimension")),
	)
}

func reconcileConfig(c *cli.Context) *reconcile.Config {
	cfg := reconcile.DefaultConfig()
	cfg.BatchSize = c.Int("batch-size")
	cfg.IdleInterval = c.Duration("idle-interval")
	cfg.BusyInterval = c.Duration("busy-interval")
	cfg.RecoveryInterval = c.Duration("recovery-interval")
	cfg.MaxRate = c.Float64("max-rate")
	cfg.MaxRetries = c.Int("max-retries")
	cfg.RetryDelay = c.Duration("retry-delay")
	return cfg
}

// openDatabase opens the store named by --db. Commands that never embed pass
// embeds=false and get the local hashing encoder instead of the configured one.
func openDatabase(c *cli.Context, embeds bool) (*jobvec.Database, error) {
	cfg := ai.NewConfig(ai.WithEncoder(ai.EncoderHashing))
	poolSize := embed.DefaultPoolSize
	if embeds {
		cfg = aiConfig(c)
		poolSize = c.Int("pool-size")
	}

	db, err := jobvec.NewDatabase(c.String("db"),
		jobvec.WithAIConfig(cfg),
		jobvec.WithEncoderPoolSize(poolSize),
		jobvec.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
