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
package reconcile

import (
	"fmt"
	"time"
)

// Config holds the polling and retry settings of a Reconciler.
type Config struct {
	// BatchSize is the number of under-embedded documents fetched per scan.
	BatchSize int

	// IdleInterval is the pause after a scan that processed nothing.
	IdleInterval time.Duration

	// BusyInterval is the pause after a scan that processed at least one document.
	BusyInterval time.Duration

	// RecoveryInterval is the pause after a scan-level failure.
	RecoveryInterval time.Duration

	// ConnectInterval is the pause between store pings while disconnected.
	ConnectInterval time.Duration

	// MaxRate caps documents processed per second. Zero means unlimited.
	MaxRate float64

	// MaxRetries is the number of encoding attempts per document.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff between attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the polling cadence of the reference deployment.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        10,
		IdleInterval:     5 * time.Second,
		BusyInterval:     1 * time.Second,
		RecoveryInterval: 10 * time.Second,
		ConnectInterval:  2 * time.Second,
		MaxRetries:       3,
		RetryDelay:       500 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BatchSize must be greater than 0", ErrInvalidConfig)
	}
	if c.IdleInterval < 0 || c.BusyInterval < 0 || c.RecoveryInterval < 0 || c.ConnectInterval < 0 {
		return fmt.Errorf("%w: intervals cannot be negative", ErrInvalidConfig)
	}
	if c.MaxRate < 0 {
		return fmt.Errorf("%w: MaxRate cannot be negative", ErrInvalidConfig)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidMaxAttempts)
	}
	return nil
}
