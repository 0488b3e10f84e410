package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/jobvec/core"
	"github.com/poiesic/jobvec/storage"
)

const (
	defaultSequenceBandwidth = 100

	// maxConflictRetries bounds how often a write transaction is replayed
	// after losing a race with a concurrent writer.
	maxConflictRetries = 16
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. With inMemory set the path is
// ignored and nothing touches disk.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %w", core.ErrConnectivity, err)
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrConnectivity, err)
			}
			if info, err = os.Stat(filePath); err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrConnectivity, err)
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", core.ErrConnectivity, filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConnectivity, err)
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// Ping reports whether the database is open and answers reads.
func (b *Backend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte(jobDocIDSeq))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	}, false)
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction; fn must commit it.
// The transaction is automatically discarded when fn returns.
// A closed database yields an error wrapping core.ErrConnectivity.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return fmt.Errorf("%w: %w", core.ErrConnectivity, storage.ErrStorageClosed)
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return connectivityError(fn(tx))
}

// Update runs fn in a read-write transaction and commits it. When the commit
// loses to a concurrent writer the whole transaction is replayed, so fn must
// be safe to run more than once. The last committed write wins.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := b.WithTx(func(tx *badger.Txn) error {
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			b.logger.Debug("transaction conflict, retrying", "attempt", attempt+1)
			continue
		}
		return err
	}
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// connectivityError marks errors caused by the database going away.
func connectivityError(err error) error {
	if err == nil || errors.Is(err, core.ErrConnectivity) {
		return err
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", core.ErrConnectivity, err)
	}
	return err
}
