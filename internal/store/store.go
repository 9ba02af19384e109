package store

import (
	"errors"
	"fmt"
	"time"

	"honey-fulfillment/internal/util"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrConcurrentUpdate is returned when a conditional update kept losing the
// version race until the retry budget ran out.
var ErrConcurrentUpdate = errors.New("concurrent stock update, retry limit reached")

// DefaultRetryLimit bounds the optimistic-concurrency retry loops.
const DefaultRetryLimit = 5

type Store struct {
	db         *sqlx.DB
	retryLimit int
}

// NewStore creates a new database store. retryLimit bounds every CAS
// delivery loop; values below 1 fall back to DefaultRetryLimit.
func NewStore(databaseURL string, retryLimit int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if retryLimit < 1 {
		retryLimit = DefaultRetryLimit
	}
	return &Store{db: db, retryLimit: retryLimit}, nil
}

// runWithVersionRetry drives an optimistic-concurrency loop. attempt reads
// fresh state and applies a conditional write; it reports false when the
// write lost the version race, which counts against the pool's conflict
// metric and earns another attempt. Any error aborts immediately. When the
// retry budget runs out the caller gets ErrConcurrentUpdate.
func (s *Store) runWithVersionRetry(pool string, attempt func(attempt int) (bool, error)) error {
	for i := 1; i <= s.retryLimit; i++ {
		done, err := attempt(i)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		util.CASConflictsTotal.WithLabelValues(pool).Inc()
	}
	return ErrConcurrentUpdate
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection.
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}
