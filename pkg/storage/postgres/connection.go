package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// Config holds database connection configuration
type Config struct {
	URL         string
	ReplicaURLs []string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DB holds the primary connection and optional read replicas. Reports are
// read-only, so every repository reads through Reader().
type DB struct {
	primary  *sql.DB
	replicas []*sql.DB
	current  uint32 // Atomic counter for round-robin selection
	mu       sync.RWMutex
	log      logrus.FieldLogger
}

// Open connects to the primary and any replicas. A replica that cannot be
// reached is skipped with a warning; the primary must be reachable.
func Open(config Config, log logrus.FieldLogger) (*DB, error) {
	if log == nil {
		log = logrus.New()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	primary, err := openPool(config.URL, config.MaxConns, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open primary connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := primary.PingContext(ctx); err != nil {
		primary.Close()
		return nil, fmt.Errorf("failed to ping primary: %w", err)
	}

	db := &DB{primary: primary, log: log}

	replicaMaxConns := config.MaxConns / 2
	if replicaMaxConns < 2 {
		replicaMaxConns = 2
	}
	for i, url := range config.ReplicaURLs {
		replica, err := openPool(url, replicaMaxConns, config)
		if err != nil {
			log.WithField("replica", i).WithError(err).Warn("failed to open replica")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		err = replica.PingContext(ctx)
		cancel()
		if err != nil {
			log.WithField("replica", i).WithError(err).Warn("failed to ping replica")
			replica.Close()
			continue
		}
		db.replicas = append(db.replicas, replica)
	}

	log.WithField("replicas", len(db.replicas)).Info("database connections initialized")
	return db, nil
}

// NewDB wraps an existing connection as the primary with no replicas
func NewDB(primary *sql.DB) *DB {
	return &DB{primary: primary, log: logrus.New()}
}

func openPool(url string, maxConns int, config Config) (*sql.DB, error) {
	pool, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		pool.SetMaxOpenConns(maxConns)
	}
	pool.SetMaxIdleConns(config.MinConns)
	pool.SetConnMaxLifetime(config.MaxLifetime)
	pool.SetConnMaxIdleTime(config.MaxIdleTime)
	return pool, nil
}

// Primary returns the primary database connection
func (db *DB) Primary() *sql.DB {
	return db.primary
}

// Reader returns a read replica using round-robin selection.
// Falls back to primary if no replicas are available.
func (db *DB) Reader() *sql.DB {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.replicas) == 0 {
		return db.primary
	}

	index := atomic.AddUint32(&db.current, 1)
	return db.replicas[int(index%uint32(len(db.replicas)))]
}

// Ping checks the primary and all replicas. It fails only when the primary
// is down or every replica is.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.primary.PingContext(ctx); err != nil {
		return fmt.Errorf("primary unhealthy: %w", err)
	}

	db.mu.RLock()
	replicas := append([]*sql.DB(nil), db.replicas...)
	db.mu.RUnlock()

	var unhealthy []string
	for i, replica := range replicas {
		if err := replica.PingContext(ctx); err != nil {
			unhealthy = append(unhealthy, fmt.Sprintf("replica-%d", i))
		}
	}
	if len(unhealthy) > 0 && len(unhealthy) == len(replicas) {
		return fmt.Errorf("all replicas unhealthy: %s", strings.Join(unhealthy, ", "))
	}
	return nil
}

// Close closes all database connections
func (db *DB) Close() error {
	var errs []error

	if err := db.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("primary close error: %w", err))
	}

	db.mu.Lock()
	replicas := db.replicas
	db.replicas = nil
	db.mu.Unlock()

	for i, replica := range replicas {
		if err := replica.Close(); err != nil {
			errs = append(errs, fmt.Errorf("replica-%d close error: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("connection close errors: %v", errs)
	}
	return nil
}

// ParseReplicaURLs parses a comma-separated list of replica URLs
func ParseReplicaURLs(replicaURLsStr string) []string {
	if replicaURLsStr == "" {
		return nil
	}

	urls := strings.Split(replicaURLsStr, ",")
	result := make([]string, 0, len(urls))
	for _, url := range urls {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
