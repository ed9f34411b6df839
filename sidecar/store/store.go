// Package store persists the packet log that the sidecar's /decode
// handler (sidecar/httpapi) reads back from: the durable side channel
// spec.md §4.5 assumes a caller can supply, grounded on the teacher's
// PostgreSQL-backed registry store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// PacketLogEntry is one observed packet identifier within a round.
type PacketLogEntry struct {
	Round      int
	Identifier uint32
	ObservedAt time.Time
}

// PacketLogStore persists and retrieves packet log entries, keyed by
// round.
type PacketLogStore interface {
	Append(round int, identifiers []uint32) error
	Log(round int) ([]uint32, error)
	DeleteBefore(round int) error
	Close() error
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// PostgresStore implements PacketLogStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool, pings it, and runs
// migrations.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS packet_log (
		round       INTEGER NOT NULL,
		identifier  BIGINT NOT NULL,
		observed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_packet_log_round ON packet_log(round);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append records identifiers as observed in round.
func (s *PostgresStore) Append(round int, identifiers []uint32) error {
	if len(identifiers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO packet_log (round, identifier) VALUES ($1, $2)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range identifiers {
		if _, err := stmt.ExecContext(ctx, round, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Log returns every identifier recorded for round.
func (s *PostgresStore) Log(round int) ([]uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier FROM packet_log WHERE round = $1
	`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, uint32(id))
	}
	return out, rows.Err()
}

// DeleteBefore removes every entry for a round strictly earlier than
// round, bounding storage growth across rounds.
func (s *PostgresStore) DeleteBefore(round int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DELETE FROM packet_log WHERE round < $1", round)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InMemoryStore implements PacketLogStore for tests without a database.
type InMemoryStore struct {
	mu  sync.Mutex
	log map[int][]uint32
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{log: make(map[int][]uint32)}
}

// Append records identifiers as observed in round.
func (s *InMemoryStore) Append(round int, identifiers []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log[round] = append(s.log[round], identifiers...)
	return nil
}

// Log returns every identifier recorded for round.
func (s *InMemoryStore) Log(round int) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, len(s.log[round]))
	copy(out, s.log[round])
	return out, nil
}

// DeleteBefore removes every entry for a round strictly earlier than
// round.
func (s *InMemoryStore) DeleteBefore(round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rounds := make([]int, 0, len(s.log))
	for r := range s.log {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	for _, r := range rounds {
		if r < round {
			delete(s.log, r)
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
