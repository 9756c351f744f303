// Package results keeps a queryable ledger of finished replicates next to the
// plain-text statistics file. Any number of replicate processes may insert
// into the same database; rows are keyed by run ID.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"finsim/internal/stats"
)

// Row is one replicate with the inputs needed to reproduce it.
type Row struct {
	RunID             uuid.UUID
	Record            stats.Record
	RecombinationRate float64
	RateMap           string
	Sites             int
	CreatedAt         time.Time
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a replicate ledger in SQLite or Postgres.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open picks the backend from target: postgres:// and postgresql:// URLs use
// pgx, anything else is a SQLite path with an optional "sqlite:" prefix.
func Open(ctx context.Context, target string) (*Store, error) {
	driver, dsn, d := "sqlite", strings.TrimPrefix(target, "sqlite:"), dialectSQLite
	if strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://") {
		driver, dsn, d = "pgx", target, dialectPostgres
	}
	if dsn == "" {
		return nil, errors.New("results: empty database target")
	}
	if d == dialectSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	}
	openDSN := dsn
	if d == dialectSQLite && !strings.Contains(dsn, "?") {
		// concurrent replicate processes share the file
		openDSN += "?_pragma=busy_timeout(5000)"
	}
	openMu.Lock()
	db, err := sqlOpen(driver, openDSN)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == dialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db, dialect: d}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS replicates (
		run_id TEXT PRIMARY KEY,
		seed BIGINT NOT NULL,
		tree_count INTEGER NOT NULL,
		mean_scaled_tmrca DOUBLE PRECISION NOT NULL,
		total_mutations INTEGER NOT NULL,
		segregating_sites INTEGER NOT NULL,
		recombination_rate DOUBLE PRECISION NOT NULL,
		rate_map TEXT NOT NULL,
		sites INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure replicates table: %w", err)
	}
	return nil
}

// bind rewrites ? placeholders to $n for Postgres.
func (s *Store) bind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert records one finished replicate.
func (s *Store) Insert(ctx context.Context, row Row) error {
	if row.Record.Seed > math.MaxInt64 {
		return fmt.Errorf("seed %d does not fit a BIGINT column", row.Record.Seed)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	q := s.bind(`INSERT INTO replicates (run_id, seed, tree_count, mean_scaled_tmrca, total_mutations,
		segregating_sites, recombination_rate, rate_map, sites, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	r := row.Record
	if _, err := s.db.ExecContext(ctx, q,
		row.RunID.String(), int64(r.Seed), r.TreeCount, r.MeanTMRCA, r.TotalMutations,
		r.SegregatingSites, row.RecombinationRate, row.RateMap, row.Sites,
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert replicate %s: %w", row.RunID, err)
	}
	return nil
}

// List returns every replicate ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, seed, tree_count, mean_scaled_tmrca, total_mutations,
		segregating_sites, recombination_rate, rate_map, sites, created_at
		FROM replicates ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("select replicates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Row
	for rows.Next() {
		var (
			row    Row
			id, ts string
			seed   int64
		)
		if err := rows.Scan(&id, &seed, &row.Record.TreeCount, &row.Record.MeanTMRCA, &row.Record.TotalMutations,
			&row.Record.SegregatingSites, &row.RecombinationRate, &row.RateMap, &row.Sites, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if row.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		if row.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("created_at %q: %w", ts, err)
		}
		row.Record.Seed = uint64(seed)
		out = append(out, row)
	}
	return out, rows.Err()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }
