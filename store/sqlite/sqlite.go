/*
Package sqlite provides SQLite-backed configuration and result storage.

PURPOSE:
  Persists the versioned configuration the engine consumes (statutory rate
  tables and component classification rules) and archives finished
  compliance results for audit. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  rates.Source: the active rate-table row doubles as a cacheable source,
  so a CachedSource can sit directly on top of the database.

VERSIONING:
  Configuration rows are append-only; publishing a new rate table or rule
  table inserts a row and flips the active flag. The active row's id is
  the version stamp the cache layer compares.

KEY TABLES:
  rate_tables:          Published statutory rate tables (JSON payload)
  classification_rules: Published component rule tables (JSON payload)
  compliance_results:   Archived per-worker outcomes, keyed by run

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/compliance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  src := rates.NewCachedSource(store, 0)
  engine := compliance.NewEngine(src, rules)

SEE ALSO:
  - rates/source.go: Source interface and cache layer
  - classify/rules.go: rule table compilation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/nmw"
	"github.com/warp/compliance-engine/rates"
)

// ErrNoActiveConfig is returned when no configuration row has been
// published yet.
var ErrNoActiveConfig = errors.New("sqlite: no active configuration published")

// Store persists engine configuration and archived results in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_tables (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		payload    TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rate_tables_active ON rate_tables(active);

	CREATE TABLE IF NOT EXISTS classification_rules (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		payload    TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_classification_rules_active ON classification_rules(active);

	CREATE TABLE IF NOT EXISTS compliance_results (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		worker_id     TEXT NOT NULL,
		pay_period_id TEXT NOT NULL,
		status        TEXT NOT NULL,
		score         INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		payload       TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON compliance_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_worker ON compliance_results(worker_id, pay_period_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RATE TABLES - implements rates.Source
// =============================================================================

// PublishRateTable validates and stores a new rate table, making it the
// active one. The previous active row is retained for audit.
func (s *Store) PublishRateTable(ctx context.Context, t *rates.Table) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("failed to encode rate table: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE rate_tables SET active = 0 WHERE active = 1`); err != nil {
		return 0, fmt.Errorf("failed to retire active rate table: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rate_tables (payload, active, created_at) VALUES (?, 1, ?)`,
		string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rate table: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rate table: %w", err)
	}
	return id, nil
}

// Load reads and parses the active rate table. Implements rates.Source.
func (s *Store) Load(ctx context.Context) (*rates.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM rate_tables WHERE active = 1 ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: ErrNoActiveConfig}
	}
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}

	var t rates.Table
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.Sort()
	return &t, nil
}

// Version returns the active rate-table row id. Implements rates.Source.
func (s *Store) Version(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM rate_tables WHERE active = 1 ORDER BY id DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &nmw.InfrastructureError{Resource: "rate table", Err: ErrNoActiveConfig}
	}
	if err != nil {
		return "", &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}
	return strconv.FormatInt(id, 10), nil
}

// =============================================================================
// CLASSIFICATION RULES
// =============================================================================

// PublishRules compiles and stores a new classification rule table,
// making it the active one.
func (s *Store) PublishRules(ctx context.Context, raw []byte) (int64, error) {
	if _, err := classify.Compile(raw); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE classification_rules SET active = 0 WHERE active = 1`); err != nil {
		return 0, fmt.Errorf("failed to retire active rules: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO classification_rules (payload, active, created_at) VALUES (?, 1, ?)`,
		string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rules: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rules: %w", err)
	}
	return id, nil
}

// LoadRules returns the active compiled rule table, or the embedded
// default when none has been published.
func (s *Store) LoadRules(ctx context.Context) (*classify.Ruleset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM classification_rules WHERE active = 1 ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return classify.DefaultRuleset(), nil
	}
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "classification rules", Err: err}
	}
	return classify.Compile([]byte(payload))
}

// =============================================================================
// RESULT ARCHIVE
// =============================================================================

// ArchiveReport stores every outcome of a batch run. Failed outcomes are
// archived too; their payload carries the error string.
func (s *Store) ArchiveReport(ctx context.Context, report compliance.BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO compliance_results
			(run_id, worker_id, pay_period_id, status, score, success, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, out := range report.Outcomes {
		status := ""
		score := 0
		if out.Result != nil {
			status = string(out.Result.Status)
			score = out.Result.Score
		}
		payload, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
		success := 0
		if out.Success {
			success = 1
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, string(out.WorkerID), string(out.PayPeriodID),
			status, score, success, string(payload), now,
		); err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}
	return tx.Commit()
}

// ResultSummary is a light row view over the result archive.
type ResultSummary struct {
	RunID       string        `json:"run_id"`
	WorkerID    nmw.WorkerID  `json:"worker_id"`
	PayPeriodID nmw.PeriodID  `json:"pay_period_id"`
	Status      nmw.RAGStatus `json:"status"`
	Score       int           `json:"score"`
	Success     bool          `json:"success"`
	CreatedAt   string        `json:"created_at"`
}

// ListResults returns archived outcome summaries for one run, newest
// first.
func (s *Store) ListResults(ctx context.Context, runID string) ([]ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, worker_id, pay_period_id, status, score, success, created_at
		FROM compliance_results
		WHERE run_id = ?
		ORDER BY id DESC`, runID)
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "result archive", Err: err}
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var r ResultSummary
		var success int
		if err := rows.Scan(&r.RunID, &r.WorkerID, &r.PayPeriodID, &r.Status, &r.Score, &success, &r.CreatedAt); err != nil {
			return nil, &nmw.InfrastructureError{Resource: "result archive", Err: err}
		}
		r.Success = success == 1
		out = append(out, r)
	}
	return out, rows.Err()
}
