package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pbaille/hwdiag/internal/table"
)

//go:embed schema.sql
var schema string

const (
	busyTimeoutMS = 10000
	excerptLen    = 100
)

// Row is one result row keyed by column name
type Row map[string]any

// Store runs statements against a single SQLite file. It holds no open
// handle: every call opens its own connection and closes it before
// returning. Failures are logged and reported as false or an empty result.
type Store struct {
	path string
	log  *zap.Logger
}

// New creates a Store for the database file at dbPath
func New(dbPath string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: dbPath, log: log.Named("store")}
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) open() (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", s.path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the problems table if it does not exist yet
func (s *Store) EnsureSchema() bool {
	db, err := s.open()
	if err != nil {
		s.log.Error("schema setup failed", zap.String("path", s.path), zap.Error(err))
		return false
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		s.log.Error("schema setup failed", zap.String("path", s.path), zap.Error(fmt.Errorf("init schema: %w", err)))
		return false
	}

	s.log.Info("problems table ready", zap.String("path", s.path))
	return true
}

// Execute runs one mutating statement in its own transaction and commits
// it. It reports success regardless of how many rows were affected.
func (s *Store) Execute(query string, args ...any) bool {
	affected, err := s.execute(query, args...)
	if err != nil {
		s.log.Error("query failed", zap.String("query", excerpt(query)), zap.Error(err))
		return false
	}

	s.log.Debug("query executed", zap.String("query", excerpt(query)), zap.Int64("affected", affected))
	return true
}

func (s *Store) execute(query string, args ...any) (int64, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return 0, fmt.Errorf("exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

// FetchAll runs a read statement and returns every row. Any failure yields
// an empty result, never a partial one.
func (s *Store) FetchAll(query string, args ...any) []Row {
	cols, values, err := s.query(query, 0, args...)
	if err != nil {
		s.log.Error("fetch failed", zap.String("query", excerpt(query)), zap.Error(err))
		return nil
	}

	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = toRow(cols, v)
	}
	return rows
}

// FetchOne runs a read statement and returns its first row, if any
func (s *Store) FetchOne(query string, args ...any) (Row, bool) {
	cols, values, err := s.query(query, 1, args...)
	if err != nil {
		s.log.Error("fetch failed", zap.String("query", excerpt(query)), zap.Error(err))
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}
	return toRow(cols, values[0]), true
}

// FetchTable runs a read statement and returns the result as a table. The
// table keeps the statement's column names even when no rows match; on
// failure it has neither columns nor rows.
func (s *Store) FetchTable(query string, args ...any) *table.Table {
	cols, values, err := s.query(query, 0, args...)
	if err != nil {
		s.log.Error("fetch table failed", zap.String("query", excerpt(query)), zap.Error(err))
		return table.New()
	}

	t := table.New(cols...)
	t.Rows = values
	return t
}

// query reads at most limit rows (all rows when limit is 0)
func (s *Store) query(query string, limit int, args ...any) ([]string, [][]any, error) {
	db, err := s.open()
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}

	return cols, out, nil
}

func toRow(cols []string, values []any) Row {
	r := make(Row, len(cols))
	for i, c := range cols {
		r[c] = values[i]
	}
	return r
}

// excerpt flattens whitespace and truncates a statement for log output
func excerpt(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) <= excerptLen {
		return q
	}
	return q[:excerptLen-3] + "..."
}
