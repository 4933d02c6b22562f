package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/okian/heartfuse/internal/domain/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Table names.
const (
	usersTable   = "heartfuse_users"
	recordsTable = "heartfuse_records"
)

// SQLStore persists submissions in SQLite, PostgreSQL or MySQL.
type SQLStore struct {
	db      *sql.DB
	backend Backend
	opts    options
	updater metricsUpdater
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens the database for backend, creates the schema if needed
// and starts the metrics updater.
func NewSQLStore(ctx context.Context, backend Backend, dsn string, opts ...Option) (*SQLStore, error) {
	var driverName string
	switch backend {
	case BackendSQLite:
		driverName = "sqlite"
		if dsn == "" {
			dsn = "heartfuse.db"
		}
	case BackendPostgres:
		// host=localhost port=5432 user=postgres dbname=heartfuse or a postgres:// URL
		driverName = "pgx"
	case BackendMySQL:
		// user:password@tcp(host:port)/dbname
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrUnsupportedBackend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	if backend == BackendSQLite {
		// avoid "database is locked" under concurrent writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s store: %w", backend, err)
	}
	for _, q := range createTableQueries(backend) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	s := &SQLStore{db: db, backend: backend, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.updater.start(ctx, s.opts.metricsUpdateInterval, s.Count)
	return s, nil
}

func createTableQueries(backend Backend) []string {
	switch backend {
	case BackendMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (
				id VARCHAR(128) PRIMARY KEY,
				email VARCHAR(320) NOT NULL,
				full_name VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS ` + recordsTable + ` (
				seq BIGINT AUTO_INCREMENT PRIMARY KEY,
				id VARCHAR(64) NOT NULL,
				user_id VARCHAR(128) NOT NULL,
				modality VARCHAR(64) NOT NULL,
				raw_label TEXT NOT NULL,
				raw_score TEXT NOT NULL,
				source_name TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				age INT NOT NULL,
				sex VARCHAR(32) NOT NULL,
				notes TEXT NOT NULL,
				UNIQUE KEY uq_records_user_id (user_id, id),
				INDEX idx_records_user (user_id, created_at)
			)`,
		}
	case BackendPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				full_name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS ` + recordsTable + ` (
				seq BIGSERIAL PRIMARY KEY,
				id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				modality TEXT NOT NULL,
				raw_label TEXT NOT NULL,
				raw_score TEXT NOT NULL,
				source_name TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				age INTEGER NOT NULL,
				sex TEXT NOT NULL,
				notes TEXT NOT NULL,
				UNIQUE (user_id, id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_records_user ON ` + recordsTable + ` (user_id, created_at)`,
		}
	default: // SQLite
		return []string{
			`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				full_name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS ` + recordsTable + ` (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				modality TEXT NOT NULL,
				raw_label TEXT NOT NULL,
				raw_score TEXT NOT NULL,
				source_name TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				age INTEGER NOT NULL,
				sex TEXT NOT NULL,
				notes TEXT NOT NULL,
				UNIQUE (user_id, id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_records_user ON ` + recordsTable + ` (user_id, created_at)`,
		}
	}
}

// bind rewrites ? placeholders for backends that number them.
func (s *SQLStore) bind(q string) string {
	if s.backend != BackendPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) upsertUserQuery() string {
	switch s.backend {
	case BackendMySQL:
		return `INSERT INTO ` + usersTable + ` (id, email, full_name) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE email = new.email, full_name = new.full_name`
	case BackendPostgres:
		return `INSERT INTO ` + usersTable + ` (id, email, full_name) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, full_name = EXCLUDED.full_name`
	default:
		return `INSERT INTO ` + usersTable + ` (id, email, full_name) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET email = excluded.email, full_name = excluded.full_name`
	}
}

func (s *SQLStore) PutUser(ctx context.Context, u model.User) error {
	defer observe("put_user", time.Now())
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required: %w", ErrInvalidRecord)
	}
	if _, err := s.db.ExecContext(ctx, s.upsertUserQuery(), u.ID, u.Email, u.FullName); err != nil {
		return fmt.Errorf("put user %q: %w", u.ID, err)
	}
	return nil
}

func (s *SQLStore) User(ctx context.Context, id string) (model.User, error) {
	u := model.User{ID: id}
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT email, full_name FROM `+usersTable+` WHERE id = ?`), id)
	if err := row.Scan(&u.Email, &u.FullName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user %q: %w", id, err)
	}
	return u, nil
}

const recordColumns = `id, user_id, modality, raw_label, raw_score, source_name, created_at, age, sex, notes`

func (s *SQLStore) AddRecord(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error) {
	defer observe("add", time.Now())
	if strings.TrimSpace(r.UserID) == "" {
		return model.PredictionRecord{}, fmt.Errorf("user id is required: %w", ErrInvalidRecord)
	}
	r = r.Canonical()
	if r.ID == "" {
		r.ID = s.opts.newID()
	}
	q := `INSERT INTO ` + recordsTable + ` (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if s.backend != BackendMySQL {
		q += ` ON CONFLICT (user_id, id) DO NOTHING`
	}
	res, err := s.db.ExecContext(ctx, s.bind(q),
		r.ID, r.UserID, string(r.Modality), r.RawLabel, r.RawScore, r.SourceName,
		r.CreatedAt.UnixNano(), r.Age, r.Sex, r.Notes,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return model.PredictionRecord{}, ErrDuplicate
		}
		return model.PredictionRecord{}, fmt.Errorf("add record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.PredictionRecord{}, ErrDuplicate
	}
	// round-trip through the column so callers see what a later read returns
	r.CreatedAt = time.Unix(0, r.CreatedAt.UnixNano()).UTC()
	return r, nil
}

func (s *SQLStore) Records(ctx context.Context, userID string) ([]model.PredictionRecord, error) {
	defer observe("list", time.Now())
	q := s.bind(`SELECT ` + recordColumns + ` FROM ` + recordsTable +
		` WHERE user_id = ? ORDER BY created_at DESC, seq DESC`)
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []model.PredictionRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Record(ctx context.Context, userID, id string) (model.PredictionRecord, error) {
	q := s.bind(`SELECT ` + recordColumns + ` FROM ` + recordsTable + ` WHERE user_id = ? AND id = ?`)
	r, err := scanRecord(s.db.QueryRowContext(ctx, q, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.PredictionRecord{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.PredictionRecord, error) {
	var (
		r        model.PredictionRecord
		modality string
		created  int64
	)
	err := sc.Scan(&r.ID, &r.UserID, &modality, &r.RawLabel, &r.RawScore, &r.SourceName, &created, &r.Age, &r.Sex, &r.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan record: %w", err)
	}
	r.Modality = model.Modality(modality)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+recordsTable).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close stops the metrics updater and closes the database.
func (s *SQLStore) Close() error {
	s.updater.stop()
	return s.db.Close()
}
