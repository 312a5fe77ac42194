package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/amishk599/gigradar/internal/model"
)

// ScamScoreThreshold is the score below which stats count a job as scam-like.
const ScamScoreThreshold = 40

const jobColumns = `id, title, platform, url, description, rate, client_verified, client_spent,
	proposals, posted_date, score, priority, is_scam, red_flags, why_match, job_type, strategy,
	notified, created_at`

// SQLStore persists jobs and run stats in SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open opens the store for driver "sqlite" or "postgres" and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLStore, error) {
	db, err := sql.Open(sqliteDialect.driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer avoids SQLITE_BUSY between the scheduler and the API.
	db.SetMaxOpenConns(1)
	return openWith(ctx, db, sqliteDialect)
}

// NewPostgresStore connects to Postgres through the pgx database/sql driver.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	return openWith(ctx, db, postgresDialect)
}

func openWith(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", d.name, err)
	}
	s := newSQLStore(db, d)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, now: time.Now}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating %s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

// Exists reports whether a job with the given ID is stored.
func (s *SQLStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT 1 FROM jobs WHERE id = ?"), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking job %s: %w", id, err)
	}
	return true, nil
}

// Upsert inserts the job with its classification. An existing row is left
// untouched and reported as inserted=false.
func (s *SQLStore) Upsert(ctx context.Context, job model.Job, c model.Classification) (bool, error) {
	flags := c.RedFlags
	if flags == nil {
		flags = []string{}
	}
	redFlags, err := json.Marshal(flags)
	if err != nil {
		return false, fmt.Errorf("encoding red flags for %s: %w", job.ID, err)
	}

	query := s.dialect.rebind(`INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	res, err := s.db.ExecContext(ctx, query,
		job.ID, job.Title, job.Platform, job.URL, job.Description, job.Rate,
		boolToInt(job.ClientVerified), job.ClientSpent, job.Proposals, job.PostedDate,
		c.Score, string(c.Priority), boolToInt(c.IsScam), string(redFlags), c.WhyMatch,
		c.JobType, string(c.Strategy), 0, s.now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return n == 1, nil
}

// MarkNotified flips the notified flag. Nothing else about the row changes.
func (s *SQLStore) MarkNotified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind("UPDATE jobs SET notified = 1 WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("marking job %s notified: %w", id, err)
	}
	return nil
}

// RecordRun appends one row to the stats table.
func (s *SQLStore) RecordRun(ctx context.Context, st model.RunStats) error {
	date := st.Date
	if date.IsZero() {
		date = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`INSERT INTO stats
		(run_at, total_found, new_jobs, high_priority, medium_priority, scams_filtered, notified)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		date.UnixMilli(), st.TotalFound, st.New, st.High, st.Medium, st.Scams, st.Notified,
	)
	if err != nil {
		return fmt.Errorf("recording run stats: %w", err)
	}
	return nil
}

// CountSince counts jobs stored at or after since.
func (s *SQLStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM jobs WHERE created_at >= ?", since.UnixMilli())
}

// CountByPriority counts jobs of one priority stored at or after since.
func (s *SQLStore) CountByPriority(ctx context.Context, p model.Priority, since time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM jobs WHERE priority = ? AND created_at >= ?", string(p), since.UnixMilli())
}

// CountBelowScore counts jobs scored under threshold stored at or after since.
func (s *SQLStore) CountBelowScore(ctx context.Context, threshold int, since time.Time) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM jobs WHERE score < ? AND created_at >= ?", threshold, since.UnixMilli())
}

func (s *SQLStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return n, nil
}

// Stats aggregates the stats endpoint counters in one query.
func (s *SQLStore) Stats(ctx context.Context, since time.Time) (model.JobStats, error) {
	query := s.dialect.rebind(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN priority = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score < ? THEN 1 ELSE 0 END), 0)
		FROM jobs WHERE created_at >= ?`)

	var st model.JobStats
	err := s.db.QueryRowContext(ctx, query,
		string(model.PriorityHigh), string(model.PriorityMedium), ScamScoreThreshold, since.UnixMilli(),
	).Scan(&st.TotalJobs, &st.HighPriority, &st.MediumPriority, &st.ScamsFiltered)
	if err != nil {
		return model.JobStats{}, fmt.Errorf("aggregating stats: %w", err)
	}
	return st, nil
}

// Recent returns up to limit jobs, newest first. An empty priority selects
// every priority except skip.
func (s *SQLStore) Recent(ctx context.Context, limit int, p model.Priority) ([]model.StoredJob, error) {
	where, arg := "priority <> ?", string(model.PrioritySkip)
	if p != "" {
		where, arg = "priority = ?", string(p)
	}
	query := s.dialect.rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.StoredJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing recent jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(rows *sql.Rows) (model.StoredJob, error) {
	var (
		j                         model.StoredJob
		verified, scam, notified  int
		priority, strategy, flags string
		createdAt                 int64
	)
	err := rows.Scan(
		&j.ID, &j.Title, &j.Platform, &j.URL, &j.Description, &j.Rate, &verified, &j.ClientSpent,
		&j.Proposals, &j.PostedDate, &j.Score, &priority, &scam, &flags, &j.WhyMatch, &j.JobType,
		&strategy, &notified, &createdAt,
	)
	if err != nil {
		return model.StoredJob{}, fmt.Errorf("scanning job row: %w", err)
	}
	j.ClientVerified = verified != 0
	j.IsScam = scam != 0
	j.Notified = notified != 0
	j.Priority = model.Priority(priority)
	j.Strategy = model.Strategy(strategy)
	j.CreatedAt = time.UnixMilli(createdAt)
	if err := json.Unmarshal([]byte(flags), &j.RedFlags); err != nil {
		return model.StoredJob{}, fmt.Errorf("decoding red flags for %s: %w", j.ID, err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
