package store

import (
	"strconv"
	"strings"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name     string
	driver   string // database/sql driver name
	statsKey string // primary key column definition for the stats table
	numbered bool   // $1-style placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite",
		statsKey: "id INTEGER PRIMARY KEY AUTOINCREMENT",
	}
	postgresDialect = dialect{
		name:     "postgres",
		driver:   "pgx",
		statsKey: "id BIGSERIAL PRIMARY KEY",
		numbered: true,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			platform        TEXT NOT NULL,
			url             TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			rate            TEXT NOT NULL DEFAULT '',
			client_verified INTEGER NOT NULL DEFAULT 0,
			client_spent    TEXT NOT NULL DEFAULT '',
			proposals       INTEGER NOT NULL DEFAULT 0,
			posted_date     TEXT NOT NULL DEFAULT '',
			score           INTEGER NOT NULL,
			priority        TEXT NOT NULL,
			is_scam         INTEGER NOT NULL DEFAULT 0,
			red_flags       TEXT NOT NULL DEFAULT '[]',
			why_match       TEXT NOT NULL DEFAULT '',
			job_type        TEXT NOT NULL DEFAULT '',
			strategy        TEXT NOT NULL DEFAULT '',
			notified        INTEGER NOT NULL DEFAULT 0,
			created_at      BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
		`CREATE TABLE IF NOT EXISTS stats (
			` + d.statsKey + `,
			run_at          BIGINT NOT NULL,
			total_found     INTEGER NOT NULL DEFAULT 0,
			new_jobs        INTEGER NOT NULL DEFAULT 0,
			high_priority   INTEGER NOT NULL DEFAULT 0,
			medium_priority INTEGER NOT NULL DEFAULT 0,
			scams_filtered  INTEGER NOT NULL DEFAULT 0,
			notified        INTEGER NOT NULL DEFAULT 0
		)`,
	}
}
