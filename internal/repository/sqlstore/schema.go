package sqlstore

import (
	"context"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent and
// uses only types and clauses SQLite and PostgreSQL both accept.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL UNIQUE,
			password_hash   TEXT NOT NULL,
			role            TEXT NOT NULL CHECK (role IN ('volunteer', 'ngo', 'admin')),
			profile_picture TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`},
	{"ngo_profiles", `
		CREATE TABLE IF NOT EXISTS ngo_profiles (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL
		)`},
	{"volunteer_profiles", `
		CREATE TABLE IF NOT EXISTS volunteer_profiles (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			skills       TEXT NOT NULL DEFAULT '',
			availability TEXT NOT NULL DEFAULT '',
			total_hours  INTEGER NOT NULL DEFAULT 0,
			resume_pdf   TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		)`},
	{"events", `
		CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			ngo_id       TEXT NOT NULL REFERENCES ngo_profiles(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			location     TEXT NOT NULL DEFAULT '',
			date         TIMESTAMP NOT NULL,
			poster_image TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		)`},
	{"events_ngo_id_idx", `CREATE INDEX IF NOT EXISTS idx_events_ngo_id ON events(ngo_id)`},
	{"events_date_idx", `CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`},
	{"event_attendees", `
		CREATE TABLE IF NOT EXISTS event_attendees (
			id           TEXT PRIMARY KEY,
			event_id     TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			volunteer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status       TEXT NOT NULL DEFAULT 'attending' CHECK (status IN ('attending', 'not attending')),
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL,
			UNIQUE (event_id, volunteer_id)
		)`},
	{"event_attendees_volunteer_idx", `CREATE INDEX IF NOT EXISTS idx_event_attendees_volunteer_id ON event_attendees(volunteer_id)`},
	{"volunteer_opportunities", `
		CREATE TABLE IF NOT EXISTS volunteer_opportunities (
			id           TEXT PRIMARY KEY,
			ngo_id       TEXT NOT NULL REFERENCES ngo_profiles(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			location     TEXT NOT NULL DEFAULT '',
			date         TIMESTAMP NOT NULL,
			requirements TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMP NOT NULL,
			updated_at   TIMESTAMP NOT NULL
		)`},
	{"volunteer_opportunities_ngo_id_idx", `CREATE INDEX IF NOT EXISTS idx_volunteer_opportunities_ngo_id ON volunteer_opportunities(ngo_id)`},
	{"volunteer_applications", `
		CREATE TABLE IF NOT EXISTS volunteer_applications (
			id             TEXT PRIMARY KEY,
			opportunity_id TEXT NOT NULL REFERENCES volunteer_opportunities(id) ON DELETE CASCADE,
			volunteer_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
			hours_worked   INTEGER NOT NULL DEFAULT 0 CHECK (hours_worked >= 0),
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP NOT NULL,
			UNIQUE (opportunity_id, volunteer_id)
		)`},
	{"volunteer_applications_volunteer_idx", `CREATE INDEX IF NOT EXISTS idx_volunteer_applications_volunteer_id ON volunteer_applications(volunteer_id)`},
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func (db *DB) Migrate(ctx context.Context) error {
	for _, step := range schema {
		if _, err := db.conn.ExecContext(ctx, step.ddl); err != nil {
			return fmt.Errorf("sqlstore: migrating %s: %w", step.name, err)
		}
	}
	return nil
}
