package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/haven-sec/rehearse/internal/types"
)

// migration is a single versioned schema change.
type migration struct {
	version int
	name    string
	up      string
}

// schemaMigrations returns the full ordered migration set. The sessions
// table stores the canonical JSON document whole; rowid gives the strict
// creation order that timestamp precision cannot.
func schemaMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "create_incidents",
			up: `
				CREATE TABLE IF NOT EXISTS incidents (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					incident_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					status TEXT NOT NULL,
					affected_endpoints TEXT NOT NULL DEFAULT '[]',
					mitre_tactics TEXT NOT NULL DEFAULT '[]',
					created_at TIMESTAMP NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents(created_at);
			`,
		},
		{
			version: 2,
			name:    "create_sessions",
			up: `
				-- No FK to incidents: the file backend accepts a session
				-- whose incident record arrives later, so this backend
				-- must as well.
				CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY,
					incident_id TEXT NOT NULL,
					document TEXT NOT NULL,
					status TEXT NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_sessions_incident ON sessions(incident_id);
			`,
		},
		{
			version: 3,
			name:    "create_alerts",
			up: `
				CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					incident_id TEXT NOT NULL,
					source TEXT NOT NULL,
					title TEXT NOT NULL,
					severity TEXT NOT NULL,
					raised_at TIMESTAMP NOT NULL,
					FOREIGN KEY (incident_id) REFERENCES incidents(id)
				);
				CREATE INDEX IF NOT EXISTS idx_alerts_incident ON alerts(incident_id, raised_at);
			`,
		},
		{
			version: 4,
			name:    "create_endpoints",
			up: `
				CREATE TABLE IF NOT EXISTS endpoints (
					id TEXT NOT NULL,
					incident_id TEXT NOT NULL,
					hostname TEXT NOT NULL,
					ip_address TEXT NOT NULL,
					os TEXT NOT NULL,
					isolated INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (incident_id, id),
					FOREIGN KEY (incident_id) REFERENCES incidents(id)
				);
			`,
		},
		{
			version: 5,
			name:    "create_logs",
			up: `
				CREATE TABLE IF NOT EXISTS logs (
					id TEXT PRIMARY KEY,
					incident_id TEXT NOT NULL,
					source TEXT NOT NULL,
					message TEXT NOT NULL,
					timestamp TIMESTAMP NOT NULL,
					FOREIGN KEY (incident_id) REFERENCES incidents(id)
				);
				CREATE INDEX IF NOT EXISTS idx_logs_incident ON logs(incident_id, timestamp);
			`,
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations
}

// migrate applies pending migrations in version order.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return types.WrapError(types.STORE_MIGRATION_FAILED, "failed to create migration table", err)
	}

	var current int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return types.WrapError(types.STORE_MIGRATION_FAILED, "failed to read schema version", err)
	}

	for _, mig := range schemaMigrations() {
		if mig.version <= current {
			continue
		}
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return types.WrapError(types.STORE_MIGRATION_FAILED,
				fmt.Sprintf("failed to begin migration %d", mig.version), err)
		}
		if _, err := tx.ExecContext(ctx, mig.up); err != nil {
			tx.Rollback()
			return types.WrapError(types.STORE_MIGRATION_FAILED,
				fmt.Sprintf("failed to apply migration %d (%s)", mig.version, mig.name), err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, mig.version, mig.name); err != nil {
			tx.Rollback()
			return types.WrapError(types.STORE_MIGRATION_FAILED,
				fmt.Sprintf("failed to record migration %d", mig.version), err)
		}
		if err := tx.Commit(); err != nil {
			return types.WrapError(types.STORE_MIGRATION_FAILED,
				fmt.Sprintf("failed to commit migration %d", mig.version), err)
		}
	}
	return nil
}
