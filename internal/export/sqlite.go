package export

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/bake"
)

// SQLiteWriter stores baked orbits in a SQLite database. Writing an orbit
// whose name already exists replaces it.
type SQLiteWriter struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	w := &SQLiteWriter{db: db}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return w, nil
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func (w *SQLiteWriter) migrate() error {
	_, err := w.db.Exec(`
	CREATE TABLE IF NOT EXISTS orbits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		period REAL NOT NULL,
		energy REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS components (
		orbit_id INTEGER NOT NULL,
		body INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		freq REAL NOT NULL,
		amplitude REAL NOT NULL,
		phase REAL NOT NULL,
		PRIMARY KEY (orbit_id, body, idx),
		FOREIGN KEY(orbit_id) REFERENCES orbits(id) ON DELETE CASCADE
	);
	`)
	return err
}

// Write stores all orbits in one transaction: either every orbit is
// written or none is.
func (w *SQLiteWriter) Write(ctx context.Context, orbits []bake.BakedOrbit) error {
	if err := CheckFinite(orbits); err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertComponent, err := tx.PrepareContext(ctx,
		"INSERT INTO components (orbit_id, body, idx, freq, amplitude, phase) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare component insert: %w", err)
	}
	defer insertComponent.Close()

	for _, o := range orbits {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM components WHERE orbit_id IN (SELECT id FROM orbits WHERE name = ?)", o.Name); err != nil {
			return fmt.Errorf("failed to replace orbit %q: %w", o.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM orbits WHERE name = ?", o.Name); err != nil {
			return fmt.Errorf("failed to replace orbit %q: %w", o.Name, err)
		}

		var energy sql.NullFloat64
		if o.Energy != nil {
			energy = sql.NullFloat64{Float64: *o.Energy, Valid: true}
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO orbits (name, period, energy) VALUES (?, ?, ?)", o.Name, o.Period, energy)
		if err != nil {
			return fmt.Errorf("failed to insert orbit %q: %w", o.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read orbit id: %w", err)
		}

		for b, body := range o.Bodies {
			for k, c := range body.Components {
				if _, err := insertComponent.ExecContext(ctx, id, b, k, c.Freq, c.Amplitude, c.Phase); err != nil {
					return fmt.Errorf("failed to insert component %d of body %d: %w", k, b, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// ReadAll loads every stored orbit ordered by name, the inverse of Write
// for checking a database after export. Bodies without components are not
// stored and so do not come back.
func (w *SQLiteWriter) ReadAll(ctx context.Context) ([]bake.BakedOrbit, error) {
	rows, err := w.db.QueryContext(ctx, "SELECT id, name, period, energy FROM orbits ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to load orbits: %w", err)
	}
	defer rows.Close()

	var (
		orbits []bake.BakedOrbit
		ids    []int64
	)
	for rows.Next() {
		var (
			o      bake.BakedOrbit
			id     int64
			energy sql.NullFloat64
		)
		if err := rows.Scan(&id, &o.Name, &o.Period, &energy); err != nil {
			return nil, fmt.Errorf("failed to scan orbit: %w", err)
		}
		if energy.Valid {
			e := energy.Float64
			o.Energy = &e
		}
		orbits = append(orbits, o)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orbits: %w", err)
	}
	rows.Close()

	for i, id := range ids {
		bodies, err := w.readComponents(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("orbit %q: %w", orbits[i].Name, err)
		}
		orbits[i].Bodies = bodies
	}
	return orbits, nil
}

func (w *SQLiteWriter) readComponents(ctx context.Context, orbitID int64) ([]analysis.Body, error) {
	rows, err := w.db.QueryContext(ctx,
		"SELECT body, freq, amplitude, phase FROM components WHERE orbit_id = ? ORDER BY body, idx", orbitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}
	defer rows.Close()

	var bodies []analysis.Body
	for rows.Next() {
		var (
			body int
			c    analysis.FrequencyComponent
		)
		if err := rows.Scan(&body, &c.Freq, &c.Amplitude, &c.Phase); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		for len(bodies) <= body {
			bodies = append(bodies, analysis.Body{})
		}
		bodies[body].Components = append(bodies[body].Components, c)
	}
	return bodies, rows.Err()
}
