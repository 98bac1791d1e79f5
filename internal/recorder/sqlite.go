package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS digest_picks (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			origin           TEXT,
			destination      TEXT,
			profile          TEXT,
			offer_key        TEXT,
			price            REAL,
			currency         TEXT,
			duration_minutes INTEGER,
			stops            INTEGER,
			airline          TEXT,
			score            REAL,
			outlier          TEXT,
			candidates       INTEGER,
			recipients       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_ts ON digest_picks(timestamp)`,

		`CREATE TABLE IF NOT EXISTS saved_search_alerts (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			saved_search_id  TEXT,
			owner_email      TEXT,
			destination      TEXT,
			price            REAL,
			previous_price   REAL,
			currency         TEXT,
			duration_minutes INTEGER,
			stops            INTEGER,
			score            REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_ts ON saved_search_alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDigest(rec *DigestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := rec.Pick
	_, err := r.db.Exec(`INSERT INTO digest_picks
		(timestamp, origin, destination, profile, offer_key, price, currency,
		 duration_minutes, stops, airline, score, outlier, candidates, recipients)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Origin, p.Destination, rec.Profile, p.Key, p.Price, p.Currency,
		p.DurationMinutes, p.Stops, p.Airline, p.Score, p.Outlier, rec.Candidates, rec.Recipients,
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(rec *AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := rec.Pick
	_, err := r.db.Exec(`INSERT INTO saved_search_alerts
		(timestamp, saved_search_id, owner_email, destination, price, previous_price, currency,
		 duration_minutes, stops, score)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.SavedSearchID, rec.OwnerEmail, p.Destination, p.Price, rec.PreviousPrice,
		p.Currency, p.DurationMinutes, p.Stops, p.Score,
	)
	return err
}

// RecentDigests returns up to limit digest picks, newest first.
func (r *SQLiteRecorder) RecentDigests(limit int) ([]DigestRecord, error) {
	rows, err := r.db.Query(`SELECT origin, destination, profile, offer_key, price, currency,
		duration_minutes, stops, airline, score, outlier, candidates, recipients
		FROM digest_picks ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer rows.Close()

	var out []DigestRecord
	for rows.Next() {
		var rec DigestRecord
		p := &rec.Pick
		if err := rows.Scan(&rec.Origin, &p.Destination, &rec.Profile, &p.Key, &p.Price, &p.Currency,
			&p.DurationMinutes, &p.Stops, &p.Airline, &p.Score, &p.Outlier, &rec.Candidates, &rec.Recipients); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
