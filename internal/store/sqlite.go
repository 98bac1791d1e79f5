package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"FlightSentinel/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps subscribers and saved searches in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and creates missing tables.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// The recorder shares the file; wait on its write lock instead of failing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id                TEXT PRIMARY KEY,
			email             TEXT NOT NULL UNIQUE,
			unsubscribe_token TEXT NOT NULL UNIQUE,
			active            INTEGER NOT NULL DEFAULT 1,
			created_at        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS saved_searches (
			id              TEXT PRIMARY KEY,
			owner_email     TEXT NOT NULL,
			origin          TEXT NOT NULL,
			destination     TEXT NOT NULL,
			depart_date     TEXT NOT NULL,
			return_date     TEXT,
			adults          INTEGER NOT NULL DEFAULT 1,
			currency        TEXT,
			non_stop        INTEGER NOT NULL DEFAULT 0,
			cadence         TEXT NOT NULL,
			paused          INTEGER NOT NULL DEFAULT 0,
			last_sent_price REAL NOT NULL DEFAULT 0,
			last_sent_at    INTEGER NOT NULL DEFAULT 0,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_owner ON saved_searches(owner_email)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// AddSubscriber registers email, reactivating it if it had unsubscribed.
func (s *SQLiteStore) AddSubscriber(email string) (model.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.Subscriber{}, fmt.Errorf("invalid email %q", email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := model.Subscriber{
		ID:               uuid.NewString(),
		Email:            email,
		UnsubscribeToken: uuid.NewString(),
		Active:           true,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.Exec(`INSERT INTO subscribers (id, email, unsubscribe_token, active, created_at)
		VALUES (?,?,?,1,?)
		ON CONFLICT(email) DO UPDATE SET active = 1`,
		sub.ID, sub.Email, sub.UnsubscribeToken, sub.CreatedAt.Unix())
	if err != nil {
		return model.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return s.subscriberByEmail(email)
}

func (s *SQLiteStore) subscriberByEmail(email string) (model.Subscriber, error) {
	var sub model.Subscriber
	var active int
	var created int64
	err := s.db.QueryRow(`SELECT id, email, unsubscribe_token, active, created_at FROM subscribers WHERE email = ?`, email).
		Scan(&sub.ID, &sub.Email, &sub.UnsubscribeToken, &active, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, err
	}
	sub.Active = active == 1
	sub.CreatedAt = time.Unix(created, 0).UTC()
	return sub, nil
}

// Unsubscribe deactivates the subscriber owning token.
func (s *SQLiteStore) Unsubscribe(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE subscribers SET active = 0 WHERE unsubscribe_token = ?`, token)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return expectRow(res)
}

func (s *SQLiteStore) ListActiveSubscribers() ([]model.Subscriber, error) {
	rows, err := s.db.Query(`SELECT id, email, unsubscribe_token, created_at FROM subscribers WHERE active = 1 ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		sub := model.Subscriber{Active: true}
		var created int64
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.UnsubscribeToken, &created); err != nil {
			return nil, err
		}
		sub.CreatedAt = time.Unix(created, 0).UTC()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) CreateSavedSearch(ss model.SavedSearch) (model.SavedSearch, error) {
	if err := validateSearch(ss); err != nil {
		return model.SavedSearch{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	ss.ID = uuid.NewString()
	ss.CreatedAt = now
	ss.UpdatedAt = now
	if ss.Cadence == "" {
		ss.Cadence = model.CadenceWeekly
	}
	_, err := s.db.Exec(`INSERT INTO saved_searches
		(id, owner_email, origin, destination, depart_date, return_date, adults, currency, non_stop,
		 cadence, paused, last_sent_price, last_sent_at, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ss.ID, ss.OwnerEmail, ss.Params.Origin, ss.Params.Destination, ss.Params.DepartDate,
		ss.Params.ReturnDate, ss.Params.Adults, ss.Params.Currency, boolInt(ss.Params.NonStop),
		string(ss.Cadence), boolInt(ss.Paused), ss.LastSentPrice, unixOrZero(ss.LastSentAt),
		ss.CreatedAt.Unix(), ss.UpdatedAt.Unix(),
	)
	if err != nil {
		return model.SavedSearch{}, fmt.Errorf("insert saved search: %w", err)
	}
	return ss, nil
}

const savedSearchColumns = `id, owner_email, origin, destination, depart_date, return_date, adults, currency,
	non_stop, cadence, paused, last_sent_price, last_sent_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSavedSearch(row scanner) (model.SavedSearch, error) {
	var ss model.SavedSearch
	var ret, currency sql.NullString
	var cadence string
	var nonStop, paused int
	var lastSent, created, updated int64
	err := row.Scan(&ss.ID, &ss.OwnerEmail, &ss.Params.Origin, &ss.Params.Destination, &ss.Params.DepartDate,
		&ret, &ss.Params.Adults, &currency, &nonStop, &cadence, &paused, &ss.LastSentPrice,
		&lastSent, &created, &updated)
	if err != nil {
		return ss, err
	}
	ss.Params.ReturnDate = ret.String
	ss.Params.Currency = currency.String
	ss.Params.NonStop = nonStop == 1
	ss.Cadence = model.Cadence(cadence)
	ss.Paused = paused == 1
	if lastSent > 0 {
		ss.LastSentAt = time.Unix(lastSent, 0).UTC()
	}
	ss.CreatedAt = time.Unix(created, 0).UTC()
	ss.UpdatedAt = time.Unix(updated, 0).UTC()
	return ss, nil
}

func (s *SQLiteStore) GetSavedSearch(id string) (model.SavedSearch, error) {
	ss, err := scanSavedSearch(s.db.QueryRow(`SELECT `+savedSearchColumns+` FROM saved_searches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ss, ErrNotFound
	}
	return ss, err
}

// ListSavedSearches returns the searches of ownerEmail, or all when empty.
func (s *SQLiteStore) ListSavedSearches(ownerEmail string) ([]model.SavedSearch, error) {
	query := `SELECT ` + savedSearchColumns + ` FROM saved_searches`
	var args []any
	if ownerEmail != "" {
		query += ` WHERE owner_email = ?`
		args = append(args, ownerEmail)
	}
	query += ` ORDER BY created_at, id`
	return s.querySearches(query, args...)
}

func (s *SQLiteStore) querySearches(query string, args ...any) ([]model.SavedSearch, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()
	var out []model.SavedSearch
	for rows.Next() {
		ss, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// UpdateSavedSearch replaces the search parameters, cadence and pause flag.
func (s *SQLiteStore) UpdateSavedSearch(ss model.SavedSearch) error {
	if err := validateSearch(ss); err != nil {
		return err
	}
	if ss.Cadence == "" {
		ss.Cadence = model.CadenceWeekly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE saved_searches SET
		owner_email = ?, origin = ?, destination = ?, depart_date = ?, return_date = ?, adults = ?,
		currency = ?, non_stop = ?, cadence = ?, paused = ?, updated_at = ?
		WHERE id = ?`,
		ss.OwnerEmail, ss.Params.Origin, ss.Params.Destination, ss.Params.DepartDate, ss.Params.ReturnDate,
		ss.Params.Adults, ss.Params.Currency, boolInt(ss.Params.NonStop), string(ss.Cadence),
		boolInt(ss.Paused), time.Now().Unix(), ss.ID,
	)
	if err != nil {
		return fmt.Errorf("update saved search: %w", err)
	}
	return expectRow(res)
}

func (s *SQLiteStore) DeleteSavedSearch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM saved_searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	return expectRow(res)
}

func (s *SQLiteStore) SetPaused(id string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE saved_searches SET paused = ?, updated_at = ? WHERE id = ?`,
		boolInt(paused), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return expectRow(res)
}

// DueSavedSearches returns unpaused searches whose cadence has elapsed at now.
func (s *SQLiteStore) DueSavedSearches(now time.Time) ([]model.SavedSearch, error) {
	all, err := s.querySearches(`SELECT ` + savedSearchColumns + ` FROM saved_searches WHERE paused = 0 ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	due := all[:0]
	for _, ss := range all {
		if ss.IsDue(now) {
			due = append(due, ss)
		}
	}
	return due, nil
}

// MarkSent records the price and time of the last notification for id.
func (s *SQLiteStore) MarkSent(id string, price float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE saved_searches SET last_sent_price = ?, last_sent_at = ? WHERE id = ?`,
		price, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return expectRow(res)
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

func validateSearch(ss model.SavedSearch) error {
	switch {
	case ss.OwnerEmail == "":
		return fmt.Errorf("saved search owner email is required")
	case ss.Params.Origin == "" || ss.Params.Destination == "":
		return fmt.Errorf("saved search origin and destination are required")
	case ss.Params.DepartDate == "":
		return fmt.Errorf("saved search depart date is required")
	case ss.Cadence != "" && ss.Cadence != model.CadenceDaily && ss.Cadence != model.CadenceWeekly:
		return fmt.Errorf("unknown cadence %q", ss.Cadence)
	}
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
