// Package sqlite provides a Store backed by a SQLite database file, for
// deployments where commitments must survive a restart.
package sqlite

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/matchfund/matchfund/go/store"

	_ "modernc.org/sqlite"
)

const busyTimeoutMs = 5000

// Store persists commitments in a single table keyed by (recipient, matcher).
// Amounts are stored as decimal strings since they exceed 64 bits.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMs))
	if err != nil {
		return nil, fmt.Errorf("open commitment db: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS commitments (
		recipient TEXT NOT NULL,
		matcher   TEXT NOT NULL,
		amount    TEXT NOT NULL,
		PRIMARY KEY (recipient, matcher)
	)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(recipient, matcher string) (*big.Int, bool, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT amount FROM commitments WHERE recipient = ? AND matcher = ?`,
		recipient, matcher,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read commitment: %w", err)
	}
	amt, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, false, fmt.Errorf("corrupt amount %q for %s/%s", raw, recipient, matcher)
	}
	return amt, true, nil
}

func (s *Store) Put(recipient, matcher string, amount *big.Int) error {
	_, err := s.db.Exec(
		`INSERT INTO commitments (recipient, matcher, amount) VALUES (?, ?, ?)
		 ON CONFLICT (recipient, matcher) DO UPDATE SET amount = excluded.amount`,
		recipient, matcher, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("write commitment: %w", err)
	}
	return nil
}

func (s *Store) Delete(recipient, matcher string) error {
	_, err := s.db.Exec(`DELETE FROM commitments WHERE recipient = ? AND matcher = ?`, recipient, matcher)
	if err != nil {
		return fmt.Errorf("delete commitment: %w", err)
	}
	return nil
}

func (s *Store) Matchers(recipient string) ([]string, error) {
	rows, err := s.db.Query(`SELECT matcher FROM commitments WHERE recipient = ? ORDER BY matcher`, recipient)
	if err != nil {
		return nil, fmt.Errorf("list matchers: %w", err)
	}
	defer rows.Close()

	var matchers []string
	for rows.Next() {
		var matcher string
		if err := rows.Scan(&matcher); err != nil {
			return nil, fmt.Errorf("scan matcher: %w", err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, rows.Err()
}

func (s *Store) DeleteBucket(recipient string) error {
	_, err := s.db.Exec(`DELETE FROM commitments WHERE recipient = ?`, recipient)
	if err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
