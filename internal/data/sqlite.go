package data

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"etf-grid-backtest/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
`

// Store persists bar history per symbol in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the bar database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open bar store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bar store schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBars upserts a symbol's history; re-imports overwrite in place.
func (s *Store) SaveBars(symbol string, bars model.Series) error {
	if err := bars.Validate(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close); err != nil {
			tx.Rollback()
			return fmt.Errorf("save bar %s %s: %w", symbol, b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// LoadBars reads a symbol's history ordered by date. Zero start or end
// leaves that side of the range open.
func (s *Store) LoadBars(symbol string, start, end time.Time) (model.Series, error) {
	query := `SELECT date, open, high, low, close FROM bars WHERE symbol = ?`
	args := []any{symbol}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.Format("2006-01-02"))
	}
	query += ` ORDER BY date`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars model.Series
	for rows.Next() {
		var dateStr string
		var b model.Bar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, err
		}
		if b.Date, err = time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("%w: stored date %q", model.ErrBadData, dateStr)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// Symbols lists the symbols with stored history.
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
