package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the journal database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	r := &SQLite{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[recorder] sqlite journal opened: %s", path)
	return r, nil
}

func (r *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			challenge_id      TEXT NOT NULL,
			user_id           TEXT NOT NULL,
			source            TEXT NOT NULL,
			status            TEXT NOT NULL,
			reason            TEXT,
			equity            TEXT NOT NULL,
			cash_balance      TEXT NOT NULL,
			daily_high_equity TEXT NOT NULL,
			transitioned      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_challenge ON evaluations(challenge_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS daily_resets (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			challenge_id    TEXT NOT NULL,
			equity          TEXT NOT NULL,
			prev_daily_high TEXT NOT NULL,
			prev_daily_pnl  TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLite) RecordEvaluation(e Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO evaluations
		(timestamp, challenge_id, user_id, source, status, reason, equity, cash_balance, daily_high_equity, transitioned)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.At.UnixMilli(), e.ChallengeID, e.UserID, e.Trigger, string(e.Status), e.Reason,
		e.Equity.String(), e.CashBalance.String(), e.DailyHighEquity.String(), e.Transitioned,
	)
	return err
}

func (r *SQLite) RecordReset(rs Reset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO daily_resets
		(timestamp, challenge_id, equity, prev_daily_high, prev_daily_pnl)
		VALUES (?,?,?,?,?)`,
		rs.At.UnixMilli(), rs.ChallengeID, rs.Equity.String(), rs.PrevDailyHigh.String(), rs.PrevDailyPnL.String(),
	)
	return err
}

// CountEvaluations returns how many evaluations were journaled for a challenge.
func (r *SQLite) CountEvaluations(challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM evaluations WHERE challenge_id = ?", challengeID).Scan(&n)
	return n, err
}

func (r *SQLite) Close() error {
	log.Println("[recorder] closing sqlite journal")
	return r.db.Close()
}
