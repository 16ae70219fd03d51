package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
	"github.com/sjawhar/transcript-viewer/internal/session"
)

var _ session.Store = (*SQLiteStore)(nil)

// ErrNotFound is returned when an archived session does not exist.
var ErrNotFound = errors.New("archived session not found")

// Session is one archived, completed recording.
type Session struct {
	ID            string                `json:"id"`
	Target        string                `json:"meeting_target"`
	StartedAt     time.Time             `json:"started_at"`
	EndedAt       time.Time             `json:"ended_at"`
	Utterances    int                   `json:"utterances"`
	Summary       string                `json:"summary"`
	SummaryStatus session.SummaryStatus `json:"summary_status"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("archive db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			summary_status TEXT NOT NULL DEFAULT 'pending'
		);
	`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS utterances (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			utterance_id TEXT NOT NULL,
			speaker_id TEXT NOT NULL,
			speaker_name TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			linked TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY(session_id, position),
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create utterances table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at)"); err != nil {
		return fmt.Errorf("create sessions index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// ArchiveSession stores a completed session and its transcript in one transaction.
func (s *SQLiteStore) ArchiveSession(id, target string, startedAt, endedAt time.Time, transcript meeting.Transcript) (err error) {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive %s: %w", id, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(
		`INSERT INTO sessions(id, target, started_at, ended_at, summary_status) VALUES(?, ?, ?, ?, ?)`,
		id,
		target,
		startedAt.UTC().Format(time.RFC3339Nano),
		endedAt.UTC().Format(time.RFC3339Nano),
		session.SummaryPending,
	); err != nil {
		return fmt.Errorf("archive session %s: %w", id, err)
	}

	for i, u := range transcript {
		tags, mErr := json.Marshal(u.Tags)
		if mErr != nil {
			return fmt.Errorf("encode tags for utterance %s: %w", u.ID, mErr)
		}
		linked, mErr := json.Marshal(u.LinkedUtterances)
		if mErr != nil {
			return fmt.Errorf("encode links for utterance %s: %w", u.ID, mErr)
		}

		if _, err = tx.Exec(
			`INSERT INTO utterances(session_id, position, utterance_id, speaker_id, speaker_name, text, timestamp, tags, linked)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, u.ID, u.SpeakerID, u.SpeakerName, strings.TrimSpace(u.Text), u.Timestamp, string(tags), string(linked),
		); err != nil {
			return fmt.Errorf("archive utterance %s for session %s: %w", u.ID, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSummary(id, summary string, status session.SummaryStatus) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET summary = ?, summary_status = ? WHERE id = ?`,
		summary,
		status,
		id,
	)
	if err != nil {
		return fmt.Errorf("update summary for session %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update summary rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSessions returns archived sessions, newest first.
func (s *SQLiteStore) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.target, s.started_at, s.ended_at, s.summary, s.summary_status,
		        (SELECT COUNT(*) FROM utterances u WHERE u.session_id = s.id)
		 FROM sessions s
		 ORDER BY s.ended_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]Session, 0, 16)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions rows: %w", err)
	}

	return sessions, nil
}

func (s *SQLiteStore) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(
		`SELECT s.id, s.target, s.started_at, s.ended_at, s.summary, s.summary_status,
		        (SELECT COUNT(*) FROM utterances u WHERE u.session_id = s.id)
		 FROM sessions s WHERE s.id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session %s: %w", id, err)
	}
	return sess, nil
}

// GetTranscript returns the archived transcript of a session in reveal order.
func (s *SQLiteStore) GetTranscript(id string) (meeting.Transcript, error) {
	rows, err := s.db.Query(
		`SELECT utterance_id, speaker_id, speaker_name, text, timestamp, tags, linked
		 FROM utterances
		 WHERE session_id = ?
		 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query utterances for session %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	transcript := make(meeting.Transcript, 0, 8)
	for rows.Next() {
		var u meeting.Utterance
		var tags, linked string
		if err := rows.Scan(&u.ID, &u.SpeakerID, &u.SpeakerName, &u.Text, &u.Timestamp, &tags, &linked); err != nil {
			return nil, fmt.Errorf("scan utterance for session %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(tags), &u.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for utterance %s: %w", u.ID, err)
		}
		if err := json.Unmarshal([]byte(linked), &u.LinkedUtterances); err != nil {
			return nil, fmt.Errorf("decode links for utterance %s: %w", u.ID, err)
		}
		if u.Tags == nil {
			u.Tags = []meeting.Tag{}
		}
		transcript = append(transcript, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utterance rows for session %s: %w", id, err)
	}

	return transcript, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var startedAt, endedAt string
	if err := row.Scan(&sess.ID, &sess.Target, &startedAt, &endedAt, &sess.Summary, &sess.SummaryStatus, &sess.Utterances); err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse started_at: %w", err)
	}
	sess.StartedAt = parsedStart

	parsedEnd, err := time.Parse(time.RFC3339Nano, endedAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse ended_at: %w", err)
	}
	sess.EndedAt = parsedEnd

	return sess, nil
}
