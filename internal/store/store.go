// Package store provides persistent session, transcript, and chat
// history storage. Each processed video gets a session row; its
// transcript and the back-and-forth with models hang off that session.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vidsage/vidsage/internal/transcript"
)

// Session represents one processed video and its conversation scope.
type Session struct {
	ID        string    `json:"id"`
	VideoURL  string    `json:"video_url"`
	VideoID   string    `json:"video_id"`
	Platform  string    `json:"platform"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one chat history entry within a session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ModelID   string    `json:"model_id,omitempty"`
	QueryType string    `json:"query_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed persistence layer. All public methods are
// safe for concurrent use (SQLite serializes writes).
type Store struct {
	db *sql.DB
}

// NewStore creates a store at the given database path. The schema is
// created automatically on first use.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		video_url  TEXT NOT NULL,
		video_id   TEXT NOT NULL,
		platform   TEXT NOT NULL,
		title      TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transcripts (
		session_id    TEXT PRIMARY KEY REFERENCES sessions(id),
		language      TEXT,
		source        TEXT NOT NULL,
		duration      REAL NOT NULL,
		segment_count INTEGER NOT NULL,
		segments      TEXT NOT NULL,
		fetched_at    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chat_messages (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		model_id   TEXT,
		query_type TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_video ON sessions(video_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateSession persists a session. If sess.ID is empty, a UUIDv7 is
// generated. Returns the stored session.
func (s *Store) CreateSession(ctx context.Context, sess Session) (*Session, error) {
	if sess.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate session ID: %w", err)
		}
		sess.ID = id.String()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, video_url, video_id, platform, title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.VideoURL,
		sess.VideoID,
		sess.Platform,
		sess.Title,
		sess.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &sess, nil
}

// GetSession loads a session by ID. Returns nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, video_url, video_id, platform, title, created_at
		 FROM sessions WHERE id = ?`, id)

	var sess Session
	var created string
	err := row.Scan(&sess.ID, &sess.VideoURL, &sess.VideoID, &sess.Platform, &sess.Title, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &sess, nil
}

// SaveTranscript persists a session's transcript, replacing any
// previous one. Segments are stored as JSON.
func (s *Store) SaveTranscript(ctx context.Context, sessionID string, tr *transcript.Transcript) error {
	segments, err := json.Marshal(tr.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transcripts
			(session_id, language, source, duration, segment_count, segments, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		tr.Language,
		tr.Source,
		tr.TotalDurationSeconds,
		len(tr.Segments),
		string(segments),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// GetTranscript loads a session's transcript. Returns nil when the
// session has none.
func (s *Store) GetTranscript(ctx context.Context, sessionID string) (*transcript.Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT language, source, segments FROM transcripts WHERE session_id = ?`, sessionID)

	var language, source, segmentsJSON string
	err := row.Scan(&language, &source, &segmentsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}

	var segments []transcript.Segment
	if err := json.Unmarshal([]byte(segmentsJSON), &segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	return transcript.New(segments, language, source), nil
}

// AppendMessage persists one chat history entry. If msg.ID is empty, a
// UUIDv7 is generated.
func (s *Store) AppendMessage(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate message ID: %w", err)
		}
		msg.ID = id.String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, model_id, query_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.ModelID,
		msg.QueryType,
		msg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// History returns a session's chat messages in insertion order, up to
// limit entries (0 means no limit).
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `SELECT id, session_id, role, content, model_id, query_type, created_at
	          FROM chat_messages WHERE session_id = ? ORDER BY created_at, id`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var created string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ModelID, &msg.QueryType, &created); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, msg)
	}
	return out, rows.Err()
}
