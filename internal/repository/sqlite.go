package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_token TEXT PRIMARY KEY,
			conversation_count INTEGER NOT NULL DEFAULT 0,
			total_processing_ms INTEGER NOT NULL DEFAULT 0,
			mood_positive INTEGER NOT NULL DEFAULT 0,
			mood_negative INTEGER NOT NULL DEFAULT 0,
			mood_neutral INTEGER NOT NULL DEFAULT 0,
			first_interaction INTEGER NOT NULL,
			last_interaction INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			user_agent TEXT NOT NULL DEFAULT '',
			origin_hash TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			session_token TEXT NOT NULL,
			text TEXT NOT NULL,
			sentiment TEXT NOT NULL CHECK (sentiment IN ('POSITIVE', 'NEGATIVE', 'NEUTRAL', 'MIXED')),
			confidence_score REAL NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 1),
			recommendation TEXT NOT NULL,
			additional_tips TEXT NOT NULL DEFAULT '[]',
			processing_ms INTEGER NOT NULL CHECK (processing_ms >= 0),
			user_agent TEXT NOT NULL DEFAULT '',
			origin_hash TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_token, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_interaction ON sessions(last_interaction)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Feedback columns arrived after the first schema (SQLite has limited ALTER TABLE support).
	if err := s.ensureColumn("conversations", "helpful", "ALTER TABLE conversations ADD COLUMN helpful INTEGER"); err != nil {
		return err
	}
	if err := s.ensureColumn("conversations", "rating", "ALTER TABLE conversations ADD COLUMN rating INTEGER CHECK (rating BETWEEN 1 AND 5)"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendConversation inserts one ledger record.
func (s *SQLiteStore) AppendConversation(ctx context.Context, conv *domain.Conversation) error {
	tips, err := json.Marshal(conv.AdditionalTips)
	if err != nil {
		return fmt.Errorf("failed to marshal tips: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, session_token, text, sentiment, confidence_score, recommendation, additional_tips, processing_ms, user_agent, origin_hash, helpful, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.SessionToken, conv.Text, conv.Sentiment, conv.ConfidenceScore, conv.Recommendation, string(tips),
		conv.ProcessingTimeMs, conv.Client.UserAgent, conv.Client.OriginHash,
		nullBool(conv.Feedback.Helpful), nullInt(conv.Feedback.Rating), conv.CreatedAt.UnixMilli())
	return err
}

// ListConversations returns one page of a session's ledger, newest first,
// and the total number of records for the session.
func (s *SQLiteStore) ListConversations(ctx context.Context, sessionToken string, limit, offset int) ([]domain.Conversation, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE session_token = ?`, sessionToken).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, session_token, text, sentiment, confidence_score, recommendation, additional_tips, processing_ms, user_agent, origin_hash, helpful, rating, created_at
		FROM conversations WHERE session_token = ?
		ORDER BY created_at DESC, conversation_id DESC
		LIMIT ? OFFSET ?`,
		sessionToken, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		var conv domain.Conversation
		var tips string
		var helpful, rating sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&conv.ID, &conv.SessionToken, &conv.Text, &conv.Sentiment, &conv.ConfidenceScore, &conv.Recommendation,
			&tips, &conv.ProcessingTimeMs, &conv.Client.UserAgent, &conv.Client.OriginHash, &helpful, &rating, &createdAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal([]byte(tips), &conv.AdditionalTips); err != nil {
			return nil, 0, fmt.Errorf("failed to decode tips of %s: %w", conv.ID, err)
		}
		if helpful.Valid {
			v := helpful.Int64 != 0
			conv.Feedback.Helpful = &v
		}
		if rating.Valid {
			v := int(rating.Int64)
			conv.Feedback.Rating = &v
		}
		conv.CreatedAt = fromMillis(createdAt)
		conversations = append(conversations, conv)
	}
	return conversations, total, rows.Err()
}

// AggregateBySentiment groups a session's records created at or after since.
func (s *SQLiteStore) AggregateBySentiment(ctx context.Context, sessionToken string, since time.Time) (map[domain.Sentiment]domain.SentimentStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sentiment, COUNT(*), AVG(confidence_score) FROM conversations
		WHERE session_token = ? AND created_at >= ?
		GROUP BY sentiment`,
		sessionToken, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.Sentiment]domain.SentimentStat)
	for rows.Next() {
		var sentiment domain.Sentiment
		var stat domain.SentimentStat
		if err := rows.Scan(&sentiment, &stat.Count, &stat.AvgConfidence); err != nil {
			return nil, err
		}
		result[sentiment] = stat
	}
	return result, rows.Err()
}

// UpdateConversationFeedback sets the feedback fields that are present.
// It reports false when the conversation does not exist for the session.
func (s *SQLiteStore) UpdateConversationFeedback(ctx context.Context, sessionToken, conversationID string, feedback domain.Feedback) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET helpful = COALESCE(?, helpful), rating = COALESCE(?, rating)
		WHERE conversation_id = ? AND session_token = ?`,
		nullBool(feedback.Helpful), nullInt(feedback.Rating), conversationID, sessionToken)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SummarizeLedger returns per-sentiment counts and totals for a session.
func (s *SQLiteStore) SummarizeLedger(ctx context.Context, sessionToken string) (*domain.LedgerSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sentiment, COUNT(*), COALESCE(SUM(processing_ms), 0), MIN(created_at), MAX(created_at)
		FROM conversations WHERE session_token = ?
		GROUP BY sentiment`,
		sessionToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.LedgerSummary{Counts: make(map[domain.Sentiment]int64)}
	for rows.Next() {
		var sentiment domain.Sentiment
		var count, processing, first, last int64
		if err := rows.Scan(&sentiment, &count, &processing, &first, &last); err != nil {
			return nil, err
		}
		summary.Counts[sentiment] = count
		summary.TotalProcessingTimeMs += processing
		if f := fromMillis(first); summary.First.IsZero() || f.Before(summary.First) {
			summary.First = f
		}
		if l := fromMillis(last); l.After(summary.Last) {
			summary.Last = l
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT user_agent, origin_hash FROM conversations WHERE session_token = ?
		ORDER BY created_at DESC, conversation_id DESC LIMIT 1`,
		sessionToken).Scan(&summary.LatestClient.UserAgent, &summary.LatestClient.OriginHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return summary, nil
}

const sqliteSessionColumns = `session_token, conversation_count, total_processing_ms, mood_positive, mood_negative, mood_neutral, first_interaction, last_interaction, is_active, user_agent, origin_hash`

// UpsertSession records one analysis on a session in a single statement.
func (s *SQLiteStore) UpsertSession(ctx context.Context, update domain.SessionUpdate) (*domain.Session, error) {
	delta := domain.Delta(update)
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO sessions (`+sqliteSessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(session_token) DO UPDATE SET
			conversation_count = conversation_count + excluded.conversation_count,
			total_processing_ms = total_processing_ms + excluded.total_processing_ms,
			mood_positive = mood_positive + excluded.mood_positive,
			mood_negative = mood_negative + excluded.mood_negative,
			mood_neutral = mood_neutral + excluded.mood_neutral,
			last_interaction = excluded.last_interaction,
			is_active = 1,
			user_agent = excluded.user_agent,
			origin_hash = excluded.origin_hash
		RETURNING `+sqliteSessionColumns,
		delta.Token, delta.ConversationCount, delta.TotalProcessingTimeMs,
		delta.MoodTrend.Positive, delta.MoodTrend.Negative, delta.MoodTrend.Neutral,
		delta.FirstInteraction.UnixMilli(), delta.LastInteraction.UnixMilli(),
		delta.Client.UserAgent, delta.Client.OriginHash)
	return scanSQLiteSession(row)
}

// GetSession retrieves a session by token. It returns nil if none exists.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionToken string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSessionColumns+` FROM sessions WHERE session_token = ?`, sessionToken)
	session, err := scanSQLiteSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return session, err
}

// ListDriftedSessions returns tokens whose session row disagrees with the
// ledger and that have been quiet since quietBefore.
func (s *SQLiteStore) ListDriftedSessions(ctx context.Context, quietBefore time.Time, limit int) ([]string, error) {
	cutoff := quietBefore.UnixMilli()
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.session_token
		FROM (SELECT session_token, COUNT(*) AS n, MAX(created_at) AS last_at FROM conversations GROUP BY session_token) l
		LEFT JOIN sessions s ON s.session_token = l.session_token
		WHERE (s.session_token IS NULL OR s.conversation_count <> l.n)
			AND l.last_at < ?
			AND (s.session_token IS NULL OR s.last_interaction < ?)
		ORDER BY l.last_at
		LIMIT ?`,
		cutoff, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// RepairSession overwrites a session's counters with compare-and-set on the
// conversation count.
func (s *SQLiteStore) RepairSession(ctx context.Context, session domain.Session, expectedCount int64) (bool, error) {
	var res sql.Result
	var err error
	if expectedCount < 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO sessions (`+sqliteSessionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_token) DO NOTHING`,
			session.Token, session.ConversationCount, session.TotalProcessingTimeMs,
			session.MoodTrend.Positive, session.MoodTrend.Negative, session.MoodTrend.Neutral,
			session.FirstInteraction.UnixMilli(), session.LastInteraction.UnixMilli(), session.IsActive,
			session.Client.UserAgent, session.Client.OriginHash)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET conversation_count = ?, total_processing_ms = ?, mood_positive = ?, mood_negative = ?, mood_neutral = ?,
				first_interaction = ?, last_interaction = ?, is_active = ?
			WHERE session_token = ? AND conversation_count = ?`,
			session.ConversationCount, session.TotalProcessingTimeMs,
			session.MoodTrend.Positive, session.MoodTrend.Negative, session.MoodTrend.Neutral,
			session.FirstInteraction.UnixMilli(), session.LastInteraction.UnixMilli(), session.IsActive,
			session.Token, expectedCount)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var first, last int64
	if err := row.Scan(&session.Token, &session.ConversationCount, &session.TotalProcessingTimeMs,
		&session.MoodTrend.Positive, &session.MoodTrend.Negative, &session.MoodTrend.Neutral,
		&first, &last, &session.IsActive, &session.Client.UserAgent, &session.Client.OriginHash); err != nil {
		return nil, err
	}
	session.FirstInteraction = fromMillis(first)
	session.LastInteraction = fromMillis(last)
	return &session, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
