package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool opens and pings a PostgreSQL connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStore migrates the database and returns a store backed by a new pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if err := RunMigrations(databaseURL, Migrations()); err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// AppendConversation inserts one ledger record.
func (s *PostgresStore) AppendConversation(ctx context.Context, conv *domain.Conversation) error {
	tips := conv.AdditionalTips
	if tips == nil {
		tips = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (conversation_id, session_token, text, sentiment, confidence_score, recommendation, additional_tips, processing_ms, user_agent, origin_hash, helpful, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		conv.ID, conv.SessionToken, conv.Text, string(conv.Sentiment), conv.ConfidenceScore, conv.Recommendation, tips,
		conv.ProcessingTimeMs, conv.Client.UserAgent, conv.Client.OriginHash,
		conv.Feedback.Helpful, conv.Feedback.Rating, conv.CreatedAt)
	return err
}

// ListConversations returns one page of a session's ledger, newest first,
// and the total number of records for the session.
func (s *PostgresStore) ListConversations(ctx context.Context, sessionToken string, limit, offset int) ([]domain.Conversation, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations WHERE session_token = $1`, sessionToken).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT conversation_id, session_token, text, sentiment, confidence_score, recommendation, additional_tips, processing_ms, user_agent, origin_hash, helpful, rating, created_at
		FROM conversations WHERE session_token = $1
		ORDER BY created_at DESC, conversation_id DESC
		LIMIT $2 OFFSET $3`,
		sessionToken, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		var conv domain.Conversation
		var sentiment string
		if err := rows.Scan(&conv.ID, &conv.SessionToken, &conv.Text, &sentiment, &conv.ConfidenceScore, &conv.Recommendation,
			&conv.AdditionalTips, &conv.ProcessingTimeMs, &conv.Client.UserAgent, &conv.Client.OriginHash,
			&conv.Feedback.Helpful, &conv.Feedback.Rating, &conv.CreatedAt); err != nil {
			return nil, 0, err
		}
		conv.Sentiment = domain.Sentiment(sentiment)
		conv.CreatedAt = conv.CreatedAt.UTC()
		conversations = append(conversations, conv)
	}
	return conversations, total, rows.Err()
}

// AggregateBySentiment groups a session's records created at or after since.
func (s *PostgresStore) AggregateBySentiment(ctx context.Context, sessionToken string, since time.Time) (map[domain.Sentiment]domain.SentimentStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sentiment, COUNT(*), AVG(confidence_score) FROM conversations
		WHERE session_token = $1 AND created_at >= $2
		GROUP BY sentiment`,
		sessionToken, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.Sentiment]domain.SentimentStat)
	for rows.Next() {
		var sentiment string
		var stat domain.SentimentStat
		if err := rows.Scan(&sentiment, &stat.Count, &stat.AvgConfidence); err != nil {
			return nil, err
		}
		result[domain.Sentiment(sentiment)] = stat
	}
	return result, rows.Err()
}

// UpdateConversationFeedback sets the feedback fields that are present.
func (s *PostgresStore) UpdateConversationFeedback(ctx context.Context, sessionToken, conversationID string, feedback domain.Feedback) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET helpful = COALESCE($1, helpful), rating = COALESCE($2, rating)
		WHERE conversation_id = $3 AND session_token = $4`,
		feedback.Helpful, feedback.Rating, conversationID, sessionToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SummarizeLedger returns per-sentiment counts and totals for a session.
func (s *PostgresStore) SummarizeLedger(ctx context.Context, sessionToken string) (*domain.LedgerSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sentiment, COUNT(*), COALESCE(SUM(processing_ms), 0)::BIGINT, MIN(created_at), MAX(created_at)
		FROM conversations WHERE session_token = $1
		GROUP BY sentiment`,
		sessionToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.LedgerSummary{Counts: make(map[domain.Sentiment]int64)}
	for rows.Next() {
		var sentiment string
		var count, processing int64
		var first, last time.Time
		if err := rows.Scan(&sentiment, &count, &processing, &first, &last); err != nil {
			return nil, err
		}
		summary.Counts[domain.Sentiment(sentiment)] = count
		summary.TotalProcessingTimeMs += processing
		if summary.First.IsZero() || first.Before(summary.First) {
			summary.First = first.UTC()
		}
		if last.After(summary.Last) {
			summary.Last = last.UTC()
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx,
		`SELECT user_agent, origin_hash FROM conversations WHERE session_token = $1
		ORDER BY created_at DESC, conversation_id DESC LIMIT 1`,
		sessionToken).Scan(&summary.LatestClient.UserAgent, &summary.LatestClient.OriginHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return summary, nil
}

const postgresSessionColumns = `session_token, conversation_count, total_processing_ms, mood_positive, mood_negative, mood_neutral, first_interaction, last_interaction, is_active, user_agent, origin_hash`

// UpsertSession records one analysis on a session in a single statement.
func (s *PostgresStore) UpsertSession(ctx context.Context, update domain.SessionUpdate) (*domain.Session, error) {
	delta := domain.Delta(update)
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (`+postgresSessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10)
		ON CONFLICT (session_token) DO UPDATE SET
			conversation_count = sessions.conversation_count + EXCLUDED.conversation_count,
			total_processing_ms = sessions.total_processing_ms + EXCLUDED.total_processing_ms,
			mood_positive = sessions.mood_positive + EXCLUDED.mood_positive,
			mood_negative = sessions.mood_negative + EXCLUDED.mood_negative,
			mood_neutral = sessions.mood_neutral + EXCLUDED.mood_neutral,
			last_interaction = EXCLUDED.last_interaction,
			is_active = TRUE,
			user_agent = EXCLUDED.user_agent,
			origin_hash = EXCLUDED.origin_hash
		RETURNING `+postgresSessionColumns,
		delta.Token, delta.ConversationCount, delta.TotalProcessingTimeMs,
		delta.MoodTrend.Positive, delta.MoodTrend.Negative, delta.MoodTrend.Neutral,
		delta.FirstInteraction, delta.LastInteraction,
		delta.Client.UserAgent, delta.Client.OriginHash)
	return scanPostgresSession(row)
}

// GetSession retrieves a session by token. It returns nil if none exists.
func (s *PostgresStore) GetSession(ctx context.Context, sessionToken string) (*domain.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresSessionColumns+` FROM sessions WHERE session_token = $1`, sessionToken)
	session, err := scanPostgresSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return session, err
}

// ListDriftedSessions returns tokens whose session row disagrees with the
// ledger and that have been quiet since quietBefore.
func (s *PostgresStore) ListDriftedSessions(ctx context.Context, quietBefore time.Time, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT l.session_token
		FROM (SELECT session_token, COUNT(*) AS n, MAX(created_at) AS last_at FROM conversations GROUP BY session_token) l
		LEFT JOIN sessions s ON s.session_token = l.session_token
		WHERE (s.session_token IS NULL OR s.conversation_count <> l.n)
			AND l.last_at < $1
			AND (s.session_token IS NULL OR s.last_interaction < $1)
		ORDER BY l.last_at
		LIMIT $2`,
		quietBefore, limit)
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
func (s *PostgresStore) RepairSession(ctx context.Context, session domain.Session, expectedCount int64) (bool, error) {
	var sql string
	args := []any{
		session.Token, session.ConversationCount, session.TotalProcessingTimeMs,
		session.MoodTrend.Positive, session.MoodTrend.Negative, session.MoodTrend.Neutral,
		session.FirstInteraction, session.LastInteraction, session.IsActive,
	}
	if expectedCount < 0 {
		sql = `INSERT INTO sessions (` + postgresSessionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (session_token) DO NOTHING`
		args = append(args, session.Client.UserAgent, session.Client.OriginHash)
	} else {
		sql = `UPDATE sessions SET conversation_count = $2, total_processing_ms = $3, mood_positive = $4, mood_negative = $5, mood_neutral = $6,
				first_interaction = $7, last_interaction = $8, is_active = $9
			WHERE session_token = $1 AND conversation_count = $10`
		args = append(args, expectedCount)
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanPostgresSession(row pgx.Row) (*domain.Session, error) {
	var session domain.Session
	if err := row.Scan(&session.Token, &session.ConversationCount, &session.TotalProcessingTimeMs,
		&session.MoodTrend.Positive, &session.MoodTrend.Negative, &session.MoodTrend.Neutral,
		&session.FirstInteraction, &session.LastInteraction, &session.IsActive,
		&session.Client.UserAgent, &session.Client.OriginHash); err != nil {
		return nil, err
	}
	session.FirstInteraction = session.FirstInteraction.UTC()
	session.LastInteraction = session.LastInteraction.UTC()
	return &session, nil
}
