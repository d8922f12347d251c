package repository

import (
	"context"
	"fmt"
	"time"

	"social_chat/internal/domain"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository interface {
	DailyCounts(ctx context.Context, metric string, until time.Time, days int) ([]*domain.DailyCount, error)
	UserDailyMessages(ctx context.Context, userID int64, until time.Time, days int) ([]*domain.DailyCount, error)
	MessageStats(ctx context.Context, messageID int64) (*domain.MessageStats, error)
}

type statsRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewStatsRepository(db *pgxpool.Pool, log logger.Logger) StatsRepository {
	return &statsRepository{db: db, log: log}
}

// Источники событий по метрикам: (day, id) в UTC
var statsSources = map[string]string{
	domain.StatsPosts: `
		SELECT (m.created_at AT TIME ZONE 'UTC')::date AS day, m.id
		FROM messages m`,
	domain.StatsReplies: `
		SELECT (m.created_at AT TIME ZONE 'UTC')::date AS day, m.id
		FROM messages m
		INNER JOIN replies r ON r.reply_id = m.id`,
	domain.StatsLikes: `
		SELECT (v.created_at AT TIME ZONE 'UTC')::date AS day, v.id
		FROM votes v
		WHERE v.upvote`,
	domain.StatsDislikes: `
		SELECT (v.created_at AT TIME ZONE 'UTC')::date AS day, v.id
		FROM votes v
		WHERE NOT v.upvote`,
	domain.StatsActive: `
		SELECT (m.created_at AT TIME ZONE 'UTC')::date AS day, m.author_id AS id
		FROM messages m
		WHERE m.author_id IS NOT NULL
		UNION ALL
		SELECT (v.created_at AT TIME ZONE 'UTC')::date AS day, v.user_id AS id
		FROM votes v`,
}

// Дни без событий присутствуют с нулем, последний день первым
const dailySeriesQuery = `
	WITH days AS (
		SELECT generate_series($1::date - ($2::int - 1), $1::date, interval '1 day')::date AS day
	),
	src AS (%s)
	SELECT days.day, COUNT(%s)
	FROM days
	LEFT OUTER JOIN src ON src.day = days.day
	GROUP BY days.day
	ORDER BY days.day DESC
`

func (r *statsRepository) DailyCounts(ctx context.Context, metric string, until time.Time, days int) ([]*domain.DailyCount, error) {
	source, ok := statsSources[metric]
	if !ok {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "unknown metric "+metric, "metric")
	}

	countExpr := "src.id"
	if metric == domain.StatsActive {
		countExpr = "DISTINCT src.id"
	}

	return r.series(ctx, fmt.Sprintf(dailySeriesQuery, source, countExpr), until, days)
}

func (r *statsRepository) UserDailyMessages(ctx context.Context, userID int64, until time.Time, days int) ([]*domain.DailyCount, error) {
	source := `
		SELECT (m.created_at AT TIME ZONE 'UTC')::date AS day, m.id
		FROM messages m
		WHERE m.author_id = $3`

	return r.series(ctx, fmt.Sprintf(dailySeriesQuery, source, "src.id"), until, days, userID)
}

func (r *statsRepository) series(ctx context.Context, query string, until time.Time, days int, extra ...interface{}) ([]*domain.DailyCount, error) {
	u := until.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	args := append([]interface{}{day, days}, extra...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to get daily stats", "error", err)
		return nil, err
	}
	defer rows.Close()

	counts := make([]*domain.DailyCount, 0, days)
	for rows.Next() {
		c := &domain.DailyCount{}
		if err := rows.Scan(&c.Day, &c.Total); err != nil {
			r.log.Error("Failed to scan daily stats", "error", err)
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *statsRepository) MessageStats(ctx context.Context, messageID int64) (*domain.MessageStats, error) {
	query := `
		SELECT m.id,
		       (SELECT COUNT(*) FROM votes v WHERE v.message_id = m.id AND v.upvote),
		       (SELECT COUNT(*) FROM votes v WHERE v.message_id = m.id AND NOT v.upvote),
		       (SELECT COUNT(*) FROM replies r WHERE r.parent_id = m.id)
		FROM messages m
		WHERE m.id = $1
	`

	stats := &domain.MessageStats{}
	err := r.db.QueryRow(ctx, query, messageID).Scan(&stats.MessageID, &stats.Likes, &stats.Dislikes, &stats.Replies)
	if err != nil {
		err = notFound(err, apperrors.ErrMessageNotFound)
		if err != apperrors.ErrMessageNotFound {
			r.log.Error("Failed to get message stats", "error", err, "message_id", messageID)
		}
		return nil, err
	}

	return stats, nil
}
