package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"formrank-service/internal/domain"
)

const rankingOrder = `total_score DESC, registered_at ASC, id ASC`

// RankingReader serves the leaderboard queries over a pgx pool. The window
// function assigns gapless 1-based positions; the three-key order makes the
// result reproducible even when score and registration instant collide.
type RankingReader struct {
	pool *pgxpool.Pool
}

func NewRankingReader(pool *pgxpool.Pool) *RankingReader {
	return &RankingReader{pool: pool}
}

func (r *RankingReader) GlobalRanking(ctx context.Context) ([]domain.RankingEntry, error) {
	return r.ranking(ctx, 0)
}

func (r *RankingReader) TopParticipants(ctx context.Context, limit int) ([]domain.RankingEntry, error) {
	return r.ranking(ctx, limit)
}

func (r *RankingReader) ranking(ctx context.Context, limit int) ([]domain.RankingEntry, error) {
	query := fmt.Sprintf(`
		SELECT name, email, total_score, total_forms,
		       ROW_NUMBER() OVER (ORDER BY %s) AS position
		FROM participants
		WHERE total_score > 0
		ORDER BY %s`, rankingOrder, rankingOrder)
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.RankingEntry, 0)
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.Name, &e.Email, &e.TotalScore, &e.TotalForms, &e.Position); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ranking: %w", err)
	}
	return entries, nil
}

func (r *RankingReader) Overview(ctx context.Context) (domain.Overview, error) {
	var o domain.Overview
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM forms WHERE active) AS active_forms,
			(SELECT COUNT(*) FROM forms) AS total_forms,
			(SELECT COUNT(*) FROM participants WHERE total_score > 0) AS ranked_participants,
			(SELECT COUNT(*) FROM response_envelopes) AS total_responses,
			(SELECT COALESCE(AVG(points), 0)::float8 FROM response_envelopes) AS average_points`).
		Scan(&o.ActiveForms, &o.TotalForms, &o.RankedParticipants, &o.TotalResponses, &o.AveragePoints)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("query overview: %w", err)
	}
	return o, nil
}

func (r *RankingReader) FindParticipantByEmail(ctx context.Context, email string) (domain.Participant, error) {
	var p domain.Participant
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, total_score, total_forms, registered_at
		FROM participants
		WHERE email = $1`, email).
		Scan(&p.ID, &p.Name, &p.Email, &p.TotalScore, &p.TotalForms, &p.RegisteredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("query participant: %w", err)
	}
	return p, nil
}
