package report

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Record(ctx context.Context, in StudentResult) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO student_results (id, session_id, name, email, phone, score, total_questions, percentage, taken_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		in.ID, in.SessionID, in.Name, in.Email, in.Phone, in.Score, in.TotalQuestions, in.Percentage, in.Date.UTC())
	if err != nil {
		return fmt.Errorf("insert student result: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]StudentResult, error) {
	return r.query(ctx, `
SELECT id, session_id, name, email, phone, score, total_questions, percentage, taken_at
FROM student_results
ORDER BY taken_at DESC, id ASC`)
}

func (r *SQLRepository) ByCandidate(ctx context.Context, email string) ([]StudentResult, error) {
	return r.query(ctx, `
SELECT id, session_id, name, email, phone, score, total_questions, percentage, taken_at
FROM student_results
WHERE email = $1
ORDER BY taken_at DESC, id ASC`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *SQLRepository) query(ctx context.Context, q string, args ...any) ([]StudentResult, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query student results: %w", err)
	}
	defer rows.Close()

	out := make([]StudentResult, 0)
	for rows.Next() {
		var it StudentResult
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Name, &it.Email, &it.Phone, &it.Score, &it.TotalQuestions, &it.Percentage, &it.Date); err != nil {
			return nil, fmt.Errorf("scan student result: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate student results: %w", err)
	}
	return out, nil
}
