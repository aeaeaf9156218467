package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLRepository stores the bank in the sections/questions tables. Placeholders use
// the $n form, which both pgx and modernc sqlite accept.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, options, correct_answer, section_id
FROM questions
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, question, options, correct_answer, section_id
FROM questions
WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *SQLRepository) UpsertQuestion(ctx context.Context, q Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO questions (id, question, options, correct_answer, section_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	question = excluded.question,
	options = excluded.options,
	correct_answer = excluded.correct_answer,
	section_id = excluded.section_id`,
		q.ID, q.Text, string(opts), q.CorrectAnswer, q.SectionID)
	if err != nil {
		return fmt.Errorf("upsert question: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question rows: %w", err)
	}
	if n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *SQLRepository) ListSections(ctx context.Context) ([]Section, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM sections`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := make([]Section, 0)
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	sortSections(out)
	return out, nil
}

func (r *SQLRepository) UpsertSection(ctx context.Context, s Section) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sections (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*Question, error) {
	var (
		q    Question
		opts string
	)
	if err := row.Scan(&q.ID, &q.Text, &opts, &q.CorrectAnswer, &q.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return nil, fmt.Errorf("decode options for question %d: %w", q.ID, err)
	}
	return &q, nil
}
