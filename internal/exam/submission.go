package exam

import (
	"context"
	"errors"
	"fmt"
)

var ErrSubmitNotRequested = errors.New("submission was not requested")

type SubmitSummary struct {
	Attempted int    `json:"attempted"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Warning   string `json:"warning,omitempty"`
}

type SubmissionRecord struct {
	SessionID string      `json:"session_id"`
	Answers   map[int]int `json:"answers"`
	Completed bool        `json:"completed"`
}

// SubmissionSink persists the frozen answer set and its score for a candidate key.
type SubmissionSink interface {
	SaveSubmission(ctx context.Context, key string, answers map[int]int, score ScoreSummary) error
}

// RequestSubmit reports readiness and arms the confirmation step. Unanswered
// questions produce a warning but never block.
func (s *Session) RequestSubmit() (SubmitSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SubmitSummary{}, ErrSessionClosed
	}
	s.touch()
	attempted := s.attemptedCount()
	sum := SubmitSummary{
		Attempted: attempted,
		Total:     len(s.questions),
		Remaining: len(s.questions) - attempted,
	}
	if sum.Remaining > 0 {
		sum.Warning = fmt.Sprintf("You have %d unanswered question(s). Are you sure you want to submit?", sum.Remaining)
	}
	s.submitPending = true
	return sum, nil
}

func (s *Session) CancelSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touch()
	s.submitPending = false
	return nil
}

// ConfirmSubmit persists {answers, completed} through sink and closes the session.
// The score is computed against the session's own question set here, so later
// edits to the bank cannot change it. A failed write leaves the session open so
// the candidate can retry.
func (s *Session) ConfirmSubmit(ctx context.Context, sink SubmissionSink) (SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return SubmissionRecord{}, ErrSessionClosed
	}
	if !s.submitPending {
		return SubmissionRecord{}, ErrSubmitNotRequested
	}

	s.touch()
	answers := copyAnswers(s.answers)
	if err := sink.SaveSubmission(ctx, s.ID, answers, Score(s.questions, answers)); err != nil {
		return SubmissionRecord{}, fmt.Errorf("persist submission: %w", err)
	}
	s.submitPending = false
	s.closed = true
	s.submittedAt = nowFunc()
	return SubmissionRecord{SessionID: s.ID, Answers: answers, Completed: true}, nil
}
