package exam

import (
	"context"
	"fmt"
	"log"
	"time"

	"mocktest/internal/question"
	"mocktest/internal/report"
)

// BankProvider yields the ordered, non-empty question set a session runs on.
type BankProvider interface {
	Bank(ctx context.Context) ([]question.Question, error)
}

type ResultRecorder interface {
	Record(ctx context.Context, r report.StudentResult) (*report.StudentResult, error)
}

type Service struct {
	bank     BankProvider
	sessions *Registry
	store    *CandidateStore
	results  ResultRecorder
	now      func() time.Time
}

func NewService(bank BankProvider, sessions *Registry, store *CandidateStore, results ResultRecorder) *Service {
	return &Service{
		bank:     bank,
		sessions: sessions,
		store:    store,
		results:  results,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type MoveResult struct {
	Moved   bool        `json:"moved"`
	Session SessionView `json:"session"`
}

type ConfirmResult struct {
	Record SubmissionRecord `json:"record"`
	Next   string           `json:"next"`
}

type IdentifyResult struct {
	User UserInfo `json:"user"`
	Next string   `json:"next"`
}

func (s *Service) StartSession(ctx context.Context) (*SessionView, error) {
	bank, err := s.bank.Bank(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(bank, s.now())
	if err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *Service) GetQuestion(ctx context.Context, id string, number int) (*QuestionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	view, err := sess.Question(number)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) SelectOption(ctx context.Context, id string, number, option int) (*SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SelectOption(number, option); err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *Service) GoTo(ctx context.Context, id string, number int) (*SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.GoTo(number); err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *Service) Next(ctx context.Context, id string) (*MoveResult, error) {
	return s.move(id, (*Session).Next)
}

func (s *Service) Prev(ctx context.Context, id string) (*MoveResult, error) {
	return s.move(id, (*Session).Prev)
}

func (s *Service) move(id string, step func(*Session) (bool, error)) (*MoveResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	moved, err := step(sess)
	if err != nil {
		return nil, err
	}
	return &MoveResult{Moved: moved, Session: sess.Snapshot()}, nil
}

func (s *Service) Palette(ctx context.Context, id, filter string) (*Palette, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	p, err := sess.Palette(filter)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) RequestSubmit(ctx context.Context, id string) (*SubmitSummary, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sum, err := sess.RequestSubmit()
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Service) CancelSubmit(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.CancelSubmit(); err != nil {
		return nil, err
	}
	view := sess.Snapshot()
	return &view, nil
}

func (s *Service) ConfirmSubmit(ctx context.Context, id string) (*ConfirmResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	rec, err := sess.ConfirmSubmit(ctx, s.store)
	if err != nil {
		return nil, err
	}
	log.Printf("exam: session %s submitted with %d/%d answered", id, len(rec.Answers), sess.Total())
	return &ConfirmResult{Record: rec, Next: RedirectIdentify}, nil
}

// Identify stores candidate details once the test has been submitted.
func (s *Service) Identify(ctx context.Context, id string, in UserInfo) (*IdentifyResult, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	done, err := s.store.Completed(ctx, id)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, ErrTestNotCompleted
	}
	info, err := ValidateUserInfo(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveUserInfo(ctx, id, info); err != nil {
		return nil, fmt.Errorf("save user info: %w", err)
	}
	return &IdentifyResult{User: info, Next: RedirectResults}, nil
}

// Result returns the score frozen at submission. The first call for a candidate
// also records a StudentResult; later calls return the same result id.
func (s *Service) Result(ctx context.Context, id string) (*ResultView, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	info, ok, err := s.store.UserInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResultUnavailable
	}
	answers, ok, err := s.store.Answers(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResultUnavailable
	}

	frozen, ok, err := s.store.Score(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResultUnavailable
	}
	summary := *frozen

	resultID, recorded, err := s.store.ResultID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recorded && s.results != nil {
		saved, err := s.results.Record(ctx, report.StudentResult{
			SessionID:      id,
			Name:           info.Name,
			Email:          info.Email,
			Phone:          info.Phone,
			Score:          summary.CorrectCount,
			TotalQuestions: summary.TotalCount,
			Percentage:     summary.Percentage,
			Date:           s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("record result: %w", err)
		}
		resultID = saved.ID
		if err := s.store.SaveResultID(ctx, id, resultID); err != nil {
			return nil, fmt.Errorf("save result id: %w", err)
		}
	}

	return &ResultView{
		SessionID: id,
		ResultID:  resultID,
		User:      *info,
		Answers:   answers,
		Score:     summary,
	}, nil
}

// Restart clears everything stored for the session and drops it; the next test
// starts under a new id.
func (s *Service) Restart(ctx context.Context, id string) error {
	if err := checkSessionID(id); err != nil {
		return err
	}
	if err := s.store.ClearSubmission(ctx, id); err != nil {
		return fmt.Errorf("clear submission: %w", err)
	}
	s.sessions.Delete(id)
	return nil
}

// PruneSessions removes sessions with no candidate activity for maxAge.
func (s *Service) PruneSessions(maxAge time.Duration) int {
	return s.sessions.Prune(s.now().Add(-maxAge))
}
