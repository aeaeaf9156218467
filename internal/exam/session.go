package exam

import (
	"errors"
	"sync"
	"time"

	"mocktest/internal/question"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrQuestionOutOfRange = errors.New("question number out of range")
	ErrInvalidOption      = errors.New("option index out of range")
	ErrUnknownSection     = errors.New("unknown section")
)

var nowFunc = func() time.Time { return time.Now().UTC() }

type Status string

const (
	StatusUnattempted Status = "unattempted"
	StatusSeen        Status = "seen"
	StatusAttempted   Status = "attempted"
)

func (s Status) rank() int {
	switch s {
	case StatusSeen:
		return 1
	case StatusAttempted:
		return 2
	default:
		return 0
	}
}

// Session tracks one candidate's progress through a fixed, ordered question set.
// Question numbers are 1-based positions in that set.
type Session struct {
	ID        string
	StartedAt time.Time

	questions []question.Question

	mu            sync.Mutex
	current       int
	answers       map[int]int
	statuses      map[int]Status
	submitPending bool
	closed        bool
	submittedAt   time.Time
	lastActive    time.Time
}

type SessionView struct {
	ID            string         `json:"id"`
	Current       int            `json:"current"`
	Total         int            `json:"total"`
	Answers       map[int]int    `json:"answers"`
	Statuses      map[int]Status `json:"statuses"`
	SubmitPending bool           `json:"submit_pending"`
	Closed        bool           `json:"closed"`
	StartedAt     time.Time      `json:"started_at"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
}

// QuestionView is what a candidate sees; the answer key is never exposed.
type QuestionView struct {
	Number    int      `json:"number"`
	ID        int64    `json:"id"`
	Text      string   `json:"question"`
	Options   []string `json:"options"`
	SectionID string   `json:"section_id"`
	Section   string   `json:"section"`
	Selected  *int     `json:"selected,omitempty"`
	Status    Status   `json:"status"`
}

// NewSession snapshots the bank and visits question 1.
func NewSession(id string, bank []question.Question, now time.Time) (*Session, error) {
	if len(bank) == 0 {
		return nil, question.ErrEmptyBank
	}
	s := &Session{
		ID:        id,
		StartedAt:  now,
		questions:  append([]question.Question(nil), bank...),
		answers:    make(map[int]int),
		statuses:   make(map[int]Status),
		lastActive: now,
	}
	s.visit(1)
	return s, nil
}

func (s *Session) Total() int {
	return len(s.questions)
}

// Questions returns the ordered set the session was started with.
func (s *Session) Questions() []question.Question {
	return s.questions
}

// SelectOption records optionIndex as the answer for questionNumber, replacing any
// earlier choice. Invalid input leaves the session untouched.
func (s *Session) SelectOption(questionNumber, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touch()
	if !s.inRange(questionNumber) {
		return ErrQuestionOutOfRange
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[questionNumber-1].Options) {
		return ErrInvalidOption
	}
	s.answers[questionNumber] = optionIndex
	s.statuses[questionNumber] = StatusAttempted
	return nil
}

// Visit marks questionNumber as seen unless it is already attempted.
func (s *Session) Visit(questionNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touch()
	if !s.inRange(questionNumber) {
		return ErrQuestionOutOfRange
	}
	s.visit(questionNumber)
	return nil
}

func (s *Session) GoTo(questionNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touch()
	if !s.inRange(questionNumber) {
		return ErrQuestionOutOfRange
	}
	s.current = questionNumber - 1
	s.visit(questionNumber)
	return nil
}

// Next advances one question. It reports false at the last question.
func (s *Session) Next() (bool, error) {
	return s.shift(1)
}

// Prev moves back one question. It reports false at the first question.
func (s *Session) Prev() (bool, error) {
	return s.shift(-1)
}

func (s *Session) shift(delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}
	s.touch()
	target := s.current + delta
	if target < 0 || target >= len(s.questions) {
		return false, nil
	}
	s.current = target
	s.visit(target + 1)
	return true, nil
}

// Status returns the status of questionNumber; unvisited questions report unattempted.
func (s *Session) Status(questionNumber int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusOf(questionNumber)
}

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) Question(questionNumber int) (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inRange(questionNumber) {
		return QuestionView{}, ErrQuestionOutOfRange
	}
	q := s.questions[questionNumber-1]
	view := QuestionView{
		Number:    questionNumber,
		ID:        q.ID,
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		SectionID: q.SectionID,
		Section:   q.Section,
		Status:    s.statusOf(questionNumber),
	}
	if opt, ok := s.answers[questionNumber]; ok {
		view.Selected = &opt
	}
	return view, nil
}

// LastActive is the time of the most recent candidate action on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) touch() {
	s.lastActive = nowFunc()
}

func (s *Session) visit(questionNumber int) {
	if s.statusOf(questionNumber).rank() < StatusSeen.rank() {
		s.statuses[questionNumber] = StatusSeen
	}
}

func (s *Session) statusOf(questionNumber int) Status {
	if st, ok := s.statuses[questionNumber]; ok {
		return st
	}
	return StatusUnattempted
}

func (s *Session) inRange(questionNumber int) bool {
	return questionNumber >= 1 && questionNumber <= len(s.questions)
}

func (s *Session) snapshot() SessionView {
	view := SessionView{
		ID:            s.ID,
		Current:       s.current + 1,
		Total:         len(s.questions),
		Answers:       copyAnswers(s.answers),
		Statuses:      make(map[int]Status, len(s.statuses)),
		SubmitPending: s.submitPending,
		Closed:        s.closed,
		StartedAt:     s.StartedAt,
	}
	for k, v := range s.statuses {
		view.Statuses[k] = v
	}
	if s.closed {
		at := s.submittedAt
		view.SubmittedAt = &at
	}
	return view
}

func (s *Session) attemptedCount() int {
	n := 0
	for _, st := range s.statuses {
		if st == StatusAttempted {
			n++
		}
	}
	return n
}

func copyAnswers(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
