package question

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrSectionExists    = errors.New("section already exists")
	ErrEmptyBank        = errors.New("question bank is empty")
)

// Question is one multiple-choice item. CorrectAnswer indexes into Options.
type Question struct {
	ID            int64    `json:"id"`
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	SectionID     string   `json:"section_id"`
	Section       string   `json:"section"`
}

type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SectionStat struct {
	Section
	QuestionCount int `json:"question_count"`
}

type QuestionFilter struct {
	Search    string
	SectionID string
}

type UpsertQuestionInput struct {
	ID            int64
	Text          string
	Options       []string
	CorrectAnswer int
	SectionID     string
}

// Repository is the storage contract for the bank. Implementations return
// questions ordered by ID ascending and sections ordered by numeric ID.
type Repository interface {
	ListQuestions(ctx context.Context) ([]Question, error)
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	UpsertQuestion(ctx context.Context, q Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	ListSections(ctx context.Context) ([]Section, error)
	UpsertSection(ctx context.Context, s Section) error
}

type Service struct {
	repo Repository

	// serializes id assignment
	mu sync.Mutex
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Bank returns the full ordered question set with section names resolved.
func (s *Service) Bank(ctx context.Context) ([]Question, error) {
	items, err := s.resolved(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyBank
	}
	return items, nil
}

func (s *Service) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	items, err := s.resolved(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	sectionID := strings.TrimSpace(f.SectionID)
	if sectionID == "all" {
		sectionID = ""
	}

	out := make([]Question, 0, len(items))
	for _, q := range items {
		if sectionID != "" && q.SectionID != sectionID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(q.Text), search) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.sectionNames(ctx)
	if err != nil {
		return nil, err
	}
	q.Section = names[q.SectionID]
	return q, nil
}

// UpsertQuestion updates the question with in.ID, or inserts a new one with
// id max(existing)+1 when in.ID is zero.
func (s *Service) UpsertQuestion(ctx context.Context, in UpsertQuestionInput) (*Question, error) {
	return s.upsertQuestion(ctx, in, false)
}

// upsertQuestion with createMissing inserts under in.ID when no question has that id yet.
func (s *Service) upsertQuestion(ctx context.Context, in UpsertQuestionInput, createMissing bool) (*Question, error) {
	q := Question{
		ID:            in.ID,
		Text:          strings.TrimSpace(in.Text),
		Options:       make([]string, 0, len(in.Options)),
		CorrectAnswer: in.CorrectAnswer,
		SectionID:     strings.TrimSpace(in.SectionID),
	}
	for _, opt := range in.Options {
		q.Options = append(q.Options, strings.TrimSpace(opt))
	}
	if err := ValidateQuestion(q); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.sectionNames(ctx)
	if err != nil {
		return nil, err
	}
	name, ok := names[q.SectionID]
	if !ok {
		return nil, ErrSectionNotFound
	}

	if q.ID < 0 {
		return nil, ErrInvalidInput
	}
	if q.ID == 0 {
		existing, err := s.repo.ListQuestions(ctx)
		if err != nil {
			return nil, err
		}
		q.ID = nextQuestionID(existing)
	} else if _, err := s.repo.GetQuestion(ctx, q.ID); err != nil {
		if !createMissing || !errors.Is(err, ErrQuestionNotFound) {
			return nil, err
		}
	}

	if err := s.repo.UpsertQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("upsert question: %w", err)
	}
	q.Section = name
	return &q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.DeleteQuestion(ctx, id)
}

// ListSections returns every section with the number of questions filed under it.
func (s *Service) ListSections(ctx context.Context) ([]SectionStat, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(sections))
	for _, q := range questions {
		counts[q.SectionID]++
	}
	out := make([]SectionStat, 0, len(sections))
	for _, sec := range sections {
		out = append(out, SectionStat{Section: sec, QuestionCount: counts[sec.ID]})
	}
	return out, nil
}

func (s *Service) AddSection(ctx context.Context, name string) (*Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	if sectionNameTaken(sections, name, "") {
		return nil, ErrSectionExists
	}

	sec := Section{ID: nextSectionID(sections), Name: name}
	if err := s.repo.UpsertSection(ctx, sec); err != nil {
		return nil, fmt.Errorf("insert section: %w", err)
	}
	return &sec, nil
}

// RenameSection changes the display name only; questions keep pointing at the id.
func (s *Service) RenameSection(ctx context.Context, id, name string) (*Section, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, sec := range sections {
		if sec.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrSectionNotFound
	}
	if sectionNameTaken(sections, name, id) {
		return nil, ErrSectionExists
	}

	sec := Section{ID: id, Name: name}
	if err := s.repo.UpsertSection(ctx, sec); err != nil {
		return nil, fmt.Errorf("rename section: %w", err)
	}
	return &sec, nil
}

// ValidateQuestion checks the shape rules every stored question must satisfy.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: at least two options are required", ErrInvalidInput)
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d is empty", ErrInvalidInput, i+1)
		}
		if strings.Contains(opt, optionSeparator) {
			return fmt.Errorf("%w: option %d must not contain %q", ErrInvalidInput, i+1, optionSeparator)
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer out of range", ErrInvalidInput)
	}
	if strings.TrimSpace(q.SectionID) == "" {
		return fmt.Errorf("%w: section is required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) resolved(ctx context.Context) ([]Question, error) {
	items, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.sectionNames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Section = names[items[i].SectionID]
	}
	return items, nil
}

func (s *Service) sectionNames(ctx context.Context) (map[string]string, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(sections))
	for _, sec := range sections {
		names[sec.ID] = sec.Name
	}
	return names, nil
}

func nextQuestionID(items []Question) int64 {
	var maxID int64
	for _, q := range items {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	return maxID + 1
}

func nextSectionID(sections []Section) string {
	maxID := 0
	for _, sec := range sections {
		n, err := strconv.Atoi(strings.TrimSpace(sec.ID))
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

func sectionNameTaken(sections []Section, name, exceptID string) bool {
	for _, sec := range sections {
		if sec.ID == exceptID {
			continue
		}
		if strings.EqualFold(sec.Name, name) {
			return true
		}
	}
	return false
}

func sortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		a, errA := strconv.Atoi(sections[i].ID)
		b, errB := strconv.Atoi(sections[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return sections[i].ID < sections[j].ID
	})
}
