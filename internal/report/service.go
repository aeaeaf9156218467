package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var ErrInvalidInput = errors.New("invalid input")

// StudentResult is one finished attempt as shown to administrators.
type StudentResult struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	Date           time.Time `json:"date"`
}

// ResultRepository returns results newest first.
type ResultRepository interface {
	Record(ctx context.Context, r StudentResult) error
	List(ctx context.Context) ([]StudentResult, error)
	ByCandidate(ctx context.Context, email string) ([]StudentResult, error)
}

type Summary struct {
	Participants int     `json:"participants"`
	AverageScore float64 `json:"average_score"`
	HighestScore float64 `json:"highest_score"`
	LowestScore  float64 `json:"lowest_score"`
}

type Service struct {
	repo ResultRepository
	now  func() time.Time
}

func NewService(repo ResultRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores a result, filling in id, date and percentage when absent.
func (s *Service) Record(ctx context.Context, in StudentResult) (*StudentResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.TotalQuestions < 0 || in.Score < 0 || in.Score > in.TotalQuestions {
		return nil, ErrInvalidInput
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if in.Percentage == 0 && in.TotalQuestions > 0 {
		in.Percentage = math.Round(float64(in.Score)/float64(in.TotalQuestions)*100*10) / 10
	}
	if err := s.repo.Record(ctx, in); err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	return &in, nil
}

// List returns every result whose name or email contains search, case-insensitively.
func (s *Service) List(ctx context.Context, search string) ([]StudentResult, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return items, nil
	}
	out := make([]StudentResult, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), search) || strings.Contains(strings.ToLower(it.Email), search) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) ByCandidate(ctx context.Context, email string) ([]StudentResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ByCandidate(ctx, email)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &Summary{Participants: len(items)}
	if len(items) == 0 {
		return out, nil
	}
	out.LowestScore = items[0].Percentage
	total := 0.0
	for _, it := range items {
		total += it.Percentage
		if it.Percentage > out.HighestScore {
			out.HighestScore = it.Percentage
		}
		if it.Percentage < out.LowestScore {
			out.LowestScore = it.Percentage
		}
	}
	out.AverageScore = math.Round(total/float64(len(items))*10) / 10
	return out, nil
}

func (s *Service) ExportExcel(ctx context.Context, search string) ([]byte, error) {
	items, err := s.List(ctx, search)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	headers := []string{"name", "email", "phone", "score", "total_questions", "percentage", "date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, it := range items {
		values := []any{it.Name, it.Email, it.Phone, it.Score, it.TotalQuestions, it.Percentage, it.Date.Format("2006-01-02")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "G", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// SeedResults loads the historical records shown on a fresh install.
func SeedResults(ctx context.Context, repo ResultRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	seed := []StudentResult{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Phone: "1234567890", Score: 75, TotalQuestions: 100, Percentage: 75, Date: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Phone: "9876543210", Score: 82, TotalQuestions: 100, Percentage: 82, Date: time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC)},
		{ID: "3", Name: "Michael Johnson", Email: "michael@example.com", Phone: "5555555555", Score: 68, TotalQuestions: 100, Percentage: 68, Date: time.Date(2023, 7, 17, 0, 0, 0, 0, time.UTC)},
	}
	for _, r := range seed {
		if err := repo.Record(ctx, r); err != nil {
			return fmt.Errorf("seed result %s: %w", r.ID, err)
		}
	}
	return nil
}
