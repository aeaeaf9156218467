package question

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newSeededService(t *testing.T, size int) *Service {
	t.Helper()
	repo := NewMemoryRepository()
	if _, err := Seed(context.Background(), repo, size); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(repo)
}

func TestValidateQuestion(t *testing.T) {
	base := Question{Text: "Q", Options: []string{"a", "b"}, CorrectAnswer: 1, SectionID: "1"}
	tests := []struct {
		name    string
		mutate  func(q *Question)
		wantErr bool
	}{
		{name: "valid", mutate: func(q *Question) {}, wantErr: false},
		{name: "empty text", mutate: func(q *Question) { q.Text = "  " }, wantErr: true},
		{name: "single option", mutate: func(q *Question) { q.Options = []string{"a"} }, wantErr: true},
		{name: "blank option", mutate: func(q *Question) { q.Options = []string{"a", ""} }, wantErr: true},
		{name: "separator in option", mutate: func(q *Question) { q.Options = []string{"a", "x | y"} }, wantErr: true},
		{name: "correct too high", mutate: func(q *Question) { q.CorrectAnswer = 2 }, wantErr: true},
		{name: "correct negative", mutate: func(q *Question) { q.CorrectAnswer = -1 }, wantErr: true},
		{name: "no section", mutate: func(q *Question) { q.SectionID = "" }, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			q.Options = append([]string(nil), base.Options...)
			tc.mutate(&q)
			err := ValidateQuestion(q)
			if tc.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestSeedQuestionsDeterministic(t *testing.T) {
	a := SeedQuestions(100)
	b := SeedQuestions(100)
	if len(a) != 100 {
		t.Fatalf("expected 100 questions, got %d", len(a))
	}
	for i := range a {
		if a[i].ID != int64(i+1) {
			t.Fatalf("expected contiguous ids, got %d at %d", a[i].ID, i)
		}
		if a[i].CorrectAnswer != b[i].CorrectAnswer {
			t.Fatalf("answer key differs at %d", i)
		}
		if err := ValidateQuestion(a[i]); err != nil {
			t.Fatalf("seed question %d invalid: %v", a[i].ID, err)
		}
	}
	if got := len(SeedQuestions(5)); got != 5 {
		t.Fatalf("expected truncated bank of 5, got %d", got)
	}
}

func TestSeedSkipsNonEmptyRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if n, err := Seed(ctx, repo, 10); err != nil || n != 10 {
		t.Fatalf("first seed: n=%d err=%v", n, err)
	}
	if n, err := Seed(ctx, repo, 50); err != nil || n != 0 {
		t.Fatalf("second seed should be a no-op: n=%d err=%v", n, err)
	}
}

func TestListQuestionsFilters(t *testing.T) {
	svc := newSeededService(t, 40)
	ctx := context.Background()

	all, err := svc.ListQuestions(ctx, QuestionFilter{SectionID: "all"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 40 {
		t.Fatalf("expected 40, got %d", len(all))
	}
	if all[0].Section != "Mathematics & Statistics" {
		t.Fatalf("expected resolved section name, got %q", all[0].Section)
	}

	math, _ := svc.ListQuestions(ctx, QuestionFilter{SectionID: "1"})
	for _, q := range math {
		if q.SectionID != "1" {
			t.Fatalf("unexpected section %s", q.SectionID)
		}
	}

	hits, _ := svc.ListQuestions(ctx, QuestionFilter{Search: "OBJECT-ORIENTED"})
	if len(hits) != 2 {
		t.Fatalf("expected 2 case-insensitive hits, got %d", len(hits))
	}

	none, _ := svc.ListQuestions(ctx, QuestionFilter{Search: "object", SectionID: "1"})
	if len(none) != 0 {
		t.Fatalf("expected combined filter to be empty, got %d", len(none))
	}
}

func TestUpsertQuestionAssignsNextID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())
	if _, err := svc.AddSection(ctx, "Maths"); err != nil {
		t.Fatalf("add section: %v", err)
	}

	first, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{Text: "1+1?", Options: []string{"1", "2"}, CorrectAnswer: 1, SectionID: "1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("expected id 1 on empty bank, got %d", first.ID)
	}
	second, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{Text: "2+2?", Options: []string{"4", "5"}, CorrectAnswer: 0, SectionID: "1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second.ID != 2 || second.Section != "Maths" {
		t.Fatalf("unexpected second question: %+v", second)
	}

	updated, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{ID: 1, Text: "1+1=?", Options: []string{"1", "2", "3"}, CorrectAnswer: 1, SectionID: "1"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := svc.GetQuestion(ctx, 1)
	if got.Text != "1+1=?" || len(got.Options) != 3 || updated.ID != 1 {
		t.Fatalf("update not applied: %+v", got)
	}

	if _, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{ID: 99, Text: "x", Options: []string{"a", "b"}, SectionID: "1"}); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{Text: "x", Options: []string{"a", "b"}, SectionID: "9"}); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestDeleteQuestion(t *testing.T) {
	svc := newSeededService(t, 5)
	ctx := context.Background()
	if err := svc.DeleteQuestion(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteQuestion(ctx, 3); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound on second delete, got %v", err)
	}
	items, _ := svc.ListQuestions(ctx, QuestionFilter{})
	if len(items) != 4 {
		t.Fatalf("expected 4 remaining, got %d", len(items))
	}

	next, err := svc.UpsertQuestion(ctx, UpsertQuestionInput{Text: "new", Options: []string{"a", "b"}, SectionID: "2"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if next.ID != 6 {
		t.Fatalf("expected max+1 = 6, got %d", next.ID)
	}
}

func TestSections(t *testing.T) {
	svc := newSeededService(t, 30)
	ctx := context.Background()

	if _, err := svc.AddSection(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := svc.AddSection(ctx, "computer concepts"); !errors.Is(err, ErrSectionExists) {
		t.Fatalf("expected ErrSectionExists for case-insensitive duplicate, got %v", err)
	}
	sec, err := svc.AddSection(ctx, "  General Awareness ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sec.ID != "5" || sec.Name != "General Awareness" {
		t.Fatalf("unexpected section: %+v", sec)
	}

	stats, err := svc.ListSections(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(stats))
	}
	total := 0
	for _, s := range stats {
		total += s.QuestionCount
	}
	if total != 30 || stats[4].QuestionCount != 0 {
		t.Fatalf("unexpected counts: %+v", stats)
	}

	if _, err := svc.RenameSection(ctx, "1", "Quantitative Aptitude"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	q, _ := svc.GetQuestion(ctx, 1)
	if q.Section != "Quantitative Aptitude" {
		t.Fatalf("expected renamed section to resolve on question, got %q", q.Section)
	}
	if _, err := svc.RenameSection(ctx, "2", "quantitative aptitude"); !errors.Is(err, ErrSectionExists) {
		t.Fatalf("expected ErrSectionExists, got %v", err)
	}
	if _, err := svc.RenameSection(ctx, "1", "QUANTITATIVE APTITUDE"); err != nil {
		t.Fatalf("renaming a section to its own name in another case should pass: %v", err)
	}
	if _, err := svc.RenameSection(ctx, "42", "X"); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestBankEmpty(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Bank(context.Background()); !errors.Is(err, ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}

func TestExcelRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newSeededService(t, 12)
	payload, err := src.ExportQuestionsExcel(ctx, QuestionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dstRepo := NewMemoryRepository()
	for _, s := range SeedSections() {
		_ = dstRepo.UpsertSection(ctx, s)
	}
	dst := NewService(dstRepo)
	report, err := dst.ImportQuestionsExcel(ctx, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.TotalRows != 12 || report.SuccessRows != 12 {
		t.Fatalf("unexpected report: %+v", report)
	}

	want, _ := src.ListQuestions(ctx, QuestionFilter{})
	got, _ := dst.ListQuestions(ctx, QuestionFilter{})
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].CorrectAnswer != want[i].CorrectAnswer {
			t.Fatalf("question %d differs: got %+v want %+v", i, got[i], want[i])
		}
		if len(got[i].Options) != len(want[i].Options) {
			t.Fatalf("question %d options differ: %v vs %v", i, got[i].Options, want[i].Options)
		}
	}
}

func TestImportQuestionsExcel(t *testing.T) {
	ctx := context.Background()
	svc := newSeededService(t, 4)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"question", "options", "correct_answer", "section"},
		{"Capital of France?", "Paris | Rome | Berlin", 0, "computer concepts"},
		{"Bad row", "only", 0, "Computer Concepts"},
		{"", "", "", ""},
		{"Unknown section", "a|b", 1, "History"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := svc.ImportQuestionsExcel(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.TotalRows != 3 || report.SuccessRows != 1 || report.FailedRows != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	q, err := svc.GetQuestion(ctx, 5)
	if err != nil {
		t.Fatalf("imported question missing: %v", err)
	}
	if q.SectionID != "4" || len(q.Options) != 3 || q.Options[0] != "Paris" {
		t.Fatalf("unexpected imported question: %+v", q)
	}
}

func TestImportQuestionsExcelRejectsGarbage(t *testing.T) {
	svc := newSeededService(t, 4)
	_, err := svc.ImportQuestionsExcel(context.Background(), bytes.NewReader([]byte("not a workbook")))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
