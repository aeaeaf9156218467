package question

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Options share one spreadsheet cell; ValidateQuestion rejects the separator inside an option.
const optionSeparator = "|"

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportReport struct {
	TotalRows   int              `json:"total_rows"`
	SuccessRows int              `json:"success_rows"`
	FailedRows  int              `json:"failed_rows"`
	Errors      []ImportRowError `json:"errors"`
}

// ExportQuestionsExcel writes the filtered bank as a single-sheet workbook. Options are
// joined with "|" and correct_answer is the zero-based option index.
func (s *Service) ExportQuestionsExcel(ctx context.Context, f QuestionFilter) ([]byte, error) {
	items, err := s.ListQuestions(ctx, f)
	if err != nil {
		return nil, err
	}

	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	sheet := book.GetSheetName(0)
	headers := []string{"id", "question", "options", "correct_answer", "section_id", "section"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = book.SetCellValue(sheet, cell, h)
	}
	for i, q := range items {
		values := []any{
			q.ID,
			q.Text,
			strings.Join(q.Options, " "+optionSeparator+" "),
			q.CorrectAnswer,
			q.SectionID,
			q.Section,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = book.SetCellValue(sheet, cell, v)
		}
	}
	_ = book.SetColWidth(sheet, "B", "C", 60)

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportQuestionsExcel upserts one question per data row. A blank id appends a new
// question, an unknown id is created as given. The section may be given by id or by name.
func (s *Service) ImportQuestionsExcel(ctx context.Context, r io.Reader) (*ImportReport, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open excel: %v", ErrInvalidInput, err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: excel sheet is empty", ErrInvalidInput)
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows found", ErrInvalidInput)
	}

	header := map[string]int{}
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"question", "options", "correct_answer"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", ErrInvalidInput, col)
		}
	}

	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(sections))
	for _, sec := range sections {
		byName[strings.ToLower(sec.Name)] = sec.ID
	}

	report := &ImportReport{Errors: make([]ImportRowError, 0)}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		get := func(key string) string {
			idx, ok := header[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if get("question") == "" && get("options") == "" {
			continue
		}
		report.TotalRows++

		in, err := importRow(get, byName)
		if err == nil {
			_, err = s.upsertQuestion(ctx, in, true)
		}
		if err != nil {
			report.FailedRows++
			report.Errors = append(report.Errors, ImportRowError{Row: i + 1, Error: rowErrorMessage(err)})
			continue
		}
		report.SuccessRows++
	}
	return report, nil
}

func importRow(get func(string) string, sectionsByName map[string]string) (UpsertQuestionInput, error) {
	var in UpsertQuestionInput

	if raw := get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return in, fmt.Errorf("%w: invalid id", ErrInvalidInput)
		}
		in.ID = id
	}
	correct, err := strconv.Atoi(get("correct_answer"))
	if err != nil {
		return in, fmt.Errorf("%w: invalid correct_answer", ErrInvalidInput)
	}

	in.Text = get("question")
	in.Options = strings.Split(get("options"), optionSeparator)
	in.CorrectAnswer = correct
	in.SectionID = get("section_id")
	if in.SectionID == "" {
		in.SectionID = sectionsByName[strings.ToLower(get("section"))]
	}
	return in, nil
}

func rowErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrSectionNotFound):
		return "section not found"
	default:
		return err.Error()
	}
}
