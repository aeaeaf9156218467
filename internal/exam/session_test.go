package exam

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mocktest/internal/question"
)

// bank builds questions with four options each; sections[i] is used as both id and name.
func bank(keys []int, sections []string) []question.Question {
	out := make([]question.Question, 0, len(keys))
	for i, k := range keys {
		sec := "Math"
		if i < len(sections) {
			sec = sections[i]
		}
		out = append(out, question.Question{
			ID:            int64(i + 1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: k,
			SectionID:     sec,
			Section:       sec,
		})
	}
	return out
}

func newTestSession(t *testing.T, n int) *Session {
	t.Helper()
	keys := make([]int, n)
	s, err := NewSession("s-1", bank(keys, nil), time.Now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestNewSessionVisitsFirstQuestion(t *testing.T) {
	s := newTestSession(t, 3)
	view := s.Snapshot()
	if view.Current != 1 || view.Total != 3 {
		t.Fatalf("unexpected start: %+v", view)
	}
	if s.Status(1) != StatusSeen || s.Status(2) != StatusUnattempted {
		t.Fatalf("expected q1 seen and q2 unattempted, got %s %s", s.Status(1), s.Status(2))
	}
	if _, ok := view.Statuses[2]; ok {
		t.Fatalf("unvisited question should have no status entry")
	}
}

func TestNewSessionRejectsEmptyBank(t *testing.T) {
	if _, err := NewSession("x", nil, time.Now()); !errors.Is(err, question.ErrEmptyBank) {
		t.Fatalf("expected ErrEmptyBank, got %v", err)
	}
}

func TestSelectOptionLastWriteWins(t *testing.T) {
	s := newTestSession(t, 5)
	if err := s.SelectOption(3, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.SelectOption(3, 3); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	view := s.Snapshot()
	if len(view.Answers) != 1 || view.Answers[3] != 3 {
		t.Fatalf("expected only answer 3->3, got %v", view.Answers)
	}
	if view.Statuses[3] != StatusAttempted {
		t.Fatalf("expected attempted, got %s", view.Statuses[3])
	}
}

func TestSelectOptionRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		number int
		option int
		want   error
	}{
		{name: "option negative", number: 1, option: -1, want: ErrInvalidOption},
		{name: "option too high", number: 1, option: 4, want: ErrInvalidOption},
		{name: "question zero", number: 0, option: 0, want: ErrQuestionOutOfRange},
		{name: "question past end", number: 4, option: 0, want: ErrQuestionOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t, 3)
			before := s.Snapshot()
			if err := s.SelectOption(tc.number, tc.option); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			after := s.Snapshot()
			if len(after.Answers) != len(before.Answers) || len(after.Statuses) != len(before.Statuses) {
				t.Fatalf("state changed on rejected input: %+v", after)
			}
		})
	}
}

func TestVisitNeverDowngradesAttempted(t *testing.T) {
	s := newTestSession(t, 3)
	_ = s.SelectOption(2, 0)
	for i := 0; i < 3; i++ {
		if err := s.Visit(2); err != nil {
			t.Fatalf("visit: %v", err)
		}
	}
	if err := s.GoTo(2); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if s.Status(2) != StatusAttempted {
		t.Fatalf("expected attempted to be absorbing, got %s", s.Status(2))
	}
	if err := s.Visit(3); err != nil || s.Status(3) != StatusSeen {
		t.Fatalf("expected q3 seen, got %s err=%v", s.Status(3), err)
	}
}

func TestGoToOutOfRangeKeepsCurrent(t *testing.T) {
	s := newTestSession(t, 4)
	_ = s.GoTo(3)
	for _, n := range []int{0, -1, 5, 100} {
		if err := s.GoTo(n); !errors.Is(err, ErrQuestionOutOfRange) {
			t.Fatalf("goto %d: expected ErrQuestionOutOfRange, got %v", n, err)
		}
		if got := s.Snapshot().Current; got != 3 {
			t.Fatalf("goto %d moved current to %d", n, got)
		}
	}
}

func TestNextPrevBoundaries(t *testing.T) {
	s := newTestSession(t, 3)

	moved, err := s.Prev()
	if err != nil || moved {
		t.Fatalf("prev at first question: moved=%v err=%v", moved, err)
	}
	for i := 2; i <= 3; i++ {
		moved, err = s.Next()
		if err != nil || !moved {
			t.Fatalf("next to %d: moved=%v err=%v", i, moved, err)
		}
		if s.Status(i) != StatusSeen {
			t.Fatalf("expected q%d seen after next", i)
		}
	}
	moved, _ = s.Next()
	if moved || s.Snapshot().Current != 3 {
		t.Fatalf("next at last question should be a no-op")
	}
	moved, _ = s.Prev()
	if !moved || s.Snapshot().Current != 2 {
		t.Fatalf("prev should move back to 2")
	}
}

func TestQuestionViewHidesAnswerKey(t *testing.T) {
	s := newTestSession(t, 2)
	_ = s.SelectOption(2, 1)
	view, err := s.Question(2)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if view.Selected == nil || *view.Selected != 1 || view.Status != StatusAttempted {
		t.Fatalf("unexpected view: %+v", view)
	}
	if _, err := s.Question(3); !errors.Is(err, ErrQuestionOutOfRange) {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
}

func TestClosedSessionRejectsMutation(t *testing.T) {
	s := newTestSession(t, 2)
	if _, err := s.RequestSubmit(); err != nil {
		t.Fatalf("request submit: %v", err)
	}
	if _, err := s.ConfirmSubmit(context.Background(), NewCandidateStore(NewMemoryKV())); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := s.SelectOption(1, 0); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("select after close: %v", err)
	}
	if err := s.GoTo(2); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("goto after close: %v", err)
	}
	if err := s.Visit(2); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("visit after close: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("next after close: %v", err)
	}
	if _, err := s.RequestSubmit(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("request after close: %v", err)
	}
	view := s.Snapshot()
	if !view.Closed || view.SubmittedAt == nil {
		t.Fatalf("expected closed snapshot, got %+v", view)
	}
}

func TestPaletteGroupsAndTones(t *testing.T) {
	sections := []string{"Math", "English", "Math", "Computer", "English"}
	s, err := NewSession("p", bank(make([]int, 5), sections), time.Now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_ = s.SelectOption(3, 2)
	_ = s.GoTo(2)

	p, err := s.Palette("")
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	wantGroups := []string{PaletteAll, "Math", "English", "Computer"}
	if len(p.Groups) != len(wantGroups) {
		t.Fatalf("unexpected groups: %+v", p.Groups)
	}
	for i, g := range wantGroups {
		if p.Groups[i].ID != g {
			t.Fatalf("group %d: expected %s, got %s", i, g, p.Groups[i].ID)
		}
	}
	if p.Groups[1].Count != 2 || p.Groups[0].Count != 5 {
		t.Fatalf("unexpected counts: %+v", p.Groups)
	}
	if len(p.Cells) != 5 || p.Current != 2 {
		t.Fatalf("unexpected cells/current: %d %d", len(p.Cells), p.Current)
	}

	wantTones := []Tone{ToneWarning, ToneWarning, ToneSuccess, ToneNeutral, ToneNeutral}
	for i, c := range p.Cells {
		if c.Tone != wantTones[i] {
			t.Fatalf("cell %d: expected tone %s, got %s", c.Number, wantTones[i], c.Tone)
		}
		if c.Current != (c.Number == 2) {
			t.Fatalf("cell %d: unexpected current flag", c.Number)
		}
	}
	if p.Progress != (Progress{Attempted: 1, Seen: 2, Unattempted: 2, Total: 5}) {
		t.Fatalf("unexpected progress: %+v", p.Progress)
	}

	english, err := s.Palette("English")
	if err != nil {
		t.Fatalf("filtered palette: %v", err)
	}
	if len(english.Cells) != 2 || english.Cells[0].Number != 2 || english.Cells[1].Number != 5 {
		t.Fatalf("unexpected filtered cells: %+v", english.Cells)
	}
	if english.Progress.Total != 5 {
		t.Fatalf("progress should cover the whole session, got %+v", english.Progress)
	}

	if _, err := s.Palette("History"); !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if s.Status(2) != StatusSeen {
		t.Fatalf("palette must not mutate statuses")
	}
}
