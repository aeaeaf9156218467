package exam

import (
	"math"
	"sort"

	"mocktest/internal/question"
)

// MarksPerQuestion is the weight shown on the results page.
const MarksPerQuestion = 2

type Band string

const (
	BandExcellent     Band = "excellent"
	BandGood          Band = "good"
	BandNeedsPractice Band = "needs_practice"
)

type SectionScore struct {
	SectionID  string  `json:"section_id"`
	Section    string  `json:"section"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type ScoreSummary struct {
	CorrectCount  int            `json:"correct_count"`
	TotalCount    int            `json:"total_count"`
	Percentage    float64        `json:"percentage"`
	Marks         int            `json:"marks"`
	MaxMarks      int            `json:"max_marks"`
	Band          Band           `json:"band"`
	Message       string         `json:"message"`
	SectionScores []SectionScore `json:"section_scores"`
}

// Score grades answers against questions. Answers are keyed by 1-based position in
// questions, not by question id; numbers outside [1, len(questions)] are ignored.
// Neither input is modified.
func Score(questions []question.Question, answers map[int]int) ScoreSummary {
	out := ScoreSummary{
		TotalCount:    len(questions),
		SectionScores: make([]SectionScore, 0),
	}

	index := map[string]int{}
	for i, q := range questions {
		key := q.SectionID
		if key == "" {
			key = q.Section
		}
		pos, ok := index[key]
		if !ok {
			pos = len(out.SectionScores)
			index[key] = pos
			name := q.Section
			if name == "" {
				name = q.SectionID
			}
			out.SectionScores = append(out.SectionScores, SectionScore{SectionID: q.SectionID, Section: name})
		}
		out.SectionScores[pos].Total++

		selected, answered := answers[i+1]
		if answered && selected == q.CorrectAnswer {
			out.CorrectCount++
			out.SectionScores[pos].Correct++
		}
	}

	out.Percentage = percentage(out.CorrectCount, out.TotalCount)
	for i := range out.SectionScores {
		out.SectionScores[i].Percentage = percentage(out.SectionScores[i].Correct, out.SectionScores[i].Total)
	}
	sort.SliceStable(out.SectionScores, func(i, j int) bool {
		return out.SectionScores[i].Section < out.SectionScores[j].Section
	})

	out.Marks = out.CorrectCount * MarksPerQuestion
	out.MaxMarks = out.TotalCount * MarksPerQuestion
	out.Band = BandFor(out.Percentage)
	out.Message = bandMessage(out.Band)
	return out
}

// percentage is correct/total*100 rounded to one decimal; an empty total yields 0.
func percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*10) / 10
}

func BandFor(p float64) Band {
	switch {
	case p >= 70:
		return BandExcellent
	case p >= 40:
		return BandGood
	default:
		return BandNeedsPractice
	}
}

func bandMessage(b Band) string {
	switch b {
	case BandExcellent:
		return "Excellent! Keep up the good work."
	case BandGood:
		return "Good effort! There's room for improvement."
	default:
		return "You need more practice. Don't give up!"
	}
}
