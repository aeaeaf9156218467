package question

import (
	"context"
	"fmt"
)

const DefaultBankSize = 100

var seedSections = []Section{
	{ID: "1", Name: "Mathematics & Statistics"},
	{ID: "2", Name: "Logical / Abstract Reasoning"},
	{ID: "3", Name: "English Comprehension & Verbal Ability"},
	{ID: "4", Name: "Computer Concepts"},
}

type seedItem struct {
	text    string
	options []string
	correct int
	section string
}

var seedQuestions = []seedItem{
	{"The general tendency of the data to increase or decrease during a long period of time is known as?", []string{"Secular trend", "Cyclical fluctuation", "Irregular movement", "Seasonal variation"}, 0, "1"},
	{"The elements of the set {x : x is an integer, x² ≤ 4} can be represented as .....Z..... . Here, Z refers to:", []string{"{–2, 2}", "{–1, 0, 1}", "{–2, –1, 0, 1, 2}", "{0, 1, 2}"}, 2, "1"},
	{"Find the centre and radius of the circle 2x² + 2y² = 3x – 5y + 7.", []string{"Centre (3/4, -5/4), radius = 3", "Centre (5/4, -3/4), radius = 2", "Centre (3/4, -5/4), radius = 2", "None of these"}, 0, "1"},
	{"Which is not a relative measure of skewness?", []string{"(Q3 - Q2) - (Q2 - Q1) / (Q3 - Q1)", "(P⁹⁰ - 2P⁵⁰ + P¹⁰) / (P⁹⁰ - P¹⁰)", "Mean - Mode", "Mean - Mode + Median"}, 2, "1"},
	{"Sampling fluctuations may be described as:", []string{"The variation in the values of a sample", "The differences in the values of a parameter", "The variation in the values of a statistic", "The variation in the values of observations"}, 2, "1"},
	{"Vital statistics is mainly concerned with:", []string{"Births", "Deaths", "Marriages", "All of the above"}, 3, "1"},
	{"Replication in an experiment means:", []string{"Total number of treatments", "The number of blocks", "The number of times a treatment occurs in an experiment", "None of the above"}, 2, "1"},
	{"Two dice are thrown simultaneously. The probability of obtaining a total score of seven is:", []string{"1/6", "1/8", "1/12", "1/36"}, 0, "1"},
	{"Statements: Some books are bags. All bags are trees. Conclusions: I. Some books are trees. II. Some trees are books.", []string{"If only conclusion I follows", "If only conclusion II follows", "If either I or II follows", "If neither I nor II follows", "If both I and II follow"}, 4, "2"},
	{"What should come in place of the question mark (?) in the following series? AC, FH, KM, PR, ?", []string{"UW", "VX", "VW", "TV", "None of these"}, 0, "2"},
	{"Team A has scored more goals than Team B. Team C has scored fewer goals than Team B. Team A has scored fewer goals than Team C. If the first two statements are true, the third statement is:", []string{"True", "False", "Uncertain", "None"}, 1, "2"},
	{"What should come next in the following letter series? H G F E D C B A G F E D C B A G F E D C B", []string{"E", "G", "F", "B", "None of the above"}, 2, "2"},
	{"I spoken the truth in front of my parents.", []string{"Will spoke", "Speaked", "Spoke", "Have spoke"}, 2, "3"},
	{"Choose the word which is opposite in meaning to the given word: Slothful", []string{"Lively", "Sinful", "Lazy", "Unnatural"}, 0, "3"},
	{"The primary objective of a socialist government is to the miseries of the poor.", []string{"Mollify", "Mitigate", "Soothe", "Abet"}, 1, "3"},
	{"Choose the word which is opposite in meaning to the given word: Haste", []string{"Soon", "Eventually", "Later", "Never"}, 2, "3"},
	{"A combination of hardware and software, which provides facilities of sending and receiving information between computer devices, is called:", []string{"Peripheral", "Expansion slot", "Network", "Server", "None of these"}, 2, "4"},
	{"Who developed object-oriented programming?", []string{"Adele Goldberg", "Dennis Ritchie", "Alan Kay", "Andrea Ferro"}, 2, "4"},
	{"The 0 and 1 in the binary numbering system are called Binary Digits or:", []string{"Bytes", "Kilobytes", "Decimal bytes", "Bits"}, 3, "4"},
	{"Which classes allow primitive types to be accessed as objects?", []string{"Storage", "Virtual", "Friend", "Wrapper"}, 3, "4"},
	{"Which of the following languages was developed as the first purely object-oriented programming language?", []string{"Smalltalk", "C++", "Kotlin", "Java"}, 0, "4"},
	{"Is Python case-sensitive when dealing with identifiers?", []string{"Yes", "No", "Machine dependent", "None of the mentioned"}, 0, "4"},
}

// SeedQuestions returns the built-in bank padded with generated items up to size.
// Generated items are deterministic so repeated seeding yields the same answer key.
func SeedQuestions(size int) []Question {
	if size <= 0 {
		size = DefaultBankSize
	}
	out := make([]Question, 0, size)
	for i, item := range seedQuestions {
		if len(out) == size {
			return out
		}
		out = append(out, Question{
			ID:            int64(i + 1),
			Text:          item.text,
			Options:       append([]string(nil), item.options...),
			CorrectAnswer: item.correct,
			SectionID:     item.section,
		})
	}
	for n := len(out) + 1; n <= size; n++ {
		out = append(out, Question{
			ID:            int64(n),
			Text:          fmt.Sprintf("Sample Question %d", n),
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: (n * 7) % 4,
			SectionID:     seedSections[n%len(seedSections)].ID,
		})
	}
	return out
}

func SeedSections() []Section {
	return append([]Section(nil), seedSections...)
}

// Seed fills an empty repository with the default sections and bank. A repository
// that already holds questions is left untouched.
func Seed(ctx context.Context, repo Repository, size int) (int, error) {
	existing, err := repo.ListQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	sections, err := repo.ListSections(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(sections))
	for _, s := range sections {
		have[s.ID] = true
	}
	for _, s := range seedSections {
		if have[s.ID] {
			continue
		}
		if err := repo.UpsertSection(ctx, s); err != nil {
			return 0, fmt.Errorf("seed section %s: %w", s.ID, err)
		}
	}

	items := SeedQuestions(size)
	for _, q := range items {
		if err := repo.UpsertQuestion(ctx, q); err != nil {
			return 0, fmt.Errorf("seed question %d: %w", q.ID, err)
		}
	}
	return len(items), nil
}
