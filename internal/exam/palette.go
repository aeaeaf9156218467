package exam

import "strings"

type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
)

const PaletteAll = "all"

type PaletteCell struct {
	Number    int    `json:"number"`
	SectionID string `json:"section_id"`
	Status    Status `json:"status"`
	Tone      Tone   `json:"tone"`
	Current   bool   `json:"current"`
}

type PaletteGroup struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Progress struct {
	Attempted   int `json:"attempted"`
	Seen        int `json:"seen"`
	Unattempted int `json:"unattempted"`
	Total       int `json:"total"`
}

type Palette struct {
	Filter   string         `json:"filter"`
	Groups   []PaletteGroup `json:"groups"`
	Cells    []PaletteCell  `json:"cells"`
	Current  int            `json:"current"`
	Progress Progress       `json:"progress"`
}

func ToneFor(st Status) Tone {
	switch st {
	case StatusAttempted:
		return ToneSuccess
	case StatusSeen:
		return ToneWarning
	default:
		return ToneNeutral
	}
}

// Palette projects the session into a grid. Groups lists "all" first, then each
// section in order of first appearance; cells hold only the filtered group. The
// current flag is visual and does not change a cell's status or tone.
func (s *Session) Palette(filter string) (Palette, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = PaletteAll
	}

	groups := []PaletteGroup{{ID: PaletteAll, Name: "All", Count: len(s.questions)}}
	index := map[string]int{}
	for _, q := range s.questions {
		i, ok := index[q.SectionID]
		if !ok {
			i = len(groups)
			index[q.SectionID] = i
			name := q.Section
			if name == "" {
				name = q.SectionID
			}
			groups = append(groups, PaletteGroup{ID: q.SectionID, Name: name})
		}
		groups[i].Count++
	}
	if _, ok := index[filter]; !ok && filter != PaletteAll {
		return Palette{}, ErrUnknownSection
	}

	out := Palette{
		Filter:  filter,
		Groups:  groups,
		Cells:   make([]PaletteCell, 0, len(s.questions)),
		Current: s.current + 1,
	}
	for i, q := range s.questions {
		number := i + 1
		st := s.statusOf(number)
		switch st {
		case StatusAttempted:
			out.Progress.Attempted++
		case StatusSeen:
			out.Progress.Seen++
		default:
			out.Progress.Unattempted++
		}
		if filter != PaletteAll && q.SectionID != filter {
			continue
		}
		out.Cells = append(out.Cells, PaletteCell{
			Number:    number,
			SectionID: q.SectionID,
			Status:    st,
			Tone:      ToneFor(st),
			Current:   number == s.current+1,
		})
	}
	out.Progress.Total = len(s.questions)
	return out, nil
}
