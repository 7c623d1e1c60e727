package segment

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"winelens/internal/wine"
)

// GroupIntoWineEntries clusters fragments into candidates by vertical gap.
func GroupIntoWineEntries(fragments []wine.Fragment, opts Options) []wine.Candidate {
	opts = opts.normalized()

	sorted := make([]wine.Fragment, 0, len(fragments))
	for _, f := range fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		sorted = append(sorted, f)
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortStableFunc(sorted, func(a, b wine.Fragment) int {
		return cmp.Compare(a.Box.MinY(), b.Box.MinY())
	})

	var (
		candidates []wine.Candidate
		group      []wine.Fragment
		bottom     float64
	)
	flush := func() {
		if len(group) == 0 {
			return
		}
		if c, ok := buildCandidate(group, opts); ok {
			candidates = append(candidates, c)
		}
		group = nil
	}
	for _, f := range sorted {
		if len(group) > 0 && f.Box.MinY()-bottom >= opts.LineGap {
			flush()
		}
		if len(group) == 0 {
			bottom = f.Box.MaxY()
		}
		group = append(group, f)
		bottom = max(bottom, f.Box.MaxY())
	}
	flush()
	return candidates
}

func buildCandidate(group []wine.Fragment, opts Options) (wine.Candidate, bool) {
	lines := splitLines(group)

	parts := make([]string, 0, len(group))
	box := group[0].Box
	total := 0.0
	for _, line := range lines {
		for _, f := range line {
			parts = append(parts, f.Text)
			box = box.Union(f.Box)
			total += f.Confidence
		}
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if utf8.RuneCountInString(text) < opts.MinLength {
		return wine.Candidate{}, false
	}
	return wine.Candidate{
		Text:       text,
		Box:        box,
		Confidence: total / float64(len(group)),
		LineCount:  len(lines),
	}, true
}

// splitLines orders a group into reading order: a fragment starts a new line
// when its top sits below the middle of the current line.
func splitLines(group []wine.Fragment) [][]wine.Fragment {
	var (
		lines   [][]wine.Fragment
		current []wine.Fragment
		mid     float64
	)
	for _, f := range group {
		if len(current) > 0 && f.Box.MinY() > mid {
			lines = append(lines, current)
			current = nil
		}
		if len(current) == 0 {
			mid = f.Box.MinY() + f.Box.Height/2
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	for _, line := range lines {
		slices.SortStableFunc(line, func(a, b wine.Fragment) int {
			return cmp.Compare(a.Box.MinX(), b.Box.MinX())
		})
	}
	return lines
}
