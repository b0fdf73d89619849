package collector

import "fmt"

// Statistics is a summary of a Collection, recomputed on every call.
type Statistics struct {
	TotalQuotes      int     `json:"total_quotes"`
	UniqueAuthors    int     `json:"unique_authors"`
	MostCommonAuthor string  `json:"most_common_author"`
	UniqueTags       int     `json:"unique_tags"`
	MostCommonTag    *string `json:"most_common_tag"` // nil when no record has tags
}

// ComputeStatistics summarizes c. It returns nil for an empty Collection.
//
// When several authors (or tags) share the highest count, the one that
// appears first in c wins, so the result does not depend on map order.
func ComputeStatistics(c Collection) *Statistics {
	if len(c) == 0 {
		return nil
	}

	authors := newTally()
	tags := newTally()
	for _, r := range c {
		authors.add(r.Author)
		for _, tag := range r.Tags {
			tags.add(tag)
		}
	}

	stats := &Statistics{
		TotalQuotes:      len(c),
		UniqueAuthors:    len(authors.counts),
		MostCommonAuthor: authors.top(),
		UniqueTags:       len(tags.counts),
	}
	if len(tags.order) > 0 {
		top := tags.top()
		stats.MostCommonTag = &top
	}
	return stats
}

// Lines renders the statistics as "Key: value" lines, one per field.
func (s *Statistics) Lines() []string {
	if s == nil {
		return nil
	}
	tag := "None"
	if s.MostCommonTag != nil {
		tag = *s.MostCommonTag
	}
	return []string{
		fmt.Sprintf("Total Quotes: %d", s.TotalQuotes),
		fmt.Sprintf("Unique Authors: %d", s.UniqueAuthors),
		fmt.Sprintf("Most Common Author: %s", s.MostCommonAuthor),
		fmt.Sprintf("Unique Tags: %d", s.UniqueTags),
		fmt.Sprintf("Most Common Tag: %s", tag),
	}
}

// tally counts values and remembers first-seen order.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(v string) {
	if _, seen := t.counts[v]; !seen {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

// top returns the most frequent value, earliest first-seen on ties.
func (t *tally) top() string {
	best, bestCount := "", 0
	for _, v := range t.order {
		if n := t.counts[v]; n > bestCount {
			best, bestCount = v, n
		}
	}
	return best
}
