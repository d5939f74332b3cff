// Package projection derives the read views of the leaderboard from a
// snapshot. Every function is pure and returns fresh slices.
package projection

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/huntboard/internal/domain/model"
	"github.com/okian/huntboard/internal/domain/timefmt"
)

// Stats aggregates a snapshot. Best and Mean are seconds.
type Stats struct {
	Best  int `json:"best"`
	Count int `json:"count"`
	Mean  int `json:"mean"`
}

// Row is a ranked entry with its display time.
type Row struct {
	Rank int `json:"rank"`
	model.Entry
	Time string `json:"time"`
}

// Board is what a leaderboard page renders.
type Board struct {
	Rows       []Row  `json:"rows"`
	Stats      Stats  `json:"stats"`
	BestTime   string `json:"best_time"`
	MeanTime   string `json:"mean_time"`
	Query      string `json:"query,omitempty"`
	Filter     string `json:"department"`
	Unfiltered int    `json:"total"`
}

// SortedByTime returns entries ordered by ascending time. Ties keep their input order.
func SortedByTime(entries []model.Entry) []model.Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.Entry) int {
		return cmp.Compare(a.TimeTaken, b.TimeTaken)
	})
	return out
}

// Filtered keeps entries whose department matches dept ("" or "All" match
// everything) and whose team name contains query, ignoring case. Order is preserved.
func Filtered(entries []model.Entry, query, dept string) []model.Entry {
	fold := cases.Fold()
	q := fold.String(query)
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if dept != "" && dept != model.DepartmentAll && e.Department != dept {
			continue
		}
		if q != "" && !strings.Contains(fold.String(e.TeamName), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Summarize computes stats over the whole snapshot. Mean is floored; empty input yields zeros.
func Summarize(entries []model.Entry) Stats {
	if len(entries) == 0 {
		return Stats{}
	}
	sum := 0
	best := entries[0].TimeTaken
	for _, e := range entries {
		sum += e.TimeTaken
		best = min(best, e.TimeTaken)
	}
	// time_taken is never negative so integer division floors.
	return Stats{Best: best, Count: len(entries), Mean: sum / len(entries)}
}

// Ranked sorts entries by time and numbers them from 1.
func Ranked(entries []model.Entry) []Row {
	sorted := SortedByTime(entries)
	rows := make([]Row, len(sorted))
	for i, e := range sorted {
		rows[i] = Row{Rank: i + 1, Entry: e, Time: timefmt.Format(e.TimeTaken)}
	}
	return rows
}

// BuildBoard ranks the filtered view. Stats always describe the unfiltered snapshot.
func BuildBoard(entries []model.Entry, query, dept string) Board {
	if dept == "" {
		dept = model.DepartmentAll
	}
	stats := Summarize(entries)
	return Board{
		Rows:       Ranked(Filtered(entries, query, dept)),
		Stats:      stats,
		BestTime:   timefmt.Format(stats.Best),
		MeanTime:   timefmt.Format(stats.Mean),
		Query:      query,
		Filter:     dept,
		Unfiltered: len(entries),
	}
}
