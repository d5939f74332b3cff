package seed

import "fmt"

// Verify checks that rows are ranked 1..n and ascending by time_taken.
func Verify(rows []Row) error {
	for i, r := range rows {
		if r.Rank != i+1 {
			return fmt.Errorf("%w: row %d has rank %d", ErrUnordered, i, r.Rank)
		}
		if i > 0 && rows[i-1].TimeTaken > r.TimeTaken {
			return fmt.Errorf("%w: %q (%ds) ranked above %q (%ds)", ErrUnordered,
				rows[i-1].TeamName, rows[i-1].TimeTaken, r.TeamName, r.TimeTaken)
		}
	}
	return nil
}

// Missing returns the submitted team names absent from rows.
func Missing(subs []Submission, rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.TeamName] = struct{}{}
	}
	var out []string
	for _, s := range subs {
		if _, ok := seen[s.TeamName]; !ok {
			out = append(out, s.TeamName)
		}
	}
	return out
}
