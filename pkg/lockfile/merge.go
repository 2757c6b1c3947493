package lockfile

// Conflict records two lockfiles disagreeing on the integrity of the same
// name and version. Kept is the value retained by [Merge].
type Conflict struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Kept      string `json:"kept"`
	Discarded string `json:"discarded"`
}

type depKey struct {
	name, version string
}

// Merge unions the dependencies of results into a list with one entry per
// (name, version), in first-seen order. When entries disagree on integrity
// the first non-empty value in input order wins. Parse errors are not
// carried over; they stay on the individual results.
//
// Merge never modifies its inputs.
func Merge(results ...Result) []Dependency {
	deps, _ := MergeWithConflicts(results...)
	return deps
}

// MergeWithConflicts is [Merge] that also reports every integrity
// disagreement it resolved, for callers that need to surface them.
func MergeWithConflicts(results ...Result) ([]Dependency, []Conflict) {
	merged := make([]Dependency, 0)
	index := make(map[depKey]int)
	var conflicts []Conflict

	for _, r := range results {
		for _, d := range r.Dependencies {
			if d.Name == "" || d.Version == "" {
				continue
			}
			k := depKey{d.Name, d.Version}
			i, seen := index[k]
			if !seen {
				index[k] = len(merged)
				merged = append(merged, d)
				continue
			}

			kept := &merged[i]
			switch {
			case d.Integrity == "" || d.Integrity == kept.Integrity:
			case kept.Integrity == "":
				kept.Integrity = d.Integrity
			default:
				conflicts = append(conflicts, Conflict{
					Name:      d.Name,
					Version:   d.Version,
					Kept:      kept.Integrity,
					Discarded: d.Integrity,
				})
			}
		}
	}
	return merged, conflicts
}
