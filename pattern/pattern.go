// Package pattern resolves user-supplied file patterns (globs or
// literal paths) into concrete file paths.
//
// Each pattern is expanded as a glob first. A pattern that expands to
// nothing and contains no glob metacharacters is retried as a literal
// path — its existence is checked by whoever consumes the result, not
// here. A pattern that looks like a glob (contains any of * ? [ {) and
// matches nothing is reported as a dead pattern, never as a literal.
// This asymmetry is intentional: "notes.txt" should fall through to a
// file-not-found error downstream, while "*.txt" matching nothing is
// simply an empty glob.
package pattern

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Result is the outcome of resolving a single pattern.
type Result struct {
	// Pattern is the original input string.
	Pattern string
	// Paths are the resolved file paths, in glob order (sorted by
	// filepath.Glob) or a single literal path.
	Paths []string
	// NoMatch is set when a glob-looking pattern matched nothing.
	NoMatch bool
	// Err is set when the pattern itself was malformed.
	Err error
}

// metacharacters that make a pattern glob-looking.
const metacharacters = "*?[{"

// Match resolves patterns against workdir, in input order. Relative
// patterns and relative results are interpreted against workdir; the
// returned paths keep the form the pattern used (relative stays
// relative). Match touches the filesystem only through glob expansion
// and never modifies anything.
func Match(workdir string, patterns []string) []Result {
	results := make([]Result, 0, len(patterns))
	for _, p := range patterns {
		results = append(results, matchOne(workdir, p))
	}
	return results
}

func matchOne(workdir, pat string) Result {
	res := Result{Pattern: pat}

	globPat := pat
	if !filepath.IsAbs(pat) && workdir != "" {
		globPat = filepath.Join(workdir, pat)
	}

	matches, err := filepath.Glob(globPat)
	if err != nil {
		res.Err = fmt.Errorf("invalid pattern %q: %w", pat, err)
		return res
	}

	if len(matches) > 0 {
		if globPat != pat {
			// Undo the workdir prefix so results keep the caller's form.
			for i, m := range matches {
				if rel, err := filepath.Rel(workdir, m); err == nil {
					matches[i] = rel
				}
			}
		}
		res.Paths = matches
		return res
	}

	if strings.ContainsAny(pat, metacharacters) {
		res.NoMatch = true
		return res
	}

	// Literal fallback: hand the path downstream untouched.
	res.Paths = []string{pat}
	return res
}
