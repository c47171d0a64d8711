package exec

import (
	"regexp"
)

// rule is a single deny predicate over the raw command text.
type rule struct {
	name string
	re   *regexp.Regexp
}

// CommandFilter rejects commands matching a deny-list of patterns associated
// with credential exfiltration, container/network escape, and path traversal.
//
// This is a textual heuristic, NOT a security boundary: it cannot catch
// obfuscated or encoded variants. True isolation must come from the container
// runtime itself; the filter only raises the bar for careless misuse.
type CommandFilter struct {
	rules []rule
}

// NewCommandFilter builds a filter from two rule classes:
//   - words: matched case-insensitively with word boundaries, so "docker ps"
//     is rejected but a path segment like "dockerfile_helpers" is not.
//   - fragments: literal substrings matched case-insensitively anywhere,
//     for path patterns like "/etc/passwd" or "../../".
func NewCommandFilter(words, fragments []string) *CommandFilter {
	var rules []rule
	for _, w := range words {
		rules = append(rules, rule{
			name: w,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	for _, f := range fragments {
		rules = append(rules, rule{
			name: f,
			re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(f)),
		})
	}
	return &CommandFilter{rules: rules}
}

// Check evaluates the command text against every rule and returns a
// BlockedCommandError naming the first rule that matched, or nil.
func (f *CommandFilter) Check(command string) error {
	for _, r := range f.rules {
		if r.re.MatchString(command) {
			return &BlockedCommandError{Rule: r.name}
		}
	}
	return nil
}
