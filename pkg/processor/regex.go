package processor

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single regex evaluation. The link and tag patterns
// backtrack on adversarial input.
const matchTimeout = 2 * time.Second

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

// regexError is raised from inside a transform and recovered by the
// pipeline, which records it against the document.
type regexError struct {
	pattern string
	err     error
}

func (e *regexError) Error() string {
	return fmt.Sprintf("regex %q: %v", e.pattern, e.err)
}

func (e *regexError) Unwrap() error {
	return e.err
}

// substitute replaces every match with the evaluator's output and reports the
// number of replacements.
func substitute(re *regexp2.Regexp, document string, evaluator func(m *regexp2.Match) string) (string, int) {
	count := 0
	out, err := re.ReplaceFunc(document, func(m regexp2.Match) string {
		count++
		return evaluator(&m)
	}, -1, -1)
	if err != nil {
		panic(&regexError{pattern: re.String(), err: err})
	}
	return out, count
}

// substituteString replaces every match with a fixed replacement.
func substituteString(re *regexp2.Regexp, document, replacement string) (string, int) {
	return substitute(re, document, func(*regexp2.Match) string {
		return replacement
	})
}

func findAll(re *regexp2.Regexp, document string) []string {
	var found []string
	m, err := re.FindStringMatch(document)
	for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
		found = append(found, m.String())
	}
	if err != nil {
		panic(&regexError{pattern: re.String(), err: err})
	}
	return found
}

// split cuts document around every match, keeping empty fragments the way a
// regex split does.
func split(re *regexp2.Regexp, document string) []string {
	runes := []rune(document)
	var fragments []string
	last := 0

	m, err := re.FindStringMatch(document)
	for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
		fragments = append(fragments, string(runes[last:m.Index]))
		last = m.Index + m.Length
	}
	if err != nil {
		panic(&regexError{pattern: re.String(), err: err})
	}

	return append(fragments, string(runes[last:]))
}

func group(m *regexp2.Match, n int) (string, bool) {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}
