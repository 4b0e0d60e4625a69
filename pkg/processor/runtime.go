package processor

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Cleaners applied after normalisation, around context splitting.
var (
	nonChar       = mustCompile(`[^a-zA-Z ]`)
	extraSpace    = mustCompile(`\s{2,}`)
	repeats       = mustCompile(`(.)(\1{2,})`)
	looseAcronym  = mustCompile(`(\w\.){2,}`)
	sentenceSplit = mustCompile(`[.?!;]+`)
)

// CleanAcronym removes the periods of dotted acronyms, matching any word
// character rather than letters only.
func CleanAcronym(document string) string {
	document, _ = substitute(looseAcronym, document, collapseAcronym)
	return document
}

// PreIntentClean collapses runs of three or more identical characters and
// runs of whitespace.
func PreIntentClean(document string) string {
	document, _ = substitute(repeats, document, func(m *regexp2.Match) string {
		first, _ := group(m, 1)
		return first
	})
	document, _ = substituteString(extraSpace, document, " ")
	return document
}

// FinalClean keeps letters and spaces only. Contexts pass through it when
// they are persisted.
func FinalClean(document string) string {
	document, _ = substituteString(nonChar, document, " ")
	document, _ = substituteString(extraSpace, document, " ")
	return document
}

// RuntimeClean applies FinalClean to loaded documents in place. Invalid
// UTF-8 entries become empty.
func RuntimeClean(documents []string) []string {
	for i, document := range documents {
		documents[i] = FinalClean(validOrEmpty(document))
	}
	return documents
}

// SimulatedRuntimeClean runs the whole post-normalisation chain, from
// acronym collapsing to the final clean, without splitting.
func SimulatedRuntimeClean(documents []string) []string {
	for i, document := range documents {
		documents[i] = FinalClean(PreIntentClean(CleanAcronym(validOrEmpty(document))))
	}
	return documents
}

func validOrEmpty(document string) string {
	if utf8.ValidString(document) {
		return document
	}
	return ""
}
