package processor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xhad/intentprep/internal/models"
)

// SplitDocument splits a normalised document into contexts on runs of
// sentence-terminal punctuation. Fragments with fewer than two tokens, or
// no longer than one character once cleaned, are dropped.
func SplitDocument(document string) []string {
	document = validOrEmpty(document)

	var contexts []string
	for _, fragment := range split(sentenceSplit, CleanAcronym(document)) {
		if len(strings.Fields(fragment)) < 2 {
			continue
		}

		context := strings.TrimSpace(PreIntentClean(fragment))
		if utf8.RuneCountInString(context) > 1 {
			contexts = append(contexts, context)
		}
	}
	return contexts
}

// SplitIntoContexts splits every document and maps each context back to its
// position in documents. Documents without contexts contribute nothing.
func SplitIntoContexts(documents []string) *models.ContextSet {
	set := &models.ContextSet{}
	for i, document := range documents {
		set.Append(i, SplitDocument(document))
	}
	return set
}

// SplitWithIndexes is SplitIntoContexts for a subset of a corpus: contexts
// are mapped to originalIndexes[i] instead of i.
func SplitWithIndexes(documents []string, originalIndexes []int) (*models.ContextSet, error) {
	if len(originalIndexes) != len(documents) {
		return nil, fmt.Errorf("%w: %d documents, %d indexes", ErrLengthMismatch, len(documents), len(originalIndexes))
	}

	set := &models.ContextSet{}
	for i, document := range documents {
		set.Append(originalIndexes[i], SplitDocument(document))
	}
	return set, nil
}
