package processor

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// hashtagRegex assumes emoji references have already been removed, since
// "&#1234;" would otherwise read as a hashtag.
var (
	hashtagRegex       = mustCompile(`#[a-zA-Z0-9_]+`)
	hashtagParserRegex = mustCompile(`[a-z]+|[A-Z][a-z]+|[A-Z]+(?![a-z])|\d+`)
)

// SplitHashtags rewrites "#ThisIsGreat" as "this is great".
var SplitHashtags = Step{
	Name: "hashtag_count",
	Apply: func(document string) (Metric, string) {
		document, count := substitute(hashtagRegex, document, func(m *regexp2.Match) string {
			return splitHashtag(m.String())
		})
		return counted(count, document)
	},
}

func splitHashtag(hashtag string) string {
	words := findAll(hashtagParserRegex, hashtag)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, " ")
}
