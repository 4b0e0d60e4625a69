package processor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Metric is the statistic a step reports for one document.
type Metric struct {
	Count int
	Items []string
}

// Step is one normalisation transform. Apply must be a pure function of its
// input. Name is the statistic header; steps that report nothing leave it empty.
type Step struct {
	Name  string
	Apply func(document string) (Metric, string)
}

var (
	emojiRegex       = mustCompile(`&#\d{4,7};`)
	expressRegex     = mustCompile(`[!?]`)
	punctuationRegex = mustCompile(`[^a-zA-Z0-9]`)
	partialClean     = mustCompile(`[^a-zA-Z,.!?'";:\- ]+`)
	digitRegex       = mustCompile(`[0-9]+(\.[0-9]+)?([a-z]{2})?`)
	spaceRegex       = mustCompile(`[\n\r]|[ ]{2,}`)
	imageRegex       = mustCompile(`Image:\w[\w\s]+.\w{3}`)
	repeatRegex      = mustCompile(`(\w)\1{2,}`)
	tagRegex         = mustCompile(`(?<!<)<[\w\d/'"=;:,.&#%?!@+()\[\]{}\-\n ]+>(n(?= ))?`)
	bracketRegex     = mustCompile(`(?<=\S)[\(\[](\w)[\)\]]`)
	acronymRegex     = mustCompile(`([a-zA-Z]\.){2,}`)
)

func counted(count int, document string) (Metric, string) {
	return Metric{Count: count}, document
}

var OriginalLength = Step{
	Name: "original_length",
	Apply: func(document string) (Metric, string) {
		return counted(utf8.RuneCountInString(document), document)
	},
}

// CountUpper counts uppercase characters and lowercases the document.
var CountUpper = Step{
	Name: "upper_count",
	Apply: func(document string) (Metric, string) {
		count := 0
		for _, r := range document {
			if unicode.IsUpper(r) {
				count++
			}
		}
		return counted(count, strings.ToLower(document))
	},
}

// CountEmojis removes numeric character references such as "&#128512;".
var CountEmojis = Step{
	Name: "emoji_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(emojiRegex, document, " ")
		return counted(count, document)
	},
}

var CountExpress = Step{
	Name: "express_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(expressRegex, document, " ")
		return counted(count, document)
	},
}

var CountPunctuation = Step{
	Name: "punctuation_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(punctuationRegex, document, " ")
		return counted(count, document)
	},
}

// CountDigits removes numbers, with an optional decimal part and a two
// letter unit suffix ("12.5km").
var CountDigits = Step{
	Name: "digit_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(digitRegex, document, " ")
		return counted(count, document)
	},
}

// CountImages replaces "Image:name.ext" references with a placeholder.
var CountImages = Step{
	Name: "image_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(imageRegex, document, " image ")
		return counted(count, document)
	},
}

// CountBracketText unwraps single bracketed characters: "person(s)" -> "persons".
var CountBracketText = Step{
	Name: "bracket_text_count",
	Apply: func(document string) (Metric, string) {
		document, count := substitute(bracketRegex, document, func(m *regexp2.Match) string {
			inner, _ := group(m, 1)
			return inner
		})
		return counted(count, document)
	},
}

// CountRepeats collapses a word character repeated three or more times.
var CountRepeats = Step{
	Name: "repeat_count",
	Apply: func(document string) (Metric, string) {
		document, count := substitute(repeatRegex, document, func(m *regexp2.Match) string {
			first, _ := group(m, 1)
			return first
		})
		return counted(count, document)
	},
}

// CountTags removes markup tags. A tag preceded by another '<' is left alone.
var CountTags = Step{
	Name: "tag_count",
	Apply: func(document string) (Metric, string) {
		document, count := substituteString(tagRegex, document, " ")
		return counted(count, document)
	},
}

var RemoveSpaces = Step{
	Apply: func(document string) (Metric, string) {
		document, _ = substituteString(spaceRegex, document, " ")
		return Metric{}, document
	},
}

// PartialClean keeps letters, a restricted punctuation set and spaces.
var PartialClean = Step{
	Apply: func(document string) (Metric, string) {
		document, _ = substituteString(partialClean, document, " ")
		return Metric{}, document
	},
}

// CountAcronyms removes the periods of dotted acronyms: "U.S.A." -> "USA ".
var CountAcronyms = Step{
	Name: "acronym_count",
	Apply: func(document string) (Metric, string) {
		document, count := substitute(acronymRegex, document, collapseAcronym)
		return counted(count, document)
	},
}

func collapseAcronym(m *regexp2.Match) string {
	return strings.ReplaceAll(m.String(), ".", "") + " "
}
