package processor

import (
	"html"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// ManageSpecialCharacters unescapes HTML entities and transliterates
// everything outside ASCII.
var ManageSpecialCharacters = Step{
	Apply: func(document string) (Metric, string) {
		document = strings.ReplaceAll(html.UnescapeString(document), "’", "'")
		document = norm.NFKC.String(document)
		return Metric{}, unidecode.Unidecode(document)
	},
}
