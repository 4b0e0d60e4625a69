package processor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Forum quote blocks and their citations are marked up with these exact
// attribute values.
const (
	quoteStyle    = "margin:20px; margin-top:5px; "
	citationAlign = "right"
)

// RemoveQuotes drops quoted replies and their citations and reports the
// number of quotes removed. Documents without a matching block are returned
// untouched, so plain text is never re-serialised.
var RemoveQuotes = Step{
	Name: "quotes",
	Apply: func(document string) (Metric, string) {
		if !strings.Contains(document, "<div") {
			return Metric{}, document
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
		if err != nil {
			return Metric{}, document
		}

		quotes := doc.Find("div").FilterFunction(attrEquals("style", quoteStyle))
		citations := doc.Find("div").FilterFunction(attrEquals("align", citationAlign))
		if quotes.Length() == 0 && citations.Length() == 0 {
			return Metric{}, document
		}

		count := quotes.Length()
		quotes.Remove()
		citations.Remove()

		cleaned, err := doc.Find("body").Html()
		if err != nil {
			return Metric{}, document
		}
		return counted(count, cleaned)
	},
}

func attrEquals(name, value string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(name)
		return ok && v == value
	}
}
