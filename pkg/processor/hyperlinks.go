package processor

import (
	"sort"

	"github.com/dlclark/regexp2"
)

// shortLinkDomain is removed like any other link but never collected.
const shortLinkDomain = "t.co"

var urlRegex = mustCompile(`http(s)?://(w{3}\.)?(([\w\-_]+\.)+\w{1,6})(/[\w&$\-_.+!*'()?=#;%:~,]*)*|` +
	`http:?(/){0,2}\S*$`)

// PullHyperlinks replaces links with a " url " placeholder. The metric
// carries the distinct domains removed, sorted.
var PullHyperlinks = Step{
	Name: "hyperlinks",
	Apply: func(document string) (Metric, string) {
		domains := make(map[string]struct{})

		document, count := substitute(urlRegex, document, func(m *regexp2.Match) string {
			if domain, ok := group(m, 3); ok && domain != shortLinkDomain {
				domains[domain] = struct{}{}
			}
			return " url "
		})

		items := make([]string, 0, len(domains))
		for domain := range domains {
			items = append(items, domain)
		}
		sort.Strings(items)

		return Metric{Count: count, Items: items}, document
	},
}
