package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	breaksRegex = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>`)
	tagRegex    = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
)

// flattenHTML turns post text that carries markup into plain text, keeping
// line breaks so the first line can still serve as a title.
func flattenHTML(text string) string {
	if !tagRegex.MatchString(text) {
		return text
	}

	withBreaks := breaksRegex.ReplaceAllStringFunc(text, func(tag string) string {
		return tag + "\n"
	})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(withBreaks))

	if err != nil {
		return text
	}

	return doc.Text()
}
