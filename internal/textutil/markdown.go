package textutil

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	blankLines    = regexp.MustCompile(`\n\s*\n`)
	markdownLink  = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	htmlTable     = regexp.MustCompile(`(?is)<table\b.*?</table>`)
	tableRow      = regexp.MustCompile(`(?m)^[ \t]*\|.*\n?`)
	emphasisMarks = regexp.MustCompile(`\*{1,2}|_{1,2}`)
)

// CleanContent converts an entry's HTML body into plain-ish markdown,
// dropping link/image URLs (keeping link text, dropping image alt text
// entirely), table rows, and emphasis markers, and collapsing the runs of
// blank lines the conversion tends to leave behind. This is the text
// content_summarize actually summarizes and chunk_translate actually
// chunks -- never the raw HTML.
func CleanContent(htmlContent string) (string, error) {
	converter := md.NewConverter("", true, nil)

	converted, err := converter.ConvertString(htmlTable.ReplaceAllString(htmlContent, ""))
	if err != nil {
		return "", err
	}

	converted = markdownLink.ReplaceAllStringFunc(converted, func(m string) string {
		sub := markdownLink.FindStringSubmatch(m)
		if strings.HasPrefix(m, "!") {
			return ""
		}
		return sub[1]
	})
	converted = tableRow.ReplaceAllString(converted, "")
	converted = emphasisMarks.ReplaceAllString(converted, "")
	return blankLines.ReplaceAllString(converted, "\n"), nil
}
