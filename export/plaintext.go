// export/plaintext.go
package export

import (
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// HTMLToPlainText converts basic HTML like <br> to newlines and strips other
// tags. Table rows become lines and cells are separated by " | ".
func HTMLToPlainText(htmlStr string) string {
	text := strings.ReplaceAll(htmlStr, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		log.Printf("WARN Export: could not parse HTML for plain text conversion: %v. Returning partially cleaned.", err)
		return strings.TrimSpace(text)
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		row.SetText(strings.Join(cells, " | ") + "\n")
	})
	doc.Find("style, script").Remove()

	plainText := doc.Text()
	plainText = strings.ReplaceAll(plainText, "\r\n", "\n")
	plainText = strings.ReplaceAll(plainText, "\r", "\n")

	lines := strings.Split(plainText, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	plainText = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(plainText)
}
