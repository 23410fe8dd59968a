package bookurl

import (
	"regexp"

	"github.com/jsonleex/wr-exporter/models"
)

// readerURL matches reader links such as
// https://weread.qq.com/web/reader/<23 character book id>[k<chapter id>].
// Anything after the book id is ignored.
var readerURL = regexp.MustCompile(`^https://\S*/web/reader/(\w{23})`)

// Book identifies one book on the reader site.
type Book struct {
	URL string
	ID  string
}

// Parse extracts the book id from a reader URL.
func Parse(raw string) (Book, error) {
	m := readerURL.FindStringSubmatch(raw)
	if m == nil {
		return Book{}, models.NewExportError(models.ErrCodeInvalidInput, "invalid url: "+raw, nil)
	}
	return Book{URL: raw, ID: m[1]}, nil
}
