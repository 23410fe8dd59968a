package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/jsonleex/wr-exporter/models"
)

// bookTitle returns the document title up to the first " - ".
func bookTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	name, _, _ := strings.Cut(title, " - ")
	return strings.TrimSpace(name)
}

// hasElement reports whether html contains an element matching selector.
func hasElement(html, selector string) (bool, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return false, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, err
	}
	return doc.FindMatcher(sel).Length() > 0, nil
}

// categorizeError wraps raw rod errors into typed ExportErrors.
func categorizeError(err error, msg string) *models.ExportError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExportError(models.ErrCodeNavigation, msg+" (timeout)", err)
	case errors.Is(err, context.Canceled):
		return models.NewExportError(models.ErrCodeNavigation, msg+" (canceled)", err)
	default:
		return models.NewExportError(models.ErrCodeNavigation, msg, err)
	}
}
