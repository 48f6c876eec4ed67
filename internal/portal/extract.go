package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type detailFields struct {
	Name       string
	Service    string
	Training   string
	Status     string
	Expiration string
}

// extractDetailFields pulls the five detail cells out of a full-page HTML
// snapshot. A missing cell degrades to an empty string; it never fails the
// record. Only an unparseable document is an error.
func extractDetailFields(html string, sel Selectors) (detailFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detailFields{}, err
	}

	text := func(s string) string {
		return strings.TrimSpace(doc.Find(s).First().Text())
	}

	return detailFields{
		Name:       text(sel.DetailName),
		Service:    text(sel.DetailService),
		Training:   text(sel.DetailTraining),
		Status:     text(sel.DetailStatus),
		Expiration: text(sel.DetailExpiration),
	}, nil
}
