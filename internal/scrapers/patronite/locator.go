package patronite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The creator listing is a `section.authors` whose children are positional:
//
//	page 1:  header, featured section, general list
//	page 2+: header, general list
//
// The general list is therefore the 3rd child on the first page and the 2nd
// child everywhere else.
const (
	listingSelector = "section.authors"
	cardSelector    = "a.author-card"

	featuredSlot           = listingSelector + " > div:nth-child(2)"
	featuredHeaderSelector = featuredSlot + " .featured-header"
	featuredCardSelector   = featuredSlot + " .carousel " + cardSelector

	nextPageSelector = "nav.pagination a"
)

// CardLocator finds the card anchors of one list on a listing page.
type CardLocator interface {
	Cards(doc *goquery.Document) *goquery.Selection
}

// FirstPageCardLocator finds the general list on page 1, which follows the featured section.
type FirstPageCardLocator struct{}

func (FirstPageCardLocator) Cards(doc *goquery.Document) *goquery.Selection {
	return doc.Find(listingSelector + " > div:nth-child(3) " + cardSelector)
}

// SubsequentPageCardLocator finds the general list on every page after the first,
// where it is the first list on the page.
type SubsequentPageCardLocator struct{}

func (SubsequentPageCardLocator) Cards(doc *goquery.Document) *goquery.Selection {
	return doc.Find(listingSelector + " > div:nth-child(2) " + cardSelector)
}

// FeaturedCardLocator finds the featured carousel on page 1.
type FeaturedCardLocator struct{}

func (FeaturedCardLocator) Cards(doc *goquery.Document) *goquery.Selection {
	return doc.Find(featuredCardSelector)
}

func generalLocator(page int) CardLocator {
	if page == 1 {
		return FirstPageCardLocator{}
	}
	return SubsequentPageCardLocator{}
}

func hasFeaturedSection(doc *goquery.Document) bool {
	return doc.Find(featuredHeaderSelector).Length() > 0
}

// hasNextPage reports whether a pagination anchor is labelled exactly `label`.
func hasNextPage(doc *goquery.Document, label string) bool {
	found := false
	doc.Find(nextPageSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == label {
			found = true
			return false
		}
		return true
	})
	return found
}
