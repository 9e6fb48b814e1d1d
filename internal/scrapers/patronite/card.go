package patronite

import (
	"errors"
	"strings"
	"time"

	"patronite-snapshot/internal/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrMissingName     = errors.New("card has no name")
	ErrMissingIdentity = errors.New("card has no profile link")
	ErrMissingImage    = errors.New("card has no lazy-load image")
)

const (
	cardNameSelector  = ".author-card__name"
	cardTagSelector   = ".author-card__tags .tag"
	cardStatSelector  = ".author-card__stats .stat-value"
	cardImageSelector = "img[data-src]"
	cardImageAttr     = "data-src"

	// patron count, monthly amount, total amount
	cardStatCount = 3
)

// extractCard reads one creator card, `card` is the card's anchor element.
// CategoryID and IsFeatured are left for the caller to fill in.
func extractCard(card *goquery.Selection, now time.Time) (Creator, error) {
	name := htmlutil.SelectionText(card.Find(cardNameSelector).First())
	if name == "" {
		return Creator{}, ErrMissingName
	}

	identity := strings.TrimSpace(card.AttrOr("href", ""))
	if identity == "" {
		return Creator{}, ErrMissingIdentity
	}

	image := strings.TrimSpace(card.Find(cardImageSelector).AttrOr(cardImageAttr, ""))
	if image == "" {
		return Creator{}, ErrMissingImage
	}

	tags := []string{}
	card.Find(cardTagSelector).Each(func(_ int, s *goquery.Selection) {
		tag := htmlutil.CleanText(s.Text())
		if tag == "" {
			return
		}
		tags = append(tags, tag)
	})

	var stats [cardStatCount]Amount
	for i := range stats {
		stats[i] = MissingAmount()
	}
	card.Find(cardStatSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= cardStatCount {
			return false
		}
		stats[i] = ParseAmount(s.Text())
		return true
	})

	return Creator{
		Name:          name,
		Tags:          tags,
		PatronCount:   stats[0],
		MonthlyAmount: stats[1],
		TotalAmount:   stats[2],
		Identity:      identity,
		ImageUrl:      image,
		ObservedAt:    now.Unix(),
	}, nil
}
