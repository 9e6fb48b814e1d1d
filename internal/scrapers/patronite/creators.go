package patronite

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_scraper_creators = "scraper.creators"
	report_scraper_card     = "scraper.card"
	report_scraper_amount   = "scraper.amount"
)

var ErrTooManyPages = errors.New("category exceeds the page limit")

// Creators walks every page of a category in order and returns its creators.
//
// On page 1 the featured carousel is extracted first and its records are
// flagged IsFeatured, general list records with a featured identity are flagged
// too. Featured creators usually appear in the general list as well, both
// copies are returned and it is up to the caller to collapse them.
func (s Scraper) Creators(ctx context.Context, category Category) ([]Creator, error) {
	ctx, span := tracer.Start(ctx, "Creators")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("category.id", int64(category.ID)),
		attribute.String("category.url", category.Url),
	)

	featured := map[string]bool{}
	var all []Creator

	page := 1
	for {
		if s.opts.MaxPages > 0 && page > s.opts.MaxPages {
			err := fmt.Errorf("%w: %s stopped at page %d", ErrTooManyPages, category.Url, s.opts.MaxPages)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.tel.ReportBroken(report_scraper_creators, err)
			return nil, err
		}

		doc, err := s.source.Fetch(ctx, category.Url, page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			s.tel.ReportBroken(report_scraper_creators, err, category.Url, page)
			return nil, fmt.Errorf("list creators of %s: %w", category.Url, err)
		}

		if page == 1 && hasFeaturedSection(doc) {
			records := s.extractCards(FeaturedCardLocator{}.Cards(doc), category, page)
			for i := range records {
				records[i].IsFeatured = true
				featured[records[i].Identity] = true
			}
			all = append(all, records...)
		}

		records := s.extractCards(generalLocator(page).Cards(doc), category, page)
		for i := range records {
			if featured[records[i].Identity] {
				records[i].IsFeatured = true
			}
		}
		all = append(all, records...)

		s.tel.ReportDebug("page", category.Url, page, len(records))

		if !hasNextPage(doc, s.opts.NextLabel) {
			break
		}
		page++
	}

	span.SetAttributes(attribute.Int("pages", page), attribute.Int("creators", len(all)))
	s.tel.ReportCount(report_scraper_creators, int64(len(all)))
	return all, nil
}

// extractCards skips (and reports) every card that cannot be read.
func (s Scraper) extractCards(cards *goquery.Selection, category Category, page int) []Creator {
	var out []Creator
	cards.Each(func(i int, card *goquery.Selection) {
		creator, err := extractCard(card, s.time.Now())
		if err != nil {
			s.tel.ReportWarning(
				report_scraper_card,
				fmt.Errorf("card %d: %w", i, err),
				category.Url,
				page,
			)
			return
		}
		creator.CategoryID = category.ID

		for _, a := range []Amount{creator.PatronCount, creator.MonthlyAmount, creator.TotalAmount} {
			if a.Defaulted && a.Reason != ReasonMissing {
				s.tel.ReportWarning(report_scraper_amount, a.Reason, creator.Identity)
			}
		}
		out = append(out, creator)
	})
	return out
}
