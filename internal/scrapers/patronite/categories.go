package patronite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_scraper_categories = "scraper.categories"

	categoryTileSelector = "div.tags > div"
	categoryPathPrefix   = "/kategoria/"
)

var (
	errMissingHref     = errors.New("tile has no link")
	errNotCategoryPath = errors.New("link is not a category")
)

// Categories lists every category tile of the category index. Malformed tiles
// are skipped, only a failure to fetch the index is returned.
func (s Scraper) Categories(ctx context.Context) ([]Category, error) {
	ctx, span := tracer.Start(ctx, "Categories")
	defer span.End()

	doc, err := s.source.Fetch(ctx, s.opts.CategoryIndex, 1)
	if err != nil {
		s.tel.ReportBroken(report_scraper_categories, err)
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var categories []Category
	seen := map[uint64]bool{}
	doc.Find(categoryTileSelector).Each(func(i int, tile *goquery.Selection) {
		category, err := s.categoryFromTile(tile)
		if err != nil {
			s.tel.ReportWarning(report_scraper_categories, fmt.Errorf("tile %d: %w", i, err))
			return
		}
		if seen[category.ID] {
			s.tel.ReportWarning(
				report_scraper_categories,
				fmt.Errorf("tile %d: duplicate category id %d", i, category.ID),
				category.Url,
			)
			return
		}
		seen[category.ID] = true
		categories = append(categories, category)
	})

	s.tel.ReportCount(report_scraper_categories, int64(len(categories)))
	return categories, nil
}

func (s Scraper) categoryFromTile(tile *goquery.Selection) (Category, error) {
	href, ok := tile.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return Category{}, errMissingHref
	}

	category, err := s.CategoryFromUrl(href)
	if err != nil {
		return Category{}, err
	}
	category.Name = strings.TrimSpace(tile.Text())
	return category, nil
}

// CategoryFromUrl reads the category id out of a category link, the link may
// be absolute (on the configured origin) or site relative. The returned
// category has no name.
func (s Scraper) CategoryFromUrl(href string) (Category, error) {
	relative := href
	if s.opts.Origin != "" {
		relative = strings.TrimPrefix(href, s.opts.Origin)
	}
	if !strings.HasPrefix(relative, categoryPathPrefix) {
		return Category{}, fmt.Errorf("%w: %s", errNotCategoryPath, href)
	}

	// "/kategoria/<id>/<slug>" -> ["", "kategoria", "<id>", "<slug>"]
	segments := strings.Split(relative, "/")
	if len(segments) < 3 {
		return Category{}, fmt.Errorf("%w: %s", errNotCategoryPath, href)
	}
	id, err := strconv.ParseUint(segments[2], 10, 64)
	if err != nil {
		return Category{}, fmt.Errorf("parse category id: %w", err)
	}
	if id > s.opts.MaxCategoryID {
		return Category{}, fmt.Errorf("category id %d exceeds %d", id, s.opts.MaxCategoryID)
	}

	return Category{ID: id, Url: relative}, nil
}
