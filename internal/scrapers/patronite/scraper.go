package patronite

import (
	"math"
	"strings"

	"patronite-snapshot/internal/assert"
	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/telemetry"
)

const (
	DefaultOrigin        = "https://patronite.pl"
	DefaultCategoryIndex = "/kategoria/47/polityka"
	DefaultNextLabel     = "Następna"
	// category ids on the site have always fit in a byte
	DefaultMaxCategoryID = math.MaxUint8
)

type Options struct {
	// Origin is stripped from absolute category links.
	Origin string
	// CategoryIndex is any listing page that renders the full category tile list.
	CategoryIndex string
	// NextLabel must equal the text of the pagination control exactly.
	NextLabel     string
	MaxCategoryID uint64
	// MaxPages bounds the pages crawled per category, 0 means unbounded.
	MaxPages int
}

// DefaultOptions returns the options matching the live site.
func DefaultOptions() Options {
	return Options{
		Origin:        DefaultOrigin,
		CategoryIndex: DefaultCategoryIndex,
		NextLabel:     DefaultNextLabel,
		MaxCategoryID: DefaultMaxCategoryID,
	}
}

// Scraper turns listing pages into categories and creators.
type Scraper struct {
	source PageSource
	opts   Options
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewScraper(source PageSource, opts Options, time chrono.TimeAPI, tel telemetry.API) Scraper {
	assert.NotNil(source)
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.CategoryIndex)
	assert.NotEmptyStr(opts.NextLabel)

	opts.Origin = strings.TrimSuffix(opts.Origin, "/")

	return Scraper{
		source: source,
		opts:   opts,
		time:   time,
		tel:    telemetry.NewScopedAPI("scraper", tel),
	}
}
