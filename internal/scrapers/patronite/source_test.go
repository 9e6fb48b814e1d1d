package patronite

import (
	"bytes"
	"context"
	"embed"
	"testing"
	"time"

	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/telemetry"

	"github.com/PuerkitoBio/goquery"
)

//go:embed testdata/*.html
var fixtures embed.FS

// fakeSource serves fixture files keyed by "<path>?page=<n>", any other page is a 404.
type fakeSource struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeSource) Fetch(_ context.Context, path string, page int) (*goquery.Document, error) {
	endpoint, err := PageUrl(path, page)
	if err != nil {
		return nil, &TransportError{Url: path, Err: err}
	}
	f.fetched = append(f.fetched, endpoint)

	name, ok := f.pages[endpoint]
	if !ok {
		return nil, &TransportError{Url: endpoint, Status: 404}
	}
	contents, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		return nil, &TransportError{Url: endpoint, Err: err}
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(contents))
}

var testStart = time.Date(2024, time.March, 1, 12, 0, 0, 0, chrono.Warsaw())

func newTestScraper(t testing.TB, source PageSource, opts Options) (Scraper, *telemetry.Recorder) {
	t.Helper()
	rec := telemetry.NewRecorder()
	clock := &chrono.SteppedTime{Start: testStart, Step: time.Second}
	return NewScraper(source, opts, clock, rec), rec
}

func loadFixture(t testing.TB, name string) *goquery.Document {
	t.Helper()
	contents, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(contents))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}
