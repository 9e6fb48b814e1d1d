package harvest

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/snapshot"
	"patronite-snapshot/internal/telemetry"
	"patronite-snapshot/internal/testutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.html
var fixtures embed.FS

var start = time.Date(2024, time.June, 1, 9, 0, 0, 0, chrono.Warsaw())

type fixtureSource map[string]string

func (f fixtureSource) Fetch(_ context.Context, path string, page int) (*goquery.Document, error) {
	endpoint, err := patronite.PageUrl(path, page)
	if err != nil {
		return nil, &patronite.TransportError{Url: path, Err: err}
	}
	name, ok := f[endpoint]
	if !ok {
		return nil, &patronite.TransportError{Url: endpoint, Status: 404}
	}
	contents, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		return nil, &patronite.TransportError{Url: endpoint, Err: err}
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(contents))
}

func TestRunEndToEnd(t *testing.T) {
	source := fixtureSource{
		"/kategoria/47/polityka?page=1": "polityka_1.html",
		"/kategoria/47/polityka?page=2": "polityka_2.html",
	}
	rec := telemetry.NewRecorder()
	clock := &chrono.SteppedTime{Start: start, Step: time.Second}
	opts := patronite.DefaultOptions()
	opts.CategoryIndex = "/kategoria/47/polityka"

	scraper := patronite.NewScraper(source, opts, clock, rec)
	store := snapshot.NewStore(testutil.SetupDB(t), clock, rec)
	recorded := &recordingEmitter{inner: store}
	harvester := NewHarvester(scraper, recorded, Options{Workers: 1}, clock, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := harvester.Run(ctx)
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)
	require.Equal(t, 4, report.Extracted)
	require.Equal(t, 3, report.Emitted)
	require.Equal(t, 1, report.Suppressed)
	require.Equal(t, 2, report.Defaulted)
	require.Len(t, report.Categories, 1)
	require.True(t, report.Categories[0].Done)

	// featured copy first, the general duplicate dropped, page 2 last
	require.Len(t, recorded.batches, 1)
	batch := recorded.batches[0]
	require.Equal(t, report.RunID, batch.RunID)
	var identities []string
	var featured []bool
	for _, c := range batch.Creators {
		identities = append(identities, c.Identity)
		featured = append(featured, c.IsFeatured)
	}
	require.Equal(t, []string{"/jan-kowalski", "/anna-nowak", "/piotr-zielinski"}, identities)
	require.Equal(t, []bool{true, false, false}, featured)

	size, err := store.RunSize(ctx, report.RunID)
	require.NoError(t, err)
	require.Equal(t, int64(3), size)

	jan, err := store.Series(ctx, "/jan-kowalski")
	require.NoError(t, err)
	require.Len(t, jan, 1)
	require.True(t, jan[0].IsFeatured)
	require.Equal(t, int64(4230000), jan[0].TotalAmount)

	anna, err := store.Series(ctx, "/anna-nowak")
	require.NoError(t, err)
	require.Len(t, anna, 1)
	require.False(t, anna[0].IsFeatured)
	require.Equal(t, int64(2500), anna[0].MonthlyAmount)

	piotr, err := store.Series(ctx, "/piotr-zielinski")
	require.NoError(t, err)
	require.Len(t, piotr, 1)
	require.Equal(t, 2, piotr[0].Defaulted)

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []patronite.Category{
		{ID: 47, Name: "Polityka", Url: "/kategoria/47/polityka"},
	}, categories)
}

// recordingEmitter keeps every batch it forwards to inner.
type recordingEmitter struct {
	inner   Emitter
	batches []snapshot.Batch
}

func (r *recordingEmitter) Push(ctx context.Context, batch snapshot.Batch) error {
	err := r.inner.Push(ctx, batch)
	if err != nil {
		return err
	}
	r.batches = append(r.batches, batch)
	return nil
}

type fakeLister struct {
	categories []patronite.Category
	creators   map[uint64][]patronite.Creator
	errs       map[uint64]error
	listErr    error

	mu      sync.Mutex
	crawled []uint64
}

func (f *fakeLister) Categories(context.Context) ([]patronite.Category, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.categories, nil
}

func (f *fakeLister) Creators(_ context.Context, category patronite.Category) ([]patronite.Creator, error) {
	f.mu.Lock()
	f.crawled = append(f.crawled, category.ID)
	f.mu.Unlock()

	if err := f.errs[category.ID]; err != nil {
		return nil, err
	}
	return f.creators[category.ID], nil
}

type fakeEmitter struct {
	failOn map[uint64]error

	mu      sync.Mutex
	batches []snapshot.Batch
}

func (f *fakeEmitter) Push(_ context.Context, batch snapshot.Batch) error {
	if err := f.failOn[batch.Category.ID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeEmitter) identities() map[uint64][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint64][]string{}
	for _, b := range f.batches {
		for _, c := range b.Creators {
			out[b.Category.ID] = append(out[b.Category.ID], c.Identity)
		}
	}
	return out
}

func category(id uint64) patronite.Category {
	return patronite.Category{ID: id, Url: fmt.Sprintf("/kategoria/%d/x", id)}
}

func creators(categoryID uint64, identities ...string) []patronite.Creator {
	out := make([]patronite.Creator, len(identities))
	for i, identity := range identities {
		out[i] = patronite.Creator{
			Name:          identity,
			Tags:          []string{},
			CategoryID:    categoryID,
			PatronCount:   patronite.Amount{Value: 1},
			MonthlyAmount: patronite.Amount{Value: 1},
			TotalAmount:   patronite.Amount{Value: 1},
			Identity:      identity,
		}
	}
	return out
}

func newHarvester(lister Lister, emitter Emitter, workers int) (Harvester, *telemetry.Recorder) {
	rec := telemetry.NewRecorder()
	return NewHarvester(lister, emitter, Options{Workers: workers}, chrono.NewStandardTime(), rec), rec
}

func TestRunDeduplicatesAcrossCategories(t *testing.T) {
	lister := &fakeLister{
		categories: []patronite.Category{category(1), category(2), category(3)},
		creators: map[uint64][]patronite.Creator{
			1: creators(1, "/x", "/y"),
			2: creators(2, "/y", "/z", "/x"),
			3: creators(3, "/y"),
		},
	}
	emitter := &fakeEmitter{}
	harvester, _ := newHarvester(lister, emitter, 1)

	report, err := harvester.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, map[uint64][]string{
		1: {"/x", "/y"},
		2: {"/z"},
	}, emitter.identities())
	// category 3 had nothing new and got no batch
	require.Len(t, emitter.batches, 2)
	for _, b := range emitter.batches {
		require.Equal(t, report.RunID, b.RunID)
	}

	require.Equal(t, []uint64{1, 2, 3}, lister.crawled)
	require.Equal(t, 6, report.Extracted)
	require.Equal(t, 3, report.Emitted)
	require.Equal(t, 3, report.Suppressed)
	require.Equal(t, CategoryReport{Category: category(3), Extracted: 1, Suppressed: 1, Done: true}, report.Categories[2])
}

func TestRunConcurrentWorkers(t *testing.T) {
	lister := &fakeLister{creators: map[uint64][]patronite.Creator{}}
	for id := uint64(1); id <= 8; id++ {
		lister.categories = append(lister.categories, category(id))
		lister.creators[id] = creators(id, "/shared", fmt.Sprintf("/own-%d", id))
	}
	emitter := &fakeEmitter{}
	harvester, _ := newHarvester(lister, emitter, 4)

	report, err := harvester.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 16, report.Extracted)
	require.Equal(t, 9, report.Emitted)
	require.Equal(t, 7, report.Suppressed)

	shared := 0
	for _, identities := range emitter.identities() {
		for _, identity := range identities {
			if identity == "/shared" {
				shared++
			}
		}
	}
	require.Equal(t, 1, shared)
}

func TestRunStopsOnFetchFailure(t *testing.T) {
	fetchErr := &patronite.TransportError{Url: "/kategoria/2/x?page=1", Status: 503}
	lister := &fakeLister{
		categories: []patronite.Category{category(1), category(2), category(3)},
		creators: map[uint64][]patronite.Creator{
			1: creators(1, "/a"),
			3: creators(3, "/c"),
		},
		errs: map[uint64]error{2: fetchErr},
	}
	emitter := &fakeEmitter{}
	harvester, rec := newHarvester(lister, emitter, 1)

	report, err := harvester.Run(context.Background())
	require.Error(t, err)

	var transportErr *patronite.TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, 503, transportErr.Status)

	require.Equal(t, []uint64{1, 2}, lister.crawled)
	require.Len(t, emitter.batches, 1)
	require.True(t, report.Categories[0].Done)
	require.False(t, report.Categories[1].Done)
	require.False(t, report.Categories[2].Done)
	require.Equal(t, 1, report.Emitted)
	require.Len(t, rec.Reports("broken", report_harvest_run), 1)
}

func TestRunStopsOnPushFailure(t *testing.T) {
	pushErr := errors.New("database is locked")
	lister := &fakeLister{
		categories: []patronite.Category{category(1), category(2)},
		creators: map[uint64][]patronite.Creator{
			1: creators(1, "/a"),
			2: creators(2, "/b"),
		},
	}
	emitter := &fakeEmitter{failOn: map[uint64]error{1: pushErr}}
	harvester, _ := newHarvester(lister, emitter, 1)

	report, err := harvester.Run(context.Background())
	require.ErrorIs(t, err, pushErr)
	require.Equal(t, []uint64{1}, lister.crawled)
	require.Empty(t, emitter.batches)
	require.Zero(t, report.Emitted)
}

func TestRunCategoryDiscoveryFailure(t *testing.T) {
	listErr := &patronite.TransportError{Url: "/kategoria/47/polityka?page=1", Status: 500}
	lister := &fakeLister{listErr: listErr}
	emitter := &fakeEmitter{}
	harvester, _ := newHarvester(lister, emitter, 2)

	report, err := harvester.Run(context.Background())
	require.ErrorIs(t, err, listErr)
	require.Empty(t, report.Categories)
	require.Empty(t, lister.crawled)
	require.Empty(t, emitter.batches)
}

func TestRunNoCategories(t *testing.T) {
	emitter := &fakeEmitter{}
	harvester, _ := newHarvester(&fakeLister{}, emitter, 1)

	report, err := harvester.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Extracted)
	require.Empty(t, emitter.batches)
	require.False(t, report.Finished.Before(report.Started))
}
