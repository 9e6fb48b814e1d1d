package harvest

import (
	"context"
	"fmt"
	"time"

	"patronite-snapshot/internal/assert"
	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/dedup"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/snapshot"
	"patronite-snapshot/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_harvest_run      = "harvest.run"
	report_harvest_category = "harvest.category"
)

var tracer = otel.Tracer("patronite-snapshot.harvest")

// Lister discovers categories and crawls them, it is satisfied by patronite.Scraper.
type Lister interface {
	Categories(ctx context.Context) ([]patronite.Category, error)
	Creators(ctx context.Context, category patronite.Category) ([]patronite.Creator, error)
}

// Emitter stores a batch of newly seen creators, it is satisfied by snapshot.Store.
//
// note: fault injection point
type Emitter interface {
	Push(ctx context.Context, batch snapshot.Batch) error
}

type Options struct {
	// Workers is how many categories are crawled at the same time, pages of
	// a single category are always crawled in order.
	Workers int
}

type CategoryReport struct {
	Category   patronite.Category
	Extracted  int
	Emitted    int
	Suppressed int
	// Defaulted is the number of stat fields of extracted creators that fell back to 0.
	Defaulted int
	Done      bool
}

type Report struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	Categories []CategoryReport

	Extracted  int
	Emitted    int
	Suppressed int
	Defaulted  int
}

func (r *Report) total() {
	r.Extracted, r.Emitted, r.Suppressed, r.Defaulted = 0, 0, 0, 0
	for _, c := range r.Categories {
		r.Extracted += c.Extracted
		r.Emitted += c.Emitted
		r.Suppressed += c.Suppressed
		r.Defaulted += c.Defaulted
	}
}

type Harvester struct {
	lister  Lister
	emitter Emitter
	opts    Options
	time    chrono.TimeAPI
	tel     telemetry.API
}

func NewHarvester(lister Lister, emitter Emitter, opts Options, time chrono.TimeAPI, tel telemetry.API) Harvester {
	assert.NotNil(lister)
	assert.NotNil(emitter)
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.Positive("workers", opts.Workers)

	return Harvester{
		lister:  lister,
		emitter: emitter,
		opts:    opts,
		time:    time,
		tel:     telemetry.NewScopedAPI("harvest", tel),
	}
}

// Run performs a single harvest: every category is crawled, creators already
// seen in this run are dropped and the rest is pushed one batch per category.
//
// The first fetch or push failure stops the run, the returned report then
// describes whatever was finished before it.
func (h Harvester) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:   uuid.NewString(),
		Started: h.time.Now(),
	}

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", report.RunID))

	emitted, err := otel.Meter("patronite-snapshot").Int64Counter(
		"patronite.creators_emitted",
		metric.WithDescription("creators pushed to the snapshot store"),
	)
	if err != nil {
		return report, err
	}

	categories, err := h.lister.Categories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list categories")
		h.tel.ReportBroken(report_harvest_run, err, report.RunID)
		return report, err
	}
	h.tel.ReportDebug("categories", report.RunID, len(categories))

	report.Categories = make([]CategoryReport, len(categories))
	seen := dedup.NewSet()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(h.opts.Workers)
	for i, category := range categories {
		report.Categories[i].Category = category
		group.Go(func() error {
			// results are written to distinct indices, no lock is needed
			return h.harvestCategory(gctx, report.RunID, seen, emitted, &report.Categories[i])
		})
	}
	err = group.Wait()

	report.Finished = h.time.Now()
	report.total()
	h.tel.ReportCount(report_harvest_run, int64(report.Emitted))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "harvest failed")
		h.tel.ReportBroken(report_harvest_run, err, report.RunID)
		return report, err
	}
	return report, nil
}

func (h Harvester) harvestCategory(
	ctx context.Context,
	runID string,
	seen *dedup.Set,
	emitted metric.Int64Counter,
	out *CategoryReport,
) error {
	// another category already failed
	if err := ctx.Err(); err != nil {
		return err
	}

	category := out.Category
	ctx, span := tracer.Start(ctx, "harvestCategory")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("category.id", int64(category.ID)),
		attribute.String("category.url", category.Url),
	)

	creators, err := h.lister.Creators(ctx, category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "crawl failed")
		return fmt.Errorf("harvest %s: %w", category.Url, err)
	}

	var batch []patronite.Creator
	for _, c := range creators {
		out.Extracted++
		out.Defaulted += c.Defaulted()
		if !seen.Admit(c.Identity) {
			out.Suppressed++
			continue
		}
		batch = append(batch, c)
	}

	if len(batch) > 0 {
		err = h.emitter.Push(ctx, snapshot.Batch{
			RunID:    runID,
			Category: category,
			Creators: batch,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "push failed")
			return fmt.Errorf("push %s: %w", category.Url, err)
		}
		emitted.Add(ctx, int64(len(batch)), metric.WithAttributes(
			attribute.Int64("category.id", int64(category.ID)),
		))
	}
	out.Emitted = len(batch)
	out.Done = true

	h.tel.ReportCount(report_harvest_category, int64(out.Emitted))
	h.tel.ReportDebug("category", category.Url, out.Extracted, out.Emitted, out.Suppressed)
	return nil
}
