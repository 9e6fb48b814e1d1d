package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"patronite-snapshot/internal/assert"
	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/db"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/telemetry"
)

const (
	report_db_query = "db.query"
	report_push     = "snapshot.push"
)

var ErrCategoryMismatch = errors.New("creator does not belong to the batch category")

// Batch is every newly seen creator of one category in one run.
type Batch struct {
	RunID    string
	Category patronite.Category
	Creators []patronite.Creator
}

// Point is one stored observation of a creator.
type Point struct {
	Time          time.Time
	RunID         string
	CategoryID    uint64
	Name          string
	Tags          []string
	PatronCount   int64
	MonthlyAmount int64
	TotalAmount   int64
	Defaulted     int
	IsFeatured    bool
}

// Store is the append-only time series of creator observations.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewStore(database *sql.DB, time chrono.TimeAPI, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(time)
	assert.NotNil(tel)

	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		time:   time,
		tel:    telemetry.NewScopedAPI("snapshot", tel),
	}
}

// Push writes the category and every creator of the batch in a single
// transaction, either all of it is stored or none of it is.
func (s Store) Push(ctx context.Context, batch Batch) error {
	if len(batch.Creators) == 0 {
		return nil
	}
	for _, c := range batch.Creators {
		if c.CategoryID != batch.Category.ID {
			err := fmt.Errorf("%w: %s is in %d, batch is %d", ErrCategoryMismatch, c.Identity, c.CategoryID, batch.Category.ID)
			s.tel.ReportBroken(report_push, err)
			return err
		}
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	categoryParam := db.UpsertCategoryParams{
		ID:   int64(batch.Category.ID),
		Name: batch.Category.Name,
		Url:  batch.Category.Url,
		Seen: s.time.Now().Unix(),
	}
	err = tx.UpsertCategory(ctx, categoryParam)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "UpsertCategory", categoryParam)
		return err
	}

	for _, c := range batch.Creators {
		tags, err := json.Marshal(c.Tags)
		if err != nil {
			return err
		}
		param := db.CreateCreatorSnapshotParams{
			RunID:         batch.RunID,
			CategoryID:    int64(c.CategoryID),
			Identity:      c.Identity,
			Name:          c.Name,
			ImageUrl:      c.ImageUrl,
			Tags:          string(tags),
			IsFeatured:    c.IsFeatured,
			PatronCount:   c.PatronCount.Value,
			MonthlyAmount: c.MonthlyAmount.Value,
			TotalAmount:   c.TotalAmount.Value,
			Defaulted:     int64(c.Defaulted()),
			ObservedAt:    c.ObservedAt,
		}
		err = tx.CreateCreatorSnapshot(ctx, param)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateCreatorSnapshot", c.Identity)
			return err
		}
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}
	s.tel.ReportDebug("push", batch.RunID, batch.Category.ID, len(batch.Creators))
	return nil
}

// Series returns every observation of a creator, oldest first.
func (s Store) Series(ctx context.Context, identity string) ([]Point, error) {
	rows, err := s.qry.GetCreatorSeries(ctx, identity)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetCreatorSeries", identity)
		return nil, err
	}

	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		var tags []string
		err = json.Unmarshal([]byte(r.Tags), &tags)
		if err != nil {
			s.tel.ReportWarning(report_db_query, fmt.Errorf("unmarshal tags: %w", err), r.ID)
		}
		points = append(points, Point{
			Time:          time.Unix(r.ObservedAt, 0).In(chrono.Warsaw()),
			RunID:         r.RunID,
			CategoryID:    uint64(r.CategoryID),
			Name:          r.Name,
			Tags:          tags,
			PatronCount:   r.PatronCount,
			MonthlyAmount: r.MonthlyAmount,
			TotalAmount:   r.TotalAmount,
			Defaulted:     int(r.Defaulted),
			IsFeatured:    r.IsFeatured,
		})
	}
	return points, nil
}

// Categories lists every category that has ever received a batch.
func (s Store) Categories(ctx context.Context) ([]patronite.Category, error) {
	rows, err := s.qry.ListCategories(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "ListCategories")
		return nil, err
	}

	categories := make([]patronite.Category, len(rows))
	for i, r := range rows {
		categories[i] = patronite.Category{
			ID:   uint64(r.ID),
			Name: r.Name,
			Url:  r.Url,
		}
	}
	return categories, nil
}

// RunSize counts the observations stored by a run.
func (s Store) RunSize(ctx context.Context, runID string) (int64, error) {
	count, err := s.qry.CountRunSnapshots(ctx, runID)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CountRunSnapshots", runID)
		return 0, err
	}
	return count, nil
}
