package snapshot

import (
	"context"
	"testing"
	"time"

	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/telemetry"
	"patronite-snapshot/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	start    = time.Date(2024, time.June, 1, 9, 0, 0, 0, chrono.Warsaw())
	polityka = patronite.Category{ID: 47, Name: "Polityka", Url: "/kategoria/47/polityka"}
)

func creator(identity string, patrons int64, observedAt time.Time) patronite.Creator {
	return patronite.Creator{
		Name:          "Twórca " + identity,
		Tags:          []string{"podcast"},
		CategoryID:    polityka.ID,
		PatronCount:   patronite.Amount{Value: patrons},
		MonthlyAmount: patronite.Amount{Value: patrons * 10},
		TotalAmount:   patronite.MissingAmount(),
		Identity:      identity,
		ImageUrl:      "https://cdn.patronite.pl" + identity + ".jpg",
		ObservedAt:    observedAt.Unix(),
	}
}

func setupStore(t *testing.T) (Store, *telemetry.Recorder) {
	rec := telemetry.NewRecorder()
	clock := &chrono.SteppedTime{Start: start, Step: time.Minute}
	return NewStore(testutil.SetupDB(t), clock, rec), rec
}

func TestPushAndSeries(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	points, err := store.Series(ctx, "/jan")
	require.NoError(t, err)
	require.Empty(t, points)

	first := creator("/jan", 10, start)
	first.IsFeatured = true
	require.NoError(t, store.Push(ctx, Batch{
		RunID:    "run-1",
		Category: polityka,
		Creators: []patronite.Creator{first, creator("/anna", 3, start)},
	}))
	require.NoError(t, store.Push(ctx, Batch{
		RunID:    "run-2",
		Category: polityka,
		Creators: []patronite.Creator{creator("/jan", 12, start.Add(24*time.Hour))},
	}))

	points, err = store.Series(ctx, "/jan")
	require.NoError(t, err)
	expected := []Point{
		{
			Time:          start,
			RunID:         "run-1",
			CategoryID:    47,
			Name:          "Twórca /jan",
			Tags:          []string{"podcast"},
			PatronCount:   10,
			MonthlyAmount: 100,
			Defaulted:     1,
			IsFeatured:    true,
		},
		{
			Time:          start.Add(24 * time.Hour),
			RunID:         "run-2",
			CategoryID:    47,
			Name:          "Twórca /jan",
			Tags:          []string{"podcast"},
			PatronCount:   12,
			MonthlyAmount: 120,
			Defaulted:     1,
		},
	}
	if diff := cmp.Diff(expected, points); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}

	size, err := store.RunSize(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), size)
}

func TestCategoriesAreUpserted(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, Batch{
		RunID:    "run-1",
		Category: polityka,
		Creators: []patronite.Creator{creator("/jan", 1, start)},
	}))

	renamed := polityka
	renamed.Name = "Polityka i społeczeństwo"
	require.NoError(t, store.Push(ctx, Batch{
		RunID:    "run-2",
		Category: renamed,
		Creators: []patronite.Creator{creator("/jan", 2, start)},
	}))

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []patronite.Category{renamed}, categories)
}

func TestPushEmptyBatch(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Push(ctx, Batch{RunID: "run-1", Category: polityka}))

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Empty(t, categories)
}

func TestPushRejectsForeignCreator(t *testing.T) {
	store, rec := setupStore(t)
	ctx := context.Background()

	stray := creator("/stray", 1, start)
	stray.CategoryID = 12
	err := store.Push(ctx, Batch{
		RunID:    "run-1",
		Category: polityka,
		Creators: []patronite.Creator{creator("/jan", 1, start), stray},
	})
	require.ErrorIs(t, err, ErrCategoryMismatch)
	require.Len(t, rec.Reports("broken", report_push), 1)

	size, err := store.RunSize(ctx, "run-1")
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestPushIsAtomic(t *testing.T) {
	database := testutil.SetupDB(t)
	_, err := database.Exec(`
		create trigger reject_bad before insert on creator_snapshot
		when new.identity = '/bad'
		begin
			select raise(abort, 'rejected');
		end;
	`)
	require.NoError(t, err)

	rec := telemetry.NewRecorder()
	store := NewStore(database, chrono.NewStandardTime(), rec)
	ctx := context.Background()

	err = store.Push(ctx, Batch{
		RunID:    "run-1",
		Category: polityka,
		Creators: []patronite.Creator{
			creator("/jan", 1, start),
			creator("/bad", 1, start),
		},
	})
	require.Error(t, err)
	require.Len(t, rec.Reports("broken", report_db_query), 1)

	points, err := store.Series(ctx, "/jan")
	require.NoError(t, err)
	require.Empty(t, points)

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	require.Empty(t, categories)
}
