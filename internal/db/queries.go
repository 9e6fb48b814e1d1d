package db

import (
	"context"
)

const upsertCategory = `-- name: UpsertCategory :exec
insert into category (id, name, url, first_seen, last_seen)
values (?, ?, ?, ?, ?)
on conflict (id) do update set
    name = excluded.name,
    url = excluded.url,
    last_seen = excluded.last_seen
`

type UpsertCategoryParams struct {
	ID   int64
	Name string
	Url  string
	Seen int64
}

func (q *Queries) UpsertCategory(ctx context.Context, arg UpsertCategoryParams) error {
	_, err := q.db.ExecContext(ctx, upsertCategory,
		arg.ID,
		arg.Name,
		arg.Url,
		arg.Seen,
		arg.Seen,
	)
	return err
}

const listCategories = `-- name: ListCategories :many
select id, name, url, first_seen, last_seen from category
order by id
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Url,
			&i.FirstSeen,
			&i.LastSeen,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createCreatorSnapshot = `-- name: CreateCreatorSnapshot :exec
insert into creator_snapshot (
    run_id, category_id, identity, name, image_url, tags, is_featured,
    patron_count, monthly_amount, total_amount, defaulted, observed_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateCreatorSnapshotParams struct {
	RunID         string
	CategoryID    int64
	Identity      string
	Name          string
	ImageUrl      string
	Tags          string
	IsFeatured    bool
	PatronCount   int64
	MonthlyAmount int64
	TotalAmount   int64
	Defaulted     int64
	ObservedAt    int64
}

func (q *Queries) CreateCreatorSnapshot(ctx context.Context, arg CreateCreatorSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createCreatorSnapshot,
		arg.RunID,
		arg.CategoryID,
		arg.Identity,
		arg.Name,
		arg.ImageUrl,
		arg.Tags,
		arg.IsFeatured,
		arg.PatronCount,
		arg.MonthlyAmount,
		arg.TotalAmount,
		arg.Defaulted,
		arg.ObservedAt,
	)
	return err
}

const getCreatorSeries = `-- name: GetCreatorSeries :many
select id, run_id, category_id, identity, name, image_url, tags, is_featured,
    patron_count, monthly_amount, total_amount, defaulted, observed_at
from creator_snapshot
where identity = ?
order by observed_at, id
`

func (q *Queries) GetCreatorSeries(ctx context.Context, identity string) ([]CreatorSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, getCreatorSeries, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CreatorSnapshot
	for rows.Next() {
		var i CreatorSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.CategoryID,
			&i.Identity,
			&i.Name,
			&i.ImageUrl,
			&i.Tags,
			&i.IsFeatured,
			&i.PatronCount,
			&i.MonthlyAmount,
			&i.TotalAmount,
			&i.Defaulted,
			&i.ObservedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRunSnapshots = `-- name: CountRunSnapshots :one
select count(*) from creator_snapshot
where run_id = ?
`

func (q *Queries) CountRunSnapshots(ctx context.Context, runID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRunSnapshots, runID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
