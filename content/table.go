package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eringen/folio/store"
)

var (
	// ErrNotFound is returned by updates that match no row.
	ErrNotFound = errors.New("content: not found")
	// ErrEmptySlug is returned when a post would be stored without a slug,
	// typically because its title has no letters or digits.
	ErrEmptySlug = errors.New("content: slug is empty")
	// ErrReservedSlug is returned for slugs that name a post listing.
	ErrReservedSlug = errors.New("content: slug is reserved")
)

// Option configures a repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now for timestamps and publication filters.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the random UUID generator for new rows.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// table holds the row-level operations shared by both repositories.
type table[R any] struct {
	db   *store.DB
	name string
}

func (t table[R]) query() *store.Query {
	return t.db.From(t.name)
}

func (t table[R]) list(ctx context.Context, q *store.Query) ([]R, error) {
	var rows []R
	if err := q.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return rows, nil
}

func (t table[R]) one(ctx context.Context, q *store.Query) (R, bool, error) {
	var row R
	err := q.One(ctx, &row)
	if errors.Is(err, store.ErrNotFound) {
		return row, false, nil
	}
	if err != nil {
		return row, false, fmt.Errorf("get %s: %w", t.name, err)
	}
	return row, true, nil
}

func (t table[R]) insert(ctx context.Context, f store.Fields) (R, error) {
	var row R
	if err := t.query().Insert(ctx, f, &row); err != nil {
		return row, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return row, nil
}

func (t table[R]) update(ctx context.Context, id string, f store.Fields) (R, error) {
	var row R
	err := t.query().Eq("id", id).Update(ctx, f, &row)
	if errors.Is(err, store.ErrNotFound) {
		return row, ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("update %s: %w", t.name, err)
	}
	return row, nil
}

func (t table[R]) delete(ctx context.Context, id string) error {
	if err := t.query().Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	return nil
}

func mapAll[R, E any](rows []R, fn func(R) E) []E {
	out := make([]E, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}
