package store

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
	"github.com/uptrace/bun"
)

// Store persists the address hierarchy, reviews and users. Single-row
// writes and lookups go through go-repository-bun repositories; ordered
// lists are plain bun queries.
type Store struct {
	db        *bun.DB
	countries repository.Repository[*model.Country]
	states    repository.Repository[*model.State]
	cities    repository.Repository[*model.City]
	addresses repository.Repository[*model.Address]
	reviews   repository.Repository[*model.Review]
	users     repository.Repository[*model.User]
}

// New builds a Store over db. The schema must already exist, see Migrate.
func New(db *bun.DB) *Store {
	return &Store{
		db: db,
		countries: repository.NewRepository(db, handlers(
			func() *model.Country { return &model.Country{} },
			func(c *model.Country) uuid.UUID { return c.ID },
			func(c *model.Country, id uuid.UUID) { c.ID = id },
			"name",
		)),
		states: repository.NewRepository(db, handlers(
			func() *model.State { return &model.State{} },
			func(s *model.State) uuid.UUID { return s.ID },
			func(s *model.State, id uuid.UUID) { s.ID = id },
			"name",
		)),
		cities: repository.NewRepository(db, handlers(
			func() *model.City { return &model.City{} },
			func(c *model.City) uuid.UUID { return c.ID },
			func(c *model.City, id uuid.UUID) { c.ID = id },
			"name",
		)),
		addresses: repository.NewRepository(db, handlers(
			func() *model.Address { return &model.Address{} },
			func(a *model.Address) uuid.UUID { return a.ID },
			func(a *model.Address, id uuid.UUID) { a.ID = id },
			"full_address",
		)),
		reviews: repository.NewRepository(db, handlers(
			func() *model.Review { return &model.Review{} },
			func(r *model.Review) uuid.UUID { return r.ID },
			func(r *model.Review, id uuid.UUID) { r.ID = id },
			"id",
		)),
		users: repository.NewRepository(db, handlers(
			func() *model.User { return &model.User{} },
			func(u *model.User) uuid.UUID { return u.ID },
			func(u *model.User, id uuid.UUID) { u.ID = id },
			"username",
		)),
	}
}

// DB exposes the underlying connection.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func handlers[T any](newRecord func() T, getID func(T) uuid.UUID, setID func(T, uuid.UUID), identifier string) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID:     getID,
		SetID:     setID,
		GetIdentifier: func() string {
			return identifier
		},
	}
}

// whereEq matches rows whose column equals value.
func whereEq(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(column), value)
	}
}

func orderBy(order string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order(order)
	}
}

func limitOne(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Limit(1)
}

func byPK(q *bun.UpdateQuery) *bun.UpdateQuery {
	return q.WherePK()
}

// findOne returns the first row matching criteria, or an error wrapping
// model.ErrNotFound.
func findOne[T any](ctx context.Context, repo repository.Repository[T], what string, criteria ...repository.SelectCriteria) (T, error) {
	var zero T

	criteria = append(criteria, limitOne)
	records, _, err := repo.List(ctx, criteria...)
	if err != nil {
		return zero, fmt.Errorf("failed to find %s: %w", what, err)
	}
	if len(records) == 0 {
		return zero, fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return records[0], nil
}

// getOrCreate returns the row find resolves, inserting record when there is
// none. An insert that fails because a concurrent writer got there first is
// resolved by reading the winner back.
func getOrCreate[T any](ctx context.Context, repo repository.Repository[T], find func(context.Context) (T, error), record T) (T, bool, error) {
	var zero T

	existing, err := find(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return zero, false, err
	}

	if _, createErr := repo.Create(ctx, record); createErr != nil {
		if existing, err := find(ctx); err == nil {
			return existing, false, nil
		}
		return zero, false, fmt.Errorf("failed to create record: %w", createErr)
	}

	return record, true, nil
}
