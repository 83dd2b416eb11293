package store

import (
	"context"
	"fmt"

	"github.com/sntnmjones/RentalApp/model"
	"github.com/uptrace/bun"
)

type table struct {
	model       any
	foreignKeys []string
}

// tables lists the models in creation order; parents come first. Tables made
// before foreign keys existed keep none until migrate --reset.
var tables = []table{
	{model: (*model.Country)(nil)},
	{model: (*model.State)(nil), foreignKeys: []string{
		`("country_id") REFERENCES "countries" ("id")`,
	}},
	{model: (*model.City)(nil), foreignKeys: []string{
		`("state_id") REFERENCES "states" ("id")`,
	}},
	{model: (*model.Address)(nil), foreignKeys: []string{
		`("city_id") REFERENCES "cities" ("id")`,
	}},
	{model: (*model.User)(nil)},
	{model: (*model.Review)(nil), foreignKeys: []string{
		`("address_id") REFERENCES "addresses" ("id")`,
		`("user_id") REFERENCES "users" ("id")`,
	}},
}

type uniqueIndex struct {
	model   any
	name    string
	columns []string
}

// uniqueIndexes back every get-or-create and the one-review-per-address rule.
var uniqueIndexes = []uniqueIndex{
	{model: (*model.Country)(nil), name: "countries_name_key", columns: []string{"name"}},
	{model: (*model.State)(nil), name: "states_country_id_name_key", columns: []string{"country_id", "name"}},
	{model: (*model.City)(nil), name: "cities_state_id_name_key", columns: []string{"state_id", "name"}},
	{model: (*model.Address)(nil), name: "addresses_full_address_key", columns: []string{"full_address"}},
	{model: (*model.User)(nil), name: "users_username_key", columns: []string{"username"}},
	{model: (*model.Review)(nil), name: "reviews_user_id_address_id_key", columns: []string{"user_id", "address_id"}},
}

// Migrate creates any missing tables and indexes. It is safe to run on every
// start.
func Migrate(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range tables {
			q := tx.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", t.model, err)
			}
		}

		for _, idx := range uniqueIndexes {
			_, err := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Unique().
				IfNotExists().
				Column(idx.columns...).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}

		_, err := tx.NewCreateIndex().
			Model((*model.Review)(nil)).
			Index("reviews_address_id_pub_date_idx").
			IfNotExists().
			Column("address_id", "pub_date").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create review index: %w", err)
		}

		return nil
	})
}

// Reset drops every table, children first.
func Reset(ctx context.Context, db *bun.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", tables[i].model, err)
		}
	}
	return nil
}
