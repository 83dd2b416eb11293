package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
)

func (s *Store) FindCountry(ctx context.Context, name string) (*model.Country, error) {
	return findOne(ctx, s.countries, fmt.Sprintf("country %q", name), whereEq("name", name))
}

func (s *Store) FindState(ctx context.Context, countryID uuid.UUID, name string) (*model.State, error) {
	return findOne(ctx, s.states, fmt.Sprintf("state %q", name),
		whereEq("country_id", countryID),
		whereEq("name", name),
	)
}

func (s *Store) FindCity(ctx context.Context, stateID uuid.UUID, name string) (*model.City, error) {
	return findOne(ctx, s.cities, fmt.Sprintf("city %q", name),
		whereEq("state_id", stateID),
		whereEq("name", name),
	)
}

func (s *Store) FindAddress(ctx context.Context, fullAddress string) (*model.Address, error) {
	return findOne(ctx, s.addresses, fmt.Sprintf("address %q", fullAddress), whereEq("full_address", fullAddress))
}

func (s *Store) FindAddressByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	return findOne(ctx, s.addresses, fmt.Sprintf("address %s", id), whereEq("id", id))
}

func (s *Store) AddressExists(ctx context.Context, fullAddress string) (bool, error) {
	n, err := s.addresses.Count(ctx, whereEq("full_address", fullAddress))
	if err != nil {
		return false, fmt.Errorf("failed to count addresses: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetOrCreateCountry(ctx context.Context, name string) (*model.Country, bool, error) {
	return getOrCreate(ctx, s.countries,
		func(ctx context.Context) (*model.Country, error) { return s.FindCountry(ctx, name) },
		&model.Country{ID: uuid.New(), Name: name},
	)
}

func (s *Store) GetOrCreateState(ctx context.Context, country *model.Country, name string) (*model.State, bool, error) {
	return getOrCreate(ctx, s.states,
		func(ctx context.Context) (*model.State, error) { return s.FindState(ctx, country.ID, name) },
		&model.State{ID: uuid.New(), CountryID: country.ID, Name: name},
	)
}

func (s *Store) GetOrCreateCity(ctx context.Context, state *model.State, name string) (*model.City, bool, error) {
	return getOrCreate(ctx, s.cities,
		func(ctx context.Context) (*model.City, error) { return s.FindCity(ctx, state.ID, name) },
		&model.City{ID: uuid.New(), StateID: state.ID, Name: name},
	)
}

// GetOrCreateAddress resolves fullAddress globally. An existing address in a
// different city is returned as is.
func (s *Store) GetOrCreateAddress(ctx context.Context, city *model.City, fullAddress string) (*model.Address, bool, error) {
	return getOrCreate(ctx, s.addresses,
		func(ctx context.Context) (*model.Address, error) { return s.FindAddress(ctx, fullAddress) },
		&model.Address{ID: uuid.New(), CityID: city.ID, FullAddress: fullAddress},
	)
}

// CountryNames lists every country name alphabetically.
func (s *Store) CountryNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*model.Country)(nil)).
		Column("name").
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return names, nil
}

func (s *Store) StateNames(ctx context.Context, countryID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*model.State)(nil)).
		Column("name").
		Where("country_id = ?", countryID).
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return names, nil
}

func (s *Store) CityNames(ctx context.Context, stateID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*model.City)(nil)).
		Column("name").
		Where("state_id = ?", stateID).
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return names, nil
}

func (s *Store) AddressesInCity(ctx context.Context, cityID uuid.UUID) ([]*model.Address, error) {
	var addresses []*model.Address
	err := s.db.NewSelect().
		Model(&addresses).
		Where("city_id = ?", cityID).
		Order("full_address ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// AddressLocation walks up from address to its country.
func (s *Store) AddressLocation(ctx context.Context, address *model.Address) (model.Location, error) {
	city, err := findOne(ctx, s.cities, fmt.Sprintf("city %s", address.CityID), whereEq("id", address.CityID))
	if err != nil {
		return model.Location{}, err
	}
	state, err := findOne(ctx, s.states, fmt.Sprintf("state %s", city.StateID), whereEq("id", city.StateID))
	if err != nil {
		return model.Location{}, err
	}
	country, err := findOne(ctx, s.countries, fmt.Sprintf("country %s", state.CountryID), whereEq("id", state.CountryID))
	if err != nil {
		return model.Location{}, err
	}

	return model.Location{Country: country.Name, State: state.Name, City: city.Name}, nil
}
