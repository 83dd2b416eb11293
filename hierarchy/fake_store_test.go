package hierarchy

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
)

// fakeStore is an in-memory Store that counts calls per method.
type fakeStore struct {
	mu        sync.Mutex
	countries []*model.Country
	states    []*model.State
	cities    []*model.City
	addresses []*model.Address
	reviews   []*model.Review
	users     []*model.User
	calls     map[string]int
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (f *fakeStore) record(method string) {
	f.calls[method]++
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeStore) addUser(username string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &model.User{ID: uuid.New(), Username: username, Email: username + "@example.com"}
	f.users = append(f.users, user)
	return user
}

// insertCountry writes a row without going through the Service.
func (f *fakeStore) insertCountry(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries = append(f.countries, &model.Country{ID: uuid.New(), Name: name})
}

func notFound(kind, name string) error {
	return fmt.Errorf("%s %q: %w", kind, name, model.ErrNotFound)
}

func (f *fakeStore) GetOrCreateCountry(ctx context.Context, name string) (*model.Country, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetOrCreateCountry")
	for _, c := range f.countries {
		if c.Name == name {
			return c, false, nil
		}
	}
	c := &model.Country{ID: uuid.New(), Name: name}
	f.countries = append(f.countries, c)
	return c, true, nil
}

func (f *fakeStore) GetOrCreateState(ctx context.Context, country *model.Country, name string) (*model.State, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetOrCreateState")
	for _, s := range f.states {
		if s.CountryID == country.ID && s.Name == name {
			return s, false, nil
		}
	}
	s := &model.State{ID: uuid.New(), CountryID: country.ID, Name: name}
	f.states = append(f.states, s)
	return s, true, nil
}

func (f *fakeStore) GetOrCreateCity(ctx context.Context, state *model.State, name string) (*model.City, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetOrCreateCity")
	for _, c := range f.cities {
		if c.StateID == state.ID && c.Name == name {
			return c, false, nil
		}
	}
	c := &model.City{ID: uuid.New(), StateID: state.ID, Name: name}
	f.cities = append(f.cities, c)
	return c, true, nil
}

func (f *fakeStore) GetOrCreateAddress(ctx context.Context, city *model.City, fullAddress string) (*model.Address, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetOrCreateAddress")
	for _, a := range f.addresses {
		if a.FullAddress == fullAddress {
			return a, false, nil
		}
	}
	a := &model.Address{ID: uuid.New(), CityID: city.ID, FullAddress: fullAddress}
	f.addresses = append(f.addresses, a)
	return a, true, nil
}

func (f *fakeStore) FindCountry(ctx context.Context, name string) (*model.Country, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindCountry")
	for _, c := range f.countries {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, notFound("country", name)
}

func (f *fakeStore) FindState(ctx context.Context, countryID uuid.UUID, name string) (*model.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindState")
	for _, s := range f.states {
		if s.CountryID == countryID && s.Name == name {
			return s, nil
		}
	}
	return nil, notFound("state", name)
}

func (f *fakeStore) FindCity(ctx context.Context, stateID uuid.UUID, name string) (*model.City, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindCity")
	for _, c := range f.cities {
		if c.StateID == stateID && c.Name == name {
			return c, nil
		}
	}
	return nil, notFound("city", name)
}

func (f *fakeStore) FindAddress(ctx context.Context, fullAddress string) (*model.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindAddress")
	for _, a := range f.addresses {
		if a.FullAddress == fullAddress {
			return a, nil
		}
	}
	return nil, notFound("address", fullAddress)
}

func (f *fakeStore) FindAddressByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindAddressByID")
	for _, a := range f.addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, notFound("address", id.String())
}

func (f *fakeStore) AddressExists(ctx context.Context, fullAddress string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddressExists")
	for _, a := range f.addresses {
		if a.FullAddress == fullAddress {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountryNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountryNames")
	names := make([]string, 0, len(f.countries))
	for _, c := range f.countries {
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeStore) StateNames(ctx context.Context, countryID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StateNames")
	var names []string
	for _, s := range f.states {
		if s.CountryID == countryID {
			names = append(names, s.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeStore) CityNames(ctx context.Context, stateID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CityNames")
	var names []string
	for _, c := range f.cities {
		if c.StateID == stateID {
			names = append(names, c.Name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeStore) AddressesInCity(ctx context.Context, cityID uuid.UUID) ([]*model.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddressesInCity")
	var out []*model.Address
	for _, a := range f.addresses {
		if a.CityID == cityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AddressLocation(ctx context.Context, address *model.Address) (model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddressLocation")
	var loc model.Location
	for _, c := range f.cities {
		if c.ID != address.CityID {
			continue
		}
		loc.City = c.Name
		for _, s := range f.states {
			if s.ID != c.StateID {
				continue
			}
			loc.State = s.Name
			for _, co := range f.countries {
				if co.ID == s.CountryID {
					loc.Country = co.Name
					return loc, nil
				}
			}
		}
	}
	return loc, notFound("location of", address.FullAddress)
}

func (f *fakeStore) CreateReview(ctx context.Context, review *model.Review) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateReview")
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.AddressID == review.AddressID {
			return nil, fmt.Errorf("duplicate review: %w", model.ErrConflict)
		}
	}
	f.reviews = append(f.reviews, review)
	return review, nil
}

func (f *fakeStore) ReviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReviewsForAddress")
	var out []*model.Review
	for _, r := range f.reviews {
		if r.AddressID == addressID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.Review) int { return a.PubDate.Compare(b.PubDate) })
	return out, nil
}

func (f *fakeStore) ReviewsForUser(ctx context.Context, userID uuid.UUID) ([]*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReviewsForUser")
	var out []*model.Review
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.Review) int { return b.PubDate.Compare(a.PubDate) })
	return out, nil
}

func (f *fakeStore) FindReview(ctx context.Context, userID, addressID uuid.UUID) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindReview")
	for _, r := range f.reviews {
		if r.UserID == userID && r.AddressID == addressID {
			return r, nil
		}
	}
	return nil, notFound("review", addressID.String())
}

func (f *fakeStore) DeleteReview(ctx context.Context, review *model.Review) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteReview")

	idx := slices.IndexFunc(f.reviews, func(r *model.Review) bool { return r.ID == review.ID })
	if idx < 0 {
		return false, notFound("review", review.ID.String())
	}
	f.reviews = slices.Delete(f.reviews, idx, idx+1)

	remaining := slices.ContainsFunc(f.reviews, func(r *model.Review) bool { return r.AddressID == review.AddressID })
	if remaining {
		return false, nil
	}
	f.addresses = slices.DeleteFunc(f.addresses, func(a *model.Address) bool { return a.ID == review.AddressID })
	return true, nil
}

func (f *fakeStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindUserByUsername")
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, notFound("user", username)
}
