package hierarchy

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sntnmjones/RentalApp/cache"
	"github.com/sntnmjones/RentalApp/model"
)

// Service is the cache-aside access layer over the address hierarchy.
// It is safe for concurrent use; it holds no locks of its own and relies on
// the store's unique indexes for get-or-create races.
type Service struct {
	store  Store
	cache  cache.CacheService
	keys   keys
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithKeySerializer overrides the default cache key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(s *Service) {
		if serializer != nil {
			s.keys = keys{serializer: serializer}
		}
	}
}

// WithLogger sets the logger used for invalidation warnings and write events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp new reviews.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service reading through cacheService in front of store.
func New(store Store, cacheService cache.CacheService, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cache:  cacheService,
		keys:   keys{serializer: cache.NewDefaultKeySerializer()},
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateCountry returns the country called name, creating it if needed.
// It always goes to the store. A create clears the cached country list.
func (s *Service) GetOrCreateCountry(ctx context.Context, name string) (*model.Country, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("country name is required: %w", model.ErrInvalidInput)
	}

	country, created, err := s.store.GetOrCreateCountry(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get or create country %q: %w", name, err)
	}
	if created {
		s.logger.Info("created country", "country", name)
		s.invalidate(ctx, s.keys.countries())
	}
	return country, nil
}

// ListCountries returns every country name.
func (s *Service) ListCountries(ctx context.Context) ([]string, error) {
	names, err := cache.GetOrFetch(ctx, s.cache, s.keys.countries(), func(ctx context.Context) ([]string, error) {
		return s.store.CountryNames(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return slices.Clone(names), nil
}

// GetOrCreateState returns the state called name inside country, creating it
// if needed.
func (s *Service) GetOrCreateState(ctx context.Context, country *model.Country, name string) (*model.State, error) {
	name = model.NormalizeName(name)
	if country == nil {
		return nil, fmt.Errorf("country is required: %w", model.ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("state name is required: %w", model.ErrInvalidInput)
	}

	state, created, err := s.store.GetOrCreateState(ctx, country, name)
	if err != nil {
		return nil, fmt.Errorf("get or create state %q in %q: %w", name, country.Name, err)
	}
	if created {
		s.logger.Info("created state", "state", name, "country", country.Name)
		s.invalidate(ctx, s.keys.states(country.Name))
	}
	return state, nil
}

// ListStates returns the state names of the named country.
func (s *Service) ListStates(ctx context.Context, countryName string) ([]string, error) {
	countryName = model.NormalizeName(countryName)
	if countryName == "" {
		return nil, fmt.Errorf("country name is required: %w", model.ErrInvalidInput)
	}

	names, err := cache.GetOrFetch(ctx, s.cache, s.keys.states(countryName), func(ctx context.Context) ([]string, error) {
		country, err := s.store.FindCountry(ctx, countryName)
		if err != nil {
			return nil, err
		}
		return s.store.StateNames(ctx, country.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list states of %q: %w", countryName, err)
	}
	return slices.Clone(names), nil
}

// GetOrCreateCity returns the city called name inside state, creating it if
// needed.
func (s *Service) GetOrCreateCity(ctx context.Context, state *model.State, name string) (*model.City, error) {
	name = model.NormalizeName(name)
	if state == nil {
		return nil, fmt.Errorf("state is required: %w", model.ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("city name is required: %w", model.ErrInvalidInput)
	}

	city, created, err := s.store.GetOrCreateCity(ctx, state, name)
	if err != nil {
		return nil, fmt.Errorf("get or create city %q in %q: %w", name, state.Name, err)
	}
	if created {
		s.logger.Info("created city", "city", name, "state", state.Name)
		s.invalidatePrefix(ctx, s.keys.citiesOfState(state.Name))
	}
	return city, nil
}

// ListCities returns the city names of the named state.
func (s *Service) ListCities(ctx context.Context, stateName, countryName string) ([]string, error) {
	stateName = model.NormalizeName(stateName)
	countryName = model.NormalizeName(countryName)
	if stateName == "" || countryName == "" {
		return nil, fmt.Errorf("state and country names are required: %w", model.ErrInvalidInput)
	}

	names, err := cache.GetOrFetch(ctx, s.cache, s.keys.cities(stateName, countryName), func(ctx context.Context) ([]string, error) {
		state, err := s.findState(ctx, stateName, countryName)
		if err != nil {
			return nil, err
		}
		return s.store.CityNames(ctx, state.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list cities of %q, %q: %w", stateName, countryName, err)
	}
	return slices.Clone(names), nil
}

// AddressExists reports whether an address record exists. It is not cached.
// A blank address does not exist.
func (s *Service) AddressExists(ctx context.Context, fullAddress string) (bool, error) {
	fullAddress = model.NormalizeAddress(fullAddress)
	if fullAddress == "" {
		return false, nil
	}

	exists, err := s.store.AddressExists(ctx, fullAddress)
	if err != nil {
		return false, fmt.Errorf("check address %q: %w", fullAddress, err)
	}
	return exists, nil
}

// LookupAddress resolves an address record. Found records are cached; a miss
// is not, so an address created later is visible on the next call.
func (s *Service) LookupAddress(ctx context.Context, fullAddress string) (*model.Address, error) {
	fullAddress = model.NormalizeAddress(fullAddress)
	if fullAddress == "" {
		return nil, fmt.Errorf("address is required: %w", model.ErrInvalidInput)
	}

	address, err := cache.GetOrFetch(ctx, s.cache, s.keys.address(fullAddress), func(ctx context.Context) (*model.Address, error) {
		return s.store.FindAddress(ctx, fullAddress)
	})
	if err != nil {
		return nil, fmt.Errorf("lookup address %q: %w", fullAddress, err)
	}
	return address, nil
}

// GetOrCreateAddress returns the address record inside city, creating it if
// needed.
func (s *Service) GetOrCreateAddress(ctx context.Context, city *model.City, fullAddress string) (*model.Address, error) {
	fullAddress = model.NormalizeAddress(fullAddress)
	if city == nil {
		return nil, fmt.Errorf("city is required: %w", model.ErrInvalidInput)
	}
	if fullAddress == "" {
		return nil, fmt.Errorf("address is required: %w", model.ErrInvalidInput)
	}

	address, created, err := s.store.GetOrCreateAddress(ctx, city, fullAddress)
	if err != nil {
		return nil, fmt.Errorf("get or create address %q: %w", fullAddress, err)
	}
	if created {
		s.logger.Info("created address", "address", fullAddress, "city", city.Name)
	}
	return address, nil
}

// ResolveLocation names the country, state and city above address.
func (s *Service) ResolveLocation(ctx context.Context, address *model.Address) (model.Location, error) {
	if address == nil {
		return model.Location{}, fmt.Errorf("address is required: %w", model.ErrInvalidInput)
	}

	loc, err := s.store.AddressLocation(ctx, address)
	if err != nil {
		return model.Location{}, fmt.Errorf("resolve location of %q: %w", address.FullAddress, err)
	}
	return loc, nil
}

func (s *Service) findState(ctx context.Context, stateName, countryName string) (*model.State, error) {
	country, err := s.store.FindCountry(ctx, countryName)
	if err != nil {
		return nil, err
	}
	return s.store.FindState(ctx, country.ID, stateName)
}

func (s *Service) findCity(ctx context.Context, cityName, stateName, countryName string) (*model.City, error) {
	state, err := s.findState(ctx, stateName, countryName)
	if err != nil {
		return nil, err
	}
	return s.store.FindCity(ctx, state.ID, cityName)
}

// invalidate drops derived keys after a write. The write already succeeded,
// so a failure here is logged and the entry ages out with its TTL.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache invalidation failed", "key", key, "err", err)
		}
	}
}

func (s *Service) invalidatePrefix(ctx context.Context, prefix string) {
	if err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache prefix invalidation failed", "prefix", prefix, "err", err)
	}
}
