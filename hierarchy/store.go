package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
)

// LocationStore persists the Country → State → City → Address tree.
//
// Find methods return an error wrapping model.ErrNotFound when no row
// matches. GetOrCreate methods report whether a row was inserted; a create
// that loses a race against a concurrent insert re-reads and returns the
// winner with created set to false.
type LocationStore interface {
	GetOrCreateCountry(ctx context.Context, name string) (*model.Country, bool, error)
	GetOrCreateState(ctx context.Context, country *model.Country, name string) (*model.State, bool, error)
	GetOrCreateCity(ctx context.Context, state *model.State, name string) (*model.City, bool, error)
	GetOrCreateAddress(ctx context.Context, city *model.City, fullAddress string) (*model.Address, bool, error)

	FindCountry(ctx context.Context, name string) (*model.Country, error)
	FindState(ctx context.Context, countryID uuid.UUID, name string) (*model.State, error)
	FindCity(ctx context.Context, stateID uuid.UUID, name string) (*model.City, error)
	FindAddress(ctx context.Context, fullAddress string) (*model.Address, error)
	FindAddressByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	AddressExists(ctx context.Context, fullAddress string) (bool, error)

	CountryNames(ctx context.Context) ([]string, error)
	StateNames(ctx context.Context, countryID uuid.UUID) ([]string, error)
	CityNames(ctx context.Context, stateID uuid.UUID) ([]string, error)
	AddressesInCity(ctx context.Context, cityID uuid.UUID) ([]*model.Address, error)
	AddressLocation(ctx context.Context, address *model.Address) (model.Location, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	// CreateReview inserts review. A second review by the same user for the
	// same address fails with model.ErrConflict.
	CreateReview(ctx context.Context, review *model.Review) (*model.Review, error)

	// ReviewsForAddress orders by publish date, oldest first.
	ReviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error)

	// ReviewsForUser orders by publish date, newest first.
	ReviewsForUser(ctx context.Context, userID uuid.UUID) ([]*model.Review, error)

	FindReview(ctx context.Context, userID, addressID uuid.UUID) (*model.Review, error)

	// DeleteReview removes review and, in the same transaction, its address
	// when no other review references it.
	DeleteReview(ctx context.Context, review *model.Review) (addressDeleted bool, err error)
}

// UserFinder resolves accounts by username.
type UserFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Store is everything the Service needs from persistence.
type Store interface {
	LocationStore
	ReviewStore
	UserFinder
}
