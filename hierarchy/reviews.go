package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/cache"
	"github.com/sntnmjones/RentalApp/model"
)

// ReviewSubmission is a new review together with the location it is for.
// Missing Country, State, City or Address rows are created on submit.
type ReviewSubmission struct {
	Username    string `json:"-"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	FullAddress string `json:"full_address"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Rating      int    `json:"rating"`
}

// Normalize trims names and collapses whitespace in the address.
func (r *ReviewSubmission) Normalize() {
	r.Username = model.NormalizeName(r.Username)
	r.Country = model.NormalizeName(r.Country)
	r.State = model.NormalizeName(r.State)
	r.City = model.NormalizeName(r.City)
	r.FullAddress = model.NormalizeAddress(r.FullAddress)
	r.Title = model.NormalizeName(r.Title)
}

// Validate checks the submission. Call Normalize first.
func (r ReviewSubmission) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.State, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.FullAddress, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Body, validation.Required, validation.Length(1, 5000)),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

// ListReviewsForAddress returns the reviews of an address, oldest first.
func (s *Service) ListReviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error) {
	if addressID == uuid.Nil {
		return nil, fmt.Errorf("address id is required: %w", model.ErrInvalidInput)
	}

	reviews, err := s.reviewsForAddress(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for address %s: %w", addressID, err)
	}
	return slices.Clone(reviews), nil
}

func (s *Service) reviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error) {
	return cache.GetOrFetch(ctx, s.cache, s.keys.addressReviews(addressID), func(ctx context.Context) ([]*model.Review, error) {
		return s.store.ReviewsForAddress(ctx, addressID)
	})
}

// ListReviewsForCity maps each full address in the city to its reviews.
// Addresses without reviews are left out. The whole map is cached as one
// entry.
func (s *Service) ListReviewsForCity(ctx context.Context, cityName, stateName, countryName string) (map[string][]*model.Review, error) {
	cityName = model.NormalizeName(cityName)
	stateName = model.NormalizeName(stateName)
	countryName = model.NormalizeName(countryName)
	if cityName == "" || stateName == "" || countryName == "" {
		return nil, fmt.Errorf("city, state and country names are required: %w", model.ErrInvalidInput)
	}

	key := s.keys.cityReviews(cityName, stateName, countryName)
	byAddress, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (map[string][]*model.Review, error) {
		city, err := s.findCity(ctx, cityName, stateName, countryName)
		if err != nil {
			return nil, err
		}

		addresses, err := s.store.AddressesInCity(ctx, city.ID)
		if err != nil {
			return nil, err
		}

		out := make(map[string][]*model.Review, len(addresses))
		for _, address := range addresses {
			reviews, err := s.reviewsForAddress(ctx, address.ID)
			if err != nil {
				return nil, err
			}
			if len(reviews) > 0 {
				out[address.FullAddress] = reviews
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews for city %q: %w", cityName, err)
	}
	return maps.Clone(byAddress), nil
}

// ListReviewsForUser returns the user's reviews, newest first. An unknown
// user is ErrNotFound, distinct from a user with no reviews.
func (s *Service) ListReviewsForUser(ctx context.Context, username string) ([]*model.Review, error) {
	username = model.NormalizeName(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", model.ErrInvalidInput)
	}

	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list reviews for user %q: %w", username, err)
	}

	reviews, err := s.store.ReviewsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for user %q: %w", username, err)
	}
	return reviews, nil
}

// GetUserReview returns the review username wrote for fullAddress. The user,
// the address and the review must all exist.
func (s *Service) GetUserReview(ctx context.Context, username, fullAddress string) (*model.Review, error) {
	username = model.NormalizeName(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", model.ErrInvalidInput)
	}

	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get review by %q: %w", username, err)
	}

	address, err := s.LookupAddress(ctx, fullAddress)
	if err != nil {
		return nil, fmt.Errorf("get review by %q: %w", username, err)
	}

	review, err := s.store.FindReview(ctx, user.ID, address.ID)
	if err != nil {
		return nil, fmt.Errorf("get review by %q for %q: %w", username, address.FullAddress, err)
	}
	return review, nil
}

// SubmitReview validates sub, creates any missing location rows and stores
// the review. A user reviewing the same address twice gets ErrConflict.
func (s *Service) SubmitReview(ctx context.Context, sub ReviewSubmission) (*model.Review, error) {
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	user, err := s.store.FindUserByUsername(ctx, sub.Username)
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	// Full addresses are unique across cities. A known address submitted
	// under another location is refused before any location row is made.
	if err := s.checkAddressLocation(ctx, sub); err != nil {
		return nil, err
	}

	country, err := s.GetOrCreateCountry(ctx, sub.Country)
	if err != nil {
		return nil, err
	}
	state, err := s.GetOrCreateState(ctx, country, sub.State)
	if err != nil {
		return nil, err
	}
	city, err := s.GetOrCreateCity(ctx, state, sub.City)
	if err != nil {
		return nil, err
	}
	address, err := s.GetOrCreateAddress(ctx, city, sub.FullAddress)
	if err != nil {
		return nil, err
	}
	if address.CityID != city.ID {
		return nil, fmt.Errorf("%q belongs to another city than %s: %w", address.FullAddress, city.Name, model.ErrConflict)
	}

	if existing, err := s.store.FindReview(ctx, user.ID, address.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("%q already reviewed %q: %w", user.Username, address.FullAddress, model.ErrConflict)
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	review, err := s.store.CreateReview(ctx, &model.Review{
		ID:        uuid.New(),
		AddressID: address.ID,
		UserID:    user.ID,
		Title:     sub.Title,
		Body:      sub.Body,
		Rating:    sub.Rating,
		PubDate:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("submit review for %q: %w", address.FullAddress, err)
	}

	s.logger.Info("review submitted", "user", user.Username, "address", address.FullAddress)
	s.invalidate(ctx,
		s.keys.addressReviews(address.ID),
		s.keys.cityReviews(city.Name, state.Name, country.Name),
	)
	return review, nil
}

// checkAddressLocation returns ErrConflict when sub.FullAddress already
// exists under a different country, state or city.
func (s *Service) checkAddressLocation(ctx context.Context, sub ReviewSubmission) error {
	existing, err := s.store.FindAddress(ctx, sub.FullAddress)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}

	loc, err := s.store.AddressLocation(ctx, existing)
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	want := model.Location{Country: sub.Country, State: sub.State, City: sub.City}
	if loc != want {
		return fmt.Errorf("%q is in %s, %s, %s: %w", existing.FullAddress, loc.City, loc.State, loc.Country, model.ErrConflict)
	}
	return nil
}

// DeleteReview removes review. If that leaves its address without reviews
// the address is removed too. Empty cities, states and countries are kept.
func (s *Service) DeleteReview(ctx context.Context, review *model.Review) error {
	if review == nil {
		return fmt.Errorf("review is required: %w", model.ErrInvalidInput)
	}

	address, err := s.store.FindAddressByID(ctx, review.AddressID)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", review.ID, err)
	}
	loc, err := s.store.AddressLocation(ctx, address)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", review.ID, err)
	}

	addressDeleted, err := s.store.DeleteReview(ctx, review)
	if err != nil {
		return fmt.Errorf("delete review %s: %w", review.ID, err)
	}

	s.logger.Info("review deleted", "review", review.ID, "address", address.FullAddress, "address_deleted", addressDeleted)
	s.invalidate(ctx,
		s.keys.addressReviews(address.ID),
		s.keys.cityReviews(loc.City, loc.State, loc.Country),
	)
	if addressDeleted {
		s.invalidate(ctx, s.keys.address(address.FullAddress))
	}
	return nil
}
