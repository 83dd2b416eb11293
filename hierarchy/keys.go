package hierarchy

import (
	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/cache"
)

// Cache namespaces. Each derived read has exactly one key shape.
const (
	nsCountries      = "countries"
	nsStates         = "states"
	nsCities         = "cities"
	nsAddress        = "address"
	nsAddressReviews = "address_reviews"
	nsCityReviews    = "city_reviews"
)

type keys struct {
	serializer cache.KeySerializer
}

func (k keys) countries() string {
	return k.serializer.SerializeKey(nsCountries)
}

func (k keys) states(country string) string {
	return k.serializer.SerializeKey(nsStates, country)
}

func (k keys) cities(state, country string) string {
	return k.serializer.SerializeKey(nsCities, state, country)
}

// citiesOfState matches the city lists of every state with this name,
// whichever country it sits in.
func (k keys) citiesOfState(state string) string {
	return k.serializer.SerializePrefix(nsCities, state)
}

func (k keys) address(fullAddress string) string {
	return k.serializer.SerializeKey(nsAddress, fullAddress)
}

func (k keys) addressReviews(addressID uuid.UUID) string {
	return k.serializer.SerializeKey(nsAddressReviews, addressID)
}

func (k keys) cityReviews(city, state, country string) string {
	return k.serializer.SerializeKey(nsCityReviews, city, state, country)
}
