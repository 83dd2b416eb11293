/*
Package hierarchy is the read and write path for the address hierarchy and
the reviews attached to it.

Reads are cache-aside: a derived value (a list of names, an address record,
a set of reviews) is looked up in the injected cache.CacheService and fetched
from the Store on a miss. Keys are built by a cache.KeySerializer:

	countries
	states::{country}
	cities::{state}::{country}
	address::{full address}
	address_reviews::{address id}
	city_reviews::{city}::{state}::{country}

Writes go straight to the Store and then clear the keys they can make stale:

	new country          countries
	new state            states::{country}
	new city             cities::{state}::*
	review added/removed address_reviews::{id}, city_reviews::{city}::{state}::{country}
	address removed      address::{full address}

Rows written to the store behind the Service's back stay invisible to cached
reads until the entry expires.

Errors

Every failure wraps one of the model sentinels where it applies:

	model.ErrInvalidInput  blank name or address, nil parent, bad submission
	model.ErrNotFound      a required row does not exist
	model.ErrConflict      a second review by the same user for one address

Anything else is a store or cache failure. Missing rows are never cached.
*/
package hierarchy
