// Package model defines the persisted entities of the address hierarchy
// (Country → State → City → Address), the reviews attached to addresses, and
// the users who write them.
//
// The structs carry bun tags so the store package can map them directly; the
// hierarchy and web packages only read their exported fields.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Country is the root of the address hierarchy. Name is globally unique.
type Country struct {
	bun.BaseModel `bun:"table:countries,alias:co"`

	ID   uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name string    `bun:"name,notnull" json:"name"`
}

// State belongs to exactly one Country. (CountryID, Name) is unique.
type State struct {
	bun.BaseModel `bun:"table:states,alias:st"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CountryID uuid.UUID `bun:"country_id,notnull,type:uuid" json:"country_id"`
	Name      string    `bun:"name,notnull" json:"name"`
}

// City belongs to exactly one State. (StateID, Name) is unique.
type City struct {
	bun.BaseModel `bun:"table:cities,alias:ci"`

	ID      uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	StateID uuid.UUID `bun:"state_id,notnull,type:uuid" json:"state_id"`
	Name    string    `bun:"name,notnull" json:"name"`
}

// Address is a single rentable property, identified by its normalized full
// address string.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:ad"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CityID      uuid.UUID `bun:"city_id,notnull,type:uuid" json:"city_id"`
	FullAddress string    `bun:"full_address,notnull" json:"full_address"`
}

// Review is written by one User about one Address. A user has at most one
// review per address.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rv"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AddressID uuid.UUID `bun:"address_id,notnull,type:uuid" json:"address_id"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Body      string    `bun:"body,notnull" json:"body"`
	Rating    int       `bun:"rating,notnull" json:"rating"`
	PubDate   time.Time `bun:"pub_date,notnull" json:"pub_date"`
}

// User is an account holder. PasswordHash is a bcrypt digest and never leaves
// the process.
type User struct {
	bun.BaseModel `bun:"table:users,alias:us"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Username     string    `bun:"username,notnull" json:"username"`
	Email        string    `bun:"email,notnull" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	IsStaff      bool      `bun:"is_staff,notnull" json:"is_staff"`
	DateJoined   time.Time `bun:"date_joined,notnull" json:"date_joined"`
}

// Location names the hierarchy path above an Address.
type Location struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}
