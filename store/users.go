package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
)

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return findOne(ctx, s.users, fmt.Sprintf("user %q", username), whereEq("username", username))
}

// FindUserByEmail returns the earliest account registered with email. Email
// is not unique.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne(ctx, s.users, fmt.Sprintf("user with email %q", email),
		whereEq("email", email),
		orderBy("date_joined ASC"),
	)
}

// CreateUser inserts user. A taken username is reported as
// model.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if _, findErr := s.FindUserByUsername(ctx, user.Username); findErr == nil {
			return nil, fmt.Errorf("username %q: %w", user.Username, model.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser writes every column of user.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if _, err := s.users.Update(ctx, user, byPK); err != nil {
		return nil, fmt.Errorf("failed to update user %q: %w", user.Username, err)
	}
	return user, nil
}
