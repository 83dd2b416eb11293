package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sntnmjones/RentalApp/model"
	"github.com/uptrace/bun"
)

// CreateReview inserts review. A second review by the same user for the same
// address is reported as model.ErrConflict. A review whose address or user
// does not exist is rejected by the foreign keys and reported as
// model.ErrNotFound.
func (s *Store) CreateReview(ctx context.Context, review *model.Review) (*model.Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	if _, err := s.reviews.Create(ctx, review); err != nil {
		if _, findErr := s.FindReview(ctx, review.UserID, review.AddressID); findErr == nil {
			return nil, fmt.Errorf("review by user %s for address %s: %w", review.UserID, review.AddressID, model.ErrConflict)
		}
		if missing := s.missingReviewParent(ctx, review); missing != nil {
			return nil, missing
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// missingReviewParent reports which row a failed review insert referenced
// but could not find, or nil when both exist.
func (s *Store) missingReviewParent(ctx context.Context, review *model.Review) error {
	if _, err := s.FindAddressByID(ctx, review.AddressID); errors.Is(err, model.ErrNotFound) {
		return err
	}
	_, err := findOne(ctx, s.users, fmt.Sprintf("user %s", review.UserID), whereEq("id", review.UserID))
	if errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Store) FindReview(ctx context.Context, userID, addressID uuid.UUID) (*model.Review, error) {
	return findOne(ctx, s.reviews, fmt.Sprintf("review by user %s for address %s", userID, addressID),
		whereEq("user_id", userID),
		whereEq("address_id", addressID),
	)
}

// ReviewsForAddress returns the reviews of an address, oldest first.
func (s *Store) ReviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error) {
	var reviews []*model.Review
	err := s.db.NewSelect().
		Model(&reviews).
		Where("address_id = ?", addressID).
		Order("pub_date ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for address: %w", err)
	}
	return reviews, nil
}

// ReviewsForUser returns the reviews a user wrote, newest first.
func (s *Store) ReviewsForUser(ctx context.Context, userID uuid.UUID) ([]*model.Review, error) {
	var reviews []*model.Review
	err := s.db.NewSelect().
		Model(&reviews).
		Where("user_id = ?", userID).
		Order("pub_date DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for user: %w", err)
	}
	return reviews, nil
}

// DeleteReview removes review and, when no review of its address remains,
// the address as well. Both happen in one transaction.
func (s *Store) DeleteReview(ctx context.Context, review *model.Review) (bool, error) {
	addressDeleted := false

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		n, err := s.reviews.CountTx(ctx, tx, whereEq("id", review.ID))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("review %s: %w", review.ID, model.ErrNotFound)
		}

		if err := s.reviews.DeleteTx(ctx, tx, review); err != nil {
			return err
		}

		remaining, err := s.reviews.CountTx(ctx, tx, whereEq("address_id", review.AddressID))
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := s.addresses.DeleteTx(ctx, tx, &model.Address{ID: review.AddressID}); err != nil {
			return err
		}
		addressDeleted = true
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("failed to delete review: %w", err)
	}

	return addressDeleted, nil
}
