package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sntnmjones/RentalApp/cache"
	"github.com/sntnmjones/RentalApp/hierarchy"
	"github.com/sntnmjones/RentalApp/model"
	"github.com/sntnmjones/RentalApp/pkg/testsupport"
	"github.com/sntnmjones/RentalApp/store"
)

var _ hierarchy.Store = (*store.Store)(nil)

// TestHierarchyOverStore runs the Main Street scenario through the cached
// service against a real database.
func TestHierarchyOverStore(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewTestDB(t)
	if err := store.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(db)

	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := hierarchy.New(st, cacheService, hierarchy.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	scenario := testsupport.LoadScenario(t, testsupport.FixturePath("scenario.json"))
	for _, u := range scenario.Users {
		if _, err := st.CreateUser(ctx, &model.User{Username: u.Username, Email: u.Email, PasswordHash: "x", IsStaff: u.IsStaff}); err != nil {
			t.Fatalf("user %s: %v", u.Username, err)
		}
	}

	var written []*model.Review
	for _, r := range scenario.Reviews {
		review, err := svc.SubmitReview(ctx, hierarchy.ReviewSubmission{
			Username:    r.Username,
			Country:     r.Country,
			State:       r.State,
			City:        r.City,
			FullAddress: r.FullAddress,
			Title:       r.Title,
			Body:        r.Body,
			Rating:      r.Rating,
		})
		if err != nil {
			t.Fatalf("submit %s: %v", r.Title, err)
		}
		written = append(written, review)
	}
	r1, r2 := written[0], written[1]

	address, err := svc.LookupAddress(ctx, "123 Main St")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	reviews, err := svc.ListReviewsForAddress(ctx, address.ID)
	if err != nil || len(reviews) != 2 || reviews[0].ID != r1.ID {
		t.Fatalf("expected [R1 R2], got %d reviews (err %v)", len(reviews), err)
	}

	byAddress, err := svc.ListReviewsForCity(ctx, "Los Angeles", "CA", "USA")
	if err != nil || len(byAddress["123 Main St"]) != 2 {
		t.Fatalf("expected two reviews in the rollup, got %v (err %v)", byAddress, err)
	}

	if err := svc.DeleteReview(ctx, r1); err != nil {
		t.Fatalf("delete R1: %v", err)
	}
	reviews, err = svc.ListReviewsForAddress(ctx, address.ID)
	if err != nil || len(reviews) != 1 || reviews[0].ID != r2.ID {
		t.Fatalf("expected [R2], got %d reviews (err %v)", len(reviews), err)
	}

	if err := svc.DeleteReview(ctx, r2); err != nil {
		t.Fatalf("delete R2: %v", err)
	}
	if exists, err := svc.AddressExists(ctx, "123 Main St"); err != nil || exists {
		t.Errorf("expected address to be deleted, got %v (err %v)", exists, err)
	}
	if _, err := svc.LookupAddress(ctx, "123 Main St"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}
}
