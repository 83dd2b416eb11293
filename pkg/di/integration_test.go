package di

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sntnmjones/RentalApp/hierarchy"
	"github.com/sntnmjones/RentalApp/internal/auth"
	"github.com/sntnmjones/RentalApp/model"
	"github.com/sntnmjones/RentalApp/pkg/testsupport"
)

// seedScenario registers the scenario users through the account service and
// submits the reviews in order.
func seedScenario(t *testing.T, container *Container) []*model.Review {
	t.Helper()
	ctx := context.Background()
	scenario := testsupport.LoadScenario(t, testsupport.FixturePath("scenario.json"))

	for _, u := range scenario.Users {
		user, err := container.Accounts().Register(ctx, auth.RegisterInput{
			Username:        u.Username,
			Email:           u.Email,
			Password:        u.Password,
			PasswordConfirm: u.Password,
		})
		if err != nil {
			t.Fatalf("register %s: %v", u.Username, err)
		}
		if u.IsStaff {
			user.IsStaff = true
			if _, err := container.Store().UpdateUser(ctx, user); err != nil {
				t.Fatalf("promote %s: %v", u.Username, err)
			}
		}
	}

	var reviews []*model.Review
	for _, r := range scenario.Reviews {
		review, err := container.Locations().SubmitReview(ctx, hierarchy.ReviewSubmission{
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
		reviews = append(reviews, review)
		// Publish dates need to differ for ordering.
		time.Sleep(2 * time.Millisecond)
	}
	return reviews
}

func TestEndToEndScenario(t *testing.T) {
	container := newTestContainer(t, testConfig())
	reviews := seedScenario(t, container)
	r1, r2 := reviews[0], reviews[1]
	ctx := context.Background()
	svc := container.Locations()

	address, err := svc.LookupAddress(ctx, "123 Main St")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	byAddress, err := svc.ListReviewsForAddress(ctx, address.ID)
	if err != nil || len(byAddress) != 2 {
		t.Fatalf("expected two reviews, got %d (err %v)", len(byAddress), err)
	}
	if byAddress[0].ID != r1.ID || byAddress[1].ID != r2.ID {
		t.Error("expected oldest first")
	}

	byCity, err := svc.ListReviewsForCity(ctx, "Los Angeles", "CA", "USA")
	if err != nil || len(byCity["123 Main St"]) != 2 {
		t.Fatalf("unexpected rollup %v (err %v)", byCity, err)
	}

	aliceReviews, err := svc.ListReviewsForUser(ctx, "alice")
	if err != nil || len(aliceReviews) != 1 || aliceReviews[0].ID != r1.ID {
		t.Errorf("expected alice to own R1, got %v (err %v)", aliceReviews, err)
	}

	if err := svc.DeleteReview(ctx, r1); err != nil {
		t.Fatalf("delete R1: %v", err)
	}
	if exists, _ := svc.AddressExists(ctx, "123 Main St"); !exists {
		t.Error("address must survive while R2 remains")
	}
	byAddress, _ = svc.ListReviewsForAddress(ctx, address.ID)
	if len(byAddress) != 1 || byAddress[0].ID != r2.ID {
		t.Errorf("expected only R2, got %v", byAddress)
	}

	if err := svc.DeleteReview(ctx, r2); err != nil {
		t.Fatalf("delete R2: %v", err)
	}
	if exists, _ := svc.AddressExists(ctx, "123 Main St"); exists {
		t.Error("address must be removed with its last review")
	}
	if _, err := svc.LookupAddress(ctx, "123 Main St"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
	if cities, _ := svc.ListCities(ctx, "CA", "USA"); len(cities) != 1 {
		t.Errorf("empty cities are kept, got %v", cities)
	}
}

func TestEndToEndHTTP(t *testing.T) {
	container := newTestContainer(t, testConfig())
	seedScenario(t, container)

	server := httptest.NewServer(container.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/search", "application/json", strings.NewReader(`{"property_address":" 123 Main   St "}`))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		PropertyFound bool            `json:"property_found"`
		Reviews       []*model.Review `json:"reviews"`
	}
	testsupport.DecodeJSON(t, resp.Body, &body)
	if !body.PropertyFound || len(body.Reviews) != 2 {
		t.Errorf("expected the seeded property with two reviews, got %+v", body)
	}
	if body.Reviews[0].Title != "R1" {
		t.Errorf("expected R1 first, got %s", body.Reviews[0].Title)
	}
}

func TestCacheEvictionFlow(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.TTL.Duration = 200 * time.Millisecond
	cfg.Cache.EvictionInterval.Duration = 50 * time.Millisecond
	container := newTestContainer(t, cfg)
	ctx := context.Background()
	svc := container.Locations()

	if _, err := svc.GetOrCreateCountry(ctx, "USA"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if names, _ := svc.ListCountries(ctx); len(names) != 1 {
		t.Fatalf("expected [USA], got %v", names)
	}

	// Written behind the hierarchy layer: invisible until the entry expires.
	if _, _, err := container.Store().GetOrCreateCountry(ctx, "Canada"); err != nil {
		t.Fatalf("direct insert: %v", err)
	}
	if names, _ := svc.ListCountries(ctx); len(names) != 1 {
		t.Errorf("expected the stale cached list, got %v", names)
	}

	time.Sleep(300 * time.Millisecond)
	if names, _ := svc.ListCountries(ctx); len(names) != 2 {
		t.Errorf("expected the refreshed list after expiry, got %v", names)
	}
}
