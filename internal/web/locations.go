package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sntnmjones/RentalApp/model"
)

type searchRequest struct {
	PropertyAddress string `json:"property_address"`
}

type searchResponse struct {
	PropertyFound   bool            `json:"property_found"`
	PropertyAddress string          `json:"property_address"`
	Address         *model.Address  `json:"address,omitempty"`
	Location        *model.Location `json:"location,omitempty"`
	Reviews         []*model.Review `json:"reviews,omitempty"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	full := model.NormalizeAddress(req.PropertyAddress)
	address, err := h.locations.LookupAddress(r.Context(), full)
	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusOK, searchResponse{PropertyAddress: full})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	loc, err := h.locations.ResolveLocation(r.Context(), address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviews, err := h.locations.ListReviewsForAddress(r.Context(), address.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		PropertyFound:   true,
		PropertyAddress: address.FullAddress,
		Address:         address,
		Location:        &loc,
		Reviews:         reviews,
	})
}

func (h *Handler) listCountries(w http.ResponseWriter, r *http.Request) {
	names, err := h.locations.ListCountries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"countries": nonNil(names)})
}

func (h *Handler) listStates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	names, err := h.locations.ListStates(r.Context(), vars["country"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"country": vars["country"], "states": nonNil(names)})
}

func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	names, err := h.locations.ListCities(r.Context(), vars["state"], vars["country"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"country": vars["country"],
		"state":   vars["state"],
		"cities":  nonNil(names),
	})
}

func (h *Handler) cityReviews(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reviews, err := h.locations.ListReviewsForCity(r.Context(), vars["city"], vars["state"], vars["country"])
	if err != nil {
		h.writeError(w, r, fmt.Errorf("reviews for %s, %s, %s: %w", vars["city"], vars["state"], vars["country"], err))
		return
	}
	if reviews == nil {
		reviews = map[string][]*model.Review{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"country":   vars["country"],
		"state":     vars["state"],
		"city":      vars["city"],
		"addresses": reviews,
	})
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
