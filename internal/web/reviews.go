package web

import (
	"net/http"

	"github.com/sntnmjones/RentalApp/hierarchy"
)

type deleteReviewRequest struct {
	FullAddress string `json:"full_address"`
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request) {
	var sub hierarchy.ReviewSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		h.writeError(w, r, err)
		return
	}
	sub.Username = h.session(r).username()

	review, err := h.locations.SubmitReview(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	var req deleteReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	username := h.session(r).username()
	review, err := h.locations.GetUserReview(r.Context(), username, req.FullAddress)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.locations.DeleteReview(r.Context(), review); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": review.ID})
}
