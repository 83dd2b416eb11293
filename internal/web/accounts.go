package web

import (
	"net/http"

	"github.com/sntnmjones/RentalApp/internal/auth"
)

const (
	profilePath = "/profile"
	adminPath   = "/admin/"
	loginPath   = "/login"

	forgotUsernameMessage = "If an account uses that email, its username is on the way."
	passwordResetMessage  = "If an account uses that email, a reset link is on the way."
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
	Redirect string `json:"redirect"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := h.session(r)
	next := sess.logIn(user.Username, profilePath)
	if err := sess.save(w); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loginResponse{Username: user.Username, Redirect: next})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := h.session(r)
	next := sess.logIn(user.Username, profilePath)
	if err := sess.save(w); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("logged in", "user", user.Username)
	writeJSON(w, http.StatusOK, loginResponse{Username: user.Username, Redirect: next})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	sess.logOut()
	if err := sess.save(w); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectBody{Redirect: "/"})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	username := h.session(r).username()
	profile, err := h.accounts.Profile(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if profile.User.IsStaff {
		writeJSON(w, http.StatusOK, redirectBody{Redirect: adminPath})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) forgotUsername(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.ForgotUsername(r.Context(), req.Email, h.cfg.BaseURL); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: forgotUsernameMessage})
}

func (h *Handler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email, h.cfg.BaseURL); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: passwordResetMessage, Redirect: loginPath})
}

func (h *Handler) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.ConfirmPasswordReset(r.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Password updated.", Redirect: loginPath})
}
