package web

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionUsername   = "username"
	sessionRelayState = "relay_state_url"
)

type session struct {
	s *sessions.Session
	r *http.Request
}

// session loads the request session. An unreadable cookie (rotated secret,
// tampering) yields a fresh session.
func (h *Handler) session(r *http.Request) *session {
	s, err := h.sessions.Get(r, h.cfg.SessionName)
	if err != nil {
		h.logger.Debug("discarding unreadable session", "err", err)
	}
	return &session{s: s, r: r}
}

func (s *session) username() string {
	name, _ := s.s.Values[sessionUsername].(string)
	return name
}

func (s *session) setRelayState(path string) {
	s.s.Values[sessionRelayState] = path
}

// logIn records username and returns where the client should go next: the
// stored relay state if any, otherwise fallback.
func (s *session) logIn(username, fallback string) string {
	s.s.Values[sessionUsername] = username

	next := fallback
	if relay, ok := s.s.Values[sessionRelayState].(string); ok && relay != "" {
		next = relay
	}
	delete(s.s.Values, sessionRelayState)
	return next
}

func (s *session) logOut() {
	delete(s.s.Values, sessionUsername)
	delete(s.s.Values, sessionRelayState)
	s.s.Options.MaxAge = -1
}

func (s *session) save(w http.ResponseWriter) error {
	return s.s.Save(s.r, w)
}
