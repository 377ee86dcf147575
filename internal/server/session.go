package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionEmailKey = "email"

var errNoSession = errors.New("no session")

func newCookieStore(key []byte, devMode bool) *sessions.CookieStore {
	st := sessions.NewCookieStore(key)
	st.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !devMode,
		SameSite: http.SameSiteLaxMode,
	}
	return st
}

// createSession binds the response to email. A cookie that fails to decode
// is replaced rather than rejected.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request, email string) error {
	sess, _ := s.sessions.Get(r, cookieName)
	sess.Values[sessionEmailKey] = email
	return sess.Save(r, w)
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.sessions.Get(r, cookieName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func (s *Server) sessionEmail(r *http.Request) (string, error) {
	sess, err := s.sessions.Get(r, cookieName)
	if err != nil {
		return "", err
	}
	email, ok := sess.Values[sessionEmailKey].(string)
	if !ok || email == "" {
		return "", errNoSession
	}
	return email, nil
}
