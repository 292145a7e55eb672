package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/gorilla/sessions"
)

const (
	tokenValue = "token"

	// persistentCookieAge is used when sessions never expire server side.
	persistentCookieAge = 365 * 24 * 60 * 60
)

// newSessionStore builds the signed cookie store. The cookie only carries
// the opaque token; the session itself lives in the database.
func newSessionStore(opts Options) *sessions.CookieStore {
	maxAge := int(opts.SessionTTL.Seconds())
	if maxAge <= 0 {
		maxAge = persistentCookieAge
	}

	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	// also bounds the signed timestamp inside the cookie
	store.MaxAge(maxAge)
	return store
}

// sessionToken returns the token from the request cookie, or "" when the
// cookie is absent or fails its signature check.
func (s *Server) sessionToken(r *http.Request) string {
	sess, err := s.sessions.Get(r, common.SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenValue].(string)
	return token
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := s.sessions.New(r, common.SessionCookieName)
	sess.Values[tokenValue] = token
	return sess.Save(r, w)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.sessions.New(r, common.SessionCookieName)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
