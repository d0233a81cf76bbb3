package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"healthdash/internal/auth"
	applog "healthdash/internal/log"
)

// authPage is the data of login.html and signup.html.
type authPage struct {
	Email  string
	Error  string
	Fields map[string]string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, r, http.StatusOK, "login.html", authPage{})
		return
	case http.MethodPost:
	default:
		MethodNotAllowedError("GET, POST").Write(w)
		return
	}

	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	creds := ParseCredentials(p)

	user, token, err := s.auth.SignIn(r.Context(), creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			atomic.AddInt64(&s.appMetrics.failedLogins, 1)
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Sign-in rejected",
				applog.FieldComponent, applog.ComponentAuth,
				applog.FieldOperation, applog.OpSignIn,
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
			s.render(w, r, http.StatusUnauthorized, "login.html", authPage{Email: creds.Email, Error: err.Error()})
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-in failed",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentAuth,
			applog.FieldOperation, applog.OpSignIn)
		s.render(w, r, http.StatusInternalServerError, "login.html", authPage{Email: creds.Email, Error: "Something went wrong, please try again."})
		return
	}

	atomic.AddInt64(&s.appMetrics.signIns, 1)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User signed in",
		applog.FieldUserID, user.ID,
		applog.FieldComponent, applog.ComponentAuth)
	s.startSession(w, r, token)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, r, http.StatusOK, "signup.html", authPage{})
		return
	case http.MethodPost:
	default:
		MethodNotAllowedError("GET, POST").Write(w)
		return
	}

	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	creds := ParseCredentials(p)

	user, token, err := s.auth.SignUp(r.Context(), creds)
	if err != nil {
		page := authPage{Email: creds.Email, Error: err.Error()}
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			page.Fields = verr.Fields
			s.render(w, r, http.StatusUnprocessableEntity, "signup.html", page)
		case errors.Is(err, auth.ErrEmailTaken):
			s.render(w, r, http.StatusConflict, "signup.html", page)
		default:
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-up failed",
				applog.FieldError, err,
				applog.FieldComponent, applog.ComponentAuth,
				applog.FieldOperation, applog.OpSignUp)
			page.Error = "Something went wrong, please try again."
			s.render(w, r, http.StatusInternalServerError, "signup.html", page)
		}
		return
	}

	atomic.AddInt64(&s.appMetrics.signUps, 1)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User signed up",
		applog.FieldUserID, user.ID,
		applog.FieldComponent, applog.ComponentAuth)
	s.startSession(w, r, token)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.sessions.ClearSession(w)
	s.redirect(w, r, "/login")
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, token string) {
	s.sessions.SetSession(w, token)
	s.redirect(w, r, "/")
}

// redirect navigates the browser, through HX-Redirect for HTMX requests.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
