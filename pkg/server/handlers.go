package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bank-console/pkg/dispatch"
	"bank-console/pkg/render"
	"bank-console/pkg/session"
	"bank-console/pkg/view"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the role from the route and the session from the
// role's cookie before calling h.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := view.ParseRole(mux.Vars(r)["role"])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		sess, ok := s.resolve(w, r, role)
		if !ok {
			return
		}
		h(w, r, sess)
	}
}

// resolve returns the browser's session for role, creating one when the
// cookie is missing, unknown or bound to another backend session. Users
// without a backend session are sent to the login page.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, role view.Role) (*session.Session, bool) {
	ctx := r.Context()

	if c, err := r.Cookie(session.CookieName(role)); err == nil {
		sess, err := s.sessions.Get(ctx, role, c.Value)
		switch {
		case err == nil && s.sessions.Matches(sess, r.Cookies()):
			return sess, true
		case err == nil:
			s.sessions.Discard(ctx, sess.ID)
		case !errors.Is(err, session.ErrSessionNotFound):
			s.logger.Warn("session lookup failed", zap.Error(err))
			http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
			return nil, false
		}
	}

	sess, err := s.sessions.Create(ctx, role, r.Cookies())
	if errors.Is(err, session.ErrNotLoggedIn) {
		http.Redirect(w, r, s.loginURL(role), http.StatusSeeOther)
		return nil, false
	}
	if err != nil {
		s.logger.Warn("session create failed", zap.Error(err))
		http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
		return nil, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName(role),
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, true
}

func (s *Server) loginURL(role view.Role) string {
	if role == view.RoleAdmin {
		return s.config.AdminLoginURL
	}
	return s.config.CustomerLoginURL
}

// pagePath is where POST handlers send the browser back to.
func pagePath(role view.Role) string {
	if role == view.RoleAdmin {
		return "/admin-dashboard"
	}
	return "/dashboard"
}

func baseFor(role view.Role) string {
	return "/ui/" + string(role)
}

func (s *Server) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.CallTimeout)
}

// finish maps the outcome of an interaction to a response. Rejections the
// user can see on the page still redirect back to it.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	switch {
	case err == nil:
	case errors.Is(err, view.ErrUnknownPanel),
		errors.Is(err, view.ErrUnknownModal),
		errors.Is(err, dispatch.ErrUnknownAction):
		http.NotFound(w, r)
		return
	case errors.Is(err, view.ErrNoTrigger):
		http.Error(w, "trigger is required", http.StatusBadRequest)
		return
	case errors.Is(err, dispatch.ErrSubmitPending),
		errors.Is(err, dispatch.ErrReplayed),
		errors.Is(err, dispatch.ErrInvalidInput),
		errors.Is(err, dispatch.ErrNoConfirmation),
		errors.Is(err, dispatch.ErrConfirmationPending):
		s.logger.Debug("interaction rejected", zap.String("session_id", sess.ID), zap.Error(err))
	default:
		s.logger.Warn("interaction failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	http.Redirect(w, r, pagePath(sess.Role), http.StatusSeeOther)
}

// formInput returns the posted fields other than the nonce.
func formInput(r *http.Request) map[string]string {
	input := make(map[string]string)
	for name, values := range r.PostForm {
		if name == "nonce" || len(values) == 0 {
			continue
		}
		input[name] = values[0]
	}
	return input
}

// replayKey identifies one submit of one form on one rendered page. Row
// actions share the page nonce, so the row's ids are part of the key.
func replayKey(nonce string, action view.ActionID, input map[string]string) string {
	if nonce == "" {
		return ""
	}
	return strings.Join([]string{nonce, string(action), input["account_id"], input["loan_id"], input["approve"]}, "|")
}

func (s *Server) handleContainer(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	container := view.ContainerID(mux.Vars(r)["container"])

	ctx, cancel := s.callContext(r)
	defer cancel()

	var buf bytes.Buffer
	var renderErr error
	found := true
	err := sess.View(ctx, func(st *view.State) {
		if !st.Layout().HasContainer(container) {
			found = false
			return
		}
		fctx := render.FragmentContext{Base: baseFor(st.Role), Nonce: uuid.NewString()}
		fctx.Select, fctx.Selected = selectContext(st, container)
		renderErr = render.WriteHTML(&buf, st.Container(container), fctx)
	})
	if err == nil {
		err = renderErr
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Warn("render container failed", zap.String("container", string(container)), zap.Error(err))
		http.Error(w, "Render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.ParseForm()
	ctx, cancel := s.callContext(r)
	defer cancel()

	panel := view.PanelID(mux.Vars(r)["panel"])
	s.finish(w, r, sess, sess.Activate(ctx, panel, r.PostForm.Get("trigger")))
}

func (s *Server) handleOpenModal(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.ParseForm()
	ctx, cancel := s.callContext(r)
	defer cancel()

	modal := view.ModalID(mux.Vars(r)["modal"])
	s.finish(w, r, sess, sess.OpenModal(ctx, modal, formInput(r)))
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	modal := view.ModalID(mux.Vars(r)["modal"])
	s.finish(w, r, sess, sess.CloseModal(ctx, modal))
}

func (s *Server) handleSelectTransactions(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.ParseForm()
	ctx, cancel := s.callContext(r)
	defer cancel()

	s.finish(w, r, sess, sess.SelectTransactions(ctx, r.PostForm.Get("account_id")))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.ParseForm()
	ctx, cancel := s.callContext(r)
	defer cancel()

	action := view.ActionID(mux.Vars(r)["action"])
	input := formInput(r)
	key := replayKey(r.PostForm.Get("nonce"), action, input)
	s.finish(w, r, sess, sess.Submit(ctx, action, input, key))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.ParseForm()
	ctx, cancel := s.callContext(r)
	defer cancel()

	accepted := r.PostForm.Get("answer") == "yes"
	s.finish(w, r, sess, sess.Confirm(ctx, accepted))
}

func (s *Server) handleDismissDialog(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	s.finish(w, r, sess, sess.DismissDialog(ctx))
}

// handleLogout ends the backend session first; the console session is
// only discarded once the backend confirmed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, cancel := s.callContext(r)
	defer cancel()

	if err := sess.Logout(ctx); err != nil {
		s.logger.Warn("logout failed", zap.String("session_id", sess.ID), zap.Error(err))
		http.Redirect(w, r, pagePath(sess.Role), http.StatusSeeOther)
		return
	}

	if err := s.sessions.Discard(ctx, sess.ID); err != nil {
		s.logger.Warn("discard session failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName(sess.Role),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.loginURL(sess.Role), http.StatusSeeOther)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
