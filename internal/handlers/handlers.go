package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/auth"
	"github.com/MKale112/devConnector/internal/httpx"
	"github.com/MKale112/devConnector/internal/metrics"
	"github.com/MKale112/devConnector/internal/posts"
	"github.com/MKale112/devConnector/internal/profile"
	"github.com/MKale112/devConnector/internal/ratelimit"
	"github.com/MKale112/devConnector/internal/telemetry"
	"github.com/MKale112/devConnector/internal/users"
)

var (
	errNoToken      = apperr.Auth("No token. Authorization denied")
	errInvalidToken = apperr.Auth("Token is not valid.")
)

type Handler struct {
	users    *users.Service
	profiles *profile.Service
	posts    *posts.Service
	tokens   *auth.Manager
}

func New(u *users.Service, p *profile.Service, ps *posts.Service, tokens *auth.Manager) *Handler {
	return &Handler{users: u, profiles: p, posts: ps, tokens: tokens}
}

// RequireAuth verifies the x-auth-token header and puts the caller's id in
// the request context.
func (h *Handler) RequireAuth(next httpx.HandlerFunc) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		uid, err := h.tokens.Verify(strings.TrimSpace(r.Header.Get(auth.TokenHeader)))
		switch {
		case errors.Is(err, auth.ErrNoToken):
			return errNoToken
		case err != nil:
			return errInvalidToken
		}
		return next(w, r.WithContext(httpx.WithUser(r.Context(), uid)))
	}
}

// Routes builds the API router. authLimit throttles registration and login;
// nil disables it.
func (h *Handler) Routes(m *metrics.Metrics, authLimit ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, next http.Handler) {
		mux.Handle(pattern, m.Instrument(pattern, telemetry.Handler(next, pattern)))
	}
	public := func(fn httpx.HandlerFunc) http.Handler { return httpx.Wrap(fn) }
	private := func(fn httpx.HandlerFunc) http.Handler { return httpx.Wrap(h.RequireAuth(fn)) }
	limited := func(scope string, next http.Handler) http.Handler {
		if authLimit == nil {
			return next
		}
		return ratelimit.Middleware(authLimit, scope, next)
	}

	handle("POST /api/users", limited("register", public(h.Register)))
	handle("POST /api/auth", limited("login", public(h.Login)))
	handle("GET /api/auth", private(h.Me))

	handle("GET /api/profile/me", private(h.MyProfile))
	handle("POST /api/profile", private(h.UpsertProfile))
	handle("GET /api/profile", public(h.ListProfiles))
	handle("GET /api/profile/profile/{user_id}", public(h.ProfileByUser))
	handle("DELETE /api/profile", private(h.DeleteAccount))
	handle("PUT /api/profile/experience", private(h.AddExperience))
	handle("DELETE /api/profile/experience/{exp_id}", private(h.RemoveExperience))
	handle("PUT /api/profile/education", private(h.AddEducation))
	handle("DELETE /api/profile/education/{edu_id}", private(h.RemoveEducation))
	handle("GET /api/profile/github/{username}", public(h.GithubRepos))

	handle("POST /api/posts", private(h.CreatePost))
	handle("GET /api/posts", private(h.ListPosts))
	handle("GET /api/posts/{id}", private(h.GetPost))
	handle("DELETE /api/posts/{id}", private(h.DeletePost))
	handle("PUT /api/posts/like/{id}", private(h.LikePost))
	handle("PUT /api/posts/unlike/{id}", private(h.UnlikePost))
	handle("POST /api/posts/comment/{id}", private(h.AddComment))
	handle("DELETE /api/posts/comment/{id}/{comment_id}", private(h.DeleteComment))

	mux.Handle("GET /metrics", m.Handler())
	handle("GET /healthz", public(h.Health))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, httpx.Msg{Msg: "Not found"}, http.StatusNotFound)
	})
	return WithRecover(mux)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	return nil
}

// -------- Users and auth

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[users.RegisterReq](r)
	if err != nil {
		return err
	}
	tok, err := h.users.Register(r.Context(), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, users.TokenResp{Token: tok}, http.StatusOK)
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[users.LoginReq](r)
	if err != nil {
		return err
	}
	tok, err := h.users.Authenticate(r.Context(), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, users.TokenResp{Token: tok}, http.StatusOK)
	return nil
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	u, err := h.users.Me(r.Context(), httpx.UserID(r))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, u, http.StatusOK)
	return nil
}
