package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKale112/devConnector/internal/auth"
	"github.com/MKale112/devConnector/internal/events"
	"github.com/MKale112/devConnector/internal/github"
	"github.com/MKale112/devConnector/internal/metrics"
	"github.com/MKale112/devConnector/internal/models"
	"github.com/MKale112/devConnector/internal/posts"
	"github.com/MKale112/devConnector/internal/profile"
	"github.com/MKale112/devConnector/internal/ratelimit"
	"github.com/MKale112/devConnector/internal/testutil"
	"github.com/MKale112/devConnector/internal/users"
)

type api struct {
	t   *testing.T
	srv *httptest.Server
	rec *events.Recorder
}

func newAPI(t *testing.T, limiter ratelimit.Limiter) *api {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"name":"hello-world"}]`))
	}))
	t.Cleanup(upstream.Close)

	conn := testutil.NewDB(t)
	tokens := auth.NewManager("test-secret", 0)
	ur := users.NewRepository(conn)
	rec := &events.Recorder{}
	h := New(
		users.NewService(ur, tokens),
		profile.NewService(profile.NewRepository(conn), github.New(upstream.URL, github.WithHTTPClient(upstream.Client()))),
		posts.NewService(posts.NewRepository(conn), ur, rec),
		tokens,
	)
	srv := httptest.NewServer(h.Routes(metrics.New(), limiter))
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv, rec: rec}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (a *api) do(method, path, token string, body, out any) int {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) register(name, email string) string {
	a.t.Helper()
	var tok users.TokenResp
	code := a.do(http.MethodPost, "/api/users", "", map[string]string{"name": name, "email": email, "password": "secret1"}, &tok)
	require.Equal(a.t, http.StatusOK, code)
	require.NotEmpty(a.t, tok.Token)
	return tok.Token
}

type msgBody struct {
	Msg    string `json:"msg"`
	Errors []struct {
		Msg   string `json:"msg"`
		Param string `json:"param"`
	} `json:"errors"`
}

func TestAuthGate(t *testing.T) {
	a := newAPI(t, nil)
	var m msgBody

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/auth", "", nil, &m))
	assert.Equal(t, "No token. Authorization denied", m.Msg)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/posts", "garbage", nil, &m))
	assert.Equal(t, "Token is not valid.", m.Msg)
}

func TestRegisterLoginMe(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.register("Alice", "a@x.com")

	var me models.User
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/auth", tok, nil, &me))
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, "a@x.com", me.Email)

	var raw map[string]any
	a.do(http.MethodGet, "/api/auth", tok, nil, &raw)
	assert.NotContains(t, raw, "password")
	assert.Contains(t, raw, "_id")

	var m msgBody
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/users", "",
		map[string]string{"name": "Again", "email": "a@x.com", "password": "secret1"}, &m))
	require.Len(t, m.Errors, 1)
	assert.Equal(t, "User already exists", m.Errors[0].Msg)

	var wrongPass, unknown msgBody
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/auth", "",
		map[string]string{"email": "a@x.com", "password": "nope!!"}, &wrongPass))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/auth", "",
		map[string]string{"email": "b@x.com", "password": "secret1"}, &unknown))
	assert.Equal(t, wrongPass, unknown)
	assert.Equal(t, "Invalid credentials", wrongPass.Errors[0].Msg)

	var tr users.TokenResp
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth", "",
		map[string]string{"email": "a@x.com", "password": "secret1"}, &tr))
	assert.NotEmpty(t, tr.Token)
}

func TestRegister_ValidationEnvelope(t *testing.T) {
	a := newAPI(t, nil)
	var m msgBody
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/users", "", map[string]string{"email": "bad"}, &m))
	params := map[string]string{}
	for _, e := range m.Errors {
		params[e.Param] = e.Msg
	}
	assert.Equal(t, "Name is required", params["name"])
	assert.Equal(t, "Please include a valid email", params["email"])
	assert.Contains(t, params, "password")
}

func TestProfileRoutes(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.register("Alice", "a@x.com")

	var m msgBody
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/profile/me", tok, nil, &m))
	assert.Equal(t, "There is no profile for this user", m.Msg)

	var p models.Profile
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/profile", tok,
		map[string]string{"status": "Developer", "skills": "go,rust", "company": "Acme", "githubusername": "octocat"}, &p))
	assert.Equal(t, "Alice", p.User.Name)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/profile", tok, map[string]string{"status": "X"}, &p))
	assert.Equal(t, "X", p.Status)
	assert.Equal(t, "Acme", p.Company)

	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/profile/experience", tok,
		map[string]any{"title": "Eng", "company": "Acme", "from": "2020-01-01", "current": true}, &p))
	require.Len(t, p.Experience, 1)
	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/profile/experience/"+p.Experience[0].ID, tok, nil, &p))
	assert.Empty(t, p.Experience)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/api/profile/education", tok, map[string]string{}, &m))
	assert.Len(t, m.Errors, 4)
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/profile/education", tok,
		map[string]string{"school": "MIT", "degree": "BSc", "fieldofstudy": "CS", "from": "2010"}, &p))
	require.Len(t, p.Education, 1)
	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/profile/education/"+p.Education[0].ID, tok, nil, &p))
	assert.Empty(t, p.Education)

	var all []models.Profile
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/profile", "", nil, &all))
	assert.Len(t, all, 1)

	var byUser models.Profile
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/profile/profile/"+p.User.ID, "", nil, &byUser))
	assert.Equal(t, p.ID, byUser.ID)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/profile/profile/nobody", "", nil, &m))
	assert.Equal(t, "Profile not found", m.Msg)
}

func TestGithubRoute(t *testing.T) {
	a := newAPI(t, nil)
	var repos []map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/profile/github/octocat", "", nil, &repos))
	assert.Equal(t, "hello-world", repos[0]["name"])

	var m msgBody
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/profile/github/ghost", "", nil, &m))
	assert.Equal(t, "No github profile found", m.Msg)
}

func TestConcreteScenario(t *testing.T) {
	a := newAPI(t, nil)
	tokA := a.register("Alice", "a@x.com")
	a.register("Bob", "b@x.com")

	var p models.Profile
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/profile", tokA,
		map[string]string{"status": "Developer", "skills": "go,rust"}, &p))

	var post models.Post
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/posts", tokA, map[string]string{"text": "hello"}, &post))
	assert.Equal(t, "Alice", post.Name)

	var login users.TokenResp
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/auth", "",
		map[string]string{"email": "b@x.com", "password": "secret1"}, &login))
	tokB := login.Token
	var bob models.User
	a.do(http.MethodGet, "/api/auth", tokB, nil, &bob)

	var likes []models.Like
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/posts/like/"+post.ID, tokB, nil, &likes))
	require.Len(t, likes, 1)
	assert.Equal(t, bob.ID, likes[0].UserID)

	var m msgBody
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/api/posts/like/"+post.ID, tokB, nil, &m))
	assert.Equal(t, "Post already liked", m.Msg)

	var comments []models.Comment
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/posts/comment/"+post.ID, tokB, map[string]string{"text": "nice"}, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Text)
	assert.Equal(t, bob.ID, comments[0].UserID)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodDelete, "/api/posts/"+post.ID, tokB, nil, &m))
	assert.Equal(t, "User not authorized", m.Msg)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/posts/"+post.ID, tokA, nil, &m))
	assert.Equal(t, "Post removed", m.Msg)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/posts/"+post.ID, tokA, nil, &m))
	assert.Equal(t, "Post not found", m.Msg)
}

func TestDeleteComment_Route(t *testing.T) {
	a := newAPI(t, nil)
	tokA := a.register("Alice", "a@x.com")
	tokB := a.register("Bob", "b@x.com")
	var post models.Post
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/posts", tokA, map[string]string{"text": "hello"}, &post))

	var comments []models.Comment
	a.do(http.MethodPost, "/api/posts/comment/"+post.ID, tokB, map[string]string{"text": "one"}, &comments)
	a.do(http.MethodPost, "/api/posts/comment/"+post.ID, tokB, map[string]string{"text": "two"}, &comments)
	first := comments[1]

	var m msgBody
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodDelete, "/api/posts/comment/"+post.ID+"/"+first.ID, tokA, nil, &m))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/posts/comment/"+post.ID+"/missing", tokB, nil, &m))
	assert.Equal(t, "Comment does not exist", m.Msg)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/posts/comment/"+post.ID+"/"+first.ID, tokB, nil, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "two", comments[0].Text)
}

func TestDeleteAccount_Route(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.register("Alice", "a@x.com")
	var p models.Profile
	a.do(http.MethodPost, "/api/profile", tok, map[string]string{"status": "Dev", "skills": "go"}, &p)
	var post models.Post
	a.do(http.MethodPost, "/api/posts", tok, map[string]string{"text": "hello"}, &post)

	var m msgBody
	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/profile", tok, nil, &m))
	assert.Equal(t, "User deleted", m.Msg)

	other := a.register("Bob", "b@x.com")
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/posts/"+post.ID, other, nil, &m))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/profile/profile/"+p.User.ID, "", nil, &m))
}

func TestAuthRateLimit(t *testing.T) {
	a := newAPI(t, ratelimit.NewLocal(1, time.Hour))
	body := map[string]string{"email": "a@x.com", "password": "secret1"}
	var m msgBody
	a.do(http.MethodPost, "/api/auth", "", body, &m)
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodPost, "/api/auth", "", body, &m))
	assert.Equal(t, "Too many requests", m.Msg)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t, nil)
	var health map[string]string
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := a.srv.Client().Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `route="GET /healthz"`)
}

func TestWithRecover(t *testing.T) {
	rec := httptest.NewRecorder()
	WithRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"Server error"}`, rec.Body.String())
}
