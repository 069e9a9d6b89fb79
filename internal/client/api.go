package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MKale112/devConnector/internal/models"
)

const DefaultTimeout = 10 * time.Second

type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
}

// APIError is a non-2xx response. Status is 0 when no response arrived.
type APIError struct {
	Status int
	Msg    string
	Errors []FieldError
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return "request failed: " + e.Err.Error()
	case e.Msg != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Msg)
	case len(e.Errors) > 0:
		return fmt.Sprintf("%d: %s", e.Status, e.Errors[0].Msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error { return e.Err }

// ProfileForm is the create/update payload. Empty fields leave the stored
// value unchanged.
type ProfileForm struct {
	Company        string `json:"company,omitempty"`
	Website        string `json:"website,omitempty"`
	Location       string `json:"location,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Status         string `json:"status,omitempty"`
	Skills         string `json:"skills,omitempty"`
	GitHubUsername string `json:"githubusername,omitempty"`
	YouTube        string `json:"youtube,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Facebook       string `json:"facebook,omitempty"`
	Instagram      string `json:"instagram,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
}

type ExperienceForm struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

type EducationForm struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description,omitempty"`
}

// Repo is the subset of the upstream repository listing the client shows.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Stars       int    `json:"stargazers_count"`
	Watchers    int    `json:"watchers_count"`
	Forks       int    `json:"forks_count"`
}

// API is a typed client for the devConnector HTTP API. It is safe for
// concurrent use.
type API struct {
	base string
	hc   *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(base string, hc *http.Client) *API {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &API{base: strings.TrimRight(base, "/"), hc: hc}
}

// SetToken sets the token sent with every request; "" clears it.
func (a *API) SetToken(tok string) {
	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.Token(); tok != "" {
		req.Header.Set("x-auth-token", tok)
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Msg    string       `json:"msg"`
			Errors []FieldError `json:"errors"`
		}
		if json.NewDecoder(resp.Body).Decode(&env) == nil {
			apiErr.Msg, apiErr.Errors = env.Msg, env.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tokenResp struct {
	Token string `json:"token"`
}

func (a *API) Register(ctx context.Context, name, email, password string) (string, error) {
	var out tokenResp
	err := a.do(ctx, http.MethodPost, "/api/users", map[string]string{"name": name, "email": email, "password": password}, &out)
	return out.Token, err
}

func (a *API) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResp
	err := a.do(ctx, http.MethodPost, "/api/auth", map[string]string{"email": email, "password": password}, &out)
	return out.Token, err
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/api/auth", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) profile(ctx context.Context, method, path string, body any) (*models.Profile, error) {
	var p models.Profile
	if err := a.do(ctx, method, path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	return a.profile(ctx, http.MethodGet, "/api/profile/me", nil)
}

func (a *API) Profiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := a.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

func (a *API) ProfileByUser(ctx context.Context, userID string) (*models.Profile, error) {
	return a.profile(ctx, http.MethodGet, "/api/profile/profile/"+userID, nil)
}

func (a *API) GithubRepos(ctx context.Context, username string) ([]Repo, error) {
	var out []Repo
	err := a.do(ctx, http.MethodGet, "/api/profile/github/"+username, nil, &out)
	return out, err
}

func (a *API) SaveProfile(ctx context.Context, f ProfileForm) (*models.Profile, error) {
	return a.profile(ctx, http.MethodPost, "/api/profile", f)
}

func (a *API) AddExperience(ctx context.Context, f ExperienceForm) (*models.Profile, error) {
	return a.profile(ctx, http.MethodPut, "/api/profile/experience", f)
}

func (a *API) DeleteExperience(ctx context.Context, id string) (*models.Profile, error) {
	return a.profile(ctx, http.MethodDelete, "/api/profile/experience/"+id, nil)
}

func (a *API) AddEducation(ctx context.Context, f EducationForm) (*models.Profile, error) {
	return a.profile(ctx, http.MethodPut, "/api/profile/education", f)
}

func (a *API) DeleteEducation(ctx context.Context, id string) (*models.Profile, error) {
	return a.profile(ctx, http.MethodDelete, "/api/profile/education/"+id, nil)
}

func (a *API) DeleteAccount(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/api/profile", nil, nil)
}

func (a *API) Posts(ctx context.Context) ([]models.Post, error) {
	var out []models.Post
	err := a.do(ctx, http.MethodGet, "/api/posts", nil, &out)
	return out, err
}

func (a *API) Post(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := a.do(ctx, http.MethodGet, "/api/posts/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) AddPost(ctx context.Context, text string) (*models.Post, error) {
	var p models.Post
	if err := a.do(ctx, http.MethodPost, "/api/posts", map[string]string{"text": text}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) DeletePost(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/posts/"+id, nil, nil)
}

func (a *API) Like(ctx context.Context, postID string) ([]models.Like, error) {
	var out []models.Like
	err := a.do(ctx, http.MethodPut, "/api/posts/like/"+postID, nil, &out)
	return out, err
}

func (a *API) Unlike(ctx context.Context, postID string) ([]models.Like, error) {
	var out []models.Like
	err := a.do(ctx, http.MethodPut, "/api/posts/unlike/"+postID, nil, &out)
	return out, err
}

func (a *API) AddComment(ctx context.Context, postID, text string) ([]models.Comment, error) {
	var out []models.Comment
	err := a.do(ctx, http.MethodPost, "/api/posts/comment/"+postID, map[string]string{"text": text}, &out)
	return out, err
}

func (a *API) DeleteComment(ctx context.Context, postID, commentID string) ([]models.Comment, error) {
	var out []models.Comment
	err := a.do(ctx, http.MethodDelete, "/api/posts/comment/"+postID+"/"+commentID, nil, &out)
	return out, err
}
