// Package client mirrors the devConnector API into a reducer-driven state
// container. Actions call the API and dispatch the resulting events; Reduce
// folds each event into a new State.
package client

import "github.com/MKale112/devConnector/internal/models"

type ActionType string

const (
	RegisterSuccess ActionType = "REGISTER_SUCCESS"
	RegisterFail    ActionType = "REGISTER_FAIL"
	LoginSuccess    ActionType = "LOGIN_SUCCESS"
	LoginFail       ActionType = "LOGIN_FAIL"
	UserLoaded      ActionType = "USER_LOADED"
	AuthError       ActionType = "AUTH_ERROR"
	Logout          ActionType = "LOGOUT"
	AccountDeleted  ActionType = "ACCOUNT_DELETED"

	GetProfile    ActionType = "GET_PROFILE"
	GetProfiles   ActionType = "GET_PROFILES"
	UpdateProfile ActionType = "UPDATE_PROFILE"
	ProfileError  ActionType = "PROFILE_ERROR"
	ClearProfile  ActionType = "CLEAR_PROFILE"
	GetRepos      ActionType = "GET_REPOS"
	NoRepos       ActionType = "NO_REPOS"

	GetPosts      ActionType = "GET_POSTS"
	GetPost       ActionType = "GET_POST"
	PostError     ActionType = "POST_ERROR"
	UpdateLikes   ActionType = "UPDATE_LIKES"
	DeletePost    ActionType = "DELETE_POST"
	AddPost       ActionType = "ADD_POST"
	AddComment    ActionType = "ADD_COMMENT"
	RemoveComment ActionType = "REMOVE_COMMENT"

	SetAlert    ActionType = "SET_ALERT"
	RemoveAlert ActionType = "REMOVE_ALERT"
)

// Action is one state-update event. Payload's type depends on Type:
//
//	REGISTER_SUCCESS, LOGIN_SUCCESS   string (token)
//	USER_LOADED                       *models.User
//	GET_PROFILE, UPDATE_PROFILE       *models.Profile
//	GET_PROFILES                      []models.Profile
//	GET_REPOS                         []Repo
//	PROFILE_ERROR, POST_ERROR         ErrorInfo
//	GET_POSTS                         []models.Post
//	GET_POST, ADD_POST                *models.Post
//	UPDATE_LIKES                      LikesUpdate
//	DELETE_POST, REMOVE_COMMENT       string (id)
//	ADD_COMMENT                       []models.Comment
//	SET_ALERT                         Alert
//	REMOVE_ALERT                      string (alert id)
type Action struct {
	Type    ActionType
	Payload any
}

type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertDanger  AlertType = "danger"
)

type Alert struct {
	ID   string
	Msg  string
	Type AlertType
}

type ErrorInfo struct {
	Msg    string
	Status int
}

type LikesUpdate struct {
	PostID string
	Likes  []models.Like
}

type AuthState struct {
	Token           string
	IsAuthenticated bool
	Loading         bool
	User            *models.User
}

type ProfileState struct {
	Profile  *models.Profile
	Profiles []models.Profile
	Repos    []Repo
	Loading  bool
	Error    *ErrorInfo
}

type PostState struct {
	Posts   []models.Post
	Post    *models.Post
	Loading bool
	Error   *ErrorInfo
}

type State struct {
	Auth    AuthState
	Profile ProfileState
	Post    PostState
	Alerts  []Alert
}

// InitialState is the state before anything has loaded. token is a
// previously saved session token, or "".
func InitialState(token string) State {
	return State{
		Auth:    AuthState{Token: token, Loading: true},
		Profile: ProfileState{Profiles: []models.Profile{}, Repos: []Repo{}, Loading: true},
		Post:    PostState{Posts: []models.Post{}, Loading: true},
		Alerts:  []Alert{},
	}
}

// Reduce returns the state after a. It never modifies s or anything s
// points to; unknown actions and mismatched payloads return s unchanged.
func Reduce(s State, a Action) State {
	s.Auth = reduceAuth(s.Auth, a)
	s.Profile = reduceProfile(s.Profile, a)
	s.Post = reducePost(s.Post, a)
	s.Alerts = reduceAlerts(s.Alerts, a)
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a.Type {
	case UserLoaded:
		if u, ok := a.Payload.(*models.User); ok {
			s.IsAuthenticated, s.Loading, s.User = true, false, u
		}
	case RegisterSuccess, LoginSuccess:
		if tok, ok := a.Payload.(string); ok {
			s.Token, s.IsAuthenticated, s.Loading = tok, true, false
		}
	case RegisterFail, LoginFail, AuthError, AccountDeleted, Logout:
		s.Token, s.IsAuthenticated, s.Loading, s.User = "", false, false, nil
	}
	return s
}

func reduceProfile(s ProfileState, a Action) ProfileState {
	switch a.Type {
	case GetProfile, UpdateProfile:
		if p, ok := a.Payload.(*models.Profile); ok {
			s.Profile, s.Loading = p, false
		}
	case GetProfiles:
		if ps, ok := a.Payload.([]models.Profile); ok {
			s.Profiles, s.Loading = ps, false
		}
	case ProfileError:
		if e, ok := a.Payload.(ErrorInfo); ok {
			s.Error, s.Loading, s.Profile = &e, false, nil
		}
	case ClearProfile, AccountDeleted, Logout:
		s.Profile, s.Repos, s.Loading = nil, []Repo{}, false
	case GetRepos:
		if rs, ok := a.Payload.([]Repo); ok {
			s.Repos, s.Loading = rs, false
		}
	case NoRepos:
		s.Repos = []Repo{}
	}
	return s
}

func reducePost(s PostState, a Action) PostState {
	switch a.Type {
	case GetPosts:
		if ps, ok := a.Payload.([]models.Post); ok {
			s.Posts, s.Loading = ps, false
		}
	case GetPost:
		if p, ok := a.Payload.(*models.Post); ok {
			s.Post, s.Loading = p, false
		}
	case AddPost:
		if p, ok := a.Payload.(*models.Post); ok {
			posts := make([]models.Post, 0, len(s.Posts)+1)
			s.Posts, s.Loading = append(append(posts, *p), s.Posts...), false
		}
	case DeletePost:
		if id, ok := a.Payload.(string); ok {
			posts := make([]models.Post, 0, len(s.Posts))
			for _, p := range s.Posts {
				if p.ID != id {
					posts = append(posts, p)
				}
			}
			s.Posts, s.Loading = posts, false
		}
	case PostError:
		if e, ok := a.Payload.(ErrorInfo); ok {
			s.Error, s.Loading = &e, false
		}
	case UpdateLikes:
		if u, ok := a.Payload.(LikesUpdate); ok {
			posts := make([]models.Post, len(s.Posts))
			copy(posts, s.Posts)
			for i := range posts {
				if posts[i].ID == u.PostID {
					posts[i].Likes = u.Likes
				}
			}
			s.Posts, s.Loading = posts, false
			if s.Post != nil && s.Post.ID == u.PostID {
				p := *s.Post
				p.Likes = u.Likes
				s.Post = &p
			}
		}
	case AddComment:
		if cs, ok := a.Payload.([]models.Comment); ok && s.Post != nil {
			p := *s.Post
			p.Comments = cs
			s.Post, s.Loading = &p, false
		}
	case RemoveComment:
		if id, ok := a.Payload.(string); ok && s.Post != nil {
			p := *s.Post
			p.Comments = make([]models.Comment, 0, len(s.Post.Comments))
			for _, c := range s.Post.Comments {
				if c.ID != id {
					p.Comments = append(p.Comments, c)
				}
			}
			s.Post, s.Loading = &p, false
		}
	}
	return s
}

func reduceAlerts(s []Alert, a Action) []Alert {
	switch a.Type {
	case SetAlert:
		if al, ok := a.Payload.(Alert); ok {
			out := make([]Alert, 0, len(s)+1)
			return append(append(out, s...), al)
		}
	case RemoveAlert:
		if id, ok := a.Payload.(string); ok {
			out := make([]Alert, 0, len(s))
			for _, al := range s {
				if al.ID != id {
					out = append(out, al)
				}
			}
			return out
		}
	}
	return s
}
