package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/MKale112/devConnector/internal/models"
)

// Actions performs API calls and dispatches their outcome to the store,
// raising alerts where the user should see the result. Every method returns
// the API error, if any, after the error state has been dispatched.
type Actions struct {
	api    *API
	store  Dispatcher
	alerts *Alerts
}

func NewActions(api *API, store Dispatcher, alerts *Alerts) *Actions {
	return &Actions{api: api, store: store, alerts: alerts}
}

func (x *Actions) dispatch(t ActionType, payload any) {
	x.store.Dispatch(Action{Type: t, Payload: payload})
}

func (x *Actions) alert(msg string, typ AlertType) {
	x.alerts.Set(msg, typ, 0)
}

// fieldAlerts raises one danger alert per server-side field error.
func (x *Actions) fieldAlerts(err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, fe := range apiErr.Errors {
			x.alert(fe.Msg, AlertDanger)
		}
	}
}

func errorInfo(err error) ErrorInfo {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ErrorInfo{Msg: err.Error()}
	}
	msg := apiErr.Msg
	if msg == "" {
		msg = http.StatusText(apiErr.Status)
	}
	if apiErr.Err != nil {
		msg = apiErr.Err.Error()
	}
	return ErrorInfo{Msg: msg, Status: apiErr.Status}
}

// -------- Auth

func (x *Actions) LoadUser(ctx context.Context) error {
	u, err := x.api.Me(ctx)
	if err != nil {
		x.dispatch(AuthError, nil)
		return err
	}
	x.dispatch(UserLoaded, u)
	return nil
}

func (x *Actions) Register(ctx context.Context, name, email, password string) error {
	tok, err := x.api.Register(ctx, name, email, password)
	if err != nil {
		x.fieldAlerts(err)
		x.dispatch(RegisterFail, nil)
		return err
	}
	x.api.SetToken(tok)
	x.dispatch(RegisterSuccess, tok)
	return x.LoadUser(ctx)
}

func (x *Actions) Login(ctx context.Context, email, password string) error {
	tok, err := x.api.Login(ctx, email, password)
	if err != nil {
		x.fieldAlerts(err)
		x.dispatch(LoginFail, nil)
		return err
	}
	x.api.SetToken(tok)
	x.dispatch(LoginSuccess, tok)
	return x.LoadUser(ctx)
}

func (x *Actions) Logout() {
	x.api.SetToken("")
	x.dispatch(ClearProfile, nil)
	x.dispatch(Logout, nil)
}

// -------- Profile

func (x *Actions) profileResult(t ActionType, p *models.Profile, err error, okMsg string, alertFields bool) error {
	if err != nil {
		if alertFields {
			x.fieldAlerts(err)
		}
		x.dispatch(ProfileError, errorInfo(err))
		return err
	}
	x.dispatch(t, p)
	if okMsg != "" {
		x.alert(okMsg, AlertSuccess)
	}
	return nil
}

func (x *Actions) GetCurrentProfile(ctx context.Context) error {
	p, err := x.api.CurrentProfile(ctx)
	return x.profileResult(GetProfile, p, err, "", false)
}

func (x *Actions) GetProfiles(ctx context.Context) error {
	x.dispatch(ClearProfile, nil)
	ps, err := x.api.Profiles(ctx)
	if err != nil {
		x.dispatch(ProfileError, errorInfo(err))
		return err
	}
	x.dispatch(GetProfiles, ps)
	return nil
}

func (x *Actions) GetProfileByID(ctx context.Context, userID string) error {
	p, err := x.api.ProfileByUser(ctx, userID)
	return x.profileResult(GetProfile, p, err, "", false)
}

// GetGithubRepos loads the repositories shown on a profile. A failed lookup
// empties the list and leaves the displayed profile in place.
func (x *Actions) GetGithubRepos(ctx context.Context, username string) error {
	rs, err := x.api.GithubRepos(ctx, username)
	if err != nil {
		x.dispatch(NoRepos, nil)
		return err
	}
	x.dispatch(GetRepos, rs)
	return nil
}

// CreateProfile saves f. edit only changes the confirmation message.
func (x *Actions) CreateProfile(ctx context.Context, f ProfileForm, edit bool) error {
	p, err := x.api.SaveProfile(ctx, f)
	msg := "You have successfully created your profile"
	if edit {
		msg = "Profile updated"
	}
	return x.profileResult(GetProfile, p, err, msg, true)
}

func (x *Actions) AddExperience(ctx context.Context, f ExperienceForm) error {
	p, err := x.api.AddExperience(ctx, f)
	return x.profileResult(UpdateProfile, p, err, "Experience added!", true)
}

func (x *Actions) AddEducation(ctx context.Context, f EducationForm) error {
	p, err := x.api.AddEducation(ctx, f)
	return x.profileResult(UpdateProfile, p, err, "Education added!", true)
}

func (x *Actions) DeleteExperience(ctx context.Context, id string) error {
	p, err := x.api.DeleteExperience(ctx, id)
	return x.profileResult(UpdateProfile, p, err, "Experience removed!", false)
}

func (x *Actions) DeleteEducation(ctx context.Context, id string) error {
	p, err := x.api.DeleteEducation(ctx, id)
	return x.profileResult(UpdateProfile, p, err, "Education removed!", false)
}

// DeleteAccount removes the caller's account, profile and posts. Asking the
// user to confirm is the caller's job.
func (x *Actions) DeleteAccount(ctx context.Context) error {
	if err := x.api.DeleteAccount(ctx); err != nil {
		x.dispatch(ProfileError, errorInfo(err))
		return err
	}
	x.api.SetToken("")
	x.dispatch(ClearProfile, nil)
	x.dispatch(AccountDeleted, nil)
	x.alert("Your account has been permanently deleted", AlertDanger)
	return nil
}

// -------- Posts

func (x *Actions) postError(err error) error {
	x.dispatch(PostError, errorInfo(err))
	return err
}

func (x *Actions) GetPosts(ctx context.Context) error {
	ps, err := x.api.Posts(ctx)
	if err != nil {
		return x.postError(err)
	}
	x.dispatch(GetPosts, ps)
	return nil
}

func (x *Actions) GetPost(ctx context.Context, id string) error {
	p, err := x.api.Post(ctx, id)
	if err != nil {
		return x.postError(err)
	}
	x.dispatch(GetPost, p)
	return nil
}

func (x *Actions) AddPost(ctx context.Context, text string) error {
	p, err := x.api.AddPost(ctx, text)
	if err != nil {
		x.fieldAlerts(err)
		return x.postError(err)
	}
	x.dispatch(AddPost, p)
	x.alert("Post Created", AlertSuccess)
	return nil
}

func (x *Actions) DeletePost(ctx context.Context, id string) error {
	if err := x.api.DeletePost(ctx, id); err != nil {
		return x.postError(err)
	}
	x.dispatch(DeletePost, id)
	x.alert("Post Removed", AlertSuccess)
	return nil
}

func (x *Actions) AddLike(ctx context.Context, postID string) error {
	likes, err := x.api.Like(ctx, postID)
	if err != nil {
		return x.postError(err)
	}
	x.dispatch(UpdateLikes, LikesUpdate{PostID: postID, Likes: likes})
	return nil
}

func (x *Actions) RemoveLike(ctx context.Context, postID string) error {
	likes, err := x.api.Unlike(ctx, postID)
	if err != nil {
		return x.postError(err)
	}
	x.dispatch(UpdateLikes, LikesUpdate{PostID: postID, Likes: likes})
	return nil
}

func (x *Actions) AddComment(ctx context.Context, postID, text string) error {
	cs, err := x.api.AddComment(ctx, postID, text)
	if err != nil {
		x.fieldAlerts(err)
		return x.postError(err)
	}
	x.dispatch(AddComment, cs)
	x.alert("Comment Added", AlertSuccess)
	return nil
}

func (x *Actions) DeleteComment(ctx context.Context, postID, commentID string) error {
	if _, err := x.api.DeleteComment(ctx, postID, commentID); err != nil {
		return x.postError(err)
	}
	x.dispatch(RemoveComment, commentID)
	x.alert("Comment Removed", AlertSuccess)
	return nil
}
