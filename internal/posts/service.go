package posts

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/events"
	"github.com/MKale112/devConnector/internal/models"
	"github.com/MKale112/devConnector/internal/validate"
)

var errNotAuthorized = apperr.Forbidden("User not authorized")

// Authors resolves the name and avatar snapshotted into posts and comments.
type Authors interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Service struct {
	repo    Repository
	authors Authors
	events  events.Publisher
	now     func() time.Time
}

func NewService(r Repository, authors Authors, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop()
	}
	return &Service{repo: r, authors: authors, events: pub, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID string, in CreateReq) (*models.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.authors.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &models.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      in.Text,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Likes:     []models.Like{},
		Comments:  []models.Comment{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.emit(ctx, events.PostCreated, p.ID, userID)
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes a post owned by userID. Anyone else is refused and the post
// stays.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return errNotAuthorized
	}
	ok, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errPostNotFound
	}
	s.emit(ctx, events.PostDeleted, id, userID)
	return nil
}

func (s *Service) Like(ctx context.Context, postID, userID string) ([]models.Like, error) {
	likes, err := s.repo.AddLike(ctx, postID, models.Like{ID: uuid.NewString(), UserID: userID})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.PostLiked, postID, userID)
	return likes, nil
}

func (s *Service) Unlike(ctx context.Context, postID, userID string) ([]models.Like, error) {
	likes, err := s.repo.RemoveLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.PostUnliked, postID, userID)
	return likes, nil
}

func (s *Service) AddComment(ctx context.Context, postID, userID string, in CommentReq) ([]models.Comment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.authors.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.AddComment(ctx, postID, models.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      in.Text,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.PostCommented, postID, userID)
	return comments, nil
}

// DeleteComment removes the comment identified by commentID. Only its author
// may remove it.
func (s *Service) DeleteComment(ctx context.Context, postID, userID, commentID string) ([]models.Comment, error) {
	c, err := s.repo.GetComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, errNotAuthorized
	}
	return s.repo.DeleteComment(ctx, postID, commentID, userID)
}

func (s *Service) emit(ctx context.Context, typ, postID, userID string) {
	slog.DebugContext(ctx, "post activity", "type", typ, "post_id", postID, "user_id", userID)
	events.Emit(ctx, s.events, events.Event{Type: typ, PostID: postID, UserID: userID, Time: s.now().UTC()})
}
