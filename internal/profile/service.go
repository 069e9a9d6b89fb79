package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/models"
	"github.com/MKale112/devConnector/internal/validate"
)

var errNoProfile = apperr.NotFound("There is no profile for this user").WithStatus(http.StatusBadRequest)

// RepoLister fetches a user's public repositories from the upstream code host.
type RepoLister interface {
	ListRepos(ctx context.Context, username string) (json.RawMessage, error)
}

type Service struct {
	repo  Repository
	repos RepoLister
	now   func() time.Time
}

func NewService(r Repository, repos RepoLister) *Service {
	return &Service{repo: r, repos: repos, now: time.Now}
}

func (s *Service) GetOwn(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errNoProfile
	}
	return p, err
}

func (s *Service) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	return s.repo.List(ctx)
}

// Upsert creates the caller's profile or merges patch into the existing one.
// A new profile needs status and skills; an update needs nothing.
func (s *Service) Upsert(ctx context.Context, userID string, patch Patch) (*models.Profile, error) {
	return s.repo.Upsert(ctx, userID, uuid.NewString(), s.now().UTC(), func(p *models.Profile, exists bool) error {
		changed := patch.Apply(p)
		if !exists {
			var fields []apperr.FieldError
			if p.Status == "" {
				fields = append(fields, apperr.FieldError{Msg: "Status is required", Param: "status"})
			}
			if p.Skills == "" {
				fields = append(fields, apperr.FieldError{Msg: "Skills is required", Param: "skills"})
			}
			if len(fields) > 0 {
				return apperr.Validation(fields...)
			}
		}
		slog.DebugContext(ctx, "profile merge", "user_id", userID, "created", !exists, "fields", strings.Join(changed, ","))
		return nil
	})
}

func (s *Service) AddExperience(ctx context.Context, userID string, in ExperienceReq) (*models.Profile, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.repo.AddExperience(ctx, userID, models.Experience{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		From:        in.From,
		To:          in.To,
		Current:     in.Current,
		Description: in.Description,
	})
	return s.ownResult(p, err)
}

// RemoveExperience deletes the entry with expID. An unknown id leaves the
// list untouched.
func (s *Service) RemoveExperience(ctx context.Context, userID, expID string) (*models.Profile, error) {
	return s.ownResult(s.repo.RemoveExperience(ctx, userID, expID))
}

func (s *Service) AddEducation(ctx context.Context, userID string, in EducationReq) (*models.Profile, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.repo.AddEducation(ctx, userID, models.Education{
		ID:           uuid.NewString(),
		School:       in.School,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		From:         in.From,
		To:           in.To,
		Current:      in.Current,
		Description:  in.Description,
	})
	return s.ownResult(p, err)
}

func (s *Service) RemoveEducation(ctx context.Context, userID, eduID string) (*models.Profile, error) {
	return s.ownResult(s.repo.RemoveEducation(ctx, userID, eduID))
}

func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *Service) GithubRepos(ctx context.Context, username string) (json.RawMessage, error) {
	return s.repos.ListRepos(ctx, username)
}

func (s *Service) ownResult(p *models.Profile, err error) (*models.Profile, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errNoProfile
	}
	return p, err
}
