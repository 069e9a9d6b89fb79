package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/auth"
	"github.com/MKale112/devConnector/internal/models"
	"github.com/MKale112/devConnector/internal/validate"
)

// Both are reported in the {errors:[...]} envelope with status 400, like
// field validation failures.
var (
	errUserExists = &apperr.Error{
		Kind:   apperr.KindConflict,
		Msg:    "User already exists",
		Fields: []apperr.FieldError{{Msg: "User already exists"}},
	}
	errInvalidCredentials = &apperr.Error{
		Kind:   apperr.KindAuth,
		Msg:    "Invalid credentials",
		Fields: []apperr.FieldError{{Msg: "Invalid credentials"}},
		Status: http.StatusBadRequest,
	}
)

type Service struct {
	repo   Repository
	tokens *auth.Manager
	now    func() time.Time
}

func NewService(r Repository, tokens *auth.Manager) *Service {
	return &Service{repo: r, tokens: tokens, now: time.Now}
}

// Register creates a user and returns a signed token for it.
func (s *Service) Register(ctx context.Context, in RegisterReq) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return "", err
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return "", errUserExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       auth.AvatarURL(in.Email),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "user registered", "user_id", u.ID)
	return s.tokens.Issue(u.ID)
}

// Authenticate checks credentials. Unknown email and wrong password fail
// with the same error.
func (s *Service) Authenticate(ctx context.Context, in LoginReq) (string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return "", err
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", errInvalidCredentials
	} else if err != nil {
		return "", err
	}
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		return "", errInvalidCredentials
	}
	return s.tokens.Issue(u.ID)
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
