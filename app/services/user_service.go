package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const searchLimit = 10

// LoginInput is the profile sent on sign-in.
type LoginInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"max=200"`
	Photo string `json:"photo" validate:"max=2048"`
	Phone string `json:"phone" validate:"max=32"`
}

// LoginResult tells whether the user was created by this call.
type LoginResult struct {
	Created bool
	ID      primitive.ObjectID
}

type UserService struct {
	users repositories.UserRepository
	now   func() time.Time
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users, now: models.Now}
}

// Login creates the user on first sign-in and refreshes last_log_in after.
func (s *UserService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return LoginResult{}, invalid("email is required")
	}
	at := s.now()

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.touch(ctx, existing.ID, email, at)
	case !errors.Is(err, repositories.ErrNotFound):
		return LoginResult{}, internal("Failed to fetch user", err)
	}

	u := models.User{
		Email:     email,
		Name:      in.Name,
		Photo:     in.Photo,
		Phone:     in.Phone,
		Role:      models.RoleUser,
		CreatedAt: at,
		LastLogIn: at,
	}
	id, err := s.users.Insert(ctx, &u)
	if errors.Is(err, repositories.ErrDuplicate) {
		// Lost a race with a concurrent first login.
		return s.touch(ctx, primitive.NilObjectID, email, at)
	}
	if err != nil {
		return LoginResult{}, internal("Failed to create user", err)
	}
	return LoginResult{Created: true, ID: id}, nil
}

func (s *UserService) touch(ctx context.Context, id primitive.ObjectID, email string, at time.Time) (LoginResult, error) {
	if err := s.users.TouchLogin(ctx, email, at); err != nil {
		return LoginResult{}, internal("Failed to update last login", err)
	}
	return LoginResult{ID: id}, nil
}

// Search returns up to 10 users whose email contains part.
func (s *UserService) Search(ctx context.Context, part string) ([]models.UserSummary, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return nil, invalid("Missing email query")
	}
	users, err := s.users.Search(ctx, part, searchLimit)
	if err != nil {
		return nil, internal("Failed to search users", err)
	}
	if len(users) == 0 {
		return nil, notFound("No users found")
	}
	return users, nil
}

// Role returns the stored role of a user.
func (s *UserService) Role(ctx context.Context, email string) (models.Role, error) {
	u, err := s.find(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// SetRole applies a role request. Promotion to admin stashes the current
// role; any other request restores the stashed role (user when none).
func (s *UserService) SetRole(ctx context.Context, email, requested string) (models.Role, error) {
	role, err := models.ParseRole(requested)
	if err != nil {
		return "", invalid("Invalid role")
	}
	u, err := s.find(ctx, email)
	if err != nil {
		return "", err
	}

	next, previous := u.RoleChange(role)
	res, err := s.users.SetRole(ctx, u.Email, u.Role, next, previous)
	if err != nil {
		return "", internal("Failed to update role", err)
	}
	if res.Matched == 0 {
		return "", conflict("User role changed concurrently")
	}
	if res.Modified == 0 {
		return "", noChange("User not found or role not updated")
	}

	logger.WithCtx(ctx).Info("user role changed", "email", u.Email, "from", u.Role, "to", next)
	return next, nil
}

// AssignRiderRole makes the user a rider. An admin stays admin and has rider
// stashed as the role to restore on demotion.
func (s *UserService) AssignRiderRole(ctx context.Context, email string) (models.CascadeState, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return models.CascadeUnmatched, nil
	}
	if err != nil {
		return models.CascadeFailed, err
	}

	next, previous := models.RoleRider, models.Role("")
	if u.Role == models.RoleAdmin {
		next, previous = models.RoleAdmin, models.RoleRider
	}
	res, err := s.users.SetRole(ctx, u.Email, u.Role, next, previous)
	if err != nil {
		return models.CascadeFailed, err
	}
	if res.Matched == 0 {
		return models.CascadeFailed, errors.New("user role changed concurrently")
	}
	return models.CascadeApplied, nil
}

func (s *UserService) find(ctx context.Context, email string) (models.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, notFound("User not found")
	}
	if err != nil {
		return models.User{}, internal("Failed to fetch user", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
