package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/helpers"
	"go-pizzeria-management/models"
	"go-pizzeria-management/permissions"
	"go-pizzeria-management/repository"
)

type RegisterRequest struct {
	Name     string      `json:"name" validate:"required,min=2,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin manager counter_staff cook driver"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type PreferencesRequest struct {
	SoundNotifications *bool        `json:"sound_notifications"`
	PreferredView      *models.View `json:"preferred_view" validate:"omitempty,oneof=all preparation expedition delivery"`
}

type UpdateUserRequest struct {
	Name   *string      `json:"name" validate:"omitempty,min=2,max=100"`
	Email  *string      `json:"email" validate:"omitempty,email"`
	Role   *models.Role `json:"role" validate:"omitempty,oneof=admin manager counter_staff cook driver"`
	Active *bool        `json:"active"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type AccountService struct {
	users       repository.UserRepository
	tokens      *helpers.TokenManager
	hasher      *helpers.PasswordHasher
	permissions permissions.Lookup
	log         *logrus.Logger
	now         func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	tokens *helpers.TokenManager,
	hasher *helpers.PasswordHasher,
	lookup permissions.Lookup,
	log *logrus.Logger,
) *AccountService {
	return &AccountService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		permissions: lookup,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. While no account exists anyone may register
// and the first account is made an admin; afterwards the caller needs the
// manage_users capability.
func (s *AccountService) Register(ctx context.Context, actor *models.Actor, req RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	first, err := s.claimFirstAccount(ctx)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if first {
		role = models.RoleAdmin
	} else {
		if actor == nil {
			return nil, apperrors.Authentication("authentication required")
		}
		if !s.permissions(actor.Role).Has(permissions.ManageUsers) {
			return nil, apperrors.Authorization("your role cannot manage users")
		}
		if role == "" {
			role = models.RoleCounterStaff
		}
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("an account with this email already exists")
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "could not create account")
	}
	now := s.now()
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		Email:      req.Email,
		Password:   hash,
		Role:       role,
		Active:     true,
		Settings:   models.DefaultPreferences(),
		Created_at: now,
		Updated_at: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("account registered")
	return user, nil
}

// claimFirstAccount reports whether this registration bootstraps the store.
// Only one concurrent caller wins the claim; the rest go through the normal
// permission check.
func (s *AccountService) claimFirstAccount(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil || count > 0 {
		return false, err
	}
	return s.users.ClaimFirstAccount(ctx)
}

func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Authentication("invalid email or password")
		}
		return nil, err
	}
	if !s.hasher.VerifyPassword(user.Password, req.Password) {
		return nil, apperrors.Authentication("invalid email or password")
	}
	if !user.Active {
		return nil, apperrors.Authentication("account is disabled")
	}

	now := s.now()
	user, err = s.users.Update(ctx, user.ID.Hex(), repository.UserChange{LastLogin: &now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.Internal(err, "could not issue token")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.Uid)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Authentication("account no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.Authentication("account is disabled")
	}
	return user, nil
}

func (s *AccountService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.FindByID(ctx, actor.ID)
}

func (s *AccountService) ChangePassword(ctx context.Context, actor models.Actor, req ChangePasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !s.hasher.VerifyPassword(user.Password, req.CurrentPassword) {
		return apperrors.Validation("current password is incorrect")
	}
	hash, err := s.hasher.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.Internal(err, "could not change password")
	}
	_, err = s.users.Update(ctx, user.ID.Hex(), repository.UserChange{
		Password:   &hash,
		IfPassword: user.Password,
		UpdatedAt:  s.now(),
	})
	return err
}

func (s *AccountService) UpdatePreferences(ctx context.Context, actor models.Actor, req PreferencesRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.users.Update(ctx, actor.ID, repository.UserChange{
		SoundNotifications: req.SoundNotifications,
		PreferredView:      req.PreferredView,
		UpdatedAt:          s.now(),
	})
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *AccountService) UpdateUser(ctx context.Context, actor models.Actor, id string, req UpdateUserRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	change := repository.UserChange{Role: req.Role, Active: req.Active, UpdatedAt: s.now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		change.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		change.Email = &email
	}
	if req.Role != nil && actor.ID == id && *req.Role != user.Role {
		return nil, apperrors.Validation("you cannot change your own role")
	}
	if req.Active != nil && actor.ID == id && !*req.Active {
		return nil, apperrors.Validation("you cannot deactivate your own account")
	}
	return s.users.Update(ctx, id, change)
}

// Deactivate disables an account. The record is kept.
func (s *AccountService) Deactivate(ctx context.Context, actor models.Actor, id string) (*models.User, error) {
	inactive := false
	return s.UpdateUser(ctx, actor, id, UpdateUserRequest{Active: &inactive})
}
