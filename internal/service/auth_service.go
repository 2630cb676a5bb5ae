package service

import (
	"errors"

	"budayana_backend/internal/config"
	"budayana_backend/internal/model"
	"budayana_backend/internal/repository"
	"budayana_backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and profile reads.
type AuthService struct {
	Users *repository.UserRepository
	Cfg   *config.Config
}

func NewAuthService(users *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{Users: users, Cfg: cfg}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is the login/register response: the token plus the public
// profile fields.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register creates a user with a bcrypt-hashed password and returns a
// signed token so the client is logged in immediately.
func (s *AuthService) Register(req RegisterRequest) (*AuthResult, error) {
	if _, err := s.Users.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}
	zap.L().Info("user registered", zap.Uint("userId", user.ID), zap.String("email", user.Email))
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(req LoginRequest) (*AuthResult, error) {
	user, err := s.Users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredential
		}
		return nil, err
	}
	if user.Disabled {
		return nil, util.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredential
	}
	if err := s.Users.UpdateLastLogin(user.ID); err != nil {
		zap.L().Warn("failed to record last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	return s.issue(user)
}

// Profile returns the user's public profile.
func (s *AuthService) Profile(userID uint) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
