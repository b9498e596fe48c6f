package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"chatty-backend/internal/model"
	"chatty-backend/internal/pkg/jwtutil"
	"chatty-backend/internal/repository"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUsernameExists      = errors.New("username already exists")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredential   = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

type AuthService struct {
	userRepo      *repository.UserRepository
	tokenRepo     *repository.RefreshTokenRepository
	jwtSecret     string
	accessExpire  time.Duration
	refreshExpire time.Duration
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

type UpdateProfileInput struct {
	Username      *string
	PreferredName *string
	Bio           *string
	AvatarURL     *string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResult struct {
	Tokens TokenPair
	User   *model.User
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokenRepo *repository.RefreshTokenRepository,
	jwtSecret string,
	accessExpire, refreshExpire time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		jwtSecret:     jwtSecret,
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)

	if username == "" || email == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, User: user}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, User: user}, nil
}

// Refresh trades a stored refresh token for a fresh pair. The presented
// token is rotated: its row is deleted before the new pair is issued, so a
// replay of the old token fails.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrInvalidInput
	}

	claims, err := jwtutil.ParseToken(s.jwtSecret, refreshToken)
	if err != nil || claims.TokenType != jwtutil.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.tokenRepo.GetByToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.tokenRepo.DeleteByToken(refreshToken); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, User: user}, nil
}

func (s *AuthService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrInvalidInput
		}
		if username != user.Username {
			existing, err := s.userRepo.GetByUsername(username)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrUsernameExists
			}
			user.Username = username
		}
	}
	if input.PreferredName != nil {
		user.PreferredName = strings.TrimSpace(*input.PreferredName)
	}
	if input.Bio != nil {
		user.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(id)
}

func (s *AuthService) issueTokenPair(user *model.User) (*TokenPair, error) {
	access, err := jwtutil.GenerateToken(s.jwtSecret, s.accessExpire, user.ID, user.Username, jwtutil.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := jwtutil.GenerateToken(s.jwtSecret, s.refreshExpire, user.ID, user.Username, jwtutil.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(&model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.refreshExpire),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
