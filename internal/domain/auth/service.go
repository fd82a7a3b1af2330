package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/pkg/jwt"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/password"
	"github.com/campuslf/lostfound-api/internal/pkg/sanitize"
)

// Users is the part of the user repository auth needs
type Users interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Service handles authentication business logic
type Service struct {
	users      Users
	jwtService *jwt.Service
	tokens     TokenStore
	now        func() time.Time
}

// NewService creates auth service
func NewService(users Users, jwtService *jwt.Service, tokens TokenStore) *Service {
	return &Service{
		users:      users,
		jwtService: jwtService,
		tokens:     tokens,
		now:        time.Now,
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates a LOSER, FINDER or COURIER account. Staff accounts come from the user CLI.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	role := user.Role(req.Role)
	allowed := false
	for _, r := range user.SelfRegisterRoles() {
		if r == role {
			allowed = true
		}
	}
	if !allowed {
		return nil, ErrInvalidRole
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Username:     normalizeUsername(req.Username),
		PasswordHash: hash,
		Nickname:     sanitize.Text(req.Nickname),
		Role:         role,
		Status:       user.StatusActive,
		Affiliation:  user.Affiliation(req.Affiliation),
		Phone:        sql.NullString{String: strings.TrimSpace(req.Phone), Valid: strings.TrimSpace(req.Phone) != ""},
		Email:        sql.NullString{String: strings.ToLower(strings.TrimSpace(req.Email)), Valid: strings.TrimSpace(req.Email) != ""},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Nickname == "" {
		u.Nickname = u.Username
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", u.ID.String()).
		Str("role", string(u.Role)).
		Msg("User registered")

	return s.generateTokens(ctx, u)
}

// Login authenticates user by username and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByUsername(ctx, normalizeUsername(req.Username))
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrUserBlocked
	}

	return s.generateTokens(ctx, u)
}

// Refresh rotates a refresh token: the old one is consumed, a new pair is issued
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	userID, err := s.tokens.Take(ctx, jwt.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidRefreshToken
	}
	if !u.IsActive() {
		return nil, ErrUserBlocked
	}

	return s.generateTokens(ctx, u)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, jwt.HashRefreshToken(refreshToken))
}

// RevokeAll drops every refresh token of userID, e.g. when an admin blocks them
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// generateTokens creates access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	// only the hash is stored
	if err := s.tokens.Save(ctx, jwt.HashRefreshToken(refreshToken), u.ID, s.jwtService.GetRefreshTTL()); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}
