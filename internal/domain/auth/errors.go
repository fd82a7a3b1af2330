package auth

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrInvalidCredentials   = apperror.Unauthenticated("invalid username or password")
	ErrInvalidRole          = apperror.Validation("role must be LOSER, FINDER or COURIER")
	ErrInvalidRefreshToken  = apperror.Unauthenticated("invalid or expired refresh token")
	ErrRefreshTokenRequired = apperror.Validation("refresh token is required")
	ErrUserBlocked          = apperror.New(apperror.KindAuthorization, "your account has been blocked")
)
