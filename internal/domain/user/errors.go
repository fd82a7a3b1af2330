package user

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrUserNotFound          = apperror.NotFound("user not found")
	ErrUsernameAlreadyExists = apperror.Conflict("username already exists")
	ErrCannotBlockAdmin      = apperror.Forbidden("administrators cannot be blocked")
	ErrCannotBlockSelf       = apperror.Forbidden("you cannot block yourself")
)
