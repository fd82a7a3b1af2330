package notification

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var ErrNotificationNotFound = apperror.NotFound("notification not found")
