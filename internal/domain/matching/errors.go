package matching

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var ErrInvalidTopN = apperror.Validation("topN must be between 1 and 50")
