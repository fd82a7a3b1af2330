package admin

import "github.com/campuslf/lostfound-api/internal/pkg/apperror"

var (
	ErrInvalidStartDate = apperror.Validation("startDate must be YYYY-MM-DD")
	ErrInvalidEndDate   = apperror.Validation("endDate must be YYYY-MM-DD")
	ErrInvalidPeriod    = apperror.Validation("startDate must not be after endDate")
)
