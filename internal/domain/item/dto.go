package item

import (
	"time"

	"github.com/google/uuid"
)

// CreateLostRequest for POST /lost
type CreateLostRequest struct {
	Category    string    `json:"category" validate:"required,category"`
	Title       string    `json:"title" validate:"required,min=2,max=100"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	LostAt      time.Time `json:"lost_at" validate:"required"`
	LostPlace   string    `json:"lost_place" validate:"required,min=2,max=200"`
	Reward      *int64    `json:"reward" validate:"omitempty,gte=0"`
}

// UpdateLostRequest for PUT /lost/{id}
type UpdateLostRequest = CreateLostRequest

// CreateFoundRequest for POST /found
type CreateFoundRequest struct {
	Category        string    `json:"category" validate:"required,category"`
	Title           string    `json:"title" validate:"required,min=2,max=100"`
	Description     string    `json:"description" validate:"omitempty,max=2000"`
	FoundAt         time.Time `json:"found_at" validate:"required"`
	FoundPlace      string    `json:"found_place" validate:"required,min=2,max=200"`
	StorageType     string    `json:"storage_type" validate:"required,storage_type"`
	StorageLocation string    `json:"storage_location" validate:"omitempty,max=200"`
}

// UpdateFoundRequest for PUT /found/{id}. Storage is changed through /storage.
type UpdateFoundRequest struct {
	Category    string    `json:"category" validate:"required,category"`
	Title       string    `json:"title" validate:"required,min=2,max=100"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	FoundAt     time.Time `json:"found_at" validate:"required"`
	FoundPlace  string    `json:"found_place" validate:"required,min=2,max=200"`
}

// UpdateStorageRequest for POST /found/{id}/storage
type UpdateStorageRequest struct {
	StorageType     string `json:"storage_type" validate:"required,storage_type"`
	StorageLocation string `json:"storage_location" validate:"required,max=200"`
}

// UpdateFoundStatusRequest for PUT /found/{id}/status
type UpdateFoundStatusRequest struct {
	Status string `json:"status" validate:"required,found_status"`
}

// LostItemResponse represents a lost report in API responses
type LostItemResponse struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	Category              string    `json:"category"`
	RequiresSecurityCheck bool      `json:"requires_security_check"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	LostAt                string    `json:"lost_at"`
	LostPlace             string    `json:"lost_place"`
	Reward                *int64    `json:"reward,omitempty"`
	Status                string    `json:"status"`
	IsBlinded             bool      `json:"is_blinded"`
	PhotoURL              string    `json:"photo_url,omitempty"`
	ThumbURL              string    `json:"thumb_url,omitempty"`
	CreatedAt             string    `json:"created_at"`
	UpdatedAt             string    `json:"updated_at"`
}

// LostItemResponseFromEntity converts entity to response
func LostItemResponseFromEntity(l *LostItem) *LostItemResponse {
	resp := &LostItemResponse{
		ID:                    l.ID,
		UserID:                l.UserID,
		Category:              string(l.Category),
		RequiresSecurityCheck: l.Category.RequiresSecurityCheck(),
		Title:                 l.Title,
		Description:           l.Description,
		LostAt:                l.LostAt.Format(time.RFC3339),
		LostPlace:             l.LostPlace,
		Status:                string(l.Status),
		IsBlinded:             l.IsBlinded,
		PhotoURL:              l.PhotoURL.String,
		ThumbURL:              l.ThumbURL.String,
		CreatedAt:             l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             l.UpdatedAt.Format(time.RFC3339),
	}
	if l.Reward.Valid {
		reward := l.Reward.Int64
		resp.Reward = &reward
	}
	return resp
}

// FoundItemResponse represents a found item in API responses
type FoundItemResponse struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	Category              string    `json:"category"`
	RequiresSecurityCheck bool      `json:"requires_security_check"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	FoundAt               string    `json:"found_at"`
	FoundPlace            string    `json:"found_place"`
	StorageType           string    `json:"storage_type"`
	StorageLocation       string    `json:"storage_location"`
	Status                string    `json:"status"`
	IsBlinded             bool      `json:"is_blinded"`
	PhotoURL              string    `json:"photo_url,omitempty"`
	ThumbURL              string    `json:"thumb_url,omitempty"`
	CreatedAt             string    `json:"created_at"`
	UpdatedAt             string    `json:"updated_at"`
}

// FoundItemResponseFromEntity converts entity to response
func FoundItemResponseFromEntity(f *FoundItem) *FoundItemResponse {
	return &FoundItemResponse{
		ID:                    f.ID,
		UserID:                f.UserID,
		Category:              string(f.Category),
		RequiresSecurityCheck: f.Category.RequiresSecurityCheck(),
		Title:                 f.Title,
		Description:           f.Description,
		FoundAt:               f.FoundAt.Format(time.RFC3339),
		FoundPlace:            f.FoundPlace,
		StorageType:           string(f.StorageType),
		StorageLocation:       f.StorageLocation,
		Status:                string(f.Status),
		IsBlinded:             f.IsBlinded,
		PhotoURL:              f.PhotoURL.String,
		ThumbURL:              f.ThumbURL.String,
		CreatedAt:             f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             f.UpdatedAt.Format(time.RFC3339),
	}
}

// PhotoResponse is returned after a photo upload
type PhotoResponse struct {
	PhotoURL string `json:"photo_url"`
	ThumbURL string `json:"thumb_url"`
}
