package matching

import (
	"github.com/campuslf/lostfound-api/internal/domain/item"
)

// FoundCandidate is a found item proposed for a lost report
type FoundCandidate struct {
	Found   *item.FoundItem
	Score   int
	Reasons []Reason
}

// LostCandidate is a lost report proposed for a found item
type LostCandidate struct {
	Lost    *item.LostItem
	Score   int
	Reasons []Reason
}

// FoundCandidateResponse for API
type FoundCandidateResponse struct {
	Found   *item.FoundItemResponse `json:"found"`
	Score   int                     `json:"score"`
	Reasons []Reason                `json:"reasons"`
}

// LostCandidateResponse for API
type LostCandidateResponse struct {
	Lost    *item.LostItemResponse `json:"lost"`
	Score   int                    `json:"score"`
	Reasons []Reason               `json:"reasons"`
}

func foundCandidatesResponse(cs []*FoundCandidate) []*FoundCandidateResponse {
	out := make([]*FoundCandidateResponse, len(cs))
	for i, c := range cs {
		out[i] = &FoundCandidateResponse{Found: item.FoundItemResponseFromEntity(c.Found), Score: c.Score, Reasons: c.Reasons}
	}
	return out
}

func lostCandidatesResponse(cs []*LostCandidate) []*LostCandidateResponse {
	out := make([]*LostCandidateResponse, len(cs))
	for i, c := range cs {
		out[i] = &LostCandidateResponse{Lost: item.LostItemResponseFromEntity(c.Lost), Score: c.Score, Reasons: c.Reasons}
	}
	return out
}
