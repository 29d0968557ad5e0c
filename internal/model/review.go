package model

type Review struct {
	ID         string `json:"id"`
	Comment    string `json:"comment"`
	IsApproved bool   `json:"isApproved"`
	User       string `json:"user"`
	CreatedAt  string `json:"createdAt"`
	ApprovedAt string `json:"approvedAt,omitempty"`
}

// ReviewExtended is a moderation listing entry.
type ReviewExtended struct {
	Review
	PerfumeName string `json:"perfumeName"`
}

type NewReview struct {
	Comment string `json:"comment"`
}

type NewRating struct {
	Rating int `json:"rating"`
}

// AverageRating is the body of GET /review/rating/:perfumeId. RatingCounts
// is keyed by star value as a string ("1" through "5").
type AverageRating struct {
	AverageRating float64        `json:"averageRating"`
	RatingCount   int            `json:"ratingCount"`
	IsRated       bool           `json:"isRated"`
	UserRating    int            `json:"userRating"`
	RatingCounts  map[string]int `json:"ratingCounts"`
}
