package models

import "time"

const (
	ProfileStatusIncomplete = "INCOMPLETO"
	ProfileStatusInReview   = "EM_ANALISE"
	ProfileStatusApproved   = "APROVADO"
	ProfileStatusRejected   = "REPROVADO"
)

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type InstructorProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	FullName           *string   `json:"full_name"`
	AvatarURL          *string   `json:"avatar_url"`
	Bio                *string   `json:"bio"`
	City               *string   `json:"city"`
	LicenseCategories  *[]string `json:"license_categories"`
	CredentialID       *string   `json:"credential_id"`
	ExperienceYears    *int      `json:"experience_years"`
	LessonPrice        *float64  `json:"lesson_price"`
	Rating             *float64  `json:"rating"`
	TotalReviews       int       `json:"total_reviews"`
	ReviewStatus       string    `json:"review_status"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type InstructorWithScore struct {
	InstructorProfile
	MatchScore int `json:"match_score"`
}

type InstructorListResponse struct {
	ID                string   `json:"id"`
	FullName          string   `json:"full_name"`
	AvatarURL         string   `json:"avatar_url"`
	City              string   `json:"city"`
	LicenseCategories []string `json:"license_categories"`
	ExperienceYears   int      `json:"experience_years"`
	LessonPrice       float64  `json:"lesson_price"`
	Rating            float64  `json:"rating"`
	TotalReviews      int      `json:"total_reviews"`
	MatchScore        int      `json:"match_score,omitempty"`
}

type InstructorDetailResponse struct {
	InstructorListResponse
	Bio                string `json:"bio"`
	CredentialID       string `json:"credential_id"`
	IsApproved         bool   `json:"is_approved"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}
