package models

import "time"

type StudentProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	FullName           *string   `json:"full_name"`
	AvatarURL          *string   `json:"avatar_url"`
	City               *string   `json:"city"`
	LicenseCategory    *string   `json:"license_category"`
	MaxLessonPrice     *float64  `json:"max_lesson_price"`
	PreferredSchedule  *[]string `json:"preferred_schedule"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
