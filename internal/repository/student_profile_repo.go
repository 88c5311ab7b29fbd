package repository

import (
	"context"

	"github.com/viabetel/via-betel-api/internal/models"
)

type StudentProfileRepository struct {
	db DBTX
}

func NewStudentProfileRepository(db DBTX) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

func (r *StudentProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO student_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	query := `
		SELECT id, user_id, full_name, avatar_url, city, license_category,
			   max_lesson_price, preferred_schedule, onboarding_complete,
			   created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.City,
		&profile.LicenseCategory,
		&profile.MaxLessonPrice,
		&profile.PreferredSchedule,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type StudentOnboardingInput struct {
	FullName          string
	City              string
	LicenseCategory   string
	MaxLessonPrice    float64
	PreferredSchedule []string
}

func (r *StudentProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req StudentOnboardingInput,
) (*models.StudentProfile, error) {
	query := `
		UPDATE student_profiles
		SET full_name = $1,
			city = $2,
			license_category = $3,
			max_lesson_price = $4,
			preferred_schedule = $5,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $6
		RETURNING id, user_id, full_name, avatar_url, city, license_category,
				  max_lesson_price, preferred_schedule, onboarding_complete,
				  created_at, updated_at
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.City,
		req.LicenseCategory,
		req.MaxLessonPrice,
		req.PreferredSchedule,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.City,
		&profile.LicenseCategory,
		&profile.MaxLessonPrice,
		&profile.PreferredSchedule,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type UpdateStudentProfileInput struct {
	FullName          *string
	AvatarURL         *string
	City              *string
	LicenseCategory   *string
	MaxLessonPrice    *float64
	PreferredSchedule *[]string
}

func (r *StudentProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateStudentProfileInput,
) (*models.StudentProfile, error) {
	query := `
		UPDATE student_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			city = COALESCE($3, city),
			license_category = COALESCE($4, license_category),
			max_lesson_price = COALESCE($5, max_lesson_price),
			preferred_schedule = COALESCE($6, preferred_schedule),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING id, user_id, full_name, avatar_url, city, license_category,
				  max_lesson_price, preferred_schedule, onboarding_complete,
				  created_at, updated_at
	`
	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.City,
		req.LicenseCategory,
		req.MaxLessonPrice,
		req.PreferredSchedule,
		userID,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.City,
		&profile.LicenseCategory,
		&profile.MaxLessonPrice,
		&profile.PreferredSchedule,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
