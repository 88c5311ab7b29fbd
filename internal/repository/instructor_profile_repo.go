package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/viabetel/via-betel-api/internal/models"
)

type InstructorProfileRepository struct {
	db DBTX
}

func NewInstructorProfileRepository(db DBTX) *InstructorProfileRepository {
	return &InstructorProfileRepository{db: db}
}

const instructorProfileColumns = `id, user_id, full_name, avatar_url, bio, city,
	license_categories, credential_id, experience_years, lesson_price, rating,
	total_reviews, review_status, onboarding_complete, created_at, updated_at`

func (r *InstructorProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO instructor_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *InstructorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.InstructorProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM instructor_profiles
		WHERE user_id = $1
	`, instructorProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

type InstructorListFilter struct {
	City            string
	LicenseCategory string
	MinRating       float64
	MaxPrice        float64
	Search          string
	OnlyApproved    bool
	Offset          int
	Limit           int
}

// List returns approved-directory instructors matching the filter plus the
// unfiltered-page total. Text search is a case-insensitive substring match on
// name and city.
func (r *InstructorProfileRepository) List(
	ctx context.Context,
	filter InstructorListFilter,
) ([]models.InstructorProfile, int, error) {
	conditions := []string{"onboarding_complete = TRUE"}
	args := []any{}

	if filter.OnlyApproved {
		conditions = append(conditions, "review_status = 'approved'")
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if filter.LicenseCategory != "" {
		args = append(args, filter.LicenseCategory)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(license_categories)", len(args)))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("lesson_price <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(full_name ILIKE $%d OR city ILIKE $%d)", len(args), len(args)))
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM instructor_profiles WHERE %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM instructor_profiles
		WHERE %s
		ORDER BY rating DESC NULLS LAST, total_reviews DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, instructorProfileColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.InstructorProfile, 0)
	for rows.Next() {
		profile, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *InstructorProfileRepository) ListAll(ctx context.Context) ([]models.InstructorProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM instructor_profiles
		WHERE onboarding_complete = TRUE AND review_status = 'approved'
	`, instructorProfileColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.InstructorProfile, 0)
	for rows.Next() {
		profile, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

type InstructorOnboardingInput struct {
	FullName          string
	Bio               string
	City              string
	LicenseCategories []string
	CredentialID      string
	ExperienceYears   int
	LessonPrice       float64
}

// UpdateOnboarding completes onboarding and moves the profile into review.
func (r *InstructorProfileRepository) UpdateOnboarding(
	ctx context.Context,
	userID int64,
	req InstructorOnboardingInput,
) (*models.InstructorProfile, error) {
	query := fmt.Sprintf(`
		UPDATE instructor_profiles
		SET full_name = $1,
			bio = $2,
			city = $3,
			license_categories = $4,
			credential_id = $5,
			experience_years = $6,
			lesson_price = $7,
			review_status = 'pending',
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING %s
	`, instructorProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		req.FullName,
		req.Bio,
		req.City,
		req.LicenseCategories,
		req.CredentialID,
		req.ExperienceYears,
		req.LessonPrice,
		userID,
	))
}

type UpdateInstructorProfileInput struct {
	FullName          *string
	AvatarURL         *string
	Bio               *string
	City              *string
	LicenseCategories *[]string
	ExperienceYears   *int
	LessonPrice       *float64
}

func (r *InstructorProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	req UpdateInstructorProfileInput,
) (*models.InstructorProfile, error) {
	query := fmt.Sprintf(`
		UPDATE instructor_profiles
		SET full_name = COALESCE($1, full_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			city = COALESCE($4, city),
			license_categories = COALESCE($5, license_categories),
			experience_years = COALESCE($6, experience_years),
			lesson_price = COALESCE($7, lesson_price),
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING %s
	`, instructorProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		req.FullName,
		req.AvatarURL,
		req.Bio,
		req.City,
		req.LicenseCategories,
		req.ExperienceYears,
		req.LessonPrice,
		userID,
	))
}

func (r *InstructorProfileRepository) UpdateReviewStatus(
	ctx context.Context,
	userID int64,
	status string,
) (*models.InstructorProfile, error) {
	query := fmt.Sprintf(`
		UPDATE instructor_profiles
		SET review_status = $2,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s
	`, instructorProfileColumns)

	return r.scanOne(r.db.QueryRow(ctx, query, userID, status))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *InstructorProfileRepository) scanOne(row rowScanner) (*models.InstructorProfile, error) {
	return r.scanRow(row)
}

func (r *InstructorProfileRepository) scanRow(row rowScanner) (*models.InstructorProfile, error) {
	var profile models.InstructorProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.City,
		&profile.LicenseCategories,
		&profile.CredentialID,
		&profile.ExperienceYears,
		&profile.LessonPrice,
		&profile.Rating,
		&profile.TotalReviews,
		&profile.ReviewStatus,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
