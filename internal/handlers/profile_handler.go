package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
)

type ProfileHandler struct {
	profileService        *services.ProfileService
	studentProfileRepo    studentProfileReader
	instructorProfileRepo instructorProfileReader
}

type studentProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
}

type instructorProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.InstructorProfile, error)
}

func NewProfileHandler(
	profileService *services.ProfileService,
	studentProfileRepo studentProfileReader,
	instructorProfileRepo instructorProfileReader,
) *ProfileHandler {
	return &ProfileHandler{
		profileService:        profileService,
		studentProfileRepo:    studentProfileRepo,
		instructorProfileRepo: instructorProfileRepo,
	}
}

type updateStudentProfileRequest struct {
	FullName          *string   `json:"full_name"`
	AvatarURL         *string   `json:"avatar_url"`
	City              *string   `json:"city"`
	LicenseCategory   *string   `json:"license_category"`
	MaxLessonPrice    *float64  `json:"max_lesson_price"`
	PreferredSchedule *[]string `json:"preferred_schedule"`
}

type updateInstructorProfileRequest struct {
	FullName          *string   `json:"full_name"`
	AvatarURL         *string   `json:"avatar_url"`
	Bio               *string   `json:"bio"`
	City              *string   `json:"city"`
	LicenseCategories *[]string `json:"license_categories"`
	ExperienceYears   *int      `json:"experience_years"`
	LessonPrice       *float64  `json:"lesson_price"`
}

func (h *ProfileHandler) UpdateStudentProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateStudentProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateStudentProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateStudentProfile(c.Context(), userID, repository.UpdateStudentProfileInput{
		FullName:          req.FullName,
		AvatarURL:         req.AvatarURL,
		City:              req.City,
		LicenseCategory:   req.LicenseCategory,
		MaxLessonPrice:    req.MaxLessonPrice,
		PreferredSchedule: req.PreferredSchedule,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) UpdateInstructorProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateInstructorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateInstructorProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateInstructorProfile(c.Context(), userID, repository.UpdateInstructorProfileInput{
		FullName:          req.FullName,
		AvatarURL:         req.AvatarURL,
		Bio:               req.Bio,
		City:              req.City,
		LicenseCategories: req.LicenseCategories,
		ExperienceYears:   req.ExperienceYears,
		LessonPrice:       req.LessonPrice,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
		"status":              services.ProfileStatusOf(profile),
	})
}

func (h *ProfileHandler) GetStudentProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.studentProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) GetInstructorProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.instructorProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
		"status":              services.ProfileStatusOf(profile),
	})
}

// GetProfileStatus backs the banner on the instructor dashboard. A missing
// profile row is reported as incomplete rather than an error so a freshly
// registered account sees the onboarding prompt.
func (h *ProfileHandler) GetProfileStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.instructorProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"status": services.ProfileStatusOf(profile),
	})
}
