package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
)

type studentOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.StudentOnboardingInput) (*models.StudentProfile, error)
}

type instructorOnboardingProfileStore interface {
	UpdateOnboarding(ctx context.Context, userID int64, req repository.InstructorOnboardingInput) (*models.InstructorProfile, error)
}

type OnboardingHandler struct {
	studentProfileRepo    studentOnboardingProfileStore
	instructorProfileRepo instructorOnboardingProfileStore
}

func NewOnboardingHandler(
	studentProfileRepo studentOnboardingProfileStore,
	instructorProfileRepo instructorOnboardingProfileStore,
) *OnboardingHandler {
	return &OnboardingHandler{
		studentProfileRepo:    studentProfileRepo,
		instructorProfileRepo: instructorProfileRepo,
	}
}

type studentOnboardingRequest struct {
	FullName          string   `json:"full_name"`
	City              string   `json:"city"`
	LicenseCategory   string   `json:"license_category"`
	MaxLessonPrice    float64  `json:"max_lesson_price"`
	PreferredSchedule []string `json:"preferred_schedule"`
}

type instructorOnboardingRequest struct {
	FullName          string   `json:"full_name"`
	Bio               string   `json:"bio"`
	City              string   `json:"city"`
	LicenseCategories []string `json:"license_categories"`
	CredentialID      string   `json:"credential_id"`
	ExperienceYears   int      `json:"experience_years"`
	LessonPrice       float64  `json:"lesson_price"`
}

func (h *OnboardingHandler) StudentOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req studentOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateStudentOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.studentProfileRepo.UpdateOnboarding(c.Context(), userID, repository.StudentOnboardingInput{
		FullName:          strings.TrimSpace(req.FullName),
		City:              strings.TrimSpace(req.City),
		LicenseCategory:   strings.ToUpper(strings.TrimSpace(req.LicenseCategory)),
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

func (h *OnboardingHandler) InstructorOnboarding(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req instructorOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateInstructorOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	categories := make([]string, 0, len(req.LicenseCategories))
	for _, category := range req.LicenseCategories {
		categories = append(categories, strings.ToUpper(strings.TrimSpace(category)))
	}

	profile, err := h.instructorProfileRepo.UpdateOnboarding(c.Context(), userID, repository.InstructorOnboardingInput{
		FullName:          strings.TrimSpace(req.FullName),
		Bio:               strings.TrimSpace(req.Bio),
		City:              strings.TrimSpace(req.City),
		LicenseCategories: categories,
		CredentialID:      strings.TrimSpace(req.CredentialID),
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
