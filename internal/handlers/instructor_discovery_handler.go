package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
)

type instructorDiscoveryRepository interface {
	List(ctx context.Context, filter repository.InstructorListFilter) ([]models.InstructorProfile, int, error)
	GetByUserID(ctx context.Context, userID int64) (*models.InstructorProfile, error)
}

type studentDiscoveryRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
}

type instructorMatchmaker interface {
	GetMatchedInstructors(ctx context.Context, studentProfile *models.StudentProfile, limit int) ([]models.InstructorWithScore, error)
}

type InstructorDiscoveryHandler struct {
	instructorRepo     instructorDiscoveryRepository
	studentProfileRepo studentDiscoveryRepository
	discoveryService   instructorMatchmaker
}

func NewInstructorDiscoveryHandler(
	instructorRepo instructorDiscoveryRepository,
	studentProfileRepo studentDiscoveryRepository,
	discoveryService instructorMatchmaker,
) *InstructorDiscoveryHandler {
	return &InstructorDiscoveryHandler{
		instructorRepo:     instructorRepo,
		studentProfileRepo: studentProfileRepo,
		discoveryService:   discoveryService,
	}
}

func (h *InstructorDiscoveryHandler) ListInstructors(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxPrice, err := parseNonNegativeFloat(c.Query("max_price"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_price must be a valid non-negative number"})
	}

	instructors, total, err := h.instructorRepo.List(c.Context(), repository.InstructorListFilter{
		City:            strings.TrimSpace(c.Query("city")),
		LicenseCategory: strings.ToUpper(strings.TrimSpace(c.Query("category"))),
		MinRating:       minRating,
		MaxPrice:        maxPrice,
		Search:          strings.TrimSpace(c.Query("search")),
		OnlyApproved:    true,
		Offset:          (page - 1) * limit,
		Limit:           limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch instructors"})
	}

	response := make([]models.InstructorListResponse, 0, len(instructors))
	for _, instructor := range instructors {
		response = append(response, buildInstructorListResponse(instructor, 0))
	}

	return c.JSON(fiber.Map{
		"instructors": response,
		"pagination":  buildPaginationMeta(page, limit, total),
	})
}

func (h *InstructorDiscoveryHandler) GetRecommendedInstructors(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	studentProfile, err := h.studentProfileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch student profile"})
	}

	instructors, err := h.discoveryService.GetMatchedInstructors(c.Context(), studentProfile, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended instructors"})
	}

	response := make([]models.InstructorListResponse, 0, len(instructors))
	for _, instructor := range instructors {
		response = append(response, buildInstructorListResponse(instructor.InstructorProfile, instructor.MatchScore))
	}

	return c.JSON(fiber.Map{"instructors": response})
}

func (h *InstructorDiscoveryHandler) GetInstructorDetail(c *fiber.Ctx) error {
	instructorID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || instructorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor id"})
	}

	instructor, err := h.instructorRepo.GetByUserID(c.Context(), instructorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch instructor"})
	}

	return c.JSON(fiber.Map{
		"instructor": buildInstructorDetailResponse(*instructor),
	})
}

func buildInstructorListResponse(instructor models.InstructorProfile, matchScore int) models.InstructorListResponse {
	response := models.InstructorListResponse{
		ID:                strconv.FormatInt(instructor.UserID, 10),
		FullName:          stringValue(instructor.FullName),
		AvatarURL:         stringValue(instructor.AvatarURL),
		City:              stringValue(instructor.City),
		LicenseCategories: stringSliceValue(instructor.LicenseCategories),
		ExperienceYears:   intValueResponse(instructor.ExperienceYears),
		LessonPrice:       floatValueResponse(instructor.LessonPrice),
		Rating:            floatValueResponse(instructor.Rating),
		TotalReviews:      instructor.TotalReviews,
	}
	if matchScore > 0 {
		response.MatchScore = matchScore
	}
	return response
}

func buildInstructorDetailResponse(instructor models.InstructorProfile) models.InstructorDetailResponse {
	return models.InstructorDetailResponse{
		InstructorListResponse: buildInstructorListResponse(instructor, 0),
		Bio:                    stringValue(instructor.Bio),
		CredentialID:           stringValue(instructor.CredentialID),
		IsApproved:             instructor.ReviewStatus == models.ReviewApproved,
		OnboardingComplete:     instructor.OnboardingComplete,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseNonNegativeFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

var errInvalidNumber = errors.New("invalid number")

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func stringSliceValue(value *[]string) []string {
	if value == nil {
		return []string{}
	}
	return *value
}

func floatValueResponse(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValueResponse(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

var _ services.InstructorMatcher = (*repository.InstructorProfileRepository)(nil)
