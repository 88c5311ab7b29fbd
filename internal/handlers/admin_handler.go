package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
)

type instructorReviewStore interface {
	UpdateReviewStatus(ctx context.Context, userID int64, status string) (*models.InstructorProfile, error)
}

type subscriptionWriter interface {
	Upsert(ctx context.Context, input repository.UpsertSubscriptionInput) (*models.Subscription, error)
}

// AdminHandler is the support-team surface for credential review verdicts and
// plan provisioning. Billing webhooks land here once payments go live.
type AdminHandler struct {
	instructorProfileRepo instructorReviewStore
	subscriptionRepo      subscriptionWriter
}

func NewAdminHandler(
	instructorProfileRepo instructorReviewStore,
	subscriptionRepo subscriptionWriter,
) *AdminHandler {
	return &AdminHandler{
		instructorProfileRepo: instructorProfileRepo,
		subscriptionRepo:      subscriptionRepo,
	}
}

type reviewInstructorRequest struct {
	Status string `json:"status"`
}

type upsertSubscriptionRequest struct {
	Plan             string `json:"plan"`
	Status           string `json:"status"`
	CurrentPeriodEnd string `json:"current_period_end"`
}

var allowedReviewStatuses = map[string]struct{}{
	models.ReviewPending:  {},
	models.ReviewApproved: {},
	models.ReviewRejected: {},
}

var allowedPlans = map[string]struct{}{
	models.PlanFree: {},
	models.PlanPro:  {},
}

var allowedSubscriptionStatuses = map[string]struct{}{
	models.SubscriptionActive:   {},
	models.SubscriptionCanceled: {},
	models.SubscriptionPastDue:  {},
}

func (h *AdminHandler) ReviewInstructor(c *fiber.Ctx) error {
	instructorID, ok := adminTarget(c)
	if !ok {
		return nil
	}

	var req reviewInstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if _, valid := allowedReviewStatuses[status]; !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Status must be pending, approved or rejected"})
	}

	profile, err := h.instructorProfileRepo.UpdateReviewStatus(c.Context(), instructorID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update review status"})
	}

	return c.JSON(fiber.Map{
		"profile": profile,
		"status":  services.ProfileStatusOf(profile),
	})
}

func (h *AdminHandler) UpsertSubscription(c *fiber.Ctx) error {
	instructorID, ok := adminTarget(c)
	if !ok {
		return nil
	}

	var req upsertSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	plan := strings.ToLower(strings.TrimSpace(req.Plan))
	if _, valid := allowedPlans[plan]; !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Plan must be free or pro"})
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if _, valid := allowedSubscriptionStatuses[status]; !valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Status must be active, canceled or past_due"})
	}

	periodEnd := strings.TrimSpace(req.CurrentPeriodEnd)
	if _, err := time.Parse(time.RFC3339, periodEnd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "current_period_end must be an RFC 3339 timestamp"})
	}

	subscription, err := h.subscriptionRepo.Upsert(c.Context(), repository.UpsertSubscriptionInput{
		InstructorID:     instructorID,
		Plan:             plan,
		Status:           status,
		CurrentPeriodEnd: periodEnd,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save subscription"})
	}

	return c.JSON(fiber.Map{"subscription": subscription})
}

// adminTarget gates the route to support accounts and resolves the instructor
// id path parameter. On failure the response is already written.
func adminTarget(c *fiber.Ctx) (int64, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleSupport {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, false
	}

	instructorID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || instructorID <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor id"})
		return 0, false
	}

	return instructorID, true
}
