package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/viabetel/via-betel-api/internal/services"
)

type PreferencesHandler struct {
	service *services.PreferencesService
}

func NewPreferencesHandler(service *services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{service: service}
}

type savePreferencesRequest struct {
	Filters   json.RawMessage `json:"filters"`
	Favorites []int64         `json:"favorites"`
	Compare   []int64         `json:"compare"`
}

func (h *PreferencesHandler) GetPreferences(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	prefs, err := h.service.Load(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch preferences"})
	}

	return c.JSON(fiber.Map{"preferences": prefs})
}

func (h *PreferencesHandler) SavePreferences(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req savePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	prefs, err := h.service.Save(c.Context(), userID, services.SavePreferencesInput{
		Filters:   req.Filters,
		Favorites: req.Favorites,
		Compare:   req.Compare,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "filters must be a valid JSON object"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save preferences"})
	}

	return c.JSON(fiber.Map{"preferences": prefs})
}
