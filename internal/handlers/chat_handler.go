package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
	chatws "github.com/viabetel/via-betel-api/internal/websocket"
	"github.com/viabetel/via-betel-api/pkg/utils"
)

type chatApplicationService interface {
	ListThreads(ctx context.Context, actorID int64, role string, query services.ThreadListQuery) ([]models.ThreadSummary, error)
	CreateThread(ctx context.Context, actorID int64, role string, otherID int64) (*models.Thread, error)
	ListMessages(ctx context.Context, actorID int64, role string, threadID int64, page int, limit int) ([]models.Message, int, error)
	SendMessage(ctx context.Context, actorID int64, role string, threadID int64, content string, clientKey *uuid.UUID) (*services.ChatDelivery, error)
	MarkThreadRead(ctx context.Context, actorID int64, role string, threadID int64) error
	UpdateThreadState(ctx context.Context, actorID int64, role string, threadID int64, update repository.ThreadStateUpdate) (*models.ThreadState, error)
	VerifyParticipant(ctx context.Context, actorID int64, threadID int64) error
}

type usageReporter interface {
	GetUsage(ctx context.Context, instructorID int64) (*models.ChatUsage, error)
}

type ChatHandler struct {
	service   chatApplicationService
	usage     usageReporter
	hub       *chatws.Hub
	jwtSecret string
}

func NewChatHandler(
	service chatApplicationService,
	usage usageReporter,
	hub *chatws.Hub,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		service:   service,
		usage:     usage,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

type createThreadRequest struct {
	InstructorID int64 `json:"instructor_id"`
}

// sendMessageRequest keys are camelCase because the dashboard frontend
// posts them that way.
type sendMessageRequest struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
	ClientKey      string `json:"clientMessageId"`
}

type updateThreadStateRequest struct {
	Pinned   *bool `json:"pinned"`
	Archived *bool `json:"archived"`
	Muted    *bool `json:"muted"`
}

func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	filter, ok := services.ParseThreadFilter(c.Query("filter"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid filter"})
	}

	threads, err := h.service.ListThreads(c.Context(), actorID, role, services.ThreadListQuery{
		Filter: filter,
		Search: c.Query("search"),
	})
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"threads": threads})
}

func (h *ChatHandler) CreateThread(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	var req createThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	thread, err := h.service.CreateThread(c.Context(), actorID, role, req.InstructorID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"thread": thread})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	threadID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || threadID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := h.service.ListMessages(c.Context(), actorID, role, threadID, page, limit)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	threadID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || threadID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if err := h.service.MarkThreadRead(c.Context(), actorID, role, threadID); err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (h *ChatHandler) UpdateThreadState(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	threadID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || threadID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	var req updateThreadStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	state, err := h.service.UpdateThreadState(c.Context(), actorID, role, threadID, repository.ThreadStateUpdate{
		Pinned:   req.Pinned,
		Archived: req.Archived,
		Muted:    req.Muted,
	})
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"state": state})
}

// SendMessage is the HTTP send path. Quota rejections carry a distinct code
// so the client can tell them apart from transient failures.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var clientKey *uuid.UUID
	if strings.TrimSpace(req.ClientKey) != "" {
		parsed, err := uuid.Parse(req.ClientKey)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid client message id"})
		}
		clientKey = &parsed
	}

	delivery, err := h.service.SendMessage(c.Context(), actorID, role, req.ConversationID, req.Content, clientKey)
	if err != nil {
		return mapChatError(c, err)
	}

	if !delivery.Duplicate {
		h.hub.BroadcastInsert(delivery)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":      true,
		"message": delivery.Message,
	})
}

func (h *ChatHandler) GetUsage(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}
	if role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	usage, err := h.usage.GetUsage(c.Context(), actorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch usage"})
	}

	return c.JSON(fiber.Map{
		"ok":                true,
		"hasActivePlan":     usage.HasActivePlan,
		"usedConversations": usage.UsedConversations,
		"limit":             usage.Limit,
		"remaining":         usage.Remaining,
		"renewsAtFormatted": services.FormatRenewalDate(usage.RenewsAt),
		"isNearLimit":       usage.IsNearLimit,
	})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service, role)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

// chatActor resolves the authenticated chat participant. On failure the
// response is already written and ok is false.
func chatActor(c *fiber.Ctx) (int64, string, bool) {
	role, roleOK := c.Locals("role").(string)
	if !roleOK || !models.IsChatRole(role) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", false
	}

	actorID, err := parseAuthUserID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, "", false
	}

	return actorID, role, true
}

func mapChatError(c *fiber.Ctx, err error) error {
	var limitErr *services.FreeLimitError
	switch {
	case errors.As(err, &limitErr):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":             "Free plan conversation limit reached",
			"code":              "FREE_LIMIT_REACHED",
			"limit":             limitErr.Limit,
			"usedConversations": limitErr.Used,
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInstructorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
