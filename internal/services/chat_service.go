package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
)

type threadStore interface {
	CreateOrGet(ctx context.Context, userID int64, otherID int64) (*models.Thread, error)
	GetByIDForParticipant(ctx context.Context, threadID int64, participantID int64) (*models.Thread, error)
	ListForParticipant(ctx context.Context, participantID int64) ([]models.ThreadSummary, error)
	UpdateState(ctx context.Context, threadID int64, userID int64, update repository.ThreadStateUpdate) (*models.ThreadState, error)
}

type messageStore interface {
	MarkThreadRead(ctx context.Context, threadID int64, readerID int64) error
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type sendGuard interface {
	CheckSendAllowed(ctx context.Context, instructorID int64, threadID int64) error
}

type ChatService struct {
	db          *pgxpool.Pool
	threadRepo  threadStore
	messageRepo messageStore
	userRepo    userReader
	usage       sendGuard
}

type ChatDelivery struct {
	Thread      *models.Thread
	Message     *models.Message
	RecipientID int64
	Duplicate   bool
}

func NewChatService(
	db *pgxpool.Pool,
	threadRepo threadStore,
	messageRepo messageStore,
	userRepo userReader,
	usage sendGuard,
) *ChatService {
	return &ChatService{
		db:          db,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		usage:       usage,
	}
}

type ThreadFilter string

const (
	FilterAll      ThreadFilter = "all"
	FilterUnread   ThreadFilter = "unread"
	FilterArchived ThreadFilter = "archived"
	FilterSupport  ThreadFilter = "support"
)

// ParseThreadFilter maps the query value to a filter. Exactly one category
// filter is active at a time; an empty value means "all".
func ParseThreadFilter(raw string) (ThreadFilter, bool) {
	switch ThreadFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterUnread:
		return FilterUnread, true
	case FilterArchived:
		return FilterArchived, true
	case FilterSupport:
		return FilterSupport, true
	default:
		return FilterAll, false
	}
}

type ThreadListQuery struct {
	Filter ThreadFilter
	Search string
}

func (s *ChatService) ListThreads(
	ctx context.Context,
	actorID int64,
	role string,
	query ThreadListQuery,
) ([]models.ThreadSummary, error) {
	if !models.IsChatRole(role) {
		return nil, ErrForbidden
	}

	summaries, err := s.threadRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	summaries = filterThreads(summaries, query.Filter)
	summaries = searchThreads(summaries, query.Search)
	sortThreads(summaries)

	return summaries, nil
}

// filterThreads applies the single active category filter. Every filter
// except "archived" hides archived threads; archiving is terminal.
func filterThreads(summaries []models.ThreadSummary, filter ThreadFilter) []models.ThreadSummary {
	kept := make([]models.ThreadSummary, 0, len(summaries))
	for _, summary := range summaries {
		switch filter {
		case FilterArchived:
			if !summary.Archived {
				continue
			}
		case FilterUnread:
			if summary.Archived || summary.UnreadCount == 0 {
				continue
			}
		case FilterSupport:
			if summary.Archived || summary.Counterpart.Role != models.RoleSupport {
				continue
			}
		default:
			if summary.Archived {
				continue
			}
		}
		kept = append(kept, summary)
	}
	return kept
}

// searchThreads keeps threads whose counterpart name or last message preview
// contains the term, case-insensitively.
func searchThreads(summaries []models.ThreadSummary, term string) []models.ThreadSummary {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return summaries
	}

	kept := make([]models.ThreadSummary, 0, len(summaries))
	for _, summary := range summaries {
		if strings.Contains(strings.ToLower(summary.CounterpartName), term) {
			kept = append(kept, summary)
			continue
		}
		if summary.LastMessage != nil &&
			strings.Contains(strings.ToLower(summary.LastMessage.Content), term) {
			kept = append(kept, summary)
		}
	}
	return kept
}

// sortThreads orders pinned threads first, then threads with unread messages,
// then by last activity, most recent first. The sort is stable so equal
// threads keep their repository order.
func sortThreads(summaries []models.ThreadSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Pinned != summaries[j].Pinned {
			return summaries[i].Pinned
		}
		iUnread := summaries[i].UnreadCount > 0
		jUnread := summaries[j].UnreadCount > 0
		if iUnread != jUnread {
			return iUnread
		}
		return summaries[i].LastMessageAt().After(summaries[j].LastMessageAt())
	})
}

// CreateThread opens (or returns) the conversation between a student and an
// instructor. Support agents may open a thread with anyone; instructors only
// reply to threads opened with them.
func (s *ChatService) CreateThread(
	ctx context.Context,
	actorID int64,
	role string,
	otherID int64,
) (*models.Thread, error) {
	if role != models.RoleStudent && role != models.RoleSupport {
		return nil, ErrForbidden
	}
	if otherID <= 0 || otherID == actorID {
		return nil, ErrInvalidInput
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstructorNotFound
		}
		return nil, err
	}
	if role == models.RoleStudent && other.Role != models.RoleInstructor && other.Role != models.RoleSupport {
		return nil, ErrInvalidInput
	}

	return s.threadRepo.CreateOrGet(ctx, actorID, otherID)
}

func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
	threadID int64,
	page int,
	limit int,
) ([]models.Message, int, error) {
	if !models.IsChatRole(role) {
		return nil, 0, ErrForbidden
	}
	if threadID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	_, err := s.threadRepo.GetByIDForParticipant(ctx, threadID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, pgx.ErrNoRows
		}
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)

	messages, total, err := txMessageRepo.ListByThread(
		ctx,
		threadID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}

	// Opening the thread reads it: counterpart messages flip to read.
	if err := txMessageRepo.MarkThreadRead(ctx, threadID, actorID); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].IsRead = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	threadID int64,
	content string,
	clientKey *uuid.UUID,
) (*ChatDelivery, error) {
	if !models.IsChatRole(role) {
		return nil, ErrForbidden
	}
	if threadID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	thread, err := s.threadRepo.GetByIDForParticipant(ctx, threadID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	if role == models.RoleInstructor {
		if err := s.usage.CheckSendAllowed(ctx, actorID, threadID); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txThreadRepo := repository.NewThreadRepository(tx)

	message, duplicate, err := txMessageRepo.Create(ctx, threadID, actorID, trimmed, clientKey)
	if err != nil {
		return nil, err
	}

	if !duplicate {
		if err := txThreadRepo.Touch(ctx, threadID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{
		Thread:      thread,
		Message:     message,
		RecipientID: thread.CounterpartOf(actorID),
		Duplicate:   duplicate,
	}, nil
}

// VerifyParticipant reports whether the actor belongs to the thread. The
// realtime bridge checks this before accepting a channel subscription.
func (s *ChatService) VerifyParticipant(ctx context.Context, actorID int64, threadID int64) error {
	if threadID <= 0 {
		return ErrInvalidInput
	}
	_, err := s.threadRepo.GetByIDForParticipant(ctx, threadID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	return nil
}

func (s *ChatService) MarkThreadRead(
	ctx context.Context,
	actorID int64,
	role string,
	threadID int64,
) error {
	if !models.IsChatRole(role) {
		return ErrForbidden
	}
	if threadID <= 0 {
		return ErrInvalidInput
	}

	_, err := s.threadRepo.GetByIDForParticipant(ctx, threadID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return err
	}

	return s.messageRepo.MarkThreadRead(ctx, threadID, actorID)
}

func (s *ChatService) UpdateThreadState(
	ctx context.Context,
	actorID int64,
	role string,
	threadID int64,
	update repository.ThreadStateUpdate,
) (*models.ThreadState, error) {
	if !models.IsChatRole(role) {
		return nil, ErrForbidden
	}
	if threadID <= 0 {
		return nil, ErrInvalidInput
	}
	if update.Pinned == nil && update.Archived == nil && update.Muted == nil {
		return nil, ErrInvalidInput
	}

	_, err := s.threadRepo.GetByIDForParticipant(ctx, threadID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}

	return s.threadRepo.UpdateState(ctx, threadID, actorID, update)
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
