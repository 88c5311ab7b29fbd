package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
)

type stubThreadStore struct {
	summaries    []models.ThreadSummary
	thread       *models.Thread
	getErr       error
	createResult *models.Thread
	createErr    error
	lastUserID   int64
	lastOtherID  int64
}

func (s *stubThreadStore) CreateOrGet(_ context.Context, userID int64, otherID int64) (*models.Thread, error) {
	s.lastUserID = userID
	s.lastOtherID = otherID
	return s.createResult, s.createErr
}

func (s *stubThreadStore) GetByIDForParticipant(_ context.Context, _ int64, _ int64) (*models.Thread, error) {
	return s.thread, s.getErr
}

func (s *stubThreadStore) ListForParticipant(_ context.Context, _ int64) ([]models.ThreadSummary, error) {
	return s.summaries, nil
}

func (s *stubThreadStore) UpdateState(_ context.Context, threadID int64, userID int64, update repository.ThreadStateUpdate) (*models.ThreadState, error) {
	state := &models.ThreadState{ThreadID: threadID, UserID: userID}
	if update.Pinned != nil {
		state.Pinned = *update.Pinned
	}
	if update.Archived != nil {
		state.Archived = *update.Archived
	}
	if update.Muted != nil {
		state.Muted = *update.Muted
	}
	return state, nil
}

type stubMessageStore struct {
	markCalls int
	markErr   error
}

func (s *stubMessageStore) MarkThreadRead(_ context.Context, _ int64, _ int64) error {
	s.markCalls++
	return s.markErr
}

type stubUserReader struct {
	user *models.User
	err  error
}

func (s *stubUserReader) GetByID(_ context.Context, _ int64) (*models.User, error) {
	return s.user, s.err
}

type stubSendGuard struct {
	err error
}

func (s *stubSendGuard) CheckSendAllowed(_ context.Context, _ int64, _ int64) error {
	return s.err
}

func newListService(summaries []models.ThreadSummary) *ChatService {
	return NewChatService(nil, &stubThreadStore{summaries: summaries}, &stubMessageStore{}, &stubUserReader{}, &stubSendGuard{})
}

func summaryAt(id int64, name string, pinned bool, archived bool, unread int, lastContent string, lastAt time.Time) models.ThreadSummary {
	summary := models.ThreadSummary{
		Thread:          models.Thread{ID: id, UpdatedAt: lastAt},
		Counterpart:     models.RoleInfo{Role: models.RoleInstructor, Label: "Instrutor"},
		CounterpartName: name,
		UnreadCount:     unread,
		Pinned:          pinned,
		Archived:        archived,
	}
	if lastContent != "" {
		summary.LastMessage = &models.Message{ThreadID: id, Content: lastContent, CreatedAt: lastAt}
	}
	return summary
}

func TestListThreadsUnreadFilterExcludesReadAndArchived(t *testing.T) {
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(1, "Ana", false, false, 2, "oi", base),
		summaryAt(2, "Bruno", false, false, 0, "tudo bem", base.Add(time.Minute)),
		summaryAt(3, "Clara", false, true, 5, "arquivada", base.Add(2*time.Minute)),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{Filter: FilterUnread})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != 1 {
		t.Fatalf("expected only thread 1, got %+v", threads)
	}
}

func TestListThreadsArchivedFilterShowsOnlyArchived(t *testing.T) {
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(1, "Ana", true, false, 2, "oi", base),
		summaryAt(2, "Bruno", false, true, 0, "guardada", base),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{Filter: FilterArchived})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != 2 {
		t.Fatalf("expected only archived thread 2, got %+v", threads)
	}
}

func TestListThreadsSortsPinnedThenUnreadThenRecency(t *testing.T) {
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(1, "Ana", false, false, 0, "lida antiga", base),
		summaryAt(2, "Bruno", false, false, 3, "nao lida antiga", base.Add(-time.Hour)),
		summaryAt(3, "Clara", false, false, 0, "lida recente", base.Add(time.Hour)),
		summaryAt(4, "Davi", true, false, 0, "fixada", base.Add(-2*time.Hour)),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{Filter: FilterAll})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}

	var order []int64
	for _, thread := range threads {
		order = append(order, thread.ID)
	}
	want := []int64{4, 2, 3, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestListThreadsSortIsStableForEqualKeys(t *testing.T) {
	at := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(7, "Ana", false, false, 1, "a", at),
		summaryAt(8, "Bruno", false, false, 1, "b", at),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if threads[0].ID != 7 || threads[1].ID != 8 {
		t.Fatalf("expected stable order 7,8, got %d,%d", threads[0].ID, threads[1].ID)
	}
}

func TestListThreadsSearchIsCaseInsensitive(t *testing.T) {
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(1, "João Silva", false, false, 0, "bom dia", base),
		summaryAt(2, "Maria Souza", false, false, 0, "boa tarde", base),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{Search: "joão"})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 || threads[0].CounterpartName != "João Silva" {
		t.Fatalf("expected João Silva, got %+v", threads)
	}
}

func TestListThreadsSearchMatchesLastMessagePreview(t *testing.T) {
	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	service := newListService([]models.ThreadSummary{
		summaryAt(1, "Ana", false, false, 0, "Aula de Baliza amanhã", base),
		summaryAt(2, "Bruno", false, false, 0, "ok", base),
	})

	threads, err := service.ListThreads(context.Background(), 42, models.RoleStudent, ThreadListQuery{Search: "baliza"})
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 1 || threads[0].ID != 1 {
		t.Fatalf("expected thread 1, got %+v", threads)
	}
}

func TestParseThreadFilterAcceptsOneCategoryAtATime(t *testing.T) {
	cases := map[string]ThreadFilter{
		"":         FilterAll,
		"all":      FilterAll,
		"unread":   FilterUnread,
		"Archived": FilterArchived,
		"support":  FilterSupport,
	}
	for raw, want := range cases {
		got, ok := ParseThreadFilter(raw)
		if !ok || got != want {
			t.Fatalf("ParseThreadFilter(%q) = %v, %v", raw, got, ok)
		}
	}
	if _, ok := ParseThreadFilter("unread,archived"); ok {
		t.Fatal("expected combined filter value to be rejected")
	}
}

func TestCreateThreadRejectsInstructorInitiation(t *testing.T) {
	service := NewChatService(nil, &stubThreadStore{}, &stubMessageStore{}, &stubUserReader{}, &stubSendGuard{})

	_, err := service.CreateThread(context.Background(), 7, models.RoleInstructor, 42)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateThreadRejectsStudentToStudent(t *testing.T) {
	users := &stubUserReader{user: &models.User{ID: 9, Role: models.RoleStudent}}
	service := NewChatService(nil, &stubThreadStore{}, &stubMessageStore{}, users, &stubSendGuard{})

	_, err := service.CreateThread(context.Background(), 42, models.RoleStudent, 9)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateThreadMapsMissingCounterpart(t *testing.T) {
	users := &stubUserReader{err: pgx.ErrNoRows}
	service := NewChatService(nil, &stubThreadStore{}, &stubMessageStore{}, users, &stubSendGuard{})

	_, err := service.CreateThread(context.Background(), 42, models.RoleStudent, 99)
	if !errors.Is(err, ErrInstructorNotFound) {
		t.Fatalf("expected ErrInstructorNotFound, got %v", err)
	}
}

func TestCreateThreadReturnsExistingPair(t *testing.T) {
	threadStore := &stubThreadStore{
		createResult: &models.Thread{ID: 5, UserAID: 8, UserBID: 42},
	}
	users := &stubUserReader{user: &models.User{ID: 8, Role: models.RoleInstructor}}
	service := NewChatService(nil, threadStore, &stubMessageStore{}, users, &stubSendGuard{})

	thread, err := service.CreateThread(context.Background(), 42, models.RoleStudent, 8)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ID != 5 || threadStore.lastUserID != 42 || threadStore.lastOtherID != 8 {
		t.Fatalf("unexpected thread %+v (forwarded %d->%d)", thread, threadStore.lastUserID, threadStore.lastOtherID)
	}
}

func TestMarkThreadReadIsIdempotent(t *testing.T) {
	messages := &stubMessageStore{}
	threadStore := &stubThreadStore{thread: &models.Thread{ID: 3, UserAID: 7, UserBID: 42}}
	service := NewChatService(nil, threadStore, messages, &stubUserReader{}, &stubSendGuard{})

	for i := 0; i < 2; i++ {
		if err := service.MarkThreadRead(context.Background(), 42, models.RoleStudent, 3); err != nil {
			t.Fatalf("MarkThreadRead call %d: %v", i+1, err)
		}
	}
	if messages.markCalls != 2 {
		t.Fatalf("expected 2 repo calls, got %d", messages.markCalls)
	}
}

func TestMarkThreadReadRejectsNonParticipant(t *testing.T) {
	threadStore := &stubThreadStore{getErr: pgx.ErrNoRows}
	service := NewChatService(nil, threadStore, &stubMessageStore{}, &stubUserReader{}, &stubSendGuard{})

	err := service.MarkThreadRead(context.Background(), 99, models.RoleStudent, 3)
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestUpdateThreadStateRequiresAtLeastOneField(t *testing.T) {
	service := NewChatService(nil, &stubThreadStore{}, &stubMessageStore{}, &stubUserReader{}, &stubSendGuard{})

	_, err := service.UpdateThreadState(context.Background(), 42, models.RoleStudent, 3, repository.ThreadStateUpdate{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyParticipantMapsMissingThreadToForbidden(t *testing.T) {
	threadStore := &stubThreadStore{getErr: pgx.ErrNoRows}
	service := NewChatService(nil, threadStore, &stubMessageStore{}, &stubUserReader{}, &stubSendGuard{})

	if err := service.VerifyParticipant(context.Background(), 42, 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
