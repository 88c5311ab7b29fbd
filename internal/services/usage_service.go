package services

import (
	"context"
	"time"

	"github.com/viabetel/via-betel-api/internal/models"
)

type subscriptionReader interface {
	GetCurrentForInstructor(ctx context.Context, instructorID int64) (*models.Subscription, error)
}

type usageCounter interface {
	CountConversations(ctx context.Context, instructorID int64, periodStart time.Time) (int, error)
	HasSentInThread(ctx context.Context, instructorID int64, threadID int64, periodStart time.Time) (bool, error)
}

// UsageService is the authoritative side of the free-plan conversation quota.
// A conversation counts once the instructor writes into it during the
// calendar month; the quota renews at the start of the next month (UTC).
type UsageService struct {
	subscriptionRepo  subscriptionReader
	usageRepo         usageCounter
	limit             int
	nearLimitFraction float64
	now               func() time.Time
}

func NewUsageService(
	subscriptionRepo subscriptionReader,
	usageRepo usageCounter,
	limit int,
	nearLimitFraction float64,
) *UsageService {
	return &UsageService{
		subscriptionRepo:  subscriptionRepo,
		usageRepo:         usageRepo,
		limit:             limit,
		nearLimitFraction: nearLimitFraction,
		now:               time.Now,
	}
}

func (s *UsageService) GetUsage(ctx context.Context, instructorID int64) (*models.ChatUsage, error) {
	now := s.now().UTC()
	periodStart := monthStart(now)

	subscription, err := s.subscriptionRepo.GetCurrentForInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	used, err := s.usageRepo.CountConversations(ctx, instructorID, periodStart)
	if err != nil {
		return nil, err
	}

	hasActivePlan := subscription.IsActive(now)
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.ChatUsage{
		HasActivePlan:     hasActivePlan,
		UsedConversations: used,
		Limit:             s.limit,
		Remaining:         remaining,
		RenewsAt:          periodStart.AddDate(0, 1, 0),
		IsNearLimit:       !hasActivePlan && remaining <= s.nearLimitThreshold(),
	}, nil
}

// CheckSendAllowed gates a send by a free-plan instructor. Conversations the
// instructor already wrote into this month stay open after the quota is
// exhausted; only new conversations are blocked.
func (s *UsageService) CheckSendAllowed(ctx context.Context, instructorID int64, threadID int64) error {
	usage, err := s.GetUsage(ctx, instructorID)
	if err != nil {
		return err
	}
	if usage.HasActivePlan || usage.Remaining > 0 {
		return nil
	}

	counted, err := s.usageRepo.HasSentInThread(ctx, instructorID, threadID, monthStart(s.now().UTC()))
	if err != nil {
		return err
	}
	if counted {
		return nil
	}

	return &FreeLimitError{Used: usage.UsedConversations, Limit: usage.Limit}
}

func (s *UsageService) nearLimitThreshold() int {
	threshold := int(float64(s.limit) * s.nearLimitFraction)
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// FormatRenewalDate renders the quota renewal instant the way the frontend
// displays it.
func FormatRenewalDate(t time.Time) string {
	return t.Format("02/01/2006")
}
