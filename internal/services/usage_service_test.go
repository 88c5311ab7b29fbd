package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viabetel/via-betel-api/internal/models"
)

type stubSubscriptionReader struct {
	subscription *models.Subscription
	err          error
}

func (s *stubSubscriptionReader) GetCurrentForInstructor(_ context.Context, _ int64) (*models.Subscription, error) {
	return s.subscription, s.err
}

type stubUsageCounter struct {
	used        int
	sentInGiven bool
	lastThread  int64
	lastPeriod  time.Time
}

func (s *stubUsageCounter) CountConversations(_ context.Context, _ int64, periodStart time.Time) (int, error) {
	s.lastPeriod = periodStart
	return s.used, nil
}

func (s *stubUsageCounter) HasSentInThread(_ context.Context, _ int64, threadID int64, _ time.Time) (bool, error) {
	s.lastThread = threadID
	return s.sentInGiven, nil
}

func newUsageService(subscription *models.Subscription, used int, limit int) (*UsageService, *stubUsageCounter) {
	counter := &stubUsageCounter{used: used}
	service := NewUsageService(&stubSubscriptionReader{subscription: subscription}, counter, limit, 0.2)
	service.now = func() time.Time {
		return time.Date(2026, 4, 18, 15, 30, 0, 0, time.UTC)
	}
	return service, counter
}

func activeSubscription() *models.Subscription {
	return &models.Subscription{
		Plan:             models.PlanPro,
		Status:           models.SubscriptionActive,
		CurrentPeriodEnd: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetUsageCountsAgainstCalendarMonth(t *testing.T) {
	service, counter := newUsageService(nil, 4, 10)

	usage, err := service.GetUsage(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}

	wantStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if !counter.lastPeriod.Equal(wantStart) {
		t.Fatalf("expected period start %v, got %v", wantStart, counter.lastPeriod)
	}
	if usage.UsedConversations != 4 || usage.Remaining != 6 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if !usage.RenewsAt.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected renewal on May 1st, got %v", usage.RenewsAt)
	}
}

func TestGetUsageClampsRemainingAtZero(t *testing.T) {
	service, _ := newUsageService(nil, 13, 10)

	usage, err := service.GetUsage(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if usage.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", usage.Remaining)
	}
	if usage.UsedConversations != 13 {
		t.Fatalf("expected used 13, got %d", usage.UsedConversations)
	}
}

func TestGetUsageNearLimitFlag(t *testing.T) {
	cases := []struct {
		name string
		used int
		want bool
	}{
		{"far from limit", 3, false},
		{"at threshold", 8, true},
		{"exhausted", 10, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := newUsageService(nil, tc.used, 10)
			usage, err := service.GetUsage(context.Background(), 7)
			if err != nil {
				t.Fatalf("GetUsage: %v", err)
			}
			if usage.IsNearLimit != tc.want {
				t.Fatalf("used=%d: expected IsNearLimit=%v, got %v", tc.used, tc.want, usage.IsNearLimit)
			}
		})
	}
}

func TestGetUsageActivePlanNeverNearLimit(t *testing.T) {
	service, _ := newUsageService(activeSubscription(), 10, 10)

	usage, err := service.GetUsage(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if !usage.HasActivePlan || usage.IsNearLimit {
		t.Fatalf("expected active plan without near-limit flag, got %+v", usage)
	}
}

func TestCheckSendAllowedWithinQuota(t *testing.T) {
	service, _ := newUsageService(nil, 9, 10)

	if err := service.CheckSendAllowed(context.Background(), 7, 3); err != nil {
		t.Fatalf("expected send allowed, got %v", err)
	}
}

func TestCheckSendAllowedActivePlanBypassesQuota(t *testing.T) {
	service, _ := newUsageService(activeSubscription(), 25, 10)

	if err := service.CheckSendAllowed(context.Background(), 7, 3); err != nil {
		t.Fatalf("expected active plan to bypass quota, got %v", err)
	}
}

func TestCheckSendAllowedKeepsCountedConversationsOpen(t *testing.T) {
	service, counter := newUsageService(nil, 10, 10)
	counter.sentInGiven = true

	if err := service.CheckSendAllowed(context.Background(), 7, 3); err != nil {
		t.Fatalf("expected counted conversation to stay open, got %v", err)
	}
	if counter.lastThread != 3 {
		t.Fatalf("expected thread 3 to be checked, got %d", counter.lastThread)
	}
}

func TestCheckSendAllowedBlocksNewConversationAtLimit(t *testing.T) {
	service, _ := newUsageService(nil, 10, 10)

	err := service.CheckSendAllowed(context.Background(), 7, 3)
	if !errors.Is(err, ErrFreeLimitReached) {
		t.Fatalf("expected ErrFreeLimitReached, got %v", err)
	}

	var limitErr *FreeLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected FreeLimitError, got %T", err)
	}
	if limitErr.Used != 10 || limitErr.Limit != 10 {
		t.Fatalf("unexpected limit error: %+v", limitErr)
	}
}

func TestExpiredSubscriptionDoesNotBypassQuota(t *testing.T) {
	expired := &models.Subscription{
		Plan:             models.PlanPro,
		Status:           models.SubscriptionActive,
		CurrentPeriodEnd: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	service, _ := newUsageService(expired, 10, 10)

	err := service.CheckSendAllowed(context.Background(), 7, 3)
	if !errors.Is(err, ErrFreeLimitReached) {
		t.Fatalf("expected ErrFreeLimitReached for lapsed plan, got %v", err)
	}
}

func TestFormatRenewalDateUsesBrazilianLayout(t *testing.T) {
	renewsAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatRenewalDate(renewsAt); got != "01/05/2026" {
		t.Fatalf("expected 01/05/2026, got %q", got)
	}
}
