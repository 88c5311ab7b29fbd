package services

import (
	"context"

	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
)

type studentProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateStudentProfileInput) (*models.StudentProfile, error)
}

type instructorProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.InstructorProfile, error)
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateInstructorProfileInput) (*models.InstructorProfile, error)
}

type ProfileService struct {
	studentProfileRepo    studentProfileStore
	instructorProfileRepo instructorProfileStore
}

func NewProfileService(
	studentProfileRepo studentProfileStore,
	instructorProfileRepo instructorProfileStore,
) *ProfileService {
	return &ProfileService{
		studentProfileRepo:    studentProfileRepo,
		instructorProfileRepo: instructorProfileRepo,
	}
}

func (s *ProfileService) IsStudentOnboarded(ctx context.Context, userID int64) (bool, error) {
	profile, err := s.studentProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.OnboardingComplete, nil
}

func (s *ProfileService) UpdateStudentProfile(ctx context.Context, userID int64, req repository.UpdateStudentProfileInput) (*models.StudentProfile, error) {
	return s.studentProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) UpdateInstructorProfile(ctx context.Context, userID int64, req repository.UpdateInstructorProfileInput) (*models.InstructorProfile, error) {
	return s.instructorProfileRepo.UpdatePartial(ctx, userID, req)
}

func (s *ProfileService) InstructorStatus(ctx context.Context, userID int64) (string, error) {
	profile, err := s.instructorProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return ProfileStatusOf(profile), nil
}

// ProfileStatusOf derives the onboarding-banner status the frontend shows:
// incomplete until the wizard finishes, then pending review until a verdict.
func ProfileStatusOf(profile *models.InstructorProfile) string {
	if profile == nil || !profile.OnboardingComplete {
		return models.ProfileStatusIncomplete
	}
	switch profile.ReviewStatus {
	case models.ReviewApproved:
		return models.ProfileStatusApproved
	case models.ReviewRejected:
		return models.ProfileStatusRejected
	default:
		return models.ProfileStatusInReview
	}
}
