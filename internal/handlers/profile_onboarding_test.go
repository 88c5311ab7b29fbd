package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
)

type stubStudentProfileRepo struct {
	profile             *models.StudentProfile
	lastOnboardingInput repository.StudentOnboardingInput
	lastUpdatePartial   repository.UpdateStudentProfileInput
}

func (s *stubStudentProfileRepo) GetByUserID(_ context.Context, _ int64) (*models.StudentProfile, error) {
	return s.profile, nil
}

func (s *stubStudentProfileRepo) UpdateOnboarding(_ context.Context, _ int64, req repository.StudentOnboardingInput) (*models.StudentProfile, error) {
	s.lastOnboardingInput = req
	if s.profile == nil {
		s.profile = &models.StudentProfile{}
	}
	s.profile.FullName = &req.FullName
	s.profile.City = &req.City
	s.profile.LicenseCategory = &req.LicenseCategory
	s.profile.MaxLessonPrice = &req.MaxLessonPrice
	s.profile.PreferredSchedule = &req.PreferredSchedule
	s.profile.OnboardingComplete = true
	return s.profile, nil
}

func (s *stubStudentProfileRepo) UpdatePartial(_ context.Context, _ int64, req repository.UpdateStudentProfileInput) (*models.StudentProfile, error) {
	s.lastUpdatePartial = req
	if s.profile == nil {
		s.profile = &models.StudentProfile{}
	}
	if req.City != nil {
		s.profile.City = req.City
	}
	if req.MaxLessonPrice != nil {
		s.profile.MaxLessonPrice = req.MaxLessonPrice
	}
	return s.profile, nil
}

type stubInstructorProfileRepo struct {
	profile             *models.InstructorProfile
	lastOnboardingInput repository.InstructorOnboardingInput
	lastUpdatePartial   repository.UpdateInstructorProfileInput
}

func (s *stubInstructorProfileRepo) GetByUserID(_ context.Context, _ int64) (*models.InstructorProfile, error) {
	return s.profile, nil
}

func (s *stubInstructorProfileRepo) UpdateOnboarding(_ context.Context, _ int64, req repository.InstructorOnboardingInput) (*models.InstructorProfile, error) {
	s.lastOnboardingInput = req
	if s.profile == nil {
		s.profile = &models.InstructorProfile{}
	}
	s.profile.FullName = &req.FullName
	s.profile.Bio = &req.Bio
	s.profile.City = &req.City
	s.profile.LicenseCategories = &req.LicenseCategories
	s.profile.CredentialID = &req.CredentialID
	s.profile.ExperienceYears = &req.ExperienceYears
	s.profile.LessonPrice = &req.LessonPrice
	s.profile.ReviewStatus = models.ReviewPending
	s.profile.OnboardingComplete = true
	return s.profile, nil
}

func (s *stubInstructorProfileRepo) UpdatePartial(_ context.Context, _ int64, req repository.UpdateInstructorProfileInput) (*models.InstructorProfile, error) {
	s.lastUpdatePartial = req
	if s.profile == nil {
		s.profile = &models.InstructorProfile{}
	}
	if req.LessonPrice != nil {
		s.profile.LessonPrice = req.LessonPrice
	}
	return s.profile, nil
}

func newProfileApp(role string, userID string, register func(*fiber.App)) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	register(app)
	return app
}

func TestStudentOnboardingNormalizesCategory(t *testing.T) {
	studentRepo := &stubStudentProfileRepo{}
	handler := NewOnboardingHandler(studentRepo, &stubInstructorProfileRepo{})
	app := newProfileApp("student", "42", func(app *fiber.App) {
		app.Post("/api/v1/students/onboarding", handler.StudentOnboarding)
	})

	payload := `{"full_name":"João Silva","city":"Campinas","license_category":" b ","max_lesson_price":120,"preferred_schedule":["manha"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/onboarding", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if studentRepo.lastOnboardingInput.LicenseCategory != "B" {
		t.Fatalf("expected normalized category B, got %q", studentRepo.lastOnboardingInput.LicenseCategory)
	}

	var body struct {
		OnboardingComplete bool `json:"onboarding_complete"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.OnboardingComplete {
		t.Fatal("expected onboarding_complete true")
	}
}

func TestStudentOnboardingRejectsUnknownCategory(t *testing.T) {
	handler := NewOnboardingHandler(&stubStudentProfileRepo{}, &stubInstructorProfileRepo{})
	app := newProfileApp("student", "42", func(app *fiber.App) {
		app.Post("/api/v1/students/onboarding", handler.StudentOnboarding)
	})

	payload := `{"full_name":"João","city":"Campinas","license_category":"Z","max_lesson_price":120}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/onboarding", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStudentOnboardingRejectsInstructorRole(t *testing.T) {
	handler := NewOnboardingHandler(&stubStudentProfileRepo{}, &stubInstructorProfileRepo{})
	app := newProfileApp("instructor", "7", func(app *fiber.App) {
		app.Post("/api/v1/students/onboarding", handler.StudentOnboarding)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/onboarding", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestInstructorOnboardingEntersReview(t *testing.T) {
	instructorRepo := &stubInstructorProfileRepo{}
	handler := NewOnboardingHandler(&stubStudentProfileRepo{}, instructorRepo)
	app := newProfileApp("instructor", "7", func(app *fiber.App) {
		app.Post("/api/v1/instructors/onboarding", handler.InstructorOnboarding)
	})

	payload := `{"full_name":"Carlos Souza","bio":"Instrutor ha 10 anos","city":"Santos","license_categories":["ab"],"credential_id":"SP-123456","experience_years":10,"lesson_price":90}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/instructors/onboarding", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := instructorRepo.lastOnboardingInput.LicenseCategories; len(got) != 1 || got[0] != "AB" {
		t.Fatalf("expected normalized categories [AB], got %v", got)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != models.ProfileStatusInReview {
		t.Fatalf("expected status %s, got %q", models.ProfileStatusInReview, body.Status)
	}
}

func TestInstructorOnboardingRequiresCredential(t *testing.T) {
	handler := NewOnboardingHandler(&stubStudentProfileRepo{}, &stubInstructorProfileRepo{})
	app := newProfileApp("instructor", "7", func(app *fiber.App) {
		app.Post("/api/v1/instructors/onboarding", handler.InstructorOnboarding)
	})

	payload := `{"full_name":"Carlos","bio":"bio","city":"Santos","license_categories":["B"],"experience_years":2,"lesson_price":90}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/instructors/onboarding", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetProfileStatusReflectsReviewOutcome(t *testing.T) {
	cases := []struct {
		name    string
		profile *models.InstructorProfile
		want    string
	}{
		{"no profile row", nil, models.ProfileStatusIncomplete},
		{"wizard unfinished", &models.InstructorProfile{}, models.ProfileStatusIncomplete},
		{"pending review", &models.InstructorProfile{OnboardingComplete: true, ReviewStatus: models.ReviewPending}, models.ProfileStatusInReview},
		{"approved", &models.InstructorProfile{OnboardingComplete: true, ReviewStatus: models.ReviewApproved}, models.ProfileStatusApproved},
		{"rejected", &models.InstructorProfile{OnboardingComplete: true, ReviewStatus: models.ReviewRejected}, models.ProfileStatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			studentRepo := &stubStudentProfileRepo{}
			instructorRepo := &stubInstructorProfileRepo{profile: tc.profile}
			profileService := services.NewProfileService(studentRepo, instructorRepo)
			handler := NewProfileHandler(profileService, studentRepo, instructorRepo)
			app := newProfileApp("instructor", "7", func(app *fiber.App) {
				app.Get("/instrutor/api/profile-status", handler.GetProfileStatus)
			})

			req := httptest.NewRequest(http.MethodGet, "/instrutor/api/profile-status", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if body.Status != tc.want {
				t.Fatalf("expected status %s, got %q", tc.want, body.Status)
			}
		})
	}
}

func TestUpdateInstructorProfileForwardsPartialFields(t *testing.T) {
	instructorRepo := &stubInstructorProfileRepo{
		profile: &models.InstructorProfile{OnboardingComplete: true, ReviewStatus: models.ReviewApproved},
	}
	studentRepo := &stubStudentProfileRepo{}
	profileService := services.NewProfileService(studentRepo, instructorRepo)
	handler := NewProfileHandler(profileService, studentRepo, instructorRepo)
	app := newProfileApp("instructor", "7", func(app *fiber.App) {
		app.Put("/api/v1/instructors/profile", handler.UpdateInstructorProfile)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/instructors/profile", strings.NewReader(`{"lesson_price":110}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if instructorRepo.lastUpdatePartial.LessonPrice == nil || *instructorRepo.lastUpdatePartial.LessonPrice != 110 {
		t.Fatalf("expected lesson_price 110 forwarded, got %+v", instructorRepo.lastUpdatePartial)
	}
	if instructorRepo.lastUpdatePartial.Bio != nil {
		t.Fatalf("expected untouched fields to stay nil, got %+v", instructorRepo.lastUpdatePartial)
	}
}
