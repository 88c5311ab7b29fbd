package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/viabetel/via-betel-api/internal/models"
	"github.com/viabetel/via-betel-api/internal/repository"
)

type stubInstructorDirectory struct {
	instructors []models.InstructorProfile
	total       int
	detail      *models.InstructorProfile
	detailErr   error
	lastFilter  repository.InstructorListFilter
}

func (s *stubInstructorDirectory) List(_ context.Context, filter repository.InstructorListFilter) ([]models.InstructorProfile, int, error) {
	s.lastFilter = filter
	return s.instructors, s.total, nil
}

func (s *stubInstructorDirectory) GetByUserID(_ context.Context, _ int64) (*models.InstructorProfile, error) {
	return s.detail, s.detailErr
}

type stubStudentDirectory struct {
	profile *models.StudentProfile
	err     error
}

func (s *stubStudentDirectory) GetByUserID(_ context.Context, _ int64) (*models.StudentProfile, error) {
	return s.profile, s.err
}

type stubMatchmaker struct {
	matched   []models.InstructorWithScore
	lastLimit int
}

func (s *stubMatchmaker) GetMatchedInstructors(_ context.Context, _ *models.StudentProfile, limit int) ([]models.InstructorWithScore, error) {
	s.lastLimit = limit
	return s.matched, nil
}

func approvedInstructor(userID int64, name string, city string, price float64) models.InstructorProfile {
	categories := []string{"B"}
	rating := 4.7
	years := 5
	return models.InstructorProfile{
		UserID:             userID,
		FullName:           &name,
		City:               &city,
		LicenseCategories:  &categories,
		Rating:             &rating,
		ExperienceYears:    &years,
		LessonPrice:        &price,
		ReviewStatus:       models.ReviewApproved,
		OnboardingComplete: true,
	}
}

func newDiscoveryApp(handler *InstructorDiscoveryHandler, role string, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/instructors", handler.ListInstructors)
	app.Get("/api/v1/instructors/recommended", handler.GetRecommendedInstructors)
	app.Get("/api/v1/instructors/:id", handler.GetInstructorDetail)
	return app
}

func TestListInstructorsForwardsDirectoryFilters(t *testing.T) {
	directory := &stubInstructorDirectory{
		instructors: []models.InstructorProfile{approvedInstructor(7, "Carlos Souza", "Campinas", 90)},
		total:       1,
	}
	handler := NewInstructorDiscoveryHandler(directory, &stubStudentDirectory{}, &stubMatchmaker{})
	app := newDiscoveryApp(handler, "student", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instructors?city=Campinas&category=b&min_rating=4&max_price=100&search=carlos", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	filter := directory.lastFilter
	if filter.City != "Campinas" || filter.LicenseCategory != "B" || filter.MinRating != 4 || filter.MaxPrice != 100 {
		t.Fatalf("unexpected forwarded filter: %+v", filter)
	}
	if !filter.OnlyApproved {
		t.Fatal("expected directory to request approved instructors only")
	}

	var body struct {
		Instructors []models.InstructorListResponse `json:"instructors"`
		Pagination  models.PaginationMeta           `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Instructors) != 1 || body.Instructors[0].FullName != "Carlos Souza" {
		t.Fatalf("unexpected instructors: %+v", body.Instructors)
	}
	if body.Pagination.Total != 1 {
		t.Fatalf("unexpected pagination: %+v", body.Pagination)
	}
}

func TestListInstructorsRejectsMalformedRating(t *testing.T) {
	handler := NewInstructorDiscoveryHandler(&stubInstructorDirectory{}, &stubStudentDirectory{}, &stubMatchmaker{})
	app := newDiscoveryApp(handler, "student", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instructors?min_rating=abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetRecommendedInstructorsRequiresStudentRole(t *testing.T) {
	handler := NewInstructorDiscoveryHandler(&stubInstructorDirectory{}, &stubStudentDirectory{}, &stubMatchmaker{})
	app := newDiscoveryApp(handler, "instructor", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instructors/recommended", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetRecommendedInstructorsIncludesMatchScore(t *testing.T) {
	matchmaker := &stubMatchmaker{
		matched: []models.InstructorWithScore{
			{InstructorProfile: approvedInstructor(7, "Carlos Souza", "Campinas", 90), MatchScore: 85},
		},
	}
	city := "Campinas"
	handler := NewInstructorDiscoveryHandler(
		&stubInstructorDirectory{},
		&stubStudentDirectory{profile: &models.StudentProfile{UserID: 42, City: &city}},
		matchmaker,
	)
	app := newDiscoveryApp(handler, "student", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instructors/recommended?limit=3", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if matchmaker.lastLimit != 3 {
		t.Fatalf("expected limit 3 forwarded, got %d", matchmaker.lastLimit)
	}

	var body struct {
		Instructors []models.InstructorListResponse `json:"instructors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Instructors) != 1 || body.Instructors[0].MatchScore != 85 {
		t.Fatalf("unexpected recommendations: %+v", body.Instructors)
	}
}

func TestGetInstructorDetailReturnsApprovalState(t *testing.T) {
	profile := approvedInstructor(7, "Carlos Souza", "Campinas", 90)
	directory := &stubInstructorDirectory{detail: &profile}
	handler := NewInstructorDiscoveryHandler(directory, &stubStudentDirectory{}, &stubMatchmaker{})
	app := newDiscoveryApp(handler, "student", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/instructors/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Instructor models.InstructorDetailResponse `json:"instructor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Instructor.IsApproved || body.Instructor.FullName != "Carlos Souza" {
		t.Fatalf("unexpected detail: %+v", body.Instructor)
	}
}
