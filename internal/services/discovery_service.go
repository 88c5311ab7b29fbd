package services

import (
	"context"
	"sort"
	"strings"

	"github.com/viabetel/via-betel-api/internal/models"
)

type InstructorMatcher interface {
	ListAll(ctx context.Context) ([]models.InstructorProfile, error)
}

// DiscoveryService ranks approved instructors against a student's stated
// preferences for the "recommended" rail of the directory.
type DiscoveryService struct {
	instructorRepo InstructorMatcher
}

func NewDiscoveryService(instructorRepo InstructorMatcher) *DiscoveryService {
	return &DiscoveryService{instructorRepo: instructorRepo}
}

func (s *DiscoveryService) GetMatchedInstructors(
	ctx context.Context,
	studentProfile *models.StudentProfile,
	limit int,
) ([]models.InstructorWithScore, error) {
	instructors, err := s.instructorRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.InstructorWithScore, 0, len(instructors))
	for _, instructor := range instructors {
		matched = append(matched, models.InstructorWithScore{
			InstructorProfile: instructor,
			MatchScore:        calculateMatchScore(studentProfile, &instructor),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore == matched[j].MatchScore {
			return floatValue(matched[i].Rating) > floatValue(matched[j].Rating)
		}
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func calculateMatchScore(studentProfile *models.StudentProfile, instructor *models.InstructorProfile) int {
	score := 0

	wanted := wantedCategories(studentProfile)
	offered := normalizeValues(instructor.LicenseCategories)
	for _, alias := range wanted {
		if _, ok := offered[alias]; ok {
			score += 40
			break
		}
	}

	if studentProfile != nil && studentProfile.City != nil && instructor.City != nil &&
		normalize(*studentProfile.City) == normalize(*instructor.City) {
		score += 20
	}
	if floatValue(instructor.Rating) > 4.5 {
		score += 15
	}
	if intValue(instructor.ExperienceYears) > 3 {
		score += 10
	}
	if budget := maxBudget(studentProfile); budget > 0 && floatValue(instructor.LessonPrice) <= budget {
		score += 15
	}

	return score
}

// wantedCategories expands the student's license category to every instructor
// category that covers it: a combined A/B licence teaches both A and B.
func wantedCategories(studentProfile *models.StudentProfile) []string {
	if studentProfile == nil || studentProfile.LicenseCategory == nil {
		return nil
	}

	switch normalize(*studentProfile.LicenseCategory) {
	case "a":
		return []string{"a", "ab"}
	case "b":
		return []string{"b", "ab"}
	case "ab":
		return []string{"ab"}
	case "":
		return nil
	default:
		return []string{normalize(*studentProfile.LicenseCategory)}
	}
}

func maxBudget(studentProfile *models.StudentProfile) float64 {
	if studentProfile == nil || studentProfile.MaxLessonPrice == nil {
		return 0
	}
	return *studentProfile.MaxLessonPrice
}

func normalizeValues(values *[]string) map[string]struct{} {
	normalized := make(map[string]struct{})
	for _, value := range sliceValue(values) {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func sliceValue(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func floatValue(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}

func intValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
