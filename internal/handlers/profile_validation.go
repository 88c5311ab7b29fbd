package handlers

import (
	"strings"
)

var allowedLicenseCategories = map[string]struct{}{
	"A":  {},
	"B":  {},
	"AB": {},
	"C":  {},
	"D":  {},
	"E":  {},
}

func validateStudentOnboardingRequest(req studentOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.City) == "" {
		return "city is required"
	}
	if err := validateLicenseCategory(req.LicenseCategory); err != "" {
		return err
	}
	if req.MaxLessonPrice < 0 {
		return "max_lesson_price must be 0 or greater"
	}
	for _, slot := range req.PreferredSchedule {
		if strings.TrimSpace(slot) == "" {
			return "preferred_schedule must not contain empty values"
		}
	}
	return ""
}

func validateInstructorOnboardingRequest(req instructorOnboardingRequest) string {
	if strings.TrimSpace(req.FullName) == "" {
		return "full_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if strings.TrimSpace(req.City) == "" {
		return "city is required"
	}
	if len(req.LicenseCategories) == 0 {
		return "license_categories must contain at least one item"
	}
	for _, category := range req.LicenseCategories {
		if err := validateLicenseCategory(category); err != "" {
			return err
		}
	}
	if strings.TrimSpace(req.CredentialID) == "" {
		return "credential_id is required"
	}
	if req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.LessonPrice <= 0 {
		return "lesson_price must be greater than 0"
	}
	return ""
}

func validateStudentProfileUpdateRequest(req updateStudentProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.City != nil && strings.TrimSpace(*req.City) == "" {
		return "city must not be empty"
	}
	if req.LicenseCategory != nil {
		if err := validateLicenseCategory(*req.LicenseCategory); err != "" {
			return err
		}
	}
	if req.MaxLessonPrice != nil && *req.MaxLessonPrice < 0 {
		return "max_lesson_price must be 0 or greater"
	}
	if req.PreferredSchedule != nil {
		for _, slot := range *req.PreferredSchedule {
			if strings.TrimSpace(slot) == "" {
				return "preferred_schedule must not contain empty values"
			}
		}
	}
	return ""
}

func validateInstructorProfileUpdateRequest(req updateInstructorProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.City != nil && strings.TrimSpace(*req.City) == "" {
		return "city must not be empty"
	}
	if req.LicenseCategories != nil {
		if len(*req.LicenseCategories) == 0 {
			return "license_categories must contain at least one item"
		}
		for _, category := range *req.LicenseCategories {
			if err := validateLicenseCategory(category); err != "" {
				return err
			}
		}
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.LessonPrice != nil && *req.LessonPrice <= 0 {
		return "lesson_price must be greater than 0"
	}
	return ""
}

func validateLicenseCategory(category string) string {
	normalized := strings.ToUpper(strings.TrimSpace(category))
	if _, ok := allowedLicenseCategories[normalized]; !ok {
		return "license category must be one of: A, B, AB, C, D, E"
	}
	return ""
}
