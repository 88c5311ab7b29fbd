package models

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleSupport    = "support"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleInfo is the display descriptor for a participant role. Handlers and the
// thread summaries resolve labels through LookupRole instead of branching on
// the role string at every call site.
type RoleInfo struct {
	Role  string `json:"role"`
	Label string `json:"label"`
	Badge string `json:"badge"`
}

var roleRegistry = map[string]RoleInfo{
	RoleStudent:    {Role: RoleStudent, Label: "Aluno", Badge: "aluno"},
	RoleInstructor: {Role: RoleInstructor, Label: "Instrutor", Badge: "instrutor"},
	RoleSupport:    {Role: RoleSupport, Label: "Suporte Via Betel", Badge: "suporte"},
}

func LookupRole(role string) (RoleInfo, bool) {
	info, ok := roleRegistry[role]
	return info, ok
}

func IsChatRole(role string) bool {
	return role == RoleStudent || role == RoleInstructor || role == RoleSupport
}
