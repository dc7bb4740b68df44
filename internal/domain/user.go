package domain

import "time"

// Role enumerates principal roles recognised by the workflow guards.
type Role string

const (
	RoleReporter    Role = "REPORTER"
	RoleCoordinator Role = "COORDINATOR"
	RoleFixer       Role = "FIXER"
	RoleAdmin       Role = "ADMIN"
)

// Specialization tags a fixer with the defect category they can handle.
type Specialization string

const (
	SpecializationElectrical Specialization = "ELECTRICAL"
	SpecializationMechanical Specialization = "MECHANICAL"
)

// Matches reports whether the specialization covers the given category.
func (s Specialization) Matches(c Category) bool {
	return string(s) == string(c)
}

// User is an already-authenticated member of the university community.
// Credentials live with the identity provider; this service only sees
// role and, for fixers, a specialization tag.
type User struct {
	ID             string
	Name           string
	Email          string
	Role           Role
	Specialization *Specialization
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanReview reports whether the user may open or act on a review.
func (u *User) CanReview() bool {
	return u.Role == RoleCoordinator || u.Role == RoleAdmin
}
