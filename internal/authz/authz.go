// Package authz is the one place that maps roles to what they may do. Store
// action guards and the CLI both ask it instead of branching on roles.
package authz

import (
	"errors"
	"fmt"
	"slices"

	"swiss-hub/internal/models"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Capability string

const (
	Enroll        Capability = "enroll"
	TrackProgress Capability = "track-progress"
	ManageCourses Capability = "manage-courses"
	ManageLessons Capability = "manage-lessons"
	ViewUsers     Capability = "view-users"
	ChangeRoles   Capability = "change-roles"
	ViewDashboard Capability = "view-dashboard"
)

var (
	studentCaps = []Capability{Enroll, TrackProgress}
	adminCaps   = []Capability{Enroll, TrackProgress, ManageCourses, ManageLessons, ViewUsers, ChangeRoles, ViewDashboard}
)

// Capabilities lists what a role is granted.
func Capabilities(role models.Role) []Capability {
	switch role {
	case models.RoleAdmin:
		return adminCaps
	case models.RoleStudent:
		return studentCaps
	}
	return nil
}

// Can reports whether u holds c. A nil user holds nothing.
func Can(u *models.User, c Capability) bool {
	return u != nil && slices.Contains(Capabilities(u.Role), c)
}

// Require returns ErrUnauthenticated for a nil user and ErrForbidden when the
// role lacks c.
func Require(u *models.User, c Capability) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if !Can(u, c) {
		return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, u.Role, c)
	}
	return nil
}
