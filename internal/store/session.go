package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/identity"
	"swiss-hub/internal/models"
)

// InitializeUser signs in id, creating a student account on first sight, and
// refreshes the data that user sees.
func (s *Store) InitializeUser(ctx context.Context, id identity.Identity) (*models.User, error) {
	s.begin()
	defer s.end()

	u, err := s.gw.Users.ByExternalRef(ctx, id.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		u, err = s.gw.Users.Create(ctx, models.NewUser{
			ExternalRef: id.ExternalRef,
			Email:       id.Email,
			Name:        id.Name,
			Role:        models.RoleStudent,
		})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.log.Info("user created", zap.String("user_id", u.ID), zap.String("external_ref", id.ExternalRef))
	}

	if prev := s.CurrentUser(); prev != nil && prev.ID != u.ID {
		s.reset()
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.persist()

	s.RefreshData(ctx, false)
	return s.CurrentUser(), nil
}

// Logout forgets the user and everything loaded for them.
func (s *Store) Logout() {
	s.reset()
	if s.snaps != nil {
		if err := s.snaps.Delete(stateKey); err != nil {
			s.log.Error("snapshot delete failed", zap.Error(err))
		}
	}
}

// RefreshData loads courses, the user's enrollments and, for admins, all
// users. Failures are logged and recorded, not returned.
func (s *Store) RefreshData(ctx context.Context, force bool) {
	u := s.CurrentUser()
	if u == nil {
		return
	}
	s.FetchCourses(ctx, force)
	if err := s.EnsureEnrollmentsLoaded(ctx, force); err != nil {
		s.fail("enrollments", err)
	}
	if authz.Can(u, authz.ViewUsers) {
		s.FetchUsers(ctx, force)
	}
}
