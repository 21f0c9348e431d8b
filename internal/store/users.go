package store

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"swiss-hub/internal/authz"
	"swiss-hub/internal/cache"
	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

// FetchUsers loads every account for admins, reusing a fresh non-empty copy.
// Like FetchCourses it records failures instead of returning them.
func (s *Store) FetchUsers(ctx context.Context, force bool) {
	if _, err := s.require(authz.ViewUsers); err != nil {
		s.fail("users", err)
		return
	}
	s.mu.RLock()
	have := len(s.users) > 0
	s.mu.RUnlock()
	if !force && have && s.cache.Fresh(cache.Users) {
		s.log.Debug("users served from cache")
		return
	}

	s.begin()
	defer s.end()
	v, err, _ := s.flight.Do("users", func() (any, error) {
		return s.gw.Users.List(context.WithoutCancel(ctx))
	})
	if err != nil {
		s.fail("users", err)
		return
	}

	s.mu.Lock()
	s.users = slices.Clone(v.([]models.User))
	s.lastErr = nil
	s.mu.Unlock()
	s.cache.RecordFetch(cache.Users, s.now())
	s.persist()
}

// ChangeUserRole sets another account's role. Changing one's own role also
// updates the current user.
func (s *Store) ChangeUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if _, err := s.require(authz.ChangeRoles); err != nil {
		return nil, err
	}
	s.begin()
	defer s.end()

	u, err := s.gw.Users.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if i := slices.IndexFunc(s.users, func(x models.User) bool { return x.ID == u.ID }); i >= 0 {
		s.users[i] = *u
	}
	if s.user != nil && s.user.ID == u.ID {
		cur := *u
		s.user = &cur
	}
	s.mu.Unlock()
	s.cache.Refresh(cache.Users)
	s.persist()
	s.log.Info("role changed", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

// Dashboard returns platform-wide counts from the backend.
func (s *Store) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	if _, err := s.require(authz.ViewDashboard); err != nil {
		return models.DashboardStats{}, err
	}
	s.begin()
	defer s.end()
	return s.gw.Stats.Dashboard(ctx)
}

// Summary aggregates the loaded collections for the admin overview.
func (s *Store) Summary() rules.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rules.Summarize(s.courses, s.users, s.enrollments)
}
