package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swiss-hub/internal/api"
	"swiss-hub/internal/authz"
	"swiss-hub/internal/config"
	"swiss-hub/internal/database"
	"swiss-hub/internal/gateway"
	"swiss-hub/internal/identity"
	"swiss-hub/internal/models"
)

type harness struct {
	t        *testing.T
	cfg      *config.Config
	url      string
	key      string
	snapshot string
	gw       *gateway.Gateway
	ids      *identity.Verifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	secret := []byte("learnctl-test")
	srv := httptest.NewServer(api.NewRouter(api.NewApiHandler(database.NewMemory(), zap.NewNop()), secret))
	t.Cleanup(srv.Close)
	key, err := api.IssueServiceToken(secret, "learnctl-test", time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{IdentitySecret: "idp-secret", CacheTTL: 5 * time.Minute, RequestTimeout: 5 * time.Second}
	return &harness{
		t:        t,
		cfg:      cfg,
		url:      srv.URL,
		key:      key,
		snapshot: t.TempDir(),
		gw:       gateway.NewREST(srv.URL, key, 5*time.Second),
		ids:      identity.NewVerifier(cfg.IdentitySecret),
	}
}

func (h *harness) token(ref string) string {
	h.t.Helper()
	tok, err := h.ids.Issue(identity.Identity{ExternalRef: ref, Email: ref + "@example.com", Name: ref}, time.Hour)
	require.NoError(h.t, err)
	return tok
}

// run executes one learnctl invocation, signing in as ref when it is not empty.
func (h *harness) run(ref string, cmd ...string) (string, error) {
	h.t.Helper()
	argv := []string{"learnctl", "--api-url", h.url, "--api-key", h.key, "--snapshot", h.snapshot}
	if ref != "" {
		argv = append(argv, "--identity-token", h.token(ref))
	}
	var out bytes.Buffer
	app := newApp(h.cfg, zap.NewNop())
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.RunContext(context.Background(), append(argv, cmd...))
	return out.String(), err
}

func (h *harness) seedCourse(title string, lessons int) (*models.Course, []models.Lesson) {
	h.t.Helper()
	c, err := h.gw.Courses.Create(context.Background(), models.CourseInput{Title: title, Level: models.LevelBeginner, CreatedBy: "seed"})
	require.NoError(h.t, err)
	var out []models.Lesson
	for i := 1; i <= lessons; i++ {
		l, err := h.gw.Lessons.Create(context.Background(), models.LessonInput{CourseID: c.ID, Title: title, Order: i, Type: models.LessonVideo})
		require.NoError(h.t, err)
		out = append(out, *l)
	}
	return c, out
}

func TestStudentSession(t *testing.T) {
	h := newHarness(t)
	c1, lessons := h.seedCourse("C1", 2)

	out, err := h.run("ann", "courses")
	require.NoError(t, err)
	assert.Contains(t, out, "C1")
	assert.Contains(t, out, "TITLE")

	out, err = h.run("", "enroll", c1.ID)
	require.NoError(t, err, "snapshot keeps the user signed in")
	assert.Contains(t, out, "enrolled in "+c1.ID)

	_, err = h.run("", "complete", c1.ID, lessons[1].ID)
	assert.ErrorIs(t, err, errLocked)

	out, err = h.run("", "complete", c1.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "50% active")

	out, err = h.run("", "outline", c1.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "completion: 50%")

	_, err = h.run("", "open", c1.ID, lessons[1].ID)
	require.NoError(t, err)

	out, err = h.run("", "complete", c1.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "100% completed")

	_, err = h.run("", "users")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, err = h.run("", "courses")
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)
	c1, lessons := h.seedCourse("C1", 3)
	_, err := h.gw.Users.Create(context.Background(), models.NewUser{ExternalRef: "root", Email: "root@example.com", Name: "root", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = h.run("ann", "courses")
	require.NoError(t, err)

	out, err := h.run("root", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "ann@example.com")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "users")

	_, err = h.run("", "role", "nobody", "owner")
	assert.ErrorContains(t, err, "role must be")

	ok, err := h.gw.Lessons.Delete(context.Background(), lessons[1].ID)
	require.NoError(t, err)
	require.True(t, ok)
	out, err = h.run("", "compact", c1.ID)
	require.NoError(t, err)
	assert.Contains(t, out, lessons[2].ID+": 3 -> 2")

	out, err = h.run("", "compact", c1.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "already compact")
}

func TestRejectsBadArguments(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("ann", "enroll")
	assert.ErrorContains(t, err, "want 1 argument")

	_, err = h.run("", "watch", "--every", "10ms")
	assert.ErrorContains(t, err, "at least 1s")
}
