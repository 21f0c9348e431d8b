package store

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"swiss-hub/internal/gateway"
	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeBackend is an in-memory gateway that counts calls per operation and
// fails the ones listed in fail.
type fakeBackend struct {
	mu    sync.Mutex
	seq   int
	now   func() time.Time
	calls map[string]int
	fail  map[string]error
	hooks map[string]func()

	users       []models.User
	courses     []models.Course
	lessons     []models.Lesson
	enrollments []models.Enrollment
	progress    []models.Progress
}

func newFakeBackend(now func() time.Time) *fakeBackend {
	return &fakeBackend{now: now, calls: map[string]int{}, fail: map[string]error{}, hooks: map[string]func(){}}
}

func (b *fakeBackend) gateway() *gateway.Gateway {
	return &gateway.Gateway{
		Users:       fakeUsers{b},
		Courses:     fakeCourses{b},
		Lessons:     fakeLessons{b},
		Enrollments: fakeEnrollments{b},
		Progress:    fakeProgress{b},
		Stats:       fakeStats{b},
	}
}

// call must be made with b.mu held.
func (b *fakeBackend) call(op string) error {
	b.calls[op]++
	return b.fail[op]
}

func (b *fakeBackend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBackend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, op)
		return
	}
	b.fail[op] = err
}

// Hook runs fn at the start of op, before the backend lock is taken.
func (b *fakeBackend) Hook(op string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[op] = fn
}

// enter runs op's hook and then reports whether ctx is still live, the way a
// network call would.
func (b *fakeBackend) enter(ctx context.Context, op string) error {
	b.mu.Lock()
	fn := b.hooks[op]
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
	return ctx.Err()
}

func (b *fakeBackend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func constraint(op, msg string) error {
	return &gateway.Error{Op: op, Status: http.StatusConflict, Message: msg, Kind: gateway.ErrConstraint}
}

var errDown = &gateway.Error{Op: "fake", Message: "connection refused", Kind: gateway.ErrTransport}

type fakeUsers struct{ b *fakeBackend }

func (f fakeUsers) ByExternalRef(_ context.Context, ref string) (*models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("users.byExternalRef"); err != nil {
		return nil, err
	}
	for _, u := range f.b.users {
		if u.ExternalRef == ref {
			return &u, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) Create(_ context.Context, in models.NewUser) (*models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("users.create"); err != nil {
		return nil, err
	}
	u := models.User{ID: f.b.nextID("user"), ExternalRef: in.ExternalRef, Email: in.Email, Name: in.Name, Role: in.Role, CreatedAt: f.b.now()}
	f.b.users = append(f.b.users, u)
	return &u, nil
}

func (f fakeUsers) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("users.updateRole"); err != nil {
		return nil, err
	}
	for i := range f.b.users {
		if f.b.users[i].ID == id {
			f.b.users[i].Role = role
			u := f.b.users[i]
			return &u, nil
		}
	}
	return nil, &gateway.Error{Op: "users.updateRole", Status: http.StatusNotFound, Message: "Row not found", Kind: gateway.ErrNotFound}
}

func (f fakeUsers) List(context.Context) ([]models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("users.list"); err != nil {
		return nil, err
	}
	return slices.Clone(f.b.users), nil
}

type fakeCourses struct{ b *fakeBackend }

func (f fakeCourses) List(ctx context.Context) ([]models.Course, error) {
	if err := f.b.enter(ctx, "courses.list"); err != nil {
		return nil, err
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("courses.list"); err != nil {
		return nil, err
	}
	out := slices.Clone(f.b.courses)
	slices.Reverse(out)
	return out, nil
}

func (f fakeCourses) Get(_ context.Context, id string) (*models.Course, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("courses.get"); err != nil {
		return nil, err
	}
	for _, c := range f.b.courses {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (f fakeCourses) Create(_ context.Context, in models.CourseInput) (*models.Course, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("courses.create"); err != nil {
		return nil, err
	}
	c := models.Course{
		ID: f.b.nextID("course"), Title: in.Title, Description: in.Description, Category: in.Category,
		Prerequisites: slices.Clone(in.Prerequisites), Duration: in.Duration, Level: in.Level,
		CreatedBy: in.CreatedBy, CreatedAt: f.b.now(), UpdatedAt: f.b.now(),
	}
	if c.Prerequisites == nil {
		c.Prerequisites = []string{}
	}
	f.b.courses = append(f.b.courses, c)
	return &c, nil
}

func (f fakeCourses) Update(_ context.Context, id string, p models.CoursePatch) (*models.Course, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("courses.update"); err != nil {
		return nil, err
	}
	for i := range f.b.courses {
		c := &f.b.courses[i]
		if c.ID != id {
			continue
		}
		if p.Title != nil {
			c.Title = *p.Title
		}
		if p.Prerequisites != nil {
			c.Prerequisites = slices.Clone(*p.Prerequisites)
		}
		c.UpdatedAt = f.b.now()
		out := *c
		return &out, nil
	}
	return nil, &gateway.Error{Op: "courses.update", Status: http.StatusNotFound, Message: "Row not found", Kind: gateway.ErrNotFound}
}

func (f fakeCourses) Delete(_ context.Context, id string) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("courses.delete"); err != nil {
		return false, err
	}
	n := len(f.b.courses)
	f.b.courses = slices.DeleteFunc(f.b.courses, func(c models.Course) bool { return c.ID == id })
	f.b.lessons = slices.DeleteFunc(f.b.lessons, func(l models.Lesson) bool { return l.CourseID == id })
	f.b.enrollments = slices.DeleteFunc(f.b.enrollments, func(e models.Enrollment) bool { return e.CourseID == id })
	f.b.progress = slices.DeleteFunc(f.b.progress, func(p models.Progress) bool { return p.CourseID == id })
	return len(f.b.courses) < n, nil
}

type fakeLessons struct{ b *fakeBackend }

func (f fakeLessons) ListByCourse(_ context.Context, courseID string) ([]models.Lesson, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("lessons.listByCourse"); err != nil {
		return nil, err
	}
	return rules.SortByOrder(courseID, f.b.lessons), nil
}

func (f fakeLessons) Create(_ context.Context, in models.LessonInput) (*models.Lesson, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("lessons.create"); err != nil {
		return nil, err
	}
	for _, l := range f.b.lessons {
		if l.CourseID == in.CourseID && l.Order == in.Order {
			return nil, constraint("lessons.create", "duplicate order")
		}
	}
	l := models.Lesson{
		ID: f.b.nextID("lesson"), CourseID: in.CourseID, Title: in.Title, Order: in.Order,
		Materials: slices.Clone(in.Materials), Duration: in.Duration, Type: in.Type,
	}
	f.b.lessons = append(f.b.lessons, l)
	return &l, nil
}

func (f fakeLessons) Update(_ context.Context, id string, p models.LessonPatch) (*models.Lesson, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("lessons.update"); err != nil {
		return nil, err
	}
	for i := range f.b.lessons {
		l := &f.b.lessons[i]
		if l.ID != id {
			continue
		}
		if p.Title != nil {
			l.Title = *p.Title
		}
		if p.Order != nil {
			l.Order = *p.Order
		}
		out := *l
		return &out, nil
	}
	return nil, &gateway.Error{Op: "lessons.update", Status: http.StatusNotFound, Message: "Row not found", Kind: gateway.ErrNotFound}
}

func (f fakeLessons) Delete(_ context.Context, id string) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("lessons.delete"); err != nil {
		return false, err
	}
	n := len(f.b.lessons)
	f.b.lessons = slices.DeleteFunc(f.b.lessons, func(l models.Lesson) bool { return l.ID == id })
	f.b.progress = slices.DeleteFunc(f.b.progress, func(p models.Progress) bool { return p.LessonID == id })
	return len(f.b.lessons) < n, nil
}

type fakeEnrollments struct{ b *fakeBackend }

func (f fakeEnrollments) ListByUser(_ context.Context, userID string) ([]models.Enrollment, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("enrollments.listByUser"); err != nil {
		return nil, err
	}
	var out []models.Enrollment
	for _, e := range f.b.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeEnrollments) Create(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("enrollments.create"); err != nil {
		return nil, err
	}
	for _, e := range f.b.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return nil, constraint("enrollments.create", "already enrolled")
		}
	}
	e := models.Enrollment{ID: f.b.nextID("enrollment"), UserID: userID, CourseID: courseID, EnrolledAt: f.b.now(), Status: models.StatusActive}
	f.b.enrollments = append(f.b.enrollments, e)
	return &e, nil
}

func (f fakeEnrollments) Delete(_ context.Context, userID, courseID string) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("enrollments.delete"); err != nil {
		return false, err
	}
	n := len(f.b.enrollments)
	f.b.enrollments = slices.DeleteFunc(f.b.enrollments, func(e models.Enrollment) bool {
		return e.UserID == userID && e.CourseID == courseID
	})
	return len(f.b.enrollments) < n, nil
}

func (f fakeEnrollments) Exists(_ context.Context, userID, courseID string) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("enrollments.exists"); err != nil {
		return false, err
	}
	return rules.IsEnrolled(userID, courseID, f.b.enrollments), nil
}

func (f fakeEnrollments) SetCompletion(_ context.Context, id string, pct int, status models.EnrollmentStatus) (*models.Enrollment, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("enrollments.setCompletion"); err != nil {
		return nil, err
	}
	for i := range f.b.enrollments {
		if f.b.enrollments[i].ID == id {
			f.b.enrollments[i].CompletionPercentage = pct
			f.b.enrollments[i].Status = status
			e := f.b.enrollments[i]
			return &e, nil
		}
	}
	return nil, &gateway.Error{Op: "enrollments.setCompletion", Status: http.StatusNotFound, Message: "Row not found", Kind: gateway.ErrNotFound}
}

type fakeProgress struct{ b *fakeBackend }

func (f fakeProgress) ListByUserAndCourse(_ context.Context, userID, courseID string) ([]models.Progress, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("progress.listByUserAndCourse"); err != nil {
		return nil, err
	}
	var out []models.Progress
	for _, p := range f.b.progress {
		if p.UserID == userID && p.CourseID == courseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeProgress) find(userID, lessonID string) int {
	return slices.IndexFunc(f.b.progress, func(p models.Progress) bool {
		return p.UserID == userID && p.LessonID == lessonID
	})
}

func (f fakeProgress) Upsert(_ context.Context, userID, courseID, lessonID string, completed bool) (*models.Progress, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("progress.upsert"); err != nil {
		return nil, err
	}
	now := f.b.now()
	var completedAt *time.Time
	if completed {
		completedAt = &now
	}
	if i := f.find(userID, lessonID); i >= 0 {
		p := &f.b.progress[i]
		p.Completed, p.CompletedAt, p.LastAccessedAt = completed, completedAt, now
		out := *p
		return &out, nil
	}
	p := models.Progress{
		ID: f.b.nextID("progress"), UserID: userID, CourseID: courseID, LessonID: lessonID,
		Completed: completed, CompletedAt: completedAt, LastAccessedAt: now,
	}
	f.b.progress = append(f.b.progress, p)
	return &p, nil
}

func (f fakeProgress) Touch(_ context.Context, userID, courseID, lessonID string) (*models.Progress, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("progress.touch"); err != nil {
		return nil, err
	}
	now := f.b.now()
	if i := f.find(userID, lessonID); i >= 0 {
		f.b.progress[i].LastAccessedAt = now
		out := f.b.progress[i]
		return &out, nil
	}
	p := models.Progress{ID: f.b.nextID("progress"), UserID: userID, CourseID: courseID, LessonID: lessonID, LastAccessedAt: now}
	f.b.progress = append(f.b.progress, p)
	return &p, nil
}

func (f fakeProgress) Completion(_ context.Context, userID, courseID string) (int, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("progress.completion"); err != nil {
		return 0, err
	}
	return rules.CourseCompletion(userID, courseID, f.b.lessons, f.b.progress), nil
}

func (f fakeProgress) DeleteByUserAndCourse(_ context.Context, userID, courseID string) (int, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("progress.deleteByUserAndCourse"); err != nil {
		return 0, err
	}
	n := len(f.b.progress)
	f.b.progress = slices.DeleteFunc(f.b.progress, func(p models.Progress) bool {
		return p.UserID == userID && p.CourseID == courseID
	})
	return n - len(f.b.progress), nil
}

type fakeStats struct{ b *fakeBackend }

func (f fakeStats) Dashboard(context.Context) (models.DashboardStats, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if err := f.b.call("stats.dashboard"); err != nil {
		return models.DashboardStats{}, err
	}
	return models.DashboardStats{
		TotalCourses:     int64(len(f.b.courses)),
		TotalUsers:       int64(len(f.b.users)),
		TotalEnrollments: int64(len(f.b.enrollments)),
	}, nil
}

// seed helpers write straight into the backend, bypassing counters.

func (b *fakeBackend) seedUser(ref string, role models.Role) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := models.User{ID: b.nextID("user"), ExternalRef: ref, Email: ref + "@example.com", Name: ref, Role: role, CreatedAt: b.now()}
	b.users = append(b.users, u)
	return u
}

func (b *fakeBackend) seedCourse(title string, lessons int, prereqs ...string) (models.Course, []models.Lesson) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prereqs == nil {
		prereqs = []string{}
	}
	c := models.Course{ID: b.nextID("course"), Title: title, Prerequisites: prereqs, Level: models.LevelBeginner, CreatedAt: b.now()}
	b.courses = append(b.courses, c)
	var out []models.Lesson
	for i := 1; i <= lessons; i++ {
		l := models.Lesson{ID: b.nextID("lesson"), CourseID: c.ID, Title: fmt.Sprintf("%s %d", title, i), Order: i, Type: models.LessonVideo}
		b.lessons = append(b.lessons, l)
		out = append(out, l)
	}
	return c, out
}
