package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"swiss-hub/internal/models"
	"swiss-hub/internal/rules"
)

var errLocked = errors.New("locked")

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		{Name: "courses", Usage: "list the catalog", Action: a.withUser(a.listCourses)},
		{Name: "outline", Usage: "show a course's lessons", ArgsUsage: "COURSE", Action: a.withUser(a.outline)},
		{Name: "enroll", Usage: "enroll in a course", ArgsUsage: "COURSE", Action: a.withUser(a.enroll)},
		{Name: "unenroll", Usage: "leave a course and drop its progress", ArgsUsage: "COURSE", Action: a.withUser(a.unenroll)},
		{Name: "open", Usage: "record that a lesson was opened", ArgsUsage: "COURSE LESSON", Action: a.withUser(a.openLesson)},
		{Name: "complete", Usage: "mark a lesson complete", ArgsUsage: "COURSE LESSON", Action: a.withUser(a.markLesson(true))},
		{Name: "reset", Usage: "mark a lesson incomplete", ArgsUsage: "COURSE LESSON", Action: a.withUser(a.markLesson(false))},
		{Name: "users", Usage: "list accounts (admin)", Action: a.withUser(a.listUsers)},
		{Name: "role", Usage: "change an account's role (admin)", ArgsUsage: "USER ROLE", Action: a.withUser(a.changeRole)},
		{Name: "stats", Usage: "show dashboard counts (admin)", Action: a.withUser(a.stats)},
		{Name: "compact", Usage: "renumber a course's lessons 1..N (admin)", ArgsUsage: "COURSE", Action: a.withUser(a.compact)},
		{
			Name:   "watch",
			Usage:  "refresh data on a schedule until interrupted",
			Flags:  []cli.Flag{&cli.DurationFlag{Name: "every", Value: 5 * time.Minute}},
			Action: a.withUser(a.watch),
		},
		{Name: "logout", Usage: "forget the signed-in user and local data", Action: a.logout},
	}
}

func (a *app) withUser(action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := a.signIn(c); err != nil {
			return err
		}
		return action(c)
	}
}

func args(c *cli.Context, names ...string) ([]string, error) {
	if c.Args().Len() != len(names) {
		return nil, fmt.Errorf("%s: want %d argument(s): %v", c.Command.Name, len(names), names)
	}
	return c.Args().Slice(), nil
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (a *app) enrollment(courseID string) (models.Enrollment, bool) {
	for _, e := range a.store.Enrollments() {
		if e.CourseID == courseID {
			return e, true
		}
	}
	return models.Enrollment{}, false
}

func (a *app) listCourses(c *cli.Context) error {
	w := table(c.App.Writer)
	fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tENROLLED\tLOCKED\tPROGRESS")
	for _, course := range a.store.Courses() {
		progress := "-"
		e, enrolled := a.enrollment(course.ID)
		if enrolled {
			progress = fmt.Sprintf("%d%% %s", e.CompletionPercentage, e.Status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			course.ID, course.Title, course.Level, yesNo(enrolled), yesNo(a.store.CourseLocked(course.ID)), progress)
	}
	return w.Flush()
}

// loadCourse fetches lessons and, when enrolled, the user's progress so that
// lesson states are current.
func (a *app) loadCourse(c *cli.Context, courseID string) ([]models.Lesson, error) {
	lessons, err := a.store.FetchLessonsByCourse(c.Context, courseID, false)
	if err != nil {
		return nil, err
	}
	if a.store.IsUserEnrolled(courseID) {
		if _, err := a.store.FetchCourseProgress(c.Context, courseID); err != nil {
			return nil, err
		}
	}
	return lessons, nil
}

func (a *app) outline(c *cli.Context) error {
	in, err := args(c, "COURSE")
	if err != nil {
		return err
	}
	lessons, err := a.loadCourse(c, in[0])
	if err != nil {
		return err
	}
	w := table(c.App.Writer)
	fmt.Fprintln(w, "#\tID\tTITLE\tTYPE\tMIN\tSTATE")
	for _, l := range lessons {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", l.Order, l.ID, l.Title, l.Type, l.Duration, a.store.LessonState(l.ID))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "completion: %d%%\n", a.store.CourseCompletion(in[0]))
	return nil
}

func (a *app) enroll(c *cli.Context) error {
	in, err := args(c, "COURSE")
	if err != nil {
		return err
	}
	if a.store.CourseLocked(in[0]) {
		return fmt.Errorf("course %s is %w until its prerequisites are completed", in[0], errLocked)
	}
	e, err := a.store.Enroll(c.Context, in[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "enrolled in %s (%s)\n", e.CourseID, e.Status)
	return nil
}

func (a *app) unenroll(c *cli.Context) error {
	in, err := args(c, "COURSE")
	if err != nil {
		return err
	}
	if err := a.store.Unenroll(c.Context, in[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "left %s\n", in[0])
	return nil
}

func (a *app) openLesson(c *cli.Context) error {
	in, err := args(c, "COURSE", "LESSON")
	if err != nil {
		return err
	}
	if _, err := a.loadCourse(c, in[0]); err != nil {
		return err
	}
	if a.store.LessonState(in[1]) == rules.Locked {
		return fmt.Errorf("lesson %s is %w", in[1], errLocked)
	}
	p, err := a.store.UpdateLastAccessed(c.Context, in[0], in[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "opened %s at %s\n", p.LessonID, p.LastAccessedAt.Format(time.RFC3339))
	return nil
}

func (a *app) markLesson(completed bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		in, err := args(c, "COURSE", "LESSON")
		if err != nil {
			return err
		}
		if completed {
			if _, err := a.loadCourse(c, in[0]); err != nil {
				return err
			}
			if a.store.LessonState(in[1]) == rules.Locked {
				return fmt.Errorf("lesson %s is %w", in[1], errLocked)
			}
			_, err = a.store.MarkLessonComplete(c.Context, in[0], in[1])
		} else {
			_, err = a.store.MarkLessonIncomplete(c.Context, in[0], in[1])
		}
		if err != nil {
			return err
		}
		if e, ok := a.enrollment(in[0]); ok {
			fmt.Fprintf(c.App.Writer, "%s: %d%% %s\n", e.CourseID, e.CompletionPercentage, e.Status)
		}
		return nil
	}
}

func (a *app) listUsers(c *cli.Context) error {
	a.store.FetchUsers(c.Context, false)
	if err := a.store.Err(); err != nil {
		a.store.ClearError()
		return err
	}
	w := table(c.App.Writer)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range a.store.Users() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return w.Flush()
}

func (a *app) changeRole(c *cli.Context) error {
	in, err := args(c, "USER", "ROLE")
	if err != nil {
		return err
	}
	role := models.Role(in[1])
	if role != models.RoleAdmin && role != models.RoleStudent {
		return fmt.Errorf("role must be %s or %s", models.RoleAdmin, models.RoleStudent)
	}
	u, err := a.store.ChangeUserRole(c.Context, in[0], role)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s is now %s\n", u.Name, u.Role)
	return nil
}

func (a *app) stats(c *cli.Context) error {
	d, err := a.store.Dashboard(c.Context)
	if err != nil {
		return err
	}
	s := a.store.Summary()
	w := table(c.App.Writer)
	fmt.Fprintf(w, "courses\t%d\n", d.TotalCourses)
	fmt.Fprintf(w, "users\t%d\n", d.TotalUsers)
	fmt.Fprintf(w, "enrollments\t%d\n", d.TotalEnrollments)
	fmt.Fprintf(w, "students (loaded)\t%d\n", s.TotalStudents)
	fmt.Fprintf(w, "completed enrollments (loaded)\t%d\n", s.CompletedCourses)
	return w.Flush()
}

func (a *app) compact(c *cli.Context) error {
	in, err := args(c, "COURSE")
	if err != nil {
		return err
	}
	if _, err := a.store.FetchLessonsByCourse(c.Context, in[0], true); err != nil {
		return err
	}
	plan, err := a.store.CompactLessonOrder(c.Context, in[0])
	for _, ch := range plan {
		fmt.Fprintf(c.App.Writer, "%s: %d -> %d\n", ch.LessonID, ch.From, ch.To)
	}
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		fmt.Fprintln(c.App.Writer, "already compact")
	}
	return nil
}

// watch force-refreshes the user's data on a cron schedule until the
// context is cancelled.
func (a *app) watch(c *cli.Context) error {
	every := c.Duration("every")
	if every < time.Second {
		return fmt.Errorf("--every must be at least 1s, got %s", every)
	}
	sched := cron.New()
	_, err := sched.AddFunc("@every "+every.String(), func() {
		a.store.RefreshData(c.Context, true)
		if err := a.store.Err(); err != nil {
			a.log.Warn("refresh failed", zap.Error(err))
			a.store.ClearError()
			return
		}
		fmt.Fprintf(c.App.Writer, "%s refreshed: %d courses, %d enrollments\n",
			time.Now().Format(time.TimeOnly), len(a.store.Courses()), len(a.store.Enrollments()))
	})
	if err != nil {
		return err
	}
	sched.Start()
	<-c.Context.Done()
	<-sched.Stop().Done()
	return nil
}

func (a *app) logout(c *cli.Context) error {
	a.store.Logout()
	fmt.Fprintln(c.App.Writer, "signed out")
	return nil
}
