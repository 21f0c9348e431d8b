// Package rules derives display state from the store's collections. Every
// function is pure and safe to call from any goroutine on snapshot slices.
package rules

import (
	"sort"

	"swiss-hub/internal/models"
)

// LessonState is the sequential-access state of a lesson for one user.
type LessonState string

const (
	Locked    LessonState = "locked"
	Available LessonState = "available"
	Completed LessonState = "completed"
)

// Percent rounds 100*done/total half-up. A course with no lessons is at 0.
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done > total {
		done = total
	}
	return (done*200 + total) / (total * 2)
}

// CourseCompletion counts the user's completed lessons of the course against
// the course's lesson count.
func CourseCompletion(userID, courseID string, lessons []models.Lesson, progress []models.Progress) int {
	inCourse := make(map[string]bool)
	for _, l := range lessons {
		if l.CourseID == courseID {
			inCourse[l.ID] = true
		}
	}
	done := make(map[string]bool)
	for _, p := range progress {
		if p.UserID == userID && p.CourseID == courseID && p.Completed && inCourse[p.LessonID] {
			done[p.LessonID] = true
		}
	}
	return Percent(len(done), len(inCourse))
}

func isCompleted(userID, lessonID string, progress []models.Progress) bool {
	for _, p := range progress {
		if p.UserID == userID && p.LessonID == lessonID && p.Completed {
			return true
		}
	}
	return false
}

// IsEnrolled reports whether the user holds any enrollment record for the course.
func IsEnrolled(userID, courseID string, enrollments []models.Enrollment) bool {
	for _, e := range enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return true
		}
	}
	return false
}

// previous returns the lesson of the same course with the highest order below
// lesson.Order. Orders are dense in a well-formed course, so that is order-1.
func previous(lesson models.Lesson, lessons []models.Lesson) (models.Lesson, bool) {
	var prev models.Lesson
	found := false
	for _, l := range lessons {
		if l.CourseID != lesson.CourseID || l.ID == lesson.ID || l.Order >= lesson.Order {
			continue
		}
		if !found || l.Order > prev.Order {
			prev, found = l, true
		}
	}
	return prev, found
}

// LessonStatus derives the lock state of lesson for userID. Lesson 1 is
// available to any enrolled user; lesson N opens once lesson N-1 is completed.
// A lesson with no lower-ordered sibling counts as first and is not locked.
func LessonStatus(userID string, lesson models.Lesson, lessons []models.Lesson, progress []models.Progress, enrollments []models.Enrollment) LessonState {
	if isCompleted(userID, lesson.ID, progress) {
		return Completed
	}
	if !IsEnrolled(userID, lesson.CourseID, enrollments) {
		return Locked
	}
	if lesson.Order > 1 {
		if prev, ok := previous(lesson, lessons); ok && !isCompleted(userID, prev.ID, progress) {
			return Locked
		}
	}
	return Available
}

// CourseLocked reports whether any prerequisite of course lacks a completed
// enrollment for userID. Courses without prerequisites are never locked.
func CourseLocked(userID string, course models.Course, enrollments []models.Enrollment) bool {
	if len(course.Prerequisites) == 0 {
		return false
	}
	completed := make(map[string]bool)
	for _, e := range enrollments {
		if e.UserID == userID && e.Status == models.StatusCompleted {
			completed[e.CourseID] = true
		}
	}
	for _, id := range course.Prerequisites {
		if !completed[id] {
			return true
		}
	}
	return false
}

// SortByOrder returns the lessons of courseID ordered by position.
func SortByOrder(courseID string, lessons []models.Lesson) []models.Lesson {
	out := make([]models.Lesson, 0)
	for _, l := range lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Renumber plans a dense 1..N order for a course's lessons, keeping their
// relative order. Only lessons whose order changes appear in the result.
// Applying the plan in ascending new order never collides on (course, order).
func Renumber(courseID string, lessons []models.Lesson) []OrderChange {
	var plan []OrderChange
	for i, l := range SortByOrder(courseID, lessons) {
		if l.Order != i+1 {
			plan = append(plan, OrderChange{LessonID: l.ID, From: l.Order, To: i + 1})
		}
	}
	return plan
}

type OrderChange struct {
	LessonID string
	From     int
	To       int
}

// Summary holds the admin dashboard figures computed from loaded collections.
type Summary struct {
	TotalCourses     int `json:"totalCourses"`
	TotalStudents    int `json:"totalStudents"`
	TotalEnrollments int `json:"totalEnrollments"`
	CompletedCourses int `json:"completedCourses"`
}

func Summarize(courses []models.Course, users []models.User, enrollments []models.Enrollment) Summary {
	s := Summary{TotalCourses: len(courses), TotalEnrollments: len(enrollments)}
	for _, u := range users {
		if u.Role == models.RoleStudent {
			s.TotalStudents++
		}
	}
	for _, e := range enrollments {
		if e.Status == models.StatusCompleted {
			s.CompletedCourses++
		}
	}
	return s
}
