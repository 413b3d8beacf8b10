package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// EnrollmentService manages course and exam registration for students
type EnrollmentService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
}

// NewEnrollmentService creates a new EnrollmentService instance
func NewEnrollmentService(st *store.Store, dispatcher *notify.Dispatcher) *EnrollmentService {
	return &EnrollmentService{store: st, dispatcher: dispatcher}
}

// ItemError reports why one course of a batch was skipped
type ItemError struct {
	CourseID string `json:"courseId"`
	Error    string `json:"error"`
}

// ExamBatchResult is the partial-success outcome of an exam batch
type ExamBatchResult struct {
	Registered []shared.ExamRegistration `json:"registeredCourses"`
	Cleared    []string                  `json:"clearedCourses,omitempty"`
	Errors     []ItemError               `json:"errors"`
}

const (
	msgNotActive       = "course is not active"
	msgAlreadyEnrolled = "already enrolled in this course"
	msgCourseFull      = "course is full"
	msgNotEnrolled     = "not enrolled in this course"
)

func (s *EnrollmentService) loadStudent(ctx context.Context, op, id string) (*shared.Student, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid student id")
	}
	student, err := s.store.Students.Get(ctx, oid)
	if err != nil {
		return nil, store.Status(op, err, "student")
	}
	return student, nil
}

// findCourse resolves an ObjectID hex or a business courseId
func (s *EnrollmentService) findCourse(ctx context.Context, ref string) (*shared.Course, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, store.ErrNotFound
	}
	if id, ok := shared.ParseObjectID(ref); ok {
		c, err := s.store.Courses.Get(ctx, id)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return c, err
		}
	}
	return s.store.Courses.GetByCourseID(ctx, ref)
}

// RegisterForCourse enrolls the student. The course write is conditional on a
// free seat, so two students racing for the last seat cannot both succeed.
func (s *EnrollmentService) RegisterForCourse(ctx context.Context, studentID, courseRef string) (*shared.CourseSnapshot, error) {
	if strings.TrimSpace(courseRef) == "" {
		return nil, status.Error(codes.InvalidArgument, "courseId is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// 1. Load both sides
	student, err := s.loadStudent(queryCtx, "enrollment.register", studentID)
	if err != nil {
		return nil, err
	}
	course, err := s.findCourse(queryCtx, courseRef)
	if err != nil {
		return nil, store.Status("enrollment.register", err, "course")
	}

	// 2. Preconditions, each with its own message
	switch {
	case !course.IsActive:
		return nil, status.Error(codes.FailedPrecondition, msgNotActive)
	case course.HasStudent(student.ID), student.HasCourse(course.CourseID):
		return nil, status.Error(codes.FailedPrecondition, msgAlreadyEnrolled)
	case course.IsFull():
		return nil, status.Error(codes.FailedPrecondition, msgCourseFull)
	}

	// 3. Write both documents as one unit
	now := time.Now()
	snapshot := course.Snapshot(now)
	err = s.store.Enrollments.Enroll(queryCtx, store.EnrollOp{
		Course:   course.ID,
		Student:  student.ID,
		Snapshot: snapshot,
		Activity: shared.Activity{
			Action:    "Course Registration",
			Timestamp: now,
			Details:   fmt.Sprintf("Registered for %s (%s)", course.Name, course.CourseID),
		},
	})
	switch {
	case errors.Is(err, store.ErrInactive):
		return nil, status.Error(codes.FailedPrecondition, msgNotActive)
	case errors.Is(err, store.ErrCapacity):
		return nil, status.Error(codes.FailedPrecondition, msgCourseFull)
	case errors.Is(err, store.ErrConflict):
		return nil, status.Error(codes.FailedPrecondition, msgAlreadyEnrolled)
	case err != nil:
		return nil, store.Status("enrollment.register", err, "course")
	}

	logger.Info().
		Str("student_id", student.StudentID).
		Str("course_id", course.CourseID).
		Msg("course registration")

	s.dispatcher.Go("course-registration", notify.TemplateCourseRegistration, student.Email, map[string]string{
		"STUDENT_NAME":      student.FullName(),
		"COURSE_NAME":       course.Name,
		"COURSE_ID":         course.CourseID,
		"REGISTRATION_DATE": now.Format("January 2, 2006"),
	})

	return &snapshot, nil
}

// UnregisterFromCourse removes the student from the course, dropping any exam
// registration for it as well
func (s *EnrollmentService) UnregisterFromCourse(ctx context.Context, studentID, courseRef string) error {
	if strings.TrimSpace(courseRef) == "" {
		return status.Error(codes.InvalidArgument, "courseId is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.unregister", studentID)
	if err != nil {
		return err
	}
	course, err := s.findCourse(queryCtx, courseRef)
	if err != nil {
		return store.Status("enrollment.unregister", err, "course")
	}
	if !course.HasStudent(student.ID) || !student.HasCourse(course.CourseID) {
		return status.Error(codes.FailedPrecondition, msgNotEnrolled)
	}

	now := time.Now()
	err = s.store.Enrollments.Unenroll(queryCtx, store.UnenrollOp{
		Course:   course.ID,
		CourseID: course.CourseID,
		Student:  student.ID,
		Activity: shared.Activity{
			Action:    "Course Unregistration",
			Timestamp: now,
			Details:   fmt.Sprintf("Unregistered from %s (%s)", course.Name, course.CourseID),
		},
	})
	if errors.Is(err, store.ErrConflict) {
		return status.Error(codes.FailedPrecondition, msgNotEnrolled)
	}
	if err != nil {
		return store.Status("enrollment.unregister", err, "course")
	}

	logger.Info().
		Str("student_id", student.StudentID).
		Str("course_id", course.CourseID).
		Msg("course unregistration")

	s.dispatcher.Go("course-unregistration", notify.TemplateCourseUnregistration, student.Email, map[string]string{
		"STUDENT_NAME": student.FullName(),
		"COURSE_NAME":  course.Name,
		"COURSE_ID":    course.CourseID,
	})
	return nil
}

// dedupe trims refs and drops blanks and repeats, keeping order
func dedupe(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// RegisterForExams registers the student for the exams of the given courses.
// Items fail independently; an InvalidArgument error is returned together
// with the result only when nothing could be registered.
func (s *EnrollmentService) RegisterForExams(ctx context.Context, studentID string, courseRefs []string) (*ExamBatchResult, error) {
	refs := dedupe(courseRefs)
	if len(refs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "courseIds must be a non-empty list")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.exams", studentID)
	if err != nil {
		return nil, err
	}

	result := &ExamBatchResult{Registered: []shared.ExamRegistration{}, Errors: []ItemError{}}
	now := time.Now()
	seen := make(map[string]bool)

	for _, ref := range refs {
		course, err := s.findCourse(queryCtx, ref)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, store.Status("enrollment.exams", err, "course")
			}
			result.Errors = append(result.Errors, ItemError{CourseID: ref, Error: "course not found"})
			continue
		}
		if seen[course.CourseID] {
			continue
		}
		seen[course.CourseID] = true

		if !course.HasStudent(student.ID) && !student.HasCourse(course.CourseID) {
			result.Errors = append(result.Errors, ItemError{CourseID: course.CourseID, Error: "not enrolled in this course"})
			continue
		}
		if student.HasExam(course.CourseID) {
			result.Errors = append(result.Errors, ItemError{CourseID: course.CourseID, Error: "already registered for this exam"})
			continue
		}
		result.Registered = append(result.Registered, shared.ExamRegistration{
			CourseID:     course.CourseID,
			Name:         course.Name,
			RegisteredAt: now,
		})
	}

	if len(result.Registered) == 0 {
		return result, status.Error(codes.InvalidArgument, "no exams could be registered")
	}

	names := make([]string, len(result.Registered))
	for i, e := range result.Registered {
		names[i] = e.Name
	}
	activity := shared.Activity{
		Action:    "Exam Registration",
		Timestamp: now,
		Details:   "Registered for exams: " + strings.Join(names, ", "),
	}
	err = s.store.Students.AddExams(queryCtx, student.ID, result.Registered, activity)
	if errors.Is(err, store.ErrConflict) {
		return nil, status.Error(codes.FailedPrecondition, "already registered for one of these exams")
	}
	if err != nil {
		return nil, store.Status("enrollment.exams", err, "student")
	}

	logger.Info().
		Str("student_id", student.StudentID).
		Int("registered", len(result.Registered)).
		Int("failed", len(result.Errors)).
		Msg("exam registration")
	return result, nil
}

// ClearExamRegistrations removes exam registrations with the same
// partial-success contract as RegisterForExams
func (s *EnrollmentService) ClearExamRegistrations(ctx context.Context, studentID string, courseRefs []string) (*ExamBatchResult, error) {
	refs := dedupe(courseRefs)
	if len(refs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "courseIds must be a non-empty list")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.clearExams", studentID)
	if err != nil {
		return nil, err
	}

	result := &ExamBatchResult{Registered: []shared.ExamRegistration{}, Cleared: []string{}, Errors: []ItemError{}}
	seen := make(map[string]bool)

	for _, ref := range refs {
		courseID := ref
		if !student.HasExam(courseID) {
			// the ref may be an ObjectID
			if course, err := s.findCourse(queryCtx, ref); err == nil {
				courseID = course.CourseID
			}
		}
		if seen[courseID] {
			continue
		}
		seen[courseID] = true

		if !student.HasExam(courseID) {
			result.Errors = append(result.Errors, ItemError{CourseID: ref, Error: "no exam registration for this course"})
			continue
		}
		result.Cleared = append(result.Cleared, courseID)
	}

	if len(result.Cleared) == 0 {
		return result, status.Error(codes.InvalidArgument, "no exam registrations could be cleared")
	}

	activity := shared.Activity{
		Action:    "Exam Registration Cleared",
		Timestamp: time.Now(),
		Details:   "Cleared exams: " + strings.Join(result.Cleared, ", "),
	}
	if err := s.store.Students.RemoveExams(queryCtx, student.ID, result.Cleared, activity); err != nil {
		return nil, store.Status("enrollment.clearExams", err, "student")
	}
	return result, nil
}

// ListStudentCourses returns the student's course snapshots
func (s *EnrollmentService) ListStudentCourses(ctx context.Context, studentID string) ([]shared.CourseSnapshot, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.courses", studentID)
	if err != nil {
		return nil, err
	}
	if student.Courses == nil {
		return []shared.CourseSnapshot{}, nil
	}
	return student.Courses, nil
}

// ListStudentExams returns the student's exam registrations
func (s *EnrollmentService) ListStudentExams(ctx context.Context, studentID string) ([]shared.ExamRegistration, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.exams", studentID)
	if err != nil {
		return nil, err
	}
	if student.Exams == nil {
		return []shared.ExamRegistration{}, nil
	}
	return student.Exams, nil
}

// RecentActivity returns the newest activity entries first
func (s *EnrollmentService) RecentActivity(ctx context.Context, studentID string) ([]shared.Activity, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.loadStudent(queryCtx, "enrollment.activity", studentID)
	if err != nil {
		return nil, err
	}

	out := append([]shared.Activity{}, student.RecentActivity...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > shared.MaxRecentActivities {
		out = out[:shared.MaxRecentActivities]
	}
	return out, nil
}
