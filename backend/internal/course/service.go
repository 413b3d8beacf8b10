package course

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// CourseService administers the enrollable courses
type CourseService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	now        func() time.Time
}

// NewCourseService creates a new CourseService instance
func NewCourseService(st *store.Store, dispatcher *notify.Dispatcher) *CourseService {
	return &CourseService{store: st, dispatcher: dispatcher, now: time.Now}
}

// CourseInput is the writable part of a course. A zero MaxStudents takes the
// school-wide default from settings.
type CourseInput struct {
	CourseID    string          `json:"courseId" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	MaxStudents int             `json:"maxStudents" validate:"gte=0"`
	Duration    int             `json:"duration" validate:"gte=0"`
	Schedule    shared.Schedule `json:"schedule"`
	Materials   []string        `json:"materials"`
	IsActive    *bool           `json:"isActive"`
}

// RosterEntry is one enrolled student as shown to administrators
type RosterEntry struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// courseInput is a normalized CourseInput
type courseInput struct {
	CourseInput
	instructor *shared.Staff
}

func (s *CourseService) validate(ctx context.Context, in CourseInput) (*courseInput, error) {
	in.CourseID = strings.ToUpper(strings.TrimSpace(in.CourseID))
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.CourseID == "" || in.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "courseId and name are required")
	}
	if in.MaxStudents < 0 {
		return nil, status.Error(codes.InvalidArgument, "maxStudents must be at least 1")
	}
	if in.Duration < 0 {
		return nil, status.Error(codes.InvalidArgument, "duration must not be negative")
	}
	for _, d := range in.Schedule.Days {
		if !shared.OneOf(d, shared.WeekDays) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid schedule day %q", d)
		}
	}
	for _, t := range []string{in.Schedule.StartTime, in.Schedule.EndTime} {
		if t == "" {
			continue
		}
		if _, err := time.Parse("15:04", t); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid schedule time %q, expected HH:MM", t)
		}
	}

	materials := make([]string, 0, len(in.Materials))
	for _, m := range in.Materials {
		if m = strings.TrimSpace(m); m != "" {
			materials = append(materials, m)
		}
	}
	in.Materials = materials

	out := &courseInput{CourseInput: in}
	if ref := strings.TrimSpace(in.Instructor); ref != "" {
		id, ok := shared.ParseObjectID(ref)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "invalid instructor id")
		}
		staff, err := s.store.Staff.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, status.Error(codes.InvalidArgument, "instructor not found")
			}
			return nil, store.Status("course.validate", err, "staff")
		}
		out.instructor = staff
	}
	return out, nil
}

func (s *CourseService) defaultCapacity(ctx context.Context) int {
	settings, err := s.store.Settings.Get(ctx)
	if err == nil && settings.SystemPreferences.MaxStudentsPerCourse > 0 {
		return settings.SystemPreferences.MaxStudentsPerCourse
	}
	return shared.DefaultSettings().SystemPreferences.MaxStudentsPerCourse
}

// CreateCourse adds a course with an empty roster
func (s *CourseService) CreateCourse(ctx context.Context, in CourseInput) (*shared.Course, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Validate input and instructor
	v, err := s.validate(queryCtx, in)
	if err != nil {
		return nil, err
	}
	if v.MaxStudents == 0 {
		v.MaxStudents = s.defaultCapacity(queryCtx)
	}

	// 2. Persist
	now := s.now()
	course := &shared.Course{
		CourseID:    v.CourseID,
		Name:        v.Name,
		Description: v.Description,
		Students:    []primitive.ObjectID{},
		MaxStudents: v.MaxStudents,
		Duration:    v.Duration,
		Schedule:    v.Schedule,
		Materials:   v.Materials,
		IsActive:    v.IsActive == nil || *v.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if v.instructor != nil {
		course.Instructor = &v.instructor.ID
	}
	if err := s.store.Courses.Create(queryCtx, course); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "a course with this courseId already exists")
		}
		return nil, store.Status("course.create", err, "course")
	}

	logger.Info().Str("course_id", course.CourseID).Int("max_students", course.MaxStudents).Msg("course created")
	return course, nil
}

// ListCourses returns courses ordered by courseId
func (s *CourseService) ListCourses(ctx context.Context, activeOnly bool) ([]shared.Course, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	courses, err := s.store.Courses.List(queryCtx, activeOnly)
	if err != nil {
		return nil, store.Status("course.list", err, "course")
	}
	return courses, nil
}

// GetCourse resolves an ObjectID hex or a courseId
func (s *CourseService) GetCourse(ctx context.Context, ref string) (*shared.Course, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, status.Error(codes.InvalidArgument, "course id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	course, err := s.find(queryCtx, ref)
	if err != nil {
		return nil, store.Status("course.get", err, "course")
	}
	return course, nil
}

func (s *CourseService) find(ctx context.Context, ref string) (*shared.Course, error) {
	if id, ok := shared.ParseObjectID(ref); ok {
		return s.store.Courses.Get(ctx, id)
	}
	return s.store.Courses.GetByCourseID(ctx, strings.ToUpper(strings.TrimSpace(ref)))
}

// UpdateCourse replaces every field except the roster
func (s *CourseService) UpdateCourse(ctx context.Context, ref string, in CourseInput) (*shared.Course, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	course, err := s.find(queryCtx, ref)
	if err != nil {
		return nil, store.Status("course.update", err, "course")
	}

	v, err := s.validate(queryCtx, in)
	if err != nil {
		return nil, err
	}
	if v.MaxStudents == 0 {
		v.MaxStudents = course.MaxStudents
	}
	if v.MaxStudents < len(course.Students) {
		return nil, status.Errorf(codes.FailedPrecondition,
			"maxStudents cannot be lower than the %d enrolled students", len(course.Students))
	}

	course.CourseID = v.CourseID
	course.Name = v.Name
	course.Description = v.Description
	course.MaxStudents = v.MaxStudents
	course.Duration = v.Duration
	course.Schedule = v.Schedule
	course.Materials = v.Materials
	if v.IsActive != nil {
		course.IsActive = *v.IsActive
	}
	course.Instructor = nil
	if v.instructor != nil {
		course.Instructor = &v.instructor.ID
	}
	course.UpdatedAt = s.now()

	if err := s.store.Courses.UpdateDetails(queryCtx, course); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "a course with this courseId already exists")
		}
		return nil, store.Status("course.update", err, "course")
	}
	return course, nil
}

// DeleteCourse removes a course. Student snapshots are left untouched and the
// instructor, when known, is told by email.
func (s *CourseService) DeleteCourse(ctx context.Context, ref string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	course, err := s.find(queryCtx, ref)
	if err != nil {
		return store.Status("course.delete", err, "course")
	}
	if err := s.store.Courses.Delete(queryCtx, course.ID); err != nil {
		return store.Status("course.delete", err, "course")
	}

	logger.Info().Str("course_id", course.CourseID).Int("enrolled", len(course.Students)).Msg("course deleted")

	if course.Instructor != nil {
		if instructor, err := s.store.Staff.Get(queryCtx, *course.Instructor); err == nil {
			s.dispatcher.Go("course-deletion", notify.TemplateCourseDeletion, instructor.Email, map[string]string{
				"COURSE_NAME":    course.Name,
				"COURSE_ID":      course.CourseID,
				"DELETION_TIME":  s.now().Format(time.RFC1123),
				"ENROLLED_COUNT": strconv.Itoa(len(course.Students)),
			})
		}
	}
	return nil
}

// CourseStudents lists the roster of a course. Roster entries whose student
// record no longer exists are skipped.
func (s *CourseService) CourseStudents(ctx context.Context, ref string) ([]RosterEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	course, err := s.find(queryCtx, ref)
	if err != nil {
		return nil, store.Status("course.students", err, "course")
	}

	roster := make([]RosterEntry, 0, len(course.Students))
	for _, id := range course.Students {
		student, err := s.store.Students.Get(queryCtx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, store.Status("course.students", err, "student")
		}
		roster = append(roster, RosterEntry{
			ID:        student.ID.Hex(),
			StudentID: student.StudentID,
			Name:      student.FullName(),
			Email:     student.Email,
		})
	}
	return roster, nil
}
