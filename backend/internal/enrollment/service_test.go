package enrollment

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/memstore"
)

type fixture struct {
	svc    *EnrollmentService
	store  *store.Store
	mailer *notify.ConsoleMailer
	disp   *notify.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	mailer := notify.NewConsoleMailer(zerolog.Nop())
	n, err := notify.NewTemplateNotifier(mailer, notify.Defaults{SchoolName: "Test School"})
	require.NoError(t, err)
	disp := notify.NewDispatcher(n, notify.DispatcherOptions{MaxAttempts: 1, Logger: zerolog.Nop()})
	return &fixture{svc: NewEnrollmentService(st, disp), store: st, mailer: mailer, disp: disp}
}

func (f *fixture) student(t *testing.T, n int) *shared.Student {
	t.Helper()
	s := &shared.Student{
		StudentID: fmt.Sprintf("STU%d", n),
		FirstName: "Student",
		LastName:  fmt.Sprint(n),
		Email:     fmt.Sprintf("student%d@example.com", n),
		Phone:     fmt.Sprintf("555-%04d", n),
	}
	require.NoError(t, f.store.Students.Create(context.Background(), s))
	return s
}

func (f *fixture) course(t *testing.T, courseID string, max int, active bool) *shared.Course {
	t.Helper()
	c := &shared.Course{
		CourseID:    courseID,
		Name:        "Course " + courseID,
		Description: "About " + courseID,
		MaxStudents: max,
		Materials:   []string{"Syllabus"},
		IsActive:    active,
	}
	require.NoError(t, f.store.Courses.Create(context.Background(), c))
	return c
}

func TestRegisterForCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	c := f.course(t, "CS101", 10, true)

	snap, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	require.NoError(t, err)
	assert.Equal(t, "CS101", snap.CourseID)
	assert.Equal(t, []string{"Syllabus"}, snap.Materials)

	stored, err := f.store.Courses.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{s.ID}, stored.Students)

	courses, err := f.svc.ListStudentCourses(ctx, s.ID.Hex())
	require.NoError(t, err)
	require.Len(t, courses, 1)

	f.disp.Wait()
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.TemplateCourseRegistration, sent[0].Template)
}

func TestRegisterForCourseByObjectID(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, 1)
	c := f.course(t, "CS102", 10, true)

	_, err := f.svc.RegisterForCourse(context.Background(), s.ID.Hex(), c.ID.Hex())
	require.NoError(t, err)
}

func TestRegisterForCoursePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	f.course(t, "OLD100", 10, false)
	f.course(t, "CS101", 10, true)

	_, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), "NOPE")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "OLD100")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "not active")

	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	require.NoError(t, err)
	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "already enrolled")

	_, err = f.svc.RegisterForCourse(ctx, "bad", "CS101")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), " ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCourseCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.student(t, 1)
	b := f.student(t, 2)
	f.course(t, "SEM1", 1, true)

	_, err := f.svc.RegisterForCourse(ctx, a.ID.Hex(), "SEM1")
	require.NoError(t, err)

	_, err = f.svc.RegisterForCourse(ctx, b.ID.Hex(), "SEM1")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "course is full")
}

func TestConcurrentRegistrationForLastSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.course(t, "LAST1", 1, true)

	const contenders = 8
	students := make([]*shared.Student, contenders)
	for i := range students {
		students[i] = f.student(t, i+1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, s := range students {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.svc.RegisterForCourse(ctx, id, "LAST1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(s.ID.Hex())
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	stored, err := f.store.Courses.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Students, 1)
}

func TestUnregisterThenRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	c := f.course(t, "CS101", 5, true)

	err := f.svc.UnregisterFromCourse(ctx, s.ID.Hex(), "CS101")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	require.NoError(t, err)
	_, err = f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"CS101"})
	require.NoError(t, err)

	require.NoError(t, f.svc.UnregisterFromCourse(ctx, s.ID.Hex(), "CS101"))

	exams, err := f.svc.ListStudentExams(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, exams)

	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	require.NoError(t, err)

	stored, err := f.store.Courses.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Students, 1)

	courses, err := f.svc.ListStudentCourses(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestRegisterForExamsPartialBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	f.course(t, "ENR1", 5, true)
	f.course(t, "ENR2", 5, true)
	f.course(t, "OTHER", 5, true)

	_, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), "ENR1")
	require.NoError(t, err)
	_, err = f.svc.RegisterForCourse(ctx, s.ID.Hex(), "ENR2")
	require.NoError(t, err)
	_, err = f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"ENR2"})
	require.NoError(t, err)

	res, err := f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"ENR1", "OTHER", "ENR2", "ENR1"})
	require.NoError(t, err)
	require.Len(t, res.Registered, 1)
	assert.Equal(t, "ENR1", res.Registered[0].CourseID)
	assert.Len(t, res.Errors, 2)

	exams, err := f.svc.ListStudentExams(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, exams, 2)
}

func TestRegisterForExamsNothingRegistered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)

	res, err := f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"MISSING"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	require.NotNil(t, res)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "course not found", res.Errors[0].Error)

	_, err = f.svc.RegisterForExams(ctx, s.ID.Hex(), nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClearExamRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	c := f.course(t, "CS101", 5, true)

	_, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), "CS101")
	require.NoError(t, err)
	_, err = f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"CS101"})
	require.NoError(t, err)

	res, err := f.svc.ClearExamRegistrations(ctx, s.ID.Hex(), []string{c.ID.Hex(), "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, res.Cleared)
	assert.Len(t, res.Errors, 1)

	_, err = f.svc.ClearExamRegistrations(ctx, s.ID.Hex(), []string{"CS101"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.svc.ClearExamRegistrations(ctx, s.ID.Hex(), []string{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRecentActivityNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)

	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("C%02d", i)
		f.course(t, id, 5, true)
		_, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), id)
		require.NoError(t, err)
		require.NoError(t, f.svc.UnregisterFromCourse(ctx, s.ID.Hex(), id))
	}

	activity, err := f.svc.RecentActivity(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, activity, shared.MaxRecentActivities)
	for i := 1; i < len(activity); i++ {
		assert.False(t, activity[i].Timestamp.After(activity[i-1].Timestamp))
	}
}

// interleavedEnrollments runs before once ahead of the first Enroll, standing
// in for a request that commits between the service's read and its write.
type interleavedEnrollments struct {
	store.Enrollments
	once   sync.Once
	before func()
}

func (e *interleavedEnrollments) Enroll(ctx context.Context, op store.EnrollOp) error {
	e.once.Do(e.before)
	return e.Enrollments.Enroll(ctx, op)
}

func TestRegisterForCourseLostRace(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		between func(t *testing.T, f *fixture, c *shared.Course, s *shared.Student)
		want    string
	}{
		{
			name: "double submit",
			max:  5,
			between: func(t *testing.T, f *fixture, c *shared.Course, s *shared.Student) {
				require.NoError(t, f.store.Enrollments.(*interleavedEnrollments).Enrollments.Enroll(context.Background(), store.EnrollOp{
					Course: c.ID, Student: s.ID, Snapshot: c.Snapshot(c.CreatedAt),
				}))
			},
			want: "already enrolled",
		},
		{
			name: "last seat taken",
			max:  1,
			between: func(t *testing.T, f *fixture, c *shared.Course, _ *shared.Student) {
				other := f.student(t, 99)
				require.NoError(t, f.store.Enrollments.(*interleavedEnrollments).Enrollments.Enroll(context.Background(), store.EnrollOp{
					Course: c.ID, Student: other.ID, Snapshot: c.Snapshot(c.CreatedAt),
				}))
			},
			want: "course is full",
		},
		{
			name: "deactivated",
			max:  5,
			between: func(t *testing.T, f *fixture, c *shared.Course, _ *shared.Student) {
				stored, err := f.store.Courses.Get(context.Background(), c.ID)
				require.NoError(t, err)
				stored.IsActive = false
				require.NoError(t, f.store.Courses.UpdateDetails(context.Background(), stored))
			},
			want: "not active",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := f.student(t, 1)
			c := f.course(t, "RACE1", tt.max, true)
			f.store.Enrollments = &interleavedEnrollments{
				Enrollments: f.store.Enrollments,
				before:      func() { tt.between(t, f, c, s) },
			}

			_, err := f.svc.RegisterForCourse(context.Background(), s.ID.Hex(), "RACE1")
			assert.Equal(t, codes.FailedPrecondition, status.Code(err))
			assert.Contains(t, status.Convert(err).Message(), tt.want)
		})
	}
}

// interleavedStudents registers the same exams once ahead of the first AddExams
type interleavedStudents struct {
	store.Students
	once sync.Once
}

func (s *interleavedStudents) AddExams(ctx context.Context, id primitive.ObjectID, exams []shared.ExamRegistration, activity shared.Activity) error {
	var err error
	s.once.Do(func() { err = s.Students.AddExams(ctx, id, exams, activity) })
	if err != nil {
		return err
	}
	return s.Students.AddExams(ctx, id, exams, activity)
}

func TestRegisterForExamsLostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.student(t, 1)
	f.course(t, "EXM1", 5, true)
	_, err := f.svc.RegisterForCourse(ctx, s.ID.Hex(), "EXM1")
	require.NoError(t, err)

	f.store.Students = &interleavedStudents{Students: f.store.Students}

	_, err = f.svc.RegisterForExams(ctx, s.ID.Hex(), []string{"EXM1"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	exams, err := f.svc.ListStudentExams(ctx, s.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, exams, 1)
}
