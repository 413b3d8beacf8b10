package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

func TestEnrollMisses(t *testing.T) {
	ctx := context.Background()
	st := New()

	a := &shared.Student{StudentID: "STU1", Email: "a@example.com", Phone: "1"}
	b := &shared.Student{StudentID: "STU2", Email: "b@example.com", Phone: "2"}
	require.NoError(t, st.Students.Create(ctx, a))
	require.NoError(t, st.Students.Create(ctx, b))

	open := &shared.Course{CourseID: "OPEN1", Name: "Open", MaxStudents: 1, IsActive: true}
	closed := &shared.Course{CourseID: "SHUT1", Name: "Shut", MaxStudents: 5}
	require.NoError(t, st.Courses.Create(ctx, open))
	require.NoError(t, st.Courses.Create(ctx, closed))

	op := func(c *shared.Course, s *shared.Student) store.EnrollOp {
		return store.EnrollOp{Course: c.ID, Student: s.ID, Snapshot: c.Snapshot(time.Now())}
	}

	assert.ErrorIs(t, st.Enrollments.Enroll(ctx, op(closed, a)), store.ErrInactive)
	require.NoError(t, st.Enrollments.Enroll(ctx, op(open, a)))
	assert.ErrorIs(t, st.Enrollments.Enroll(ctx, op(open, a)), store.ErrConflict)
	assert.ErrorIs(t, st.Enrollments.Enroll(ctx, op(open, b)), store.ErrCapacity)

	stored, err := st.Courses.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Students, 1)
}

func TestAddExamsRejectsRegisteredCourse(t *testing.T) {
	ctx := context.Background()
	st := New()
	s := &shared.Student{StudentID: "STU1", Email: "a@example.com", Phone: "1"}
	require.NoError(t, st.Students.Create(ctx, s))

	exam := shared.ExamRegistration{CourseID: "CS101", Name: "Programming", RegisteredAt: time.Now()}
	other := shared.ExamRegistration{CourseID: "CS201", Name: "Algorithms", RegisteredAt: time.Now()}
	require.NoError(t, st.Students.AddExams(ctx, s.ID, []shared.ExamRegistration{exam}, shared.Activity{Action: "Exam Registration"}))

	err := st.Students.AddExams(ctx, s.ID, []shared.ExamRegistration{other, exam}, shared.Activity{Action: "Exam Registration"})
	assert.ErrorIs(t, err, store.ErrConflict)

	stored, err := st.Students.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, stored.Exams, 1)
	assert.Equal(t, "CS101", stored.Exams[0].CourseID)
	assert.Len(t, stored.RecentActivity, 1)
}
