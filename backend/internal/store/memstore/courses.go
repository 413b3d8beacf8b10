package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type courses struct{ *db }

func (r *courses) Create(_ context.Context, c *shared.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.courses {
		if existing.CourseID == c.CourseID {
			return store.ErrDuplicate
		}
	}
	assignID(&c.ID)
	r.courses[c.ID] = cloneCourse(c)
	return nil
}

func (r *courses) Get(_ context.Context, id primitive.ObjectID) (*shared.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneCourse(c), nil
}

func (r *courses) GetByCourseID(_ context.Context, courseID string) (*shared.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.courses {
		if c.CourseID == courseID {
			return cloneCourse(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *courses) List(_ context.Context, activeOnly bool) ([]shared.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.Course{}
	for _, c := range r.courses {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *cloneCourse(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (r *courses) UpdateDetails(_ context.Context, c *shared.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.courses[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range r.courses {
		if id != c.ID && other.CourseID == c.CourseID {
			return store.ErrDuplicate
		}
	}
	updated := cloneCourse(c)
	updated.Students = existing.Students
	r.courses[c.ID] = updated
	return nil
}

func (r *courses) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *courses) CountActive(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, c := range r.courses {
		if c.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *courses) RemoveStudent(_ context.Context, student primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.courses {
		c.Students = removeID(c.Students, student)
	}
	return nil
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type enrollments struct{ *db }

func (r *enrollments) Enroll(_ context.Context, op store.EnrollOp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	course, ok := r.courses[op.Course]
	if !ok {
		return store.ErrNotFound
	}
	student, ok := r.students[op.Student]
	if !ok {
		return store.ErrNotFound
	}
	switch {
	case !course.IsActive:
		return store.ErrInactive
	case course.HasStudent(op.Student), student.HasCourse(op.Snapshot.CourseID):
		return store.ErrConflict
	case course.IsFull():
		return store.ErrCapacity
	}

	now := time.Now()
	course.Students = append(course.Students, op.Student)
	course.UpdatedAt = now
	student.Courses = append(student.Courses, op.Snapshot)
	student.RecentActivity = append(student.RecentActivity, op.Activity)
	student.UpdatedAt = now
	return nil
}

func (r *enrollments) Unenroll(_ context.Context, op store.UnenrollOp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	course, ok := r.courses[op.Course]
	if !ok {
		return store.ErrNotFound
	}
	student, ok := r.students[op.Student]
	if !ok {
		return store.ErrNotFound
	}
	if !course.HasStudent(op.Student) {
		return store.ErrConflict
	}

	now := time.Now()
	course.Students = removeID(course.Students, op.Student)
	course.UpdatedAt = now

	snapshots := make([]shared.CourseSnapshot, 0, len(student.Courses))
	for _, s := range student.Courses {
		if s.CourseID != op.CourseID {
			snapshots = append(snapshots, s)
		}
	}
	exams := make([]shared.ExamRegistration, 0, len(student.Exams))
	for _, e := range student.Exams {
		if e.CourseID != op.CourseID {
			exams = append(exams, e)
		}
	}
	student.Courses = snapshots
	student.Exams = exams
	student.RecentActivity = append(student.RecentActivity, op.Activity)
	student.UpdatedAt = now
	return nil
}
