package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type students struct{ *db }

func (r *students) Create(_ context.Context, s *shared.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.students {
		if existing.Email == s.Email || existing.Phone == s.Phone || existing.StudentID == s.StudentID {
			return store.ErrDuplicate
		}
	}
	assignID(&s.ID)
	r.students[s.ID] = cloneStudent(s)
	return nil
}

func (r *students) Get(_ context.Context, id primitive.ObjectID) (*shared.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneStudent(s), nil
}

func (r *students) GetByEmail(_ context.Context, email string) (*shared.Student, error) {
	return r.find(func(s *shared.Student) bool { return s.Email == email })
}

func (r *students) GetByStudentID(_ context.Context, studentID string) (*shared.Student, error) {
	return r.find(func(s *shared.Student) bool { return s.StudentID == studentID })
}

func (r *students) GetByPhone(_ context.Context, phone string) (*shared.Student, error) {
	return r.find(func(s *shared.Student) bool { return s.Phone == phone })
}

func (r *students) find(match func(*shared.Student) bool) (*shared.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.students {
		if match(s) {
			return cloneStudent(s), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *students) List(_ context.Context, f store.StudentFilter) ([]shared.Student, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []shared.Student
	for _, s := range r.students {
		if f.Search != "" && !containsFold(s.FullName(), f.Search) &&
			!containsFold(s.Email, f.Search) && !containsFold(s.StudentID, f.Search) {
			continue
		}
		matched = append(matched, *cloneStudent(s))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Skip, f.Limit), int64(len(matched)), nil
}

func (r *students) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.students)), nil
}

func (r *students) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.students, id)
	return nil
}

// mutate applies fn to the stored record under the write lock.
func (r *students) mutate(id primitive.ObjectID, fn func(s *shared.Student) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (r *students) UpdateProfile(_ context.Context, id primitive.ObjectID, p store.StudentProfile) error {
	r.mu.RLock()
	for otherID, other := range r.students {
		if otherID != id && other.Phone == p.Phone {
			r.mu.RUnlock()
			return store.ErrDuplicate
		}
	}
	r.mu.RUnlock()

	return r.mutate(id, func(s *shared.Student) error {
		s.FirstName = p.FirstName
		s.LastName = p.LastName
		s.Phone = p.Phone
		s.Age = p.Age
		return nil
	})
}

func (r *students) SetOTP(_ context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error {
	return r.mutate(id, func(s *shared.Student) error {
		at := expiresAt
		s.OTP = otp
		s.OTPVerified = false
		s.OTPExpiresAt = &at
		return nil
	})
}

func (r *students) MarkOTPVerified(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(s *shared.Student) error {
		s.OTP = ""
		s.OTPExpiresAt = nil
		s.OTPVerified = true
		return nil
	})
}

func (r *students) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return r.mutate(id, func(s *shared.Student) error {
		s.PasswordHash = hash
		s.OTPVerified = false
		return nil
	})
}

func (r *students) SetAdmin(_ context.Context, id primitive.ObjectID, isAdmin bool) error {
	return r.mutate(id, func(s *shared.Student) error {
		s.IsAdmin = isAdmin
		return nil
	})
}

func (r *students) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return r.mutate(id, func(s *shared.Student) error {
		t := at
		s.LastLogin = &t
		return nil
	})
}

func (r *students) AddExams(_ context.Context, id primitive.ObjectID, exams []shared.ExamRegistration, activity shared.Activity) error {
	return r.mutate(id, func(s *shared.Student) error {
		for _, e := range exams {
			if s.HasExam(e.CourseID) {
				return store.ErrConflict
			}
		}
		s.Exams = append(s.Exams, exams...)
		s.RecentActivity = append(s.RecentActivity, activity)
		return nil
	})
}

func (r *students) RemoveExams(_ context.Context, id primitive.ObjectID, courseIDs []string, activity shared.Activity) error {
	return r.mutate(id, func(s *shared.Student) error {
		drop := make(map[string]bool, len(courseIDs))
		for _, c := range courseIDs {
			drop[c] = true
		}
		kept := s.Exams[:0:0]
		for _, e := range s.Exams {
			if !drop[e.CourseID] {
				kept = append(kept, e)
			}
		}
		s.Exams = kept
		s.RecentActivity = append(s.RecentActivity, activity)
		return nil
	})
}

type staffMembers struct{ *db }

func (r *staffMembers) Create(_ context.Context, s *shared.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.staff {
		if existing.Email == s.Email || existing.Phone == s.Phone {
			return store.ErrDuplicate
		}
	}
	assignID(&s.ID)
	c := *s
	r.staff[s.ID] = &c
	return nil
}

func (r *staffMembers) Get(_ context.Context, id primitive.ObjectID) (*shared.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.staff[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *staffMembers) GetByEmail(_ context.Context, email string) (*shared.Staff, error) {
	return r.find(func(s *shared.Staff) bool { return s.Email == email })
}

func (r *staffMembers) GetByPhone(_ context.Context, phone string) (*shared.Staff, error) {
	return r.find(func(s *shared.Staff) bool { return s.Phone == phone })
}

func (r *staffMembers) find(match func(*shared.Staff) bool) (*shared.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.staff {
		if match(s) {
			c := *s
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *staffMembers) List(_ context.Context, f store.StaffFilter) ([]shared.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.Staff{}
	for _, s := range r.staff {
		if f.Role != "" && s.Role != f.Role {
			continue
		}
		if f.ActiveOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (r *staffMembers) Update(_ context.Context, s *shared.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staff[s.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range r.staff {
		if id != s.ID && (existing.Email == s.Email || existing.Phone == s.Phone) {
			return store.ErrDuplicate
		}
	}
	c := *s
	r.staff[s.ID] = &c
	return nil
}

func (r *staffMembers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staff[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.staff, id)
	return nil
}

func (r *staffMembers) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.staff)), nil
}

func (r *staffMembers) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.staff[id]
	if !ok {
		return store.ErrNotFound
	}
	t := at
	s.LastLogin = &t
	return nil
}

func (r *staffMembers) SetPassword(_ context.Context, id primitive.ObjectID, hash string, mustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.staff[id]
	if !ok {
		return store.ErrNotFound
	}
	s.PasswordHash = hash
	s.MustChangePassword = mustChange
	s.UpdatedAt = time.Now()
	return nil
}

type admins struct{ *db }

func (r *admins) Create(_ context.Context, a *shared.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.admins {
		if existing.Email == a.Email {
			return store.ErrDuplicate
		}
	}
	assignID(&a.ID)
	c := *a
	r.admins[a.ID] = &c
	return nil
}

func (r *admins) Get(_ context.Context, id primitive.ObjectID) (*shared.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.admins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *admins) GetByEmail(_ context.Context, email string) (*shared.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *admins) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	t := at
	a.LastLogin = &t
	return nil
}

func (r *admins) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now()
	return nil
}
