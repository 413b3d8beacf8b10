package memstore

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type faculties struct{ *db }

func (r *faculties) Create(_ context.Context, f *shared.Faculty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.faculties {
		if strings.EqualFold(existing.Name, f.Name) || existing.FacultyID == f.FacultyID {
			return store.ErrDuplicate
		}
	}
	assignID(&f.ID)
	c := *f
	r.faculties[f.ID] = &c
	return nil
}

func (r *faculties) Get(_ context.Context, id primitive.ObjectID) (*shared.Faculty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.faculties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *f
	return &c, nil
}

func (r *faculties) GetByCode(_ context.Context, facultyID string) (*shared.Faculty, error) {
	return r.find(func(f *shared.Faculty) bool { return f.FacultyID == facultyID })
}

func (r *faculties) GetByName(_ context.Context, name string) (*shared.Faculty, error) {
	return r.find(func(f *shared.Faculty) bool { return strings.EqualFold(f.Name, strings.TrimSpace(name)) })
}

func (r *faculties) find(match func(*shared.Faculty) bool) (*shared.Faculty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.faculties {
		if match(f) {
			c := *f
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *faculties) List(_ context.Context, includeInactive bool) ([]shared.Faculty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.Faculty{}
	for _, f := range r.faculties {
		if includeInactive || f.IsActive {
			out = append(out, *f)
		}
	}
	sortByOrderThenName(out, func(f shared.Faculty) int { return f.Order }, func(f shared.Faculty) string { return f.Name })
	return out, nil
}

func (r *faculties) Update(_ context.Context, f *shared.Faculty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.faculties[f.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range r.faculties {
		if id != f.ID && strings.EqualFold(existing.Name, f.Name) {
			return store.ErrDuplicate
		}
	}
	c := *f
	r.faculties[f.ID] = &c
	return nil
}

func (r *faculties) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.faculties[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.faculties, id)
	return nil
}

func (r *faculties) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.faculties)), nil
}

type departments struct{ *db }

func (r *departments) Create(_ context.Context, d *shared.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.departments {
		if existing.DepartmentID == d.DepartmentID ||
			(existing.Faculty == d.Faculty && strings.EqualFold(existing.Name, d.Name)) {
			return store.ErrDuplicate
		}
	}
	assignID(&d.ID)
	r.departments[d.ID] = cloneDepartment(d)
	return nil
}

func (r *departments) Get(_ context.Context, id primitive.ObjectID) (*shared.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneDepartment(d), nil
}

func (r *departments) GetByCode(_ context.Context, departmentID string) (*shared.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.departments {
		if d.DepartmentID == departmentID {
			return cloneDepartment(d), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *departments) GetByName(_ context.Context, faculty *primitive.ObjectID, name string) (*shared.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.departments {
		if faculty != nil && d.Faculty != *faculty {
			continue
		}
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return cloneDepartment(d), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *departments) List(_ context.Context, f store.DepartmentFilter) ([]shared.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.Department{}
	for _, d := range r.departments {
		if f.Faculty != nil && d.Faculty != *f.Faculty {
			continue
		}
		if !f.IncludeInactive && !d.IsActive {
			continue
		}
		if f.Search != "" && !containsFold(d.Name, f.Search) && !containsFold(d.Description, f.Search) {
			continue
		}
		out = append(out, *cloneDepartment(d))
	}
	sortByOrderThenName(out, func(d shared.Department) int { return d.Order }, func(d shared.Department) string { return d.Name })
	return page(out, 0, f.Limit), nil
}

func (r *departments) Update(_ context.Context, d *shared.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.departments[d.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range r.departments {
		if id != d.ID && existing.Faculty == d.Faculty && strings.EqualFold(existing.Name, d.Name) {
			return store.ErrDuplicate
		}
	}
	r.departments[d.ID] = cloneDepartment(d)
	return nil
}

func (r *departments) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.departments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.departments, id)
	return nil
}

func (r *departments) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.departments)), nil
}

func (r *departments) CountByFaculty(_ context.Context, faculty primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, d := range r.departments {
		if d.Faculty == faculty {
			n++
		}
	}
	return n, nil
}
