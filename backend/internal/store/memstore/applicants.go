package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type applicants struct{ *db }

func (r *applicants) Create(_ context.Context, a *shared.Applicant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.applicants {
		if existing.Email == a.Email || existing.StudentID == a.StudentID {
			return store.ErrDuplicate
		}
	}
	assignID(&a.ID)
	r.applicants[a.ID] = cloneApplicant(a)
	return nil
}

func (r *applicants) Get(_ context.Context, id primitive.ObjectID) (*shared.Applicant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.applicants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneApplicant(a), nil
}

func (r *applicants) GetByEmail(_ context.Context, email string) (*shared.Applicant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.applicants {
		if a.Email == email {
			return cloneApplicant(a), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *applicants) List(_ context.Context, f store.ApplicantFilter) ([]shared.Applicant, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []shared.Applicant
	for _, a := range r.applicants {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		matched = append(matched, *cloneApplicant(a))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].SubmissionDate.Equal(matched[j].SubmissionDate) {
			return matched[i].SubmissionDate.After(matched[j].SubmissionDate)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return page(matched, f.Skip, f.Limit), int64(len(matched)), nil
}

func (r *applicants) UpdateStatus(_ context.Context, id primitive.ObjectID, status, remarks string, reviewedAt time.Time) (*shared.Applicant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.applicants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	at := reviewedAt
	a.Status = status
	a.Remarks = remarks
	a.ReviewedAt = &at
	a.UpdatedAt = reviewedAt
	return cloneApplicant(a), nil
}

func (r *applicants) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applicants[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.applicants, id)
	return nil
}

func (r *applicants) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64, len(shared.ApplicationStatuses))
	for _, a := range r.applicants {
		counts[a.Status]++
	}
	return counts, nil
}

func (r *applicants) CountByDepartment(_ context.Context, departmentID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, a := range r.applicants {
		if a.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}
