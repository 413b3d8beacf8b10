package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type visits struct{ *db }

func (r *visits) Create(_ context.Context, v *shared.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(&v.ID)
	r.visits[v.ID] = cloneVisit(v)
	return nil
}

func (r *visits) Get(_ context.Context, id primitive.ObjectID) (*shared.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.visits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneVisit(v), nil
}

func (r *visits) List(_ context.Context, f store.VisitFilter) ([]shared.Visit, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []shared.Visit
	for _, v := range r.visits {
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		matched = append(matched, *cloneVisit(v))
	}

	key := func(v shared.Visit) time.Time { return v.CreatedAt }
	if f.SortBy == "visitDate" {
		key = func(v shared.Visit) time.Time { return v.VisitDate }
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if f.SortDesc {
			return key(matched[i]).After(key(matched[j]))
		}
		return key(matched[i]).Before(key(matched[j]))
	})
	return page(matched, f.Skip, f.Limit), int64(len(matched)), nil
}

func (r *visits) UpdateStatus(_ context.Context, id primitive.ObjectID, status, notes string) (*shared.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	v.Status = status
	if notes != "" {
		v.AdminNotes = notes
	}
	v.UpdatedAt = time.Now()
	return cloneVisit(v), nil
}

func (r *visits) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visits[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.visits, id)
	return nil
}

func (r *visits) Stats(_ context.Context, now time.Time) (*store.VisitStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &store.VisitStats{ByStatus: make(map[string]int64)}
	for _, v := range r.visits {
		stats.Total++
		stats.ByStatus[v.Status]++
		if v.VisitDate.After(now) && v.Status != shared.VisitCancelled {
			stats.Upcoming++
		}
	}
	return stats, nil
}

type contacts struct{ *db }

func (r *contacts) Create(_ context.Context, c *shared.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(&c.ID)
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *contacts) List(_ context.Context, limit int64) ([]shared.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.Contact{}
	for _, c := range r.contacts {
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, 0, limit), nil
}

func (r *contacts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contacts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

type tickets struct{ *db }

func (r *tickets) Create(_ context.Context, t *shared.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(&t.ID)
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r *tickets) List(_ context.Context, status string) ([]shared.SupportTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shared.SupportTicket{}
	for _, t := range r.tickets {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *tickets) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) (*shared.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (r *tickets) CountByStatus(_ context.Context, status string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, t := range r.tickets {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

type settings struct{ *db }

func (r *settings) Get(_ context.Context) (*shared.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.db.settings == nil {
		return nil, store.ErrNotFound
	}
	cp := *r.db.settings
	return &cp, nil
}

func (r *settings) Save(_ context.Context, s *shared.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignID(&s.ID)
	cp := *s
	r.db.settings = &cp
	return nil
}
