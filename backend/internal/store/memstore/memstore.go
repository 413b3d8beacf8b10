// Package memstore is an in-memory implementation of the store contracts.
// It backs the test suites and STORE_DRIVER=memory for local development.
package memstore

import (
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type db struct {
	mu sync.RWMutex

	applicants  map[primitive.ObjectID]*shared.Applicant
	faculties   map[primitive.ObjectID]*shared.Faculty
	departments map[primitive.ObjectID]*shared.Department
	students    map[primitive.ObjectID]*shared.Student
	staff       map[primitive.ObjectID]*shared.Staff
	admins      map[primitive.ObjectID]*shared.Admin
	courses     map[primitive.ObjectID]*shared.Course
	visits      map[primitive.ObjectID]*shared.Visit
	contacts    map[primitive.ObjectID]*shared.Contact
	tickets     map[primitive.ObjectID]*shared.SupportTicket
	settings    *shared.Settings
}

// New returns an empty in-memory store.
func New() *store.Store {
	d := &db{
		applicants:  make(map[primitive.ObjectID]*shared.Applicant),
		faculties:   make(map[primitive.ObjectID]*shared.Faculty),
		departments: make(map[primitive.ObjectID]*shared.Department),
		students:    make(map[primitive.ObjectID]*shared.Student),
		staff:       make(map[primitive.ObjectID]*shared.Staff),
		admins:      make(map[primitive.ObjectID]*shared.Admin),
		courses:     make(map[primitive.ObjectID]*shared.Course),
		visits:      make(map[primitive.ObjectID]*shared.Visit),
		contacts:    make(map[primitive.ObjectID]*shared.Contact),
		tickets:     make(map[primitive.ObjectID]*shared.SupportTicket),
	}

	return &store.Store{
		Applicants:  &applicants{d},
		Faculties:   &faculties{d},
		Departments: &departments{d},
		Students:    &students{d},
		Staff:       &staffMembers{d},
		Admins:      &admins{d},
		Courses:     &courses{d},
		Enrollments: &enrollments{d},
		Visits:      &visits{d},
		Contacts:    &contacts{d},
		Support:     &tickets{d},
		Settings:    &settings{d},
	}
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// page applies skip and limit to an already sorted slice.
func page[T any](items []T, skip, limit int64) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(items)) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneApplicant(a *shared.Applicant) *shared.Applicant {
	c := *a
	return &c
}

func cloneDepartment(d *shared.Department) *shared.Department {
	c := *d
	c.Courses = append([]shared.ProgramCourse{}, d.Courses...)
	return &c
}

func cloneStudent(s *shared.Student) *shared.Student {
	c := *s
	c.Courses = make([]shared.CourseSnapshot, len(s.Courses))
	for i, snap := range s.Courses {
		snap.Materials = cloneStrings(snap.Materials)
		c.Courses[i] = snap
	}
	c.Exams = append([]shared.ExamRegistration{}, s.Exams...)
	c.RecentActivity = append([]shared.Activity{}, s.RecentActivity...)
	return &c
}

func cloneCourse(co *shared.Course) *shared.Course {
	c := *co
	c.Students = append([]primitive.ObjectID{}, co.Students...)
	c.Materials = cloneStrings(co.Materials)
	c.Schedule.Days = cloneStrings(co.Schedule.Days)
	return &c
}

func cloneVisit(v *shared.Visit) *shared.Visit {
	c := *v
	c.Interests = cloneStrings(v.Interests)
	return &c
}

func sortByOrderThenName[T any](items []T, order func(T) int, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		if order(items[i]) != order(items[j]) {
			return order(items[i]) < order(items[j])
		}
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}
