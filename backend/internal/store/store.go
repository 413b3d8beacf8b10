// Package store declares the persistence contracts used by the services.
// mongostore implements them on MongoDB; memstore keeps everything in memory.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"schooladmin/backend/internal/shared"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrCapacity is returned when a course has no free seat at write time.
	ErrCapacity = errors.New("store: course capacity reached")
	// ErrConflict is returned when a conditional update matched nothing.
	ErrConflict = errors.New("store: conditional update did not match")
	// ErrInactive is returned when a course stopped accepting registrations.
	ErrInactive = errors.New("store: course is not active")
)

// Store bundles every repository.
type Store struct {
	Applicants  Applicants
	Faculties   Faculties
	Departments Departments
	Students    Students
	Staff       StaffMembers
	Admins      Admins
	Courses     Courses
	Enrollments Enrollments
	Visits      Visits
	Contacts    Contacts
	Support     SupportTickets
	Settings    SettingsStore
}

// ApplicantFilter selects a page of applicants, newest submission first.
type ApplicantFilter struct {
	Status string
	Skip   int64
	Limit  int64
}

type Applicants interface {
	Create(ctx context.Context, a *shared.Applicant) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Applicant, error)
	GetByEmail(ctx context.Context, email string) (*shared.Applicant, error)
	List(ctx context.Context, f ApplicantFilter) ([]shared.Applicant, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status, remarks string, reviewedAt time.Time) (*shared.Applicant, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error)
}

type Faculties interface {
	Create(ctx context.Context, f *shared.Faculty) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Faculty, error)
	GetByCode(ctx context.Context, facultyID string) (*shared.Faculty, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*shared.Faculty, error)
	List(ctx context.Context, includeInactive bool) ([]shared.Faculty, error)
	Update(ctx context.Context, f *shared.Faculty) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// DepartmentFilter narrows department listings. Results are ordered by order, then name.
type DepartmentFilter struct {
	Faculty         *primitive.ObjectID
	IncludeInactive bool
	Search          string
	Limit           int64
}

type Departments interface {
	Create(ctx context.Context, d *shared.Department) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Department, error)
	GetByCode(ctx context.Context, departmentID string) (*shared.Department, error)
	// GetByName matches case-insensitively; a nil faculty searches all faculties.
	GetByName(ctx context.Context, faculty *primitive.ObjectID, name string) (*shared.Department, error)
	List(ctx context.Context, f DepartmentFilter) ([]shared.Department, error)
	Update(ctx context.Context, d *shared.Department) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountByFaculty(ctx context.Context, faculty primitive.ObjectID) (int64, error)
}

// StudentFilter selects a page of students. Search matches name, email or studentId.
type StudentFilter struct {
	Search string
	Skip   int64
	Limit  int64
}

// StudentProfile holds the self-editable student fields.
type StudentProfile struct {
	FirstName string
	LastName  string
	Phone     string
	Age       int
}

type Students interface {
	Create(ctx context.Context, s *shared.Student) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Student, error)
	GetByEmail(ctx context.Context, email string) (*shared.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (*shared.Student, error)
	GetByPhone(ctx context.Context, phone string) (*shared.Student, error)
	List(ctx context.Context, f StudentFilter) ([]shared.Student, int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	UpdateProfile(ctx context.Context, id primitive.ObjectID, p StudentProfile) error
	SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error
	// MarkOTPVerified clears the stored OTP and sets otpVerified.
	MarkOTPVerified(ctx context.Context, id primitive.ObjectID) error
	// SetPassword stores a new hash and resets otpVerified.
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SetAdmin(ctx context.Context, id primitive.ObjectID, isAdmin bool) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// AddExams returns ErrConflict and writes nothing when any of exams is
	// already registered.
	AddExams(ctx context.Context, id primitive.ObjectID, exams []shared.ExamRegistration, activity shared.Activity) error
	RemoveExams(ctx context.Context, id primitive.ObjectID, courseIDs []string, activity shared.Activity) error
}

// StaffFilter narrows staff listings.
type StaffFilter struct {
	Role       string
	ActiveOnly bool
}

type StaffMembers interface {
	Create(ctx context.Context, s *shared.Staff) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Staff, error)
	GetByEmail(ctx context.Context, email string) (*shared.Staff, error)
	GetByPhone(ctx context.Context, phone string) (*shared.Staff, error)
	List(ctx context.Context, f StaffFilter) ([]shared.Staff, error)
	Update(ctx context.Context, s *shared.Staff) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string, mustChange bool) error
}

type Admins interface {
	Create(ctx context.Context, a *shared.Admin) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Admin, error)
	GetByEmail(ctx context.Context, email string) (*shared.Admin, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

type Courses interface {
	Create(ctx context.Context, c *shared.Course) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Course, error)
	GetByCourseID(ctx context.Context, courseID string) (*shared.Course, error)
	List(ctx context.Context, activeOnly bool) ([]shared.Course, error)
	// UpdateDetails writes every field except the roster.
	UpdateDetails(ctx context.Context, c *shared.Course) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountActive(ctx context.Context) (int64, error)
	// RemoveStudent drops the student from every roster.
	RemoveStudent(ctx context.Context, student primitive.ObjectID) error
}

// EnrollOp describes one registration of a student in a course.
type EnrollOp struct {
	Course   primitive.ObjectID
	Student  primitive.ObjectID
	Snapshot shared.CourseSnapshot
	Activity shared.Activity
}

// UnenrollOp describes the removal of a student from a course.
type UnenrollOp struct {
	Course   primitive.ObjectID
	CourseID string
	Student  primitive.ObjectID
	Activity shared.Activity
}

// Enrollments writes both sides of the student/course relationship as one unit.
type Enrollments interface {
	// Enroll adds the student to the roster only while the course is active,
	// the student is absent and a seat is free. It writes nothing and returns
	// ErrInactive, ErrConflict (already on the roster or snapshot present) or
	// ErrCapacity when one of those fails.
	Enroll(ctx context.Context, op EnrollOp) error
	// Unenroll returns ErrConflict and writes nothing when the student is not
	// on the roster.
	Unenroll(ctx context.Context, op UnenrollOp) error
}

// VisitFilter selects a page of visits.
type VisitFilter struct {
	Status   string
	Skip     int64
	Limit    int64
	SortBy   string // visitDate or createdAt
	SortDesc bool
}

// VisitStats summarizes visit requests.
type VisitStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
	Upcoming int64            `json:"upcoming"`
}

type Visits interface {
	Create(ctx context.Context, v *shared.Visit) error
	Get(ctx context.Context, id primitive.ObjectID) (*shared.Visit, error)
	List(ctx context.Context, f VisitFilter) ([]shared.Visit, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status, notes string) (*shared.Visit, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Stats counts upcoming visits as non-cancelled visits dated after now.
	Stats(ctx context.Context, now time.Time) (*VisitStats, error)
}

type Contacts interface {
	Create(ctx context.Context, c *shared.Contact) error
	// List returns the newest messages first.
	List(ctx context.Context, limit int64) ([]shared.Contact, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SupportTickets interface {
	Create(ctx context.Context, t *shared.SupportTicket) error
	List(ctx context.Context, status string) ([]shared.SupportTicket, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*shared.SupportTicket, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type SettingsStore interface {
	// Get returns ErrNotFound until the singleton has been saved once.
	Get(ctx context.Context) (*shared.Settings, error)
	Save(ctx context.Context, s *shared.Settings) error
}
