package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// Options carry the mail and hashing settings used by AdminService
type Options struct {
	BCryptCost int
	AdminEmail string
	AppURL     string
}

// AdminService covers student and staff management, the dashboard and
// school settings
type AdminService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	opts       Options
	now        func() time.Time
}

// NewAdminService creates a new AdminService instance
func NewAdminService(st *store.Store, dispatcher *notify.Dispatcher, opts Options) *AdminService {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	return &AdminService{store: st, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// ============================================================================
// Student Management
// ============================================================================

// StudentList is one page of students
type StudentList struct {
	Students      []shared.Student `json:"students"`
	TotalStudents int64            `json:"totalStudents"`
	CurrentPage   int              `json:"currentPage"`
	TotalPages    int              `json:"totalPages"`
}

// ListStudents pages through students, optionally filtered by name, email or studentId
func (s *AdminService) ListStudents(ctx context.Context, page, limit int, search string) (*StudentList, error) {
	p := shared.NewPage(page, limit)

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	students, total, err := s.store.Students.List(queryCtx, store.StudentFilter{
		Search: strings.TrimSpace(search),
		Skip:   p.Skip(),
		Limit:  int64(p.Limit),
	})
	if err != nil {
		return nil, store.Status("admin.listStudents", err, "student")
	}
	return &StudentList{
		Students:      students,
		TotalStudents: total,
		CurrentPage:   p.Page,
		TotalPages:    p.TotalPages(total),
	}, nil
}

// GetStudent returns a student by ObjectID hex or studentId
func (s *AdminService) GetStudent(ctx context.Context, ref string) (*shared.Student, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.findStudent(queryCtx, ref)
	if err != nil {
		return nil, store.Status("admin.getStudent", err, "student")
	}
	return student, nil
}

func (s *AdminService) findStudent(ctx context.Context, ref string) (*shared.Student, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, status.Error(codes.InvalidArgument, "student id is required")
	}
	if id, ok := shared.ParseObjectID(ref); ok {
		return s.store.Students.Get(ctx, id)
	}
	return s.store.Students.GetByStudentID(ctx, ref)
}

// MakeAdmin grants administrator rights to a student
func (s *AdminService) MakeAdmin(ctx context.Context, ref string) (*shared.Student, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.findStudent(queryCtx, ref)
	if err != nil {
		return nil, store.Status("admin.makeAdmin", err, "student")
	}
	if student.IsAdmin {
		return nil, status.Error(codes.FailedPrecondition, "student is already an admin")
	}
	if err := s.store.Students.SetAdmin(queryCtx, student.ID, true); err != nil {
		return nil, store.Status("admin.makeAdmin", err, "student")
	}
	student.IsAdmin = true

	logger.Info().Str("student_id", student.StudentID).Msg("student promoted to admin")

	s.dispatcher.Go("admin-promotion", notify.TemplateAdminPromotion, student.Email, map[string]string{
		"STUDENT_NAME": student.FullName(),
		"ADMIN_URL":    s.opts.AppURL + "/admin",
	})
	return student, nil
}

// DeleteStudent drops the student from every roster, then deletes the account
func (s *AdminService) DeleteStudent(ctx context.Context, ref string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	student, err := s.findStudent(queryCtx, ref)
	if err != nil {
		return store.Status("admin.deleteStudent", err, "student")
	}

	// 1. Release seats
	if err := s.store.Courses.RemoveStudent(queryCtx, student.ID); err != nil {
		return store.Status("admin.deleteStudent", err, "course")
	}

	// 2. Delete the account
	if err := s.store.Students.Delete(queryCtx, student.ID); err != nil {
		return store.Status("admin.deleteStudent", err, "student")
	}

	logger.Info().Str("student_id", student.StudentID).Int("courses", len(student.Courses)).Msg("student deleted")

	s.dispatcher.Go("account-deletion", notify.TemplateAccountDeletion, student.Email, map[string]string{
		"STUDENT_NAME":  student.FullName(),
		"STUDENT_ID":    student.StudentID,
		"DELETION_TIME": s.now().Format(time.RFC1123),
	})
	return nil
}

// StudentCount returns the number of student accounts
func (s *AdminService) StudentCount(ctx context.Context) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := s.store.Students.Count(queryCtx)
	if err != nil {
		return 0, store.Status("admin.studentCount", err, "student")
	}
	return n, nil
}

// ============================================================================
// Staff Management
// ============================================================================

// StaffInput is the writable part of a staff member
type StaffInput struct {
	FirstName  string     `json:"firstName" validate:"required"`
	LastName   string     `json:"lastName" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	Phone      string     `json:"phone" validate:"required"`
	Role       string     `json:"role" validate:"required"`
	Department string     `json:"department"`
	HireDate   *time.Time `json:"hireDate"`
	Salary     float64    `json:"salary" validate:"gte=0"`
}

func normalizeStaff(in StaffInput) (StaffInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = shared.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Department = strings.TrimSpace(in.Department)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Phone == "" {
		return in, status.Error(codes.InvalidArgument, "firstName, lastName, email and phone are required")
	}
	if !shared.OneOf(in.Role, shared.StaffRoles) {
		return in, status.Errorf(codes.InvalidArgument, "invalid role %q", in.Role)
	}
	if in.Salary < 0 {
		return in, status.Error(codes.InvalidArgument, "salary must not be negative")
	}
	return in, nil
}

// CreateStaff adds a staff member with a temporary password that must be
// changed on first login. The password is returned once and emailed.
func (s *AdminService) CreateStaff(ctx context.Context, in StaffInput) (*shared.Staff, string, error) {
	in, err := normalizeStaff(in)
	if err != nil {
		return nil, "", err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, "", store.Internal("admin.createStaff", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), s.opts.BCryptCost)
	if err != nil {
		return nil, "", store.Internal("admin.createStaff", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := s.now()
	hireDate := now
	if in.HireDate != nil {
		hireDate = *in.HireDate
	}
	staff := &shared.Staff{
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Email:              in.Email,
		Phone:              in.Phone,
		PasswordHash:       string(hash),
		Role:               in.Role,
		Department:         in.Department,
		IsActive:           true,
		MustChangePassword: true,
		HireDate:           hireDate,
		Salary:             in.Salary,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Staff.Create(queryCtx, staff); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", status.Error(codes.AlreadyExists, "a staff member with this email or phone already exists")
		}
		return nil, "", store.Status("admin.createStaff", err, "staff")
	}

	logger.Info().Str("staff", staff.Email).Str("role", staff.Role).Msg("staff created")

	s.dispatcher.Go("staff-welcome", notify.TemplateStaffWelcome, staff.Email, map[string]string{
		"STAFF_NAME":    staff.FullName(),
		"ROLE":          staff.Role,
		"TEMP_PASSWORD": tempPassword,
		"LOGIN_URL":     s.opts.AppURL + "/staff/login",
	})
	return staff, tempPassword, nil
}

func generateTempPassword() (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ListStaff lists staff, optionally by role and active flag
func (s *AdminService) ListStaff(ctx context.Context, role string, activeOnly bool) ([]shared.Staff, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && !shared.OneOf(role, shared.StaffRoles) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid role %q", role)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	staff, err := s.store.Staff.List(queryCtx, store.StaffFilter{Role: role, ActiveOnly: activeOnly})
	if err != nil {
		return nil, store.Status("admin.listStaff", err, "staff")
	}
	return staff, nil
}

// GetStaff returns one staff member
func (s *AdminService) GetStaff(ctx context.Context, id string) (*shared.Staff, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid staff id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	staff, err := s.store.Staff.Get(queryCtx, oid)
	if err != nil {
		return nil, store.Status("admin.getStaff", err, "staff")
	}
	return staff, nil
}

// UpdateStaff replaces the profile fields of a staff member
func (s *AdminService) UpdateStaff(ctx context.Context, id string, in StaffInput) (*shared.Staff, error) {
	in, err := normalizeStaff(in)
	if err != nil {
		return nil, err
	}
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	staff.FirstName = in.FirstName
	staff.LastName = in.LastName
	staff.Email = in.Email
	staff.Phone = in.Phone
	staff.Role = in.Role
	staff.Department = in.Department
	staff.Salary = in.Salary
	if in.HireDate != nil {
		staff.HireDate = *in.HireDate
	}
	staff.UpdatedAt = s.now()

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Staff.Update(queryCtx, staff); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "a staff member with this email or phone already exists")
		}
		return nil, store.Status("admin.updateStaff", err, "staff")
	}
	return staff, nil
}

// SetStaffActive enables or disables a staff login
func (s *AdminService) SetStaffActive(ctx context.Context, id string, active bool) (*shared.Staff, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	staff.IsActive = active
	staff.UpdatedAt = s.now()

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Staff.Update(queryCtx, staff); err != nil {
		return nil, store.Status("admin.setStaffActive", err, "staff")
	}

	logger.Info().Str("staff", staff.Email).Bool("active", active).Msg("staff status changed")
	return staff, nil
}

// DeleteStaff removes a staff member
func (s *AdminService) DeleteStaff(ctx context.Context, id string) error {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return status.Error(codes.InvalidArgument, "invalid staff id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Staff.Delete(queryCtx, oid); err != nil {
		return store.Status("admin.deleteStaff", err, "staff")
	}
	return nil
}

// ============================================================================
// Dashboard
// ============================================================================

// Overview is the admin dashboard summary
type Overview struct {
	TotalStudents         int64            `json:"totalStudents"`
	TotalStaff            int64            `json:"totalStaff"`
	ActiveCourses         int64            `json:"activeCourses"`
	TotalFaculties        int64            `json:"totalFaculties"`
	TotalDepartments      int64            `json:"totalDepartments"`
	ApplicationsByStatus  map[string]int64 `json:"applicationsByStatus"`
	UpcomingVisits        int64            `json:"upcomingVisits"`
	PendingSupportTickets int64            `json:"pendingSupportTickets"`
}

// Overview gathers the dashboard counters concurrently
func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := &Overview{}
	g, gctx := errgroup.WithContext(queryCtx)

	g.Go(func() (err error) {
		out.TotalStudents, err = s.store.Students.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalStaff, err = s.store.Staff.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveCourses, err = s.store.Courses.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalFaculties, err = s.store.Faculties.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalDepartments, err = s.store.Departments.Count(gctx)
		return err
	})
	g.Go(func() error {
		counts, err := s.store.Applicants.CountByStatus(gctx)
		if err != nil {
			return err
		}
		byStatus := make(map[string]int64, len(shared.ApplicationStatuses))
		for _, st := range shared.ApplicationStatuses {
			byStatus[st] = counts[st]
		}
		out.ApplicationsByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		stats, err := s.store.Visits.Stats(gctx, s.now())
		if err != nil {
			return err
		}
		out.UpcomingVisits = stats.Upcoming
		return nil
	})
	g.Go(func() (err error) {
		out.PendingSupportTickets, err = s.store.Support.CountByStatus(gctx, shared.SupportPending)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, store.Status("admin.overview", err, "dashboard")
	}
	return out, nil
}

// ============================================================================
// Settings
// ============================================================================

// PublicSettings is the subset of settings shown to anonymous visitors
type PublicSettings struct {
	SchoolName               string         `json:"schoolName"`
	SchoolEmail              string         `json:"schoolEmail"`
	Phone                    string         `json:"phone"`
	Address                  shared.Address `json:"address"`
	AllowStudentRegistration bool           `json:"allowStudentRegistration"`
}

// GetSettings returns the settings document, creating the defaults on first read
func (s *AdminService) GetSettings(ctx context.Context) (*shared.Settings, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	settings, err := s.store.Settings.Get(queryCtx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("admin.getSettings", err, "settings")
	}

	defaults := shared.DefaultSettings()
	defaults.UpdatedAt = s.now()
	if err := s.store.Settings.Save(queryCtx, &defaults); err != nil {
		return nil, store.Status("admin.getSettings", err, "settings")
	}
	return &defaults, nil
}

// GetPublicSettings returns the anonymous view of the settings
func (s *AdminService) GetPublicSettings(ctx context.Context) (*PublicSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &PublicSettings{
		SchoolName:               settings.SchoolName,
		SchoolEmail:              settings.SchoolEmail,
		Phone:                    settings.Phone,
		Address:                  settings.Address,
		AllowStudentRegistration: settings.SystemPreferences.AllowStudentRegistration,
	}, nil
}

// UpdateSettings replaces the settings document. Concurrent updates are last
// writer wins.
func (s *AdminService) UpdateSettings(ctx context.Context, in shared.Settings, updatedBy string) (*shared.Settings, error) {
	in.SchoolName = strings.TrimSpace(in.SchoolName)
	in.SchoolEmail = shared.NormalizeEmail(in.SchoolEmail)
	if in.SchoolName == "" || in.SchoolEmail == "" {
		return nil, status.Error(codes.InvalidArgument, "schoolName and schoolEmail are required")
	}
	if in.SystemPreferences.MaxStudentsPerCourse < 1 {
		return nil, status.Error(codes.InvalidArgument, "maxStudentsPerCourse must be at least 1")
	}
	if in.SystemPreferences.SessionTimeout < 0 {
		return nil, status.Error(codes.InvalidArgument, "sessionTimeout must not be negative")
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	in.ID = current.ID
	in.UpdatedAt = s.now()
	if err := s.store.Settings.Save(queryCtx, &in); err != nil {
		return nil, store.Status("admin.updateSettings", err, "settings")
	}

	logger.Info().Str("updated_by", updatedBy).Msg("settings updated")

	if s.opts.AdminEmail != "" && in.NotificationSettings.EmailNotifications {
		s.dispatcher.Go("settings-updated", notify.TemplateSettingsUpdated, s.opts.AdminEmail, map[string]string{
			"UPDATED_BY": updatedBy,
			"UPDATED_AT": in.UpdatedAt.Format(time.RFC1123),
		})
	}
	return &in, nil
}
