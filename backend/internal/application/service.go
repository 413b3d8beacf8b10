package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// Options carries the notification addresses used by the service
type Options struct {
	AdminEmail string
	AppURL     string
}

// ApplicationService implements the admission workflow
type ApplicationService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	opts       Options
}

// NewApplicationService creates a new ApplicationService instance
func NewApplicationService(st *store.Store, dispatcher *notify.Dispatcher, opts Options) *ApplicationService {
	return &ApplicationService{store: st, dispatcher: dispatcher, opts: opts}
}

// SubmitInput is the body of a new application
type SubmitInput struct {
	StudentID    string   `json:"studentId"`
	FirstName    string   `json:"firstName" validate:"required"`
	LastName     string   `json:"lastName" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone" validate:"required"`
	Address      string   `json:"address"`
	HighSchool   string   `json:"highSchool" validate:"required"`
	GPA          *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	SATScore     *int     `json:"satScore" validate:"omitempty,gte=400,lte=1600"`
	ACTScore     *int     `json:"actScore" validate:"omitempty,gte=1,lte=36"`
	DepartmentID string   `json:"departmentId" validate:"required"`
	Course       string   `json:"course" validate:"required"`
	Essay        string   `json:"essay" validate:"max=2000"`
}

// SubmitResult is returned after a successful submission
type SubmitResult struct {
	ApplicationID  string    `json:"applicationId"`
	StudentID      string    `json:"studentId"`
	Status         string    `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
}

// StatusView is the public status summary of an application
type StatusView struct {
	ApplicationID  string     `json:"applicationId"`
	StudentID      string     `json:"studentId"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	FacultyName    string     `json:"facultyName"`
	DepartmentName string     `json:"departmentName"`
	Course         string     `json:"course"`
	Status         string     `json:"status"`
	Remarks        *string    `json:"remarks"`
	SubmissionDate time.Time  `json:"submissionDate"`
	ReviewedAt     *time.Time `json:"reviewedAt"`
}

// ListFilter selects a page of applications
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// ListResult is one page of applications
type ListResult struct {
	Applications      []shared.Applicant `json:"applications"`
	TotalApplications int64              `json:"totalApplications"`
	CurrentPage       int                `json:"currentPage"`
	TotalPages        int                `json:"totalPages"`
}

var nextSteps = map[string]string{
	shared.ApplicationPending:     "Your application is waiting to be reviewed. No action is needed from you at this time.",
	shared.ApplicationUnderReview: "Our admissions team is reviewing your application. We may contact you for additional documents.",
	shared.ApplicationApproved:    "Congratulations! Watch your inbox for enrollment instructions and confirm your place before the deadline.",
	shared.ApplicationRejected:    "We are unable to offer you admission at this time. You are welcome to apply again in a future intake.",
	shared.ApplicationAccepted:    "Welcome aboard! Your place is confirmed. Orientation details will follow shortly.",
}

// SubmitApplication validates and stores a new application, then notifies
// the applicant and the admissions office
func (s *ApplicationService) SubmitApplication(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	// 1. Required fields and ranges
	if err := validateSubmission(&in); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 2. One application per email
	if _, err := s.store.Applicants.GetByEmail(queryCtx, in.Email); err == nil {
		return nil, status.Error(codes.AlreadyExists, "an application with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("application.submit", err, "application")
	}

	// 3. Resolve department, faculty and programme
	dept, err := s.resolveDepartment(queryCtx, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !dept.IsActive {
		return nil, status.Error(codes.InvalidArgument, "department is not active")
	}
	faculty, err := s.store.Faculties.Get(queryCtx, dept.Faculty)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.InvalidArgument, "faculty not found for department")
		}
		return nil, store.Status("application.submit", err, "faculty")
	}
	programme, ok := dept.ActiveCourse(in.Course)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "course %q is not offered by %s", in.Course, dept.Name)
	}

	// 4. Persist
	now := time.Now()
	studentID := strings.TrimSpace(in.StudentID)
	if studentID == "" {
		studentID = shared.GenerateStudentID(now)
	}
	app := &shared.Applicant{
		StudentID:      studentID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		HighSchool:     in.HighSchool,
		GPA:            in.GPA,
		SATScore:       in.SATScore,
		ACTScore:       in.ACTScore,
		DepartmentID:   dept.ID,
		FacultyID:      faculty.ID,
		DepartmentName: dept.Name,
		FacultyName:    faculty.Name,
		Course:         programme.Name,
		Essay:          in.Essay,
		Status:         shared.ApplicationPending,
		SubmissionDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Applicants.Create(queryCtx, app); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "an application with this email already exists")
		}
		return nil, store.Status("application.submit", err, "application")
	}

	logger.Info().
		Str("application_id", app.ID.Hex()).
		Str("student_id", app.StudentID).
		Str("department", app.DepartmentName).
		Msg("application submitted")

	// 5. Notify (detached)
	vars := map[string]string{
		"STUDENT_NAME":    app.FullName(),
		"APPLICANT_NAME":  app.FullName(),
		"APPLICANT_EMAIL": app.Email,
		"STUDENT_ID":      app.StudentID,
		"DEPARTMENT_NAME": app.DepartmentName,
		"FACULTY_NAME":    app.FacultyName,
		"COURSE_NAME":     app.Course,
		"SUBMISSION_DATE": now.Format("January 2, 2006"),
		"STATUS_URL":      s.opts.AppURL + "/application-status",
		"REVIEW_URL":      s.opts.AppURL + "/admin/applications/" + app.ID.Hex(),
	}
	s.dispatcher.Go("application-confirmation", notify.TemplateApplicationSubmitted, app.Email, vars)
	if s.opts.AdminEmail != "" {
		s.dispatcher.Go("application-admin-notice", notify.TemplateApplicationAdminNotice, s.opts.AdminEmail, vars)
	}

	return &SubmitResult{
		ApplicationID:  app.ID.Hex(),
		StudentID:      app.StudentID,
		Status:         app.Status,
		SubmissionDate: app.SubmissionDate,
	}, nil
}

func validateSubmission(in *SubmitInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = shared.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.HighSchool = strings.TrimSpace(in.HighSchool)
	in.Course = strings.TrimSpace(in.Course)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	in.Address = strings.TrimSpace(in.Address)

	required := []struct{ name, value string }{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"highSchool", in.HighSchool},
		{"course", in.Course},
		{"departmentId", in.DepartmentID},
	}
	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return status.Errorf(codes.InvalidArgument, "missing required fields: %s", strings.Join(missing, ", "))
	}

	if in.GPA != nil && (*in.GPA < 0 || *in.GPA > 4) {
		return status.Error(codes.InvalidArgument, "GPA must be between 0 and 4")
	}
	if in.SATScore != nil && (*in.SATScore < 400 || *in.SATScore > 1600) {
		return status.Error(codes.InvalidArgument, "SAT score must be between 400 and 1600")
	}
	if in.ACTScore != nil && (*in.ACTScore < 1 || *in.ACTScore > 36) {
		return status.Error(codes.InvalidArgument, "ACT score must be between 1 and 36")
	}
	if len([]rune(in.Essay)) > shared.MaxEssayLength {
		return status.Errorf(codes.InvalidArgument, "essay must be at most %d characters", shared.MaxEssayLength)
	}
	return nil
}

// resolveDepartment accepts an ObjectID hex or a DEPT#### code
func (s *ApplicationService) resolveDepartment(ctx context.Context, ref string) (*shared.Department, error) {
	var (
		dept *shared.Department
		err  error
	)
	if id, ok := shared.ParseObjectID(ref); ok {
		dept, err = s.store.Departments.Get(ctx, id)
	} else {
		dept, err = s.store.Departments.GetByCode(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.InvalidArgument, "department not found")
		}
		return nil, store.Status("application.resolveDepartment", err, "department")
	}
	return dept, nil
}

func (s *ApplicationService) get(ctx context.Context, op, id string) (*shared.Applicant, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid application id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	app, err := s.store.Applicants.Get(queryCtx, oid)
	if err != nil {
		return nil, store.Status(op, err, "application")
	}
	return app, nil
}

// GetApplicationStatus returns the public status summary
func (s *ApplicationService) GetApplicationStatus(ctx context.Context, id string) (*StatusView, error) {
	app, err := s.get(ctx, "application.status", id)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		ApplicationID:  app.ID.Hex(),
		StudentID:      app.StudentID,
		Name:           app.FullName(),
		Email:          app.Email,
		FacultyName:    app.FacultyName,
		DepartmentName: app.DepartmentName,
		Course:         app.Course,
		Status:         app.Status,
		SubmissionDate: app.SubmissionDate,
		ReviewedAt:     app.ReviewedAt,
	}
	if app.Remarks != "" {
		remarks := app.Remarks
		view.Remarks = &remarks
	}
	return view, nil
}

// GetApplicationDetails returns the full record
func (s *ApplicationService) GetApplicationDetails(ctx context.Context, id string) (*shared.Applicant, error) {
	return s.get(ctx, "application.details", id)
}

// GetApplicationByEmail looks an application up by applicant email
func (s *ApplicationService) GetApplicationByEmail(ctx context.Context, email string) (*shared.Applicant, error) {
	email = shared.NormalizeEmail(email)
	if email == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	app, err := s.store.Applicants.GetByEmail(queryCtx, email)
	if err != nil {
		return nil, store.Status("application.byEmail", err, "application")
	}
	return app, nil
}

// UpdateApplicationStatus records a review decision and notifies the applicant
func (s *ApplicationService) UpdateApplicationStatus(ctx context.Context, id, newStatus, remarks string) (*shared.Applicant, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid application id")
	}
	newStatus = strings.TrimSpace(newStatus)
	if !shared.OneOf(newStatus, shared.ApplicationStatuses) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status; must be one of: %s", strings.Join(shared.ApplicationStatuses, ", "))
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	app, err := s.store.Applicants.UpdateStatus(queryCtx, oid, newStatus, strings.TrimSpace(remarks), time.Now())
	if err != nil {
		return nil, store.Status("application.updateStatus", err, "application")
	}

	logger.Info().
		Str("application_id", app.ID.Hex()).
		Str("status", app.Status).
		Msg("application status updated")

	s.dispatcher.Go("application-status", notify.TemplateApplicationStatusChanged, app.Email, map[string]string{
		"STUDENT_NAME": app.FullName(),
		"STUDENT_ID":   app.StudentID,
		"STATUS":       app.Status,
		"REMARKS":      app.Remarks,
		"NEXT_STEPS":   nextSteps[app.Status],
	})

	return app, nil
}

// ListApplications returns one page, newest first. An unknown status is ignored.
func (s *ApplicationService) ListApplications(ctx context.Context, f ListFilter) (*ListResult, error) {
	p := shared.NewPage(f.Page, f.Limit)
	filter := store.ApplicantFilter{Skip: p.Skip(), Limit: int64(p.Limit)}
	if shared.OneOf(f.Status, shared.ApplicationStatuses) {
		filter.Status = f.Status
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items, total, err := s.store.Applicants.List(queryCtx, filter)
	if err != nil {
		return nil, store.Status("application.list", err, "application")
	}
	if items == nil {
		items = []shared.Applicant{}
	}

	return &ListResult{
		Applications:      items,
		TotalApplications: total,
		CurrentPage:       p.Page,
		TotalPages:        p.TotalPages(total),
	}, nil
}

// DeleteApplication removes an application
func (s *ApplicationService) DeleteApplication(ctx context.Context, id string) error {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return status.Error(codes.InvalidArgument, "invalid application id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Applicants.Delete(queryCtx, oid); err != nil {
		return store.Status("application.delete", err, "application")
	}
	logger.Info().Str("application_id", oid.Hex()).Msg("application deleted")
	return nil
}

// StatusCounts returns the number of applications per status
func (s *ApplicationService) StatusCounts(ctx context.Context) (map[string]int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	counts, err := s.store.Applicants.CountByStatus(queryCtx)
	if err != nil {
		return nil, store.Status("application.counts", err, "application")
	}
	out := make(map[string]int64, len(shared.ApplicationStatuses))
	for _, st := range shared.ApplicationStatuses {
		out[st] = counts[st]
	}
	return out, nil
}
