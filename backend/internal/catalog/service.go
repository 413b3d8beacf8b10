// ============================================================================
// backend/internal/catalog/service.go
// Faculties, departments and their degree programmes
// ============================================================================

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// MaxSearchResults caps SearchDepartments
const MaxSearchResults = 20

// CatalogService manages the faculty and department catalog
type CatalogService struct {
	store *store.Store
	now   func() time.Time
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(st *store.Store) *CatalogService {
	return &CatalogService{store: st, now: time.Now}
}

// FacultyInput is the writable part of a faculty
type FacultyInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"isActive"`
	Order       int    `json:"order"`
}

// DepartmentInput is the writable part of a department. Faculty accepts an
// ObjectID hex, a facultyId or a faculty name.
type DepartmentInput struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	Faculty     string                 `json:"faculty"`
	Courses     []shared.ProgramCourse `json:"courses" validate:"dive"`
	IsActive    *bool                  `json:"isActive"`
	Order       int                    `json:"order"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ============================================================================
// Faculties
// ============================================================================

// CreateFaculty adds a faculty with the next FAC### code
func (s *CatalogService) CreateFaculty(ctx context.Context, in FacultyInput) (*shared.Faculty, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty name is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Name must be unique
	if _, err := s.store.Faculties.GetByName(queryCtx, name); err == nil {
		return nil, status.Error(codes.AlreadyExists, "a faculty with this name already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("catalog.createFaculty", err, "faculty")
	}

	// 2. Allocate the code
	code, err := s.nextFacultyCode(queryCtx)
	if err != nil {
		return nil, store.Status("catalog.createFaculty", err, "faculty")
	}

	now := s.now()
	faculty := &shared.Faculty{
		FacultyID:   code,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Icon:        strings.TrimSpace(in.Icon),
		IsActive:    boolOr(in.IsActive, true),
		Order:       in.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Faculties.Create(queryCtx, faculty); err != nil {
		return nil, store.Status("catalog.createFaculty", err, "faculty")
	}

	logger.Info().Str("faculty_id", faculty.FacultyID).Str("name", faculty.Name).Msg("faculty created")
	return faculty, nil
}

// nextFacultyCode starts at count+1 and skips codes still in use after deletions
func (s *CatalogService) nextFacultyCode(ctx context.Context) (string, error) {
	n, err := s.store.Faculties.Count(ctx)
	if err != nil {
		return "", err
	}
	for seq := n + 1; ; seq++ {
		code := shared.FacultyCode(seq)
		_, err := s.store.Faculties.GetByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ListFaculties returns faculties ordered by order, then name
func (s *CatalogService) ListFaculties(ctx context.Context, includeInactive bool) ([]shared.Faculty, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	faculties, err := s.store.Faculties.List(queryCtx, includeInactive)
	if err != nil {
		return nil, store.Status("catalog.listFaculties", err, "faculty")
	}
	return faculties, nil
}

// GetFaculty resolves an ObjectID hex, a facultyId or a name
func (s *CatalogService) GetFaculty(ctx context.Context, ref string) (*shared.Faculty, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty reference is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	faculty, err := s.findFaculty(queryCtx, ref)
	if err != nil {
		return nil, store.Status("catalog.getFaculty", err, "faculty")
	}
	return faculty, nil
}

func (s *CatalogService) findFaculty(ctx context.Context, ref string) (*shared.Faculty, error) {
	if id, ok := shared.ParseObjectID(ref); ok {
		return s.store.Faculties.Get(ctx, id)
	}
	if strings.HasPrefix(strings.ToUpper(ref), "FAC") {
		if f, err := s.store.Faculties.GetByCode(ctx, strings.ToUpper(ref)); err == nil || !errors.Is(err, store.ErrNotFound) {
			return f, err
		}
	}
	return s.store.Faculties.GetByName(ctx, ref)
}

// UpdateFaculty replaces the writable fields of a faculty
func (s *CatalogService) UpdateFaculty(ctx context.Context, ref string, in FacultyInput) (*shared.Faculty, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty name is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	faculty, err := s.findFaculty(queryCtx, ref)
	if err != nil {
		return nil, store.Status("catalog.updateFaculty", err, "faculty")
	}

	faculty.Name = name
	faculty.Description = strings.TrimSpace(in.Description)
	faculty.Icon = strings.TrimSpace(in.Icon)
	faculty.IsActive = boolOr(in.IsActive, faculty.IsActive)
	faculty.Order = in.Order
	faculty.UpdatedAt = s.now()

	if err := s.store.Faculties.Update(queryCtx, faculty); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "a faculty with this name already exists")
		}
		return nil, store.Status("catalog.updateFaculty", err, "faculty")
	}
	return faculty, nil
}

// DeleteFaculty removes a faculty that no longer has departments
func (s *CatalogService) DeleteFaculty(ctx context.Context, ref string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	faculty, err := s.findFaculty(queryCtx, ref)
	if err != nil {
		return store.Status("catalog.deleteFaculty", err, "faculty")
	}

	n, err := s.store.Departments.CountByFaculty(queryCtx, faculty.ID)
	if err != nil {
		return store.Status("catalog.deleteFaculty", err, "faculty")
	}
	if n > 0 {
		return status.Errorf(codes.FailedPrecondition, "faculty still has %d department(s)", n)
	}

	if err := s.store.Faculties.Delete(queryCtx, faculty.ID); err != nil {
		return store.Status("catalog.deleteFaculty", err, "faculty")
	}

	logger.Info().Str("faculty_id", faculty.FacultyID).Msg("faculty deleted")
	return nil
}

// ============================================================================
// Departments
// ============================================================================

func normalizeProgrammes(in []shared.ProgramCourse) ([]shared.ProgramCourse, error) {
	out := make([]shared.ProgramCourse, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		c.Type = strings.TrimSpace(c.Type)
		if c.Name == "" {
			return nil, status.Error(codes.InvalidArgument, "programme name is required")
		}
		if !shared.OneOf(c.Type, shared.ProgramTypes) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid programme type %q", c.Type)
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateDepartment adds a department with the next DEPT#### code
func (s *CatalogService) CreateDepartment(ctx context.Context, in DepartmentInput) (*shared.Department, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "department name is required")
	}
	programmes, err := normalizeProgrammes(in.Courses)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Faculty must exist
	faculty, err := s.findFaculty(queryCtx, strings.TrimSpace(in.Faculty))
	if err != nil {
		return nil, store.Status("catalog.createDepartment", err, "faculty")
	}

	// 2. Name unique within the faculty
	if _, err := s.store.Departments.GetByName(queryCtx, &faculty.ID, name); err == nil {
		return nil, status.Error(codes.AlreadyExists, "a department with this name already exists in the faculty")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("catalog.createDepartment", err, "department")
	}

	// 3. Allocate the code and persist
	code, err := s.nextDepartmentCode(queryCtx)
	if err != nil {
		return nil, store.Status("catalog.createDepartment", err, "department")
	}

	now := s.now()
	dept := &shared.Department{
		DepartmentID: code,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Faculty:      faculty.ID,
		Courses:      programmes,
		IsActive:     boolOr(in.IsActive, true),
		Order:        in.Order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Departments.Create(queryCtx, dept); err != nil {
		return nil, store.Status("catalog.createDepartment", err, "department")
	}

	logger.Info().Str("department_id", dept.DepartmentID).Str("faculty_id", faculty.FacultyID).Msg("department created")
	return dept, nil
}

func (s *CatalogService) nextDepartmentCode(ctx context.Context) (string, error) {
	n, err := s.store.Departments.Count(ctx)
	if err != nil {
		return "", err
	}
	for seq := n + 1; ; seq++ {
		code := shared.DepartmentCode(seq)
		_, err := s.store.Departments.GetByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ListDepartments returns departments, optionally of one faculty
func (s *CatalogService) ListDepartments(ctx context.Context, facultyRef string, includeInactive bool) ([]shared.Department, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := store.DepartmentFilter{IncludeInactive: includeInactive}
	if ref := strings.TrimSpace(facultyRef); ref != "" {
		faculty, err := s.findFaculty(queryCtx, ref)
		if err != nil {
			return nil, store.Status("catalog.listDepartments", err, "faculty")
		}
		filter.Faculty = &faculty.ID
	}

	departments, err := s.store.Departments.List(queryCtx, filter)
	if err != nil {
		return nil, store.Status("catalog.listDepartments", err, "department")
	}
	return departments, nil
}

// DepartmentsByFaculty lists the active departments of a faculty
func (s *CatalogService) DepartmentsByFaculty(ctx context.Context, facultyRef string) ([]shared.Department, error) {
	if strings.TrimSpace(facultyRef) == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty reference is required")
	}
	return s.ListDepartments(ctx, facultyRef, false)
}

// GetDepartment resolves an ObjectID hex, a departmentId or a name
func (s *CatalogService) GetDepartment(ctx context.Context, ref string) (*shared.Department, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, status.Error(codes.InvalidArgument, "department reference is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dept, err := s.findDepartment(queryCtx, ref)
	if err != nil {
		return nil, store.Status("catalog.getDepartment", err, "department")
	}
	return dept, nil
}

func (s *CatalogService) findDepartment(ctx context.Context, ref string) (*shared.Department, error) {
	if id, ok := shared.ParseObjectID(ref); ok {
		return s.store.Departments.Get(ctx, id)
	}
	if strings.HasPrefix(strings.ToUpper(ref), "DEPT") {
		if d, err := s.store.Departments.GetByCode(ctx, strings.ToUpper(ref)); err == nil || !errors.Is(err, store.ErrNotFound) {
			return d, err
		}
	}
	return s.store.Departments.GetByName(ctx, nil, ref)
}

// DepartmentCourses returns a department's programmes
func (s *CatalogService) DepartmentCourses(ctx context.Context, ref string, includeInactive bool) ([]shared.ProgramCourse, error) {
	dept, err := s.GetDepartment(ctx, ref)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		return dept.Courses, nil
	}
	active := make([]shared.ProgramCourse, 0, len(dept.Courses))
	for _, c := range dept.Courses {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

// UpdateDepartment replaces the writable fields of a department
func (s *CatalogService) UpdateDepartment(ctx context.Context, ref string, in DepartmentInput) (*shared.Department, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "department name is required")
	}
	programmes, err := normalizeProgrammes(in.Courses)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dept, err := s.findDepartment(queryCtx, ref)
	if err != nil {
		return nil, store.Status("catalog.updateDepartment", err, "department")
	}
	if f := strings.TrimSpace(in.Faculty); f != "" {
		faculty, err := s.findFaculty(queryCtx, f)
		if err != nil {
			return nil, store.Status("catalog.updateDepartment", err, "faculty")
		}
		dept.Faculty = faculty.ID
	}

	dept.Name = name
	dept.Description = strings.TrimSpace(in.Description)
	dept.Courses = programmes
	dept.IsActive = boolOr(in.IsActive, dept.IsActive)
	dept.Order = in.Order
	dept.UpdatedAt = s.now()

	if err := s.store.Departments.Update(queryCtx, dept); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "a department with this name already exists in the faculty")
		}
		return nil, store.Status("catalog.updateDepartment", err, "department")
	}
	return dept, nil
}

// DeleteDepartment hard-deletes a department no applicant references.
// Referenced departments can only be deactivated.
func (s *CatalogService) DeleteDepartment(ctx context.Context, ref string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dept, err := s.findDepartment(queryCtx, ref)
	if err != nil {
		return store.Status("catalog.deleteDepartment", err, "department")
	}

	n, err := s.store.Applicants.CountByDepartment(queryCtx, dept.ID)
	if err != nil {
		return store.Status("catalog.deleteDepartment", err, "department")
	}
	if n > 0 {
		return status.Errorf(codes.FailedPrecondition, "department is referenced by %d application(s); deactivate it instead", n)
	}

	if err := s.store.Departments.Delete(queryCtx, dept.ID); err != nil {
		return store.Status("catalog.deleteDepartment", err, "department")
	}

	logger.Info().Str("department_id", dept.DepartmentID).Msg("department deleted")
	return nil
}

// SearchDepartments matches active departments by name or description
func (s *CatalogService) SearchDepartments(ctx context.Context, q string) ([]shared.Department, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, status.Error(codes.InvalidArgument, "search query is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	departments, err := s.store.Departments.List(queryCtx, store.DepartmentFilter{Search: q, Limit: MaxSearchResults})
	if err != nil {
		return nil, store.Status("catalog.searchDepartments", err, "department")
	}
	return departments, nil
}
