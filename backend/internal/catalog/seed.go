package catalog

import (
	"context"
	"errors"
	"strings"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// SeedCatalog is the document loaded by the seeder
type SeedCatalog struct {
	Faculties []SeedFaculty `yaml:"faculties"`
}

type SeedFaculty struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Icon        string           `yaml:"icon"`
	Order       int              `yaml:"order"`
	Departments []SeedDepartment `yaml:"departments"`
}

type SeedDepartment struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Order       int           `yaml:"order"`
	Programmes  []SeedProgram `yaml:"programmes"`
}

type SeedProgram struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
	Type string `yaml:"type"`
}

// SeedResult counts what Seed wrote
type SeedResult struct {
	FacultiesCreated   int `json:"facultiesCreated"`
	FacultiesUpdated   int `json:"facultiesUpdated"`
	DepartmentsCreated int `json:"departmentsCreated"`
	DepartmentsUpdated int `json:"departmentsUpdated"`
}

// Seed upserts the catalog by name; a second run creates nothing new.
func (s *CatalogService) Seed(ctx context.Context, doc SeedCatalog) (*SeedResult, error) {
	res := &SeedResult{}
	active := true

	for _, sf := range doc.Faculties {
		fin := FacultyInput{Name: sf.Name, Description: sf.Description, Icon: sf.Icon, IsActive: &active, Order: sf.Order}

		faculty, err := s.store.Faculties.GetByName(ctx, strings.TrimSpace(sf.Name))
		switch {
		case errors.Is(err, store.ErrNotFound):
			if faculty, err = s.CreateFaculty(ctx, fin); err != nil {
				return res, err
			}
			res.FacultiesCreated++
		case err != nil:
			return res, store.Status("catalog.seed", err, "faculty")
		default:
			if faculty, err = s.UpdateFaculty(ctx, faculty.ID.Hex(), fin); err != nil {
				return res, err
			}
			res.FacultiesUpdated++
		}

		for _, sd := range sf.Departments {
			programmes := make([]shared.ProgramCourse, 0, len(sd.Programmes))
			for _, p := range sd.Programmes {
				programmes = append(programmes, shared.ProgramCourse{Name: p.Name, Code: p.Code, Type: p.Type, IsActive: true})
			}
			din := DepartmentInput{
				Name:        sd.Name,
				Description: sd.Description,
				Faculty:     faculty.ID.Hex(),
				Courses:     programmes,
				IsActive:    &active,
				Order:       sd.Order,
			}

			dept, err := s.store.Departments.GetByName(ctx, &faculty.ID, strings.TrimSpace(sd.Name))
			switch {
			case errors.Is(err, store.ErrNotFound):
				if _, err := s.CreateDepartment(ctx, din); err != nil {
					return res, err
				}
				res.DepartmentsCreated++
			case err != nil:
				return res, store.Status("catalog.seed", err, "department")
			default:
				if _, err := s.UpdateDepartment(ctx, dept.ID.Hex(), din); err != nil {
					return res, err
				}
				res.DepartmentsUpdated++
			}
		}
	}

	logger.Info().
		Int("faculties_created", res.FacultiesCreated).
		Int("faculties_updated", res.FacultiesUpdated).
		Int("departments_created", res.DepartmentsCreated).
		Int("departments_updated", res.DepartmentsUpdated).
		Msg("catalog seeded")
	return res, nil
}
