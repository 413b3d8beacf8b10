package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/backend/internal/store/memstore"
)

func TestEmbeddedCatalogParses(t *testing.T) {
	doc, err := parseSeedFile(embeddedCatalog)
	require.NoError(t, err)

	require.NotEmpty(t, doc.Faculties)
	assert.Equal(t, "Faculty of Science", doc.Faculties[0].Name)
	require.NotEmpty(t, doc.Faculties[0].Departments)
	assert.NotEmpty(t, doc.Faculties[0].Departments[0].Programmes)

	require.Len(t, doc.Courses, 4)
	assert.Equal(t, "CS101", doc.Courses[0].CourseID)
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, doc.Courses[0].Schedule.Days)
}

func TestParseSeedFileRejectsGarbage(t *testing.T) {
	_, err := parseSeedFile([]byte("faculties: [unterminated"))
	assert.Error(t, err)
}

func TestSeedTwice(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	doc, err := parseSeedFile(embeddedCatalog)
	require.NoError(t, err)

	res, err := seed(ctx, st, doc, true)
	require.NoError(t, err)
	assert.Equal(t, len(doc.Faculties), res.Catalog.FacultiesCreated)
	assert.Equal(t, 4, res.CoursesCreated)

	res, err = seed(ctx, st, doc, true)
	require.NoError(t, err)
	assert.Zero(t, res.Catalog.FacultiesCreated)
	assert.Zero(t, res.Catalog.DepartmentsCreated)
	assert.Zero(t, res.CoursesCreated)
	assert.Equal(t, 4, res.CoursesSkipped)

	// maxStudents 0 took the school default
	his, err := st.Courses.GetByCourseID(ctx, "HIS101")
	require.NoError(t, err)
	assert.Positive(t, his.MaxStudents)
}

func TestSeedWithoutCourses(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	doc, err := parseSeedFile(embeddedCatalog)
	require.NoError(t, err)

	res, err := seed(ctx, st, doc, false)
	require.NoError(t, err)
	assert.Zero(t, res.CoursesCreated)

	courses, err := st.Courses.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, courses)
}
