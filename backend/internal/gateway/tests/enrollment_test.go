package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCourse(t *testing.T, env *TestEnv, adminToken, courseID string, maxStudents int) {
	t.Helper()
	resp := env.Do(t, http.MethodPost, "/api/courses", map[string]interface{}{
		"courseId":    courseID,
		"name":        "Course " + courseID,
		"maxStudents": maxStudents,
		"duration":    12,
		"schedule":    map[string]interface{}{"days": []string{"Monday"}, "startTime": "09:00", "endTime": "10:00"},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
}

func TestGateway_CourseCapacity(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	createCourse(t, env, adminToken, "CS101", 1)

	_, tokenA := env.CreateStudent(t, 1)
	_, tokenB := env.CreateStudent(t, 2)

	resp := env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, tokenA)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "CS101", resp.Data()["courseId"])

	resp = env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, tokenA)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body["message"], "already enrolled")

	resp = env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, tokenB)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "course is full", resp.Body["message"])

	resp = env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "NOPE"}, tokenB)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = env.Do(t, http.MethodGet, "/api/courses/CS101", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 1, resp.Body["enrolledCount"])
	assert.EqualValues(t, 0, resp.Body["availableSeats"])

	resp = env.Do(t, http.MethodGet, "/api/courses/CS101/students", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.List(), 1)
}

func TestGateway_UnregisterThenRegister(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	createCourse(t, env, adminToken, "CS101", 5)
	student, token := env.CreateStudent(t, 1)

	resp := env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodDelete, "/api/students/courses/unregister?courseId=CS101", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodDelete, "/api/students/courses/unregister", map[string]string{"courseId": "CS101"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body["message"], "not enrolled")

	resp = env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	ctx := context.Background()
	course, err := env.Store.Courses.GetByCourseID(ctx, "CS101")
	require.NoError(t, err)
	assert.Len(t, course.Students, 1)

	stored, err := env.Store.Students.Get(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Courses, 1)

	resp = env.Do(t, http.MethodGet, "/api/students/courses", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 1, resp.Body["count"])

	resp = env.Do(t, http.MethodGet, "/api/students/activity", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.List(), 3)
}

func TestGateway_ExamBatch(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	createCourse(t, env, adminToken, "CS101", 5)
	createCourse(t, env, adminToken, "CS102", 5)
	createCourse(t, env, adminToken, "CS103", 5)
	_, token := env.CreateStudent(t, 1)

	for _, c := range []string{"CS101", "CS103"} {
		resp := env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": c}, token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	}
	resp := env.Do(t, http.MethodPost, "/api/students/exams/register", map[string][]string{"courseIds": {"CS103"}}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	// enrolled, not enrolled, already registered
	resp = env.Do(t, http.MethodPost, "/api/students/exams/register",
		map[string][]string{"courseIds": {"CS101", "CS102", "CS103"}}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.Body["registeredCourses"], 1)
	assert.Len(t, resp.Body["errors"], 2)

	resp = env.Do(t, http.MethodGet, "/api/students/exams", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 2, resp.Body["count"])

	// nothing succeeds
	resp = env.Do(t, http.MethodPost, "/api/students/exams/register",
		map[string][]string{"courseIds": {"CS102", "MISSING"}}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, resp.Body["success"])
	assert.Len(t, resp.Body["errors"], 2)

	resp = env.Do(t, http.MethodPost, "/api/students/exams/register", map[string][]string{"courseIds": {}}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.Do(t, http.MethodDelete, "/api/students/exams/clear",
		map[string][]string{"courseIds": {"CS101", "CS102"}}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.Body["clearedCourses"], 1)
	assert.Len(t, resp.Body["errors"], 1)
}

func TestGateway_CourseAdministration(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	_, studentToken := env.CreateStudent(t, 1)

	resp := env.Do(t, http.MethodPost, "/api/courses", map[string]interface{}{"courseId": "X1", "name": "X"}, studentToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	createCourse(t, env, adminToken, "CS101", 2)

	resp = env.Do(t, http.MethodPost, "/api/courses", map[string]interface{}{"courseId": "cs101", "name": "Dup"}, adminToken)
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Raw)

	inactive := false
	resp = env.Do(t, http.MethodPut, "/api/courses/CS101", map[string]interface{}{
		"courseId": "CS101", "name": "Renamed", "maxStudents": 2, "isActive": inactive,
	}, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodGet, "/api/courses", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Empty(t, resp.List())

	resp = env.Do(t, http.MethodGet, "/api/admin/courses", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.List(), 1)

	resp = env.Do(t, http.MethodPost, "/api/students/courses/register", map[string]string{"courseId": "CS101"}, studentToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "course is not active", resp.Body["message"])

	resp = env.Do(t, http.MethodDelete, "/api/courses/CS101", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	resp = env.Do(t, http.MethodGet, "/api/courses/CS101", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
