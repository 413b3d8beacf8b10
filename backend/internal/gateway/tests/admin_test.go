package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/backend/internal/notify"
)

func TestGateway_StaffLifecycle(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	_, studentToken := env.CreateStudent(t, 1)

	staffBody := map[string]interface{}{
		"firstName":  "Alan",
		"lastName":   "Turing",
		"email":      "alan@school.edu",
		"phone":      "555-0400",
		"role":       "Teacher",
		"department": "Computing",
	}

	var staffID, tempPassword string
	t.Run("Create", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/admin/staff", staffBody, adminToken)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
		assert.Equal(t, "teacher", resp.Data()["role"])
		assert.Equal(t, true, resp.Data()["mustChangePassword"])
		staffID, _ = resp.Data()["id"].(string)
		tempPassword, _ = resp.Body["temporaryPassword"].(string)
		require.NotEmpty(t, staffID)
		require.NotEmpty(t, tempPassword)
		assert.Contains(t, env.Templates(), notify.TemplateStaffWelcome)

		resp = env.Do(t, http.MethodPost, "/api/admin/staff", staffBody, adminToken)
		assert.Equal(t, http.StatusConflict, resp.Code, resp.Raw)

		bad := map[string]interface{}{}
		for k, v := range staffBody {
			bad[k] = v
		}
		bad["email"] = "janitor@school.edu"
		bad["phone"] = "555-0401"
		bad["role"] = "janitor"
		resp = env.Do(t, http.MethodPost, "/api/admin/staff", bad, adminToken)
		assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Raw)
	})

	var staffToken string
	t.Run("Login", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/staff/login", map[string]string{"email": "alan@school.edu", "password": tempPassword}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "staff", resp.Data()["role"])
		assert.Equal(t, true, resp.Data()["mustChangePassword"])
		staffToken, _ = resp.Data()["token"].(string)
		require.NotEmpty(t, staffToken)
	})

	t.Run("Change Password", func(t *testing.T) {
		body := map[string]string{"currentPassword": tempPassword, "newPassword": "enigma42", "confirmPassword": "enigma42"}

		resp := env.Do(t, http.MethodPut, "/api/staff/change-password", body, studentToken)
		assert.Equal(t, http.StatusForbidden, resp.Code)

		wrong := map[string]string{"currentPassword": "not-it", "newPassword": "enigma42", "confirmPassword": "enigma42"}
		resp = env.Do(t, http.MethodPut, "/api/staff/change-password", wrong, staffToken)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = env.Do(t, http.MethodPut, "/api/staff/change-password", body, staffToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

		resp = env.Do(t, http.MethodPost, "/api/staff/login", map[string]string{"email": "alan@school.edu", "password": "enigma42"}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Nil(t, resp.Data()["mustChangePassword"])
	})

	t.Run("Staff Cannot Administer", func(t *testing.T) {
		resp := env.Do(t, http.MethodGet, "/api/admin/staff", nil, staffToken)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("Deactivate", func(t *testing.T) {
		resp := env.Do(t, http.MethodPatch, "/api/admin/staff/"+staffID+"/status", map[string]bool{"isActive": false}, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, false, resp.Data()["isActive"])

		resp = env.Do(t, http.MethodPost, "/api/staff/login", map[string]string{"email": "alan@school.edu", "password": "enigma42"}, "")
		assert.Equal(t, http.StatusForbidden, resp.Code)

		resp = env.Do(t, http.MethodGet, "/api/admin/staff?activeOnly=true", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Empty(t, resp.List())
	})

	t.Run("Delete", func(t *testing.T) {
		resp := env.Do(t, http.MethodDelete, "/api/admin/staff/"+staffID, nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		resp = env.Do(t, http.MethodGet, "/api/admin/staff/"+staffID, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestGateway_Settings(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)

	resp := env.Do(t, http.MethodGet, "/api/settings/public", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "School Management System", resp.Data()["schoolName"])
	assert.NotContains(t, resp.Data(), "systemPreferences")

	resp = env.Do(t, http.MethodGet, "/api/admin/settings", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	settings := resp.Data()
	settings["schoolName"] = "Northwind Academy"

	resp = env.Do(t, http.MethodPut, "/api/admin/settings", settings, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodGet, "/api/settings/public", nil, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "Northwind Academy", resp.Data()["schoolName"])

	settings["schoolName"] = ""
	resp = env.Do(t, http.MethodPut, "/api/admin/settings", settings, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGateway_StudentAdministration(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	for i := 1; i <= 3; i++ {
		env.CreateStudent(t, i)
	}

	resp := env.Do(t, http.MethodGet, "/api/admin/students?page=1&limit=2", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 3, resp.Data()["totalStudents"])
	assert.EqualValues(t, 2, resp.Data()["totalPages"])
	assert.Len(t, resp.Data()["students"], 2)

	resp = env.Do(t, http.MethodGet, "/api/admin/students?page=100000000000000000&limit=100", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 3, resp.Data()["totalStudents"])
	assert.Empty(t, resp.Data()["students"])

	resp = env.Do(t, http.MethodGet, "/api/admin/students/count", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 3, resp.Data()["count"])

	resp = env.Do(t, http.MethodGet, "/api/admin/students/STU002", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "student2@example.com", resp.Data()["email"])

	resp = env.Do(t, http.MethodDelete, "/api/admin/students/STU002", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	resp = env.Do(t, http.MethodGet, "/api/admin/students/STU002", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = env.Do(t, http.MethodGet, "/api/admin/dashboard", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.EqualValues(t, 2, resp.Data()["totalStudents"])
}
