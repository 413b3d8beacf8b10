package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_StudentAuth(t *testing.T) {
	env := setupGatewayTestEnv(t)

	register := map[string]interface{}{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"phone":           "555-0100",
		"age":             19,
		"password":        "secret1",
		"confirmPassword": "secret1",
	}

	t.Run("Register", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/students/register", register, "")
		require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
		assert.Equal(t, "ada@example.com", resp.Data()["email"])
		assert.NotContains(t, resp.Raw, "passwordHash")

		resp = env.Do(t, http.MethodPost, "/api/students/register", register, "")
		assert.Equal(t, http.StatusConflict, resp.Code, resp.Raw)
	})

	t.Run("Register Validation", func(t *testing.T) {
		bad := map[string]interface{}{}
		for k, v := range register {
			bad[k] = v
		}
		bad["email"] = "other@example.com"
		bad["confirmPassword"] = "different"
		resp := env.Do(t, http.MethodPost, "/api/students/register", bad, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, false, resp.Body["success"])
		assert.Contains(t, resp.Body["message"], "confirmPassword")

		resp = env.Do(t, http.MethodPost, "/api/students/register", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	var token string
	t.Run("Login", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/students/login", map[string]string{"email": "ada@example.com", "password": "wrong-password"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = env.Do(t, http.MethodPost, "/api/students/login", map[string]string{"email": "nobody@example.com", "password": "secret1"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = env.Do(t, http.MethodPost, "/api/students/login", map[string]string{"email": "ada@example.com", "password": "secret1"}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "student", resp.Data()["role"])
		token, _ = resp.Data()["token"].(string)
		require.NotEmpty(t, token)
	})

	t.Run("Profile Requires Token", func(t *testing.T) {
		resp := env.Do(t, http.MethodGet, "/api/students/profile", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)

		resp = env.Do(t, http.MethodGet, "/api/students/profile", nil, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Profile", func(t *testing.T) {
		resp := env.Do(t, http.MethodGet, "/api/students/profile", nil, token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "Ada", resp.Data()["firstName"])

		resp = env.Do(t, http.MethodPut, "/api/students/profile", map[string]interface{}{
			"firstName": "Augusta", "lastName": "King", "phone": "555-0199", "age": 20,
		}, token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "Augusta", resp.Data()["firstName"])
	})

	t.Run("Logout", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/students/logout", nil, token)
		assert.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	})

	t.Run("Password Reset", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/students/forget-password", map[string]string{"email": "nobody@example.com"}, "")
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = env.Do(t, http.MethodPost, "/api/students/forget-password", map[string]string{"email": "ada@example.com"}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

		student, err := env.Store.Students.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		require.Len(t, student.OTP, 6)

		// reset before verification is refused
		resp = env.Do(t, http.MethodPut, "/api/students/reset-password/"+student.ID.Hex(),
			map[string]string{"newPassword": "newsecret", "confirmPassword": "newsecret"}, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		wrong := "000000"
		if student.OTP == wrong {
			wrong = "111111"
		}
		resp = env.Do(t, http.MethodPost, "/api/students/verify-otp", map[string]string{"email": "ada@example.com", "otp": wrong}, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = env.Do(t, http.MethodPost, "/api/students/verify-otp", map[string]string{"email": "ada@example.com", "otp": student.OTP}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, student.ID.Hex(), resp.Data()["studentId"])

		resp = env.Do(t, http.MethodPut, "/api/students/reset-password/"+student.ID.Hex(),
			map[string]string{"newPassword": "newsecret", "confirmPassword": "newsecret"}, "")
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

		resp = env.Do(t, http.MethodPost, "/api/students/login", map[string]string{"email": "ada@example.com", "password": "newsecret"}, "")
		assert.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	})
}

func TestGateway_AdminAuth(t *testing.T) {
	env := setupGatewayTestEnv(t)

	body := map[string]string{
		"name":            "Root",
		"email":           "root@school.edu",
		"password":        "rootpass",
		"registrationKey": "wrong-key",
	}
	resp := env.Do(t, http.MethodPost, "/api/admin/register", body, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	body["registrationKey"] = "bootstrap-key"
	resp = env.Do(t, http.MethodPost, "/api/admin/register", body, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodPost, "/api/admin/login", map[string]string{"email": "root@school.edu", "password": "rootpass"}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	token, _ := resp.Data()["token"].(string)
	require.NotEmpty(t, token)

	resp = env.Do(t, http.MethodGet, "/api/admin/dashboard", nil, token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Raw)
}

func TestGateway_AdminRoutesRejectStudents(t *testing.T) {
	env := setupGatewayTestEnv(t)
	_, studentToken := env.CreateStudent(t, 1)

	for _, path := range []string{"/api/applications", "/api/admin/dashboard", "/api/admin/students", "/api/admin/visits"} {
		t.Run(path, func(t *testing.T) {
			resp := env.Do(t, http.MethodGet, path, nil, studentToken)
			assert.Equal(t, http.StatusForbidden, resp.Code)

			resp = env.Do(t, http.MethodGet, path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}

func TestGateway_PromotedStudentIsAdmin(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	student, _ := env.CreateStudent(t, 1)

	resp := env.Do(t, http.MethodPut, "/api/admin/students/"+student.StudentID+"/make-admin", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	resp = env.Do(t, http.MethodPost, "/api/students/login", map[string]string{"email": student.Email, "password": "password1"}, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "admin", resp.Data()["role"])
	token, _ := resp.Data()["token"].(string)

	resp = env.Do(t, http.MethodGet, "/api/admin/students", nil, token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Raw)

	// promoted students keep their self-service routes
	resp = env.Do(t, http.MethodGet, "/api/students/profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Raw)
}
