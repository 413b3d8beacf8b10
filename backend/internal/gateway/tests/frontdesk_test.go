package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooladmin/backend/internal/notify"
)

func visitBody(email string, daysAhead int) map[string]interface{} {
	return map[string]interface{}{
		"firstName": "Marie",
		"lastName":  "Curie",
		"email":     email,
		"phone":     "555-0500",
		"visitDate": time.Now().AddDate(0, 0, daysAhead).Format("2006-01-02"),
		"visitTime": "morning",
		"visitType": "group",
		"groupSize": 4,
		"interests": []string{"campus_tour", "housing"},
	}
}

func TestGateway_Visits(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)

	var visitID string
	t.Run("Schedule", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/visits", visitBody("marie@example.com", 14), "")
		require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
		assert.Equal(t, "pending", resp.Data()["status"])
		visitID, _ = resp.Data()["id"].(string)
		require.NotEmpty(t, visitID)

		assert.ElementsMatch(t, []string{
			notify.TemplateVisitConfirmation,
			notify.TemplateVisitNotification,
		}, env.Templates())
	})

	t.Run("Schedule Rejects", func(t *testing.T) {
		past := visitBody("past@example.com", -1)
		resp := env.Do(t, http.MethodPost, "/api/visits", past, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Raw)

		big := visitBody("big@example.com", 3)
		big["groupSize"] = 51
		resp = env.Do(t, http.MethodPost, "/api/visits", big, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Raw)

		odd := visitBody("odd@example.com", 3)
		odd["visitTime"] = "midnight"
		resp = env.Do(t, http.MethodPost, "/api/visits", odd, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Raw)
	})

	t.Run("Admin Views", func(t *testing.T) {
		resp := env.Do(t, http.MethodPost, "/api/visits", visitBody("pierre@example.com", 7), "")
		require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)

		resp = env.Do(t, http.MethodGet, "/api/admin/visits?limit=1", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.EqualValues(t, 2, resp.Data()["totalVisits"])
		assert.Equal(t, true, resp.Data()["hasNext"])
		visits, _ := resp.Data()["visits"].([]interface{})
		require.Len(t, visits, 1)
		first, _ := visits[0].(map[string]interface{})
		assert.Equal(t, "pierre@example.com", first["email"])

		resp = env.Do(t, http.MethodGet, "/api/admin/visits?status=lost", nil, adminToken)
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = env.Do(t, http.MethodGet, "/api/admin/visits/"+visitID, nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "marie@example.com", resp.Data()["email"])
	})

	t.Run("Status And Stats", func(t *testing.T) {
		resp := env.Do(t, http.MethodPut, "/api/admin/visits/"+visitID+"/status",
			map[string]string{"status": "confirmed", "adminNotes": "Meet at the main gate"}, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Equal(t, "confirmed", resp.Data()["status"])

		resp = env.Do(t, http.MethodPut, "/api/admin/visits/"+visitID+"/status", map[string]string{"status": "lost"}, adminToken)
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = env.Do(t, http.MethodGet, "/api/admin/visits/stats", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.EqualValues(t, 2, resp.Data()["total"])
		assert.EqualValues(t, 2, resp.Data()["upcoming"])
		byStatus, _ := resp.Data()["byStatus"].(map[string]interface{})
		assert.EqualValues(t, 1, byStatus["confirmed"])
		assert.EqualValues(t, 1, byStatus["pending"])
		assert.EqualValues(t, 0, byStatus["cancelled"])
	})

	t.Run("Delete", func(t *testing.T) {
		resp := env.Do(t, http.MethodDelete, "/api/admin/visits/"+visitID, nil, adminToken)
		require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
		assert.Contains(t, env.Templates(), notify.TemplateVisitCancellation)

		resp = env.Do(t, http.MethodGet, "/api/admin/visits/"+visitID, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestGateway_Contact(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)

	resp := env.Do(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Rosalind", "email": "rosalind@example.com", "subject": "Open day", "message": "When is the next one?",
	}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
	contactID, _ := resp.Data()["id"].(string)
	require.NotEmpty(t, contactID)

	resp = env.Do(t, http.MethodPost, "/api/contact", map[string]string{"name": "Anon", "email": "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.Do(t, http.MethodGet, "/api/admin/contacts", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.List(), 1)

	resp = env.Do(t, http.MethodDelete, "/api/admin/contacts/"+contactID, nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	resp = env.Do(t, http.MethodGet, "/api/admin/contacts", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Empty(t, resp.List())
}

func TestGateway_Support(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.AdminToken(t)
	_, studentToken := env.CreateStudent(t, 1)

	body := map[string]string{"subject": "Portal login", "category": "Technical", "message": "I cannot see my courses"}

	resp := env.Do(t, http.MethodPost, "/api/support", body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.Do(t, http.MethodPost, "/api/support", body, studentToken)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Raw)
	assert.Equal(t, "STU001", resp.Data()["studentId"])
	assert.Equal(t, "Pending", resp.Data()["status"])
	ticketID, _ := resp.Data()["id"].(string)
	assert.Equal(t, []string{notify.TemplateSupportRequest}, env.Templates())

	bad := map[string]string{"subject": "x", "category": "Gossip", "message": "y"}
	resp = env.Do(t, http.MethodPost, "/api/support", bad, studentToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.Do(t, http.MethodPut, "/api/admin/support/"+ticketID+"/status", map[string]string{"status": "In Progress"}, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Equal(t, "In Progress", resp.Data()["status"])

	resp = env.Do(t, http.MethodGet, "/api/admin/support?status=Pending", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Empty(t, resp.List())

	resp = env.Do(t, http.MethodGet, "/api/admin/support", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Raw)
	assert.Len(t, resp.List(), 1)
}
