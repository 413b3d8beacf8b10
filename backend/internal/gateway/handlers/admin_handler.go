package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/admin"
	"schooladmin/backend/internal/gateway/util"
	"schooladmin/backend/internal/shared"
)

// AdminHandler serves student and staff management, the dashboard and settings.
type AdminHandler struct {
	Service *admin.AdminService
}

type staffStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ============================================================================
// Students
// ============================================================================

// ListStudents handles GET /admin/students?page=&limit=&search=
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListStudents(r.Context(),
		util.QueryInt(r, "page", 1),
		util.QueryInt(r, "limit", 10),
		r.URL.Query().Get("search"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, list)
}

// StudentCount handles GET /admin/students/count
func (h *AdminHandler) StudentCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.StudentCount(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// GetStudent handles GET /admin/students/{ref}
func (h *AdminHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.Service.GetStudent(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, student)
}

// MakeAdmin handles PUT /admin/students/{ref}/make-admin
func (h *AdminHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	student, err := h.Service.MakeAdmin(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Student promoted to admin", student)
}

// DeleteStudent handles DELETE /admin/students/{ref}
func (h *AdminHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteStudent(r.Context(), chi.URLParam(r, "ref")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Student deleted", nil)
}

// ============================================================================
// Staff
// ============================================================================

// CreateStaff handles POST /admin/staff. The temporary password is returned
// once so the administrator can hand it over if the email is lost.
func (h *AdminHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req admin.StaffInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	staff, temp, err := h.Service.CreateStaff(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":           true,
		"message":           "Staff member created",
		"data":              staff,
		"temporaryPassword": temp,
	})
}

// ListStaff handles GET /admin/staff?role=&activeOnly=
func (h *AdminHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Service.ListStaff(r.Context(), r.URL.Query().Get("role"), util.QueryBool(r, "activeOnly", false))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, staff)
}

// GetStaff handles GET /admin/staff/{id}
func (h *AdminHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Service.GetStaff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, staff)
}

// UpdateStaff handles PUT /admin/staff/{id}
func (h *AdminHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var req admin.StaffInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	staff, err := h.Service.UpdateStaff(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Staff member updated", staff)
}

// SetStaffStatus handles PATCH /admin/staff/{id}/status
func (h *AdminHandler) SetStaffStatus(w http.ResponseWriter, r *http.Request) {
	var req staffStatusRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	staff, err := h.Service.SetStaffActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Staff status updated", staff)
}

// DeleteStaff handles DELETE /admin/staff/{id}
func (h *AdminHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteStaff(r.Context(), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Staff member deleted", nil)
}

// ============================================================================
// Dashboard & Settings
// ============================================================================

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, overview)
}

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetSettings(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req shared.Settings
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	updatedBy := "admin"
	if claims := util.ClaimsFromContext(r.Context()); claims != nil {
		updatedBy = claims.Email
	}

	settings, err := h.Service.UpdateSettings(r.Context(), req, updatedBy)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Settings updated", settings)
}

// GetPublicSettings handles GET /settings/public
func (h *AdminHandler) GetPublicSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetPublicSettings(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, settings)
}
