package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/catalog"
	"schooladmin/backend/internal/gateway/util"
)

// CatalogHandler serves faculties and departments.
type CatalogHandler struct {
	Service *catalog.CatalogService
}

// ListFaculties handles GET /faculties?includeInactive=
func (h *CatalogHandler) ListFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.Service.ListFaculties(r.Context(), util.QueryBool(r, "includeInactive", false))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, faculties)
}

// GetFaculty handles GET /faculties/{ref}
func (h *CatalogHandler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.Service.GetFaculty(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, faculty)
}

// FacultyDepartments handles GET /faculties/{ref}/departments
func (h *CatalogHandler) FacultyDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.DepartmentsByFaculty(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, departments)
}

// CreateFaculty handles POST /faculties
func (h *CatalogHandler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req catalog.FacultyInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	faculty, err := h.Service.CreateFaculty(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Faculty created", faculty)
}

// UpdateFaculty handles PUT /faculties/{ref}
func (h *CatalogHandler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req catalog.FacultyInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	faculty, err := h.Service.UpdateFaculty(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Faculty updated", faculty)
}

// DeleteFaculty handles DELETE /faculties/{ref}
func (h *CatalogHandler) DeleteFaculty(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteFaculty(r.Context(), chi.URLParam(r, "ref")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Faculty deleted", nil)
}

// ListDepartments handles GET /departments?faculty=&includeInactive=
func (h *CatalogHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context(),
		r.URL.Query().Get("faculty"),
		util.QueryBool(r, "includeInactive", false))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, departments)
}

// SearchDepartments handles GET /departments/search?q=
func (h *CatalogHandler) SearchDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.SearchDepartments(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, departments)
}

// GetDepartment handles GET /departments/{ref}
func (h *CatalogHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	department, err := h.Service.GetDepartment(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, department)
}

// DepartmentCourses handles GET /departments/{ref}/courses
func (h *CatalogHandler) DepartmentCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Service.DepartmentCourses(r.Context(), chi.URLParam(r, "ref"), util.QueryBool(r, "includeInactive", false))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, courses)
}

// CreateDepartment handles POST /departments
func (h *CatalogHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req catalog.DepartmentInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}
	if req.Faculty == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "faculty is a required field")
		return
	}

	department, err := h.Service.CreateDepartment(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Department created", department)
}

// UpdateDepartment handles PUT /departments/{ref}
func (h *CatalogHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var req catalog.DepartmentInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	department, err := h.Service.UpdateDepartment(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Department updated", department)
}

// DeleteDepartment handles DELETE /departments/{ref}
func (h *CatalogHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteDepartment(r.Context(), chi.URLParam(r, "ref")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Department deleted", nil)
}
