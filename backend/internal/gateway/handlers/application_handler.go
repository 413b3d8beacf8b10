package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/application"
	"schooladmin/backend/internal/gateway/util"
)

// ApplicationHandler serves the admission workflow.
type ApplicationHandler struct {
	Service *application.ApplicationService
}

type updateApplicationStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

// Submit handles POST /applications
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req application.SubmitInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.SubmitApplication(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Application submitted successfully", result)
}

// GetStatus handles GET /applications/{id}/status
func (h *ApplicationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetApplicationStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, view)
}

// List handles GET /applications?status=&page=&limit=
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.ListApplications(r.Context(), application.ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   util.QueryInt(r, "page", 1),
		Limit:  util.QueryInt(r, "limit", 10),
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.Service.GetApplicationDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, app)
}

// GetByEmail handles GET /applications/email/{email}
func (h *ApplicationHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	app, err := h.Service.GetApplicationByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, app)
}

// UpdateStatus handles PUT /applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateApplicationStatusRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	app, err := h.Service.UpdateApplicationStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Remarks)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Application status updated", app)
}

// Delete handles DELETE /applications/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteApplication(r.Context(), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Application deleted", nil)
}
