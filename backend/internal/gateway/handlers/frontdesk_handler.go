package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/frontdesk"
	"schooladmin/backend/internal/gateway/util"
)

// FrontDeskHandler serves visits, the contact form and support requests.
type FrontDeskHandler struct {
	Service *frontdesk.FrontDeskService
}

type visitStatusRequest struct {
	Status     string `json:"status" validate:"required"`
	AdminNotes string `json:"adminNotes" validate:"max=1000"`
}

type supportStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ScheduleVisit handles POST /visits
func (h *FrontDeskHandler) ScheduleVisit(w http.ResponseWriter, r *http.Request) {
	var req frontdesk.VisitInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	visit, err := h.Service.ScheduleVisit(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Visit scheduled successfully", visit)
}

// ListVisits handles GET /admin/visits?status=&page=&limit=&sortBy=&sortOrder=
func (h *FrontDeskHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Service.ListVisits(r.Context(), frontdesk.VisitFilter{
		Status:    q.Get("status"),
		Page:      util.QueryInt(r, "page", 1),
		Limit:     util.QueryInt(r, "limit", 10),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, list)
}

// VisitStats handles GET /admin/visits/stats
func (h *FrontDeskHandler) VisitStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.VisitStats(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}

// GetVisit handles GET /admin/visits/{id}
func (h *FrontDeskHandler) GetVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := h.Service.GetVisit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, visit)
}

// UpdateVisitStatus handles PUT /admin/visits/{id}/status
func (h *FrontDeskHandler) UpdateVisitStatus(w http.ResponseWriter, r *http.Request) {
	var req visitStatusRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	visit, err := h.Service.UpdateVisitStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.AdminNotes)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Visit status updated", visit)
}

// DeleteVisit handles DELETE /admin/visits/{id}
func (h *FrontDeskHandler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteVisit(r.Context(), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Visit deleted", nil)
}

// SubmitContact handles POST /contact
func (h *FrontDeskHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req frontdesk.ContactInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	contact, err := h.Service.SubmitContact(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Message sent successfully", contact)
}

// ListContacts handles GET /admin/contacts
func (h *FrontDeskHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Service.ListContacts(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, contacts)
}

// DeleteContact handles DELETE /admin/contacts/{id}
func (h *FrontDeskHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Message deleted", nil)
}

// SubmitSupport handles POST /support
func (h *FrontDeskHandler) SubmitSupport(w http.ResponseWriter, r *http.Request) {
	var req frontdesk.SupportInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.Service.SubmitSupport(r.Context(), studentID(r), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Support request submitted", ticket)
}

// ListSupport handles GET /admin/support?status=
func (h *FrontDeskHandler) ListSupport(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Service.ListSupport(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, tickets)
}

// UpdateSupportStatus handles PUT /admin/support/{id}/status
func (h *FrontDeskHandler) UpdateSupportStatus(w http.ResponseWriter, r *http.Request) {
	var req supportStatusRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.Service.UpdateSupportStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Support request updated", ticket)
}
