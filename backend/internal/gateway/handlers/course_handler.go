package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/course"
	"schooladmin/backend/internal/gateway/util"
)

// CourseHandler serves the course catalogue and its administration.
type CourseHandler struct {
	Service *course.CourseService
}

// ListCourses handles GET /courses. Only active courses are public.
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Service.ListCourses(r.Context(), true)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, courses)
}

// ListAllCourses handles GET /admin/courses
func (h *CourseHandler) ListAllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Service.ListCourses(r.Context(), util.QueryBool(r, "activeOnly", false))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /courses/{ref}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCourse(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"data":           c,
		"enrolledCount":  len(c.Students),
		"availableSeats": c.SeatsAvailable(),
	})
}

// CreateCourse handles POST /courses
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req course.CourseInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Service.CreateCourse(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Course created", c)
}

// UpdateCourse handles PUT /courses/{ref}
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req course.CourseInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Service.UpdateCourse(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Course updated", c)
}

// DeleteCourse handles DELETE /courses/{ref}
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCourse(r.Context(), chi.URLParam(r, "ref")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Course deleted", nil)
}

// CourseStudents handles GET /courses/{ref}/students
func (h *CourseHandler) CourseStudents(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Service.CourseStudents(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, roster)
}
