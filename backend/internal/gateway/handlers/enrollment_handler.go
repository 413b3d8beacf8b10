package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/enrollment"
	"schooladmin/backend/internal/gateway/util"
)

// EnrollmentHandler serves course and exam registration for the signed-in student.
type EnrollmentHandler struct {
	Service *enrollment.EnrollmentService
}

type courseRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type examBatchRequest struct {
	CourseIDs []string `json:"courseIds" validate:"required,min=1,dive,required"`
}

// studentID is the record id of the token subject
func studentID(r *http.Request) string {
	if claims := util.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

// ListCourses handles GET /students/courses
func (h *EnrollmentHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Service.ListStudentCourses(r.Context(), studentID(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"courses": courses,
		"count":   len(courses),
	})
}

// ListExams handles GET /students/exams
func (h *EnrollmentHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.Service.ListStudentExams(r.Context(), studentID(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"exams":   exams,
		"count":   len(exams),
	})
}

// RecentActivity handles GET /students/activity
func (h *EnrollmentHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.Service.RecentActivity(r.Context(), studentID(r))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, activity)
}

// RegisterCourse handles POST /students/courses/register
func (h *EnrollmentHandler) RegisterCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	snapshot, err := h.Service.RegisterForCourse(r.Context(), studentID(r), req.CourseID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Successfully registered for course", snapshot)
}

// UnregisterCourse handles DELETE /students/courses/unregister. The course
// may be named in the courseId query parameter or in the body.
func (h *EnrollmentHandler) UnregisterCourse(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(r.URL.Query().Get("courseId"))
	if courseID == "" {
		courseID = strings.TrimSpace(chi.URLParam(r, "courseId"))
	}
	if courseID == "" {
		var req courseRequest
		if !util.DecodeJSON(w, r, &req) {
			return
		}
		courseID = req.CourseID
	}

	if err := h.Service.UnregisterFromCourse(r.Context(), studentID(r), courseID); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Successfully unregistered from course", nil)
}

// RegisterExams handles POST /students/exams/register
func (h *EnrollmentHandler) RegisterExams(w http.ResponseWriter, r *http.Request) {
	var req examBatchRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.RegisterForExams(r.Context(), studentID(r), req.CourseIDs)
	writeExamBatch(w, result, err, "Exam registration completed")
}

// ClearExams handles DELETE /students/exams/clear
func (h *EnrollmentHandler) ClearExams(w http.ResponseWriter, r *http.Request) {
	var req examBatchRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.ClearExamRegistrations(r.Context(), studentID(r), req.CourseIDs)
	writeExamBatch(w, result, err, "Exam registrations cleared")
}

// writeExamBatch reports a partial-success batch. A batch where nothing
// succeeded is a 400 that still lists the per-course errors.
func writeExamBatch(w http.ResponseWriter, result *enrollment.ExamBatchResult, err error, message string) {
	if err != nil {
		if result == nil {
			util.HandleServiceError(w, err)
			return
		}
		util.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": message + " with errors",
			"errors":  result.Errors,
		})
		return
	}

	body := map[string]interface{}{
		"success":           true,
		"message":           message,
		"registeredCourses": result.Registered,
		"errors":            result.Errors,
	}
	if result.Cleared != nil {
		body["clearedCourses"] = result.Cleared
	}
	util.WriteJSON(w, http.StatusOK, body)
}
