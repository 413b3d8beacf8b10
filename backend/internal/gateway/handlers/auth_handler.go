package handlers

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/backend/internal/auth"
	"schooladmin/backend/internal/gateway/util"
)

// AuthHandler serves student, staff and admin identity routes.
type AuthHandler struct {
	Service *auth.AuthService
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RegisterStudent handles POST /students/register
func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	student, err := h.Service.RegisterStudent(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Registration successful", student)
}

// LoginStudent handles POST /students/login
func (h *AuthHandler) LoginStudent(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.LoginStudent(r.Context(), req, auth.ClientInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Login successful", result)
}

// Logout handles POST /students/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Service.Logout(r.Context(), util.ClaimsFromContext(r.Context()))
	util.WriteJSONMessage(w, http.StatusOK, "Logged out successfully", nil)
}

// ForgotPassword handles POST /students/forget-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.ForgotPassword(r.Context(), req.Email); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "OTP sent to your email", nil)
}

// VerifyOTP handles POST /students/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	id, err := h.Service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "OTP verified", map[string]string{"studentId": id})
}

// ResetPassword handles PUT /students/reset-password/{studentId}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "studentId"), req.NewPassword, req.ConfirmPassword)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Password reset successfully", nil)
}

// GetProfile handles GET /students/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := util.ClaimsFromContext(r.Context())

	student, err := h.Service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, student)
}

// UpdateProfile handles PUT /students/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := util.ClaimsFromContext(r.Context())

	var req auth.ProfileInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	student, err := h.Service.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Profile updated", student)
}

// LoginStaff handles POST /staff/login
func (h *AuthHandler) LoginStaff(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.LoginStaff(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Login successful", result)
}

// ChangeStaffPassword handles PUT /staff/change-password
func (h *AuthHandler) ChangeStaffPassword(w http.ResponseWriter, r *http.Request) {
	claims := util.ClaimsFromContext(r.Context())

	var req changePasswordRequest
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	err := h.Service.ChangeStaffPassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Password changed successfully", nil)
}

// RegisterAdmin handles POST /admin/register
func (h *AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req auth.AdminRegisterInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	admin, err := h.Service.RegisterAdmin(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusCreated, "Admin registered", admin)
}

// LoginAdmin handles POST /admin/login
func (h *AuthHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if !util.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.LoginAdmin(r.Context(), req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSONMessage(w, http.StatusOK, "Login successful", result)
}
