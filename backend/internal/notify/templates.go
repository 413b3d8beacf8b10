package notify

// Template names. Each has a {{define}} block under templates/ and a subject below.
const (
	TemplateWelcome                    = "welcome"
	TemplateLoginAlert                 = "login-alert"
	TemplateOTPVerification            = "otp-verification"
	TemplatePasswordResetConfirmation  = "password-reset-confirmation"
	TemplateAdminPromotion             = "admin-promotion"
	TemplateAdminRegistration          = "admin-registration"
	TemplateStaffWelcome               = "staff-welcome"
	TemplateApplicationSubmitted       = "application-submitted"
	TemplateApplicationAdminNotice     = "application-admin-notification"
	TemplateApplicationStatusChanged   = "application-status-changed"
	TemplateCourseRegistration         = "course-registration"
	TemplateCourseUnregistration       = "course-unregistration"
	TemplateCourseDeletion             = "course-deletion"
	TemplateAccountDeletion            = "account-deletion"
	TemplateVisitConfirmation          = "visit-confirmation"
	TemplateVisitNotification          = "visit-notification"
	TemplateVisitStatusUpdate          = "visit-status-update"
	TemplateVisitCancellation          = "visit-cancellation"
	TemplateSettingsUpdated            = "settings-updated"
	TemplateSupportRequest             = "support-request"
)

var subjects = map[string]string{
	TemplateWelcome:                   "Welcome to {{.SCHOOL_NAME}}!",
	TemplateLoginAlert:                "New login to your {{.SCHOOL_NAME}} account",
	TemplateOTPVerification:           "Password Reset OTP - {{.SCHOOL_NAME}}",
	TemplatePasswordResetConfirmation: "Password Reset Successful",
	TemplateAdminPromotion:            "Admin Access Granted - {{.SCHOOL_NAME}}",
	TemplateAdminRegistration:         "Admin Registration Confirmation",
	TemplateStaffWelcome:              "Your {{.SCHOOL_NAME}} staff account",
	TemplateApplicationSubmitted:      "Application Received - {{.STUDENT_ID}}",
	TemplateApplicationAdminNotice:    "New Application: {{.APPLICANT_NAME}} ({{.DEPARTMENT_NAME}})",
	TemplateApplicationStatusChanged:  "Application Status Update: {{.STATUS}}",
	TemplateCourseRegistration:        "Course Registration Confirmed: {{.COURSE_NAME}}",
	TemplateCourseUnregistration:      "Course Unregistration Confirmed: {{.COURSE_NAME}}",
	TemplateCourseDeletion:            "Course Deleted: {{.COURSE_NAME}}",
	TemplateAccountDeletion:           "Account Deletion Confirmation",
	TemplateVisitConfirmation:         "Campus Visit Request Received",
	TemplateVisitNotification:         "New Campus Visit Request: {{.VISITOR_NAME}}",
	TemplateVisitStatusUpdate:         "Campus Visit {{.STATUS}}",
	TemplateVisitCancellation:         "Campus Visit Cancelled",
	TemplateSettingsUpdated:           "System Settings Updated",
	TemplateSupportRequest:            "Support Request Received: {{.SUBJECT}}",
}

// Names lists every registered template.
func Names() []string {
	names := make([]string, 0, len(subjects))
	for name := range subjects {
		names = append(names, name)
	}
	return names
}
