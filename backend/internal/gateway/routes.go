package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"schooladmin/backend/internal/gateway/handlers"
	"schooladmin/backend/internal/gateway/util"
	"schooladmin/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svc *Services, corsCfg shared.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Service: svc.Auth}
	applicationHandler := &handlers.ApplicationHandler{Service: svc.Applications}
	enrollmentHandler := &handlers.EnrollmentHandler{Service: svc.Enrollment}
	catalogHandler := &handlers.CatalogHandler{Service: svc.Catalog}
	courseHandler := &handlers.CourseHandler{Service: svc.Courses}
	adminHandler := &handlers.AdminHandler{Service: svc.Admin}
	frontDeskHandler := &handlers.FrontDeskHandler{Service: svc.FrontDesk}

	authenticated := AuthMiddleware(svc.Auth.Tokens())
	adminOnly := RequireAdmin(svc.Auth)

	// 3. Define Routes
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---

		r.Get("/health", healthHandler(svc.Ping))

		r.Post("/applications", applicationHandler.Submit)
		r.Get("/applications/{id}/status", applicationHandler.GetStatus)

		r.Post("/students/register", authHandler.RegisterStudent)
		r.Post("/students/login", authHandler.LoginStudent)
		r.Post("/students/forget-password", authHandler.ForgotPassword)
		r.Post("/students/verify-otp", authHandler.VerifyOTP)
		r.Put("/students/reset-password/{studentId}", authHandler.ResetPassword)

		r.Post("/staff/login", authHandler.LoginStaff)
		r.Post("/admin/login", authHandler.LoginAdmin)
		r.Post("/admin/register", authHandler.RegisterAdmin)

		r.Get("/faculties", catalogHandler.ListFaculties)
		r.Get("/faculties/{ref}", catalogHandler.GetFaculty)
		r.Get("/faculties/{ref}/departments", catalogHandler.FacultyDepartments)
		r.Get("/departments", catalogHandler.ListDepartments)
		r.Get("/departments/search", catalogHandler.SearchDepartments)
		r.Get("/departments/{ref}", catalogHandler.GetDepartment)
		r.Get("/departments/{ref}/courses", catalogHandler.DepartmentCourses)

		r.Get("/courses", courseHandler.ListCourses)
		r.Get("/courses/{ref}", courseHandler.GetCourse)

		r.Post("/visits", frontDeskHandler.ScheduleVisit)
		r.Post("/contact", frontDeskHandler.SubmitContact)
		r.Get("/settings/public", adminHandler.GetPublicSettings)

		// --- Authenticated Routes ---
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/students/logout", authHandler.Logout)

			// Student self-service. Promoted students keep the admin role.
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(shared.RoleStudent, shared.RoleAdmin))

				r.Get("/students/profile", authHandler.GetProfile)
				r.Put("/students/profile", authHandler.UpdateProfile)
				r.Get("/students/courses", enrollmentHandler.ListCourses)
				r.Get("/students/exams", enrollmentHandler.ListExams)
				r.Get("/students/activity", enrollmentHandler.RecentActivity)
				r.Post("/students/courses/register", enrollmentHandler.RegisterCourse)
				r.Delete("/students/courses/unregister", enrollmentHandler.UnregisterCourse)
				r.Delete("/students/courses/unregister/{courseId}", enrollmentHandler.UnregisterCourse)
				r.Post("/students/exams/register", enrollmentHandler.RegisterExams)
				r.Delete("/students/exams/clear", enrollmentHandler.ClearExams)
				r.Post("/support", frontDeskHandler.SubmitSupport)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireStaff())
				r.Put("/staff/change-password", authHandler.ChangeStaffPassword)
			})

			// --- Admin Routes ---
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/applications", applicationHandler.List)
				r.Get("/applications/email/{email}", applicationHandler.GetByEmail)
				r.Get("/applications/{id}", applicationHandler.Get)
				r.Put("/applications/{id}/status", applicationHandler.UpdateStatus)
				r.Delete("/applications/{id}", applicationHandler.Delete)

				r.Post("/faculties", catalogHandler.CreateFaculty)
				r.Put("/faculties/{ref}", catalogHandler.UpdateFaculty)
				r.Delete("/faculties/{ref}", catalogHandler.DeleteFaculty)
				r.Post("/departments", catalogHandler.CreateDepartment)
				r.Put("/departments/{ref}", catalogHandler.UpdateDepartment)
				r.Delete("/departments/{ref}", catalogHandler.DeleteDepartment)

				r.Post("/courses", courseHandler.CreateCourse)
				r.Put("/courses/{ref}", courseHandler.UpdateCourse)
				r.Delete("/courses/{ref}", courseHandler.DeleteCourse)
				r.Get("/courses/{ref}/students", courseHandler.CourseStudents)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/dashboard", adminHandler.Dashboard)
					r.Get("/settings", adminHandler.GetSettings)
					r.Put("/settings", adminHandler.UpdateSettings)

					r.Get("/courses", courseHandler.ListAllCourses)

					// Students
					r.Get("/students", adminHandler.ListStudents)
					r.Get("/students/count", adminHandler.StudentCount)
					r.Get("/students/{ref}", adminHandler.GetStudent)
					r.Put("/students/{ref}/make-admin", adminHandler.MakeAdmin)
					r.Delete("/students/{ref}", adminHandler.DeleteStudent)

					// Staff
					r.Post("/staff", adminHandler.CreateStaff)
					r.Get("/staff", adminHandler.ListStaff)
					r.Get("/staff/{id}", adminHandler.GetStaff)
					r.Put("/staff/{id}", adminHandler.UpdateStaff)
					r.Patch("/staff/{id}/status", adminHandler.SetStaffStatus)
					r.Delete("/staff/{id}", adminHandler.DeleteStaff)

					// Visits
					r.Get("/visits", frontDeskHandler.ListVisits)
					r.Get("/visits/stats", frontDeskHandler.VisitStats)
					r.Get("/visits/{id}", frontDeskHandler.GetVisit)
					r.Put("/visits/{id}/status", frontDeskHandler.UpdateVisitStatus)
					r.Delete("/visits/{id}", frontDeskHandler.DeleteVisit)

					// Contact & Support
					r.Get("/contacts", frontDeskHandler.ListContacts)
					r.Delete("/contacts/{id}", frontDeskHandler.DeleteContact)
					r.Get("/support", frontDeskHandler.ListSupport)
					r.Put("/support/{id}/status", frontDeskHandler.UpdateSupportStatus)
				})
			})
		})
	})

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				util.WriteJSONError(w, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"status":  "ok",
			"time":    time.Now().UTC(),
		})
	}
}
