package gateway

import (
	"context"

	"schooladmin/backend/internal/admin"
	"schooladmin/backend/internal/application"
	"schooladmin/backend/internal/auth"
	"schooladmin/backend/internal/catalog"
	"schooladmin/backend/internal/course"
	"schooladmin/backend/internal/enrollment"
	"schooladmin/backend/internal/frontdesk"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// Services holds every domain service the router dispatches to.
// It is built once in main and shared by all requests.
type Services struct {
	Auth         *auth.AuthService
	Applications *application.ApplicationService
	Enrollment   *enrollment.EnrollmentService
	Catalog      *catalog.CatalogService
	Courses      *course.CourseService
	Admin        *admin.AdminService
	FrontDesk    *frontdesk.FrontDeskService

	// Ping reports store health for GET /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewServices wires the services over one store and one notification dispatcher.
func NewServices(st *store.Store, dispatcher *notify.Dispatcher, cfg *shared.ServiceConfig) *Services {
	tokens := auth.NewTokenService(cfg.Security)

	return &Services{
		Auth: auth.NewAuthService(st, tokens, dispatcher, auth.Options{
			BCryptCost:           cfg.Security.BCryptCost,
			OTPTTL:               cfg.Security.OTPTTL,
			AdminRegistrationKey: cfg.Security.AdminRegistrationKey,
			AppURL:               cfg.Mail.AppURL,
		}),
		Applications: application.NewApplicationService(st, dispatcher, application.Options{
			AdminEmail: cfg.Mail.AdminEmail,
			AppURL:     cfg.Mail.AppURL,
		}),
		Enrollment: enrollment.NewEnrollmentService(st, dispatcher),
		Catalog:    catalog.NewCatalogService(st),
		Courses:    course.NewCourseService(st, dispatcher),
		Admin: admin.NewAdminService(st, dispatcher, admin.Options{
			BCryptCost: cfg.Security.BCryptCost,
			AdminEmail: cfg.Mail.AdminEmail,
			AppURL:     cfg.Mail.AppURL,
		}),
		FrontDesk: frontdesk.NewFrontDeskService(st, dispatcher, frontdesk.Options{
			AdminEmail:   cfg.Mail.AdminEmail,
			SupportEmail: cfg.Mail.SupportEmail,
		}),
	}
}
