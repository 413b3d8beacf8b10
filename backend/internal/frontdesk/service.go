// ============================================================================
// backend/internal/frontdesk/service.go
// Campus visits, the public contact form and student support requests
// ============================================================================

package frontdesk

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// MaxContacts caps ListContacts
const MaxContacts = 50

// Options carry the addresses front desk mail is copied to
type Options struct {
	AdminEmail   string
	SupportEmail string
}

// FrontDeskService handles visitors and support traffic
type FrontDeskService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	opts       Options
	now        func() time.Time
}

// NewFrontDeskService creates a new FrontDeskService instance
func NewFrontDeskService(st *store.Store, dispatcher *notify.Dispatcher, opts Options) *FrontDeskService {
	return &FrontDeskService{store: st, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// ============================================================================
// Visits
// ============================================================================

// VisitInput is the public visit request body. VisitDate accepts YYYY-MM-DD
// or RFC 3339.
type VisitInput struct {
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone" validate:"required"`
	VisitDate string   `json:"visitDate" validate:"required"`
	VisitTime string   `json:"visitTime" validate:"required,oneof=morning afternoon evening"`
	VisitType string   `json:"visitType" validate:"required,oneof=individual group virtual"`
	GroupSize int      `json:"groupSize" validate:"gte=0,lte=50"`
	Interests []string `json:"interests"`
	Message   string   `json:"message"`
}

// VisitFilter selects a page of visits
type VisitFilter struct {
	Status    string
	Page      int
	Limit     int
	SortBy    string // visitDate (default) or createdAt
	SortOrder string // asc (default) or desc
}

// VisitList is one page of visits
type VisitList struct {
	Visits      []shared.Visit `json:"visits"`
	TotalVisits int64          `json:"totalVisits"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	HasNext     bool           `json:"hasNext"`
	HasPrev     bool           `json:"hasPrev"`
}

func parseVisitDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func validEmail(addr string) bool {
	a, err := mail.ParseAddress(addr)
	return err == nil && a.Address == addr
}

// ScheduleVisit records a visit request and mails the visitor and the admissions office
func (s *FrontDeskService) ScheduleVisit(ctx context.Context, in VisitInput) (*shared.Visit, error) {
	// 1. Validate
	v := &shared.Visit{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     shared.NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		VisitTime: strings.TrimSpace(in.VisitTime),
		VisitType: strings.TrimSpace(in.VisitType),
		GroupSize: in.GroupSize,
		Interests: []string{},
		Message:   strings.TrimSpace(in.Message),
		Status:    shared.VisitPending,
	}
	if v.FirstName == "" || v.LastName == "" || v.Email == "" || v.Phone == "" ||
		strings.TrimSpace(in.VisitDate) == "" || v.VisitTime == "" || v.VisitType == "" {
		return nil, status.Error(codes.InvalidArgument, "all required fields must be provided")
	}
	if !validEmail(v.Email) {
		return nil, status.Error(codes.InvalidArgument, "invalid email address")
	}
	date, err := parseVisitDate(in.VisitDate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid visit date")
	}
	now := s.now()
	if !date.After(now) {
		return nil, status.Error(codes.InvalidArgument, "visit date must be in the future")
	}
	v.VisitDate = date
	if !shared.OneOf(v.VisitTime, shared.VisitTimes) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid visit time %q", v.VisitTime)
	}
	if !shared.OneOf(v.VisitType, shared.VisitTypes) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid visit type %q", v.VisitType)
	}
	if v.GroupSize == 0 {
		v.GroupSize = 1
	}
	if v.GroupSize < 1 || v.GroupSize > shared.MaxVisitGroupSize {
		return nil, status.Errorf(codes.InvalidArgument, "group size must be between 1 and %d", shared.MaxVisitGroupSize)
	}
	for _, i := range in.Interests {
		i = strings.ToLower(strings.TrimSpace(i))
		if !shared.OneOf(i, shared.VisitInterests) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid interest %q", i)
		}
		v.Interests = append(v.Interests, i)
	}

	// 2. Persist
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	v.CreatedAt = now
	v.UpdatedAt = now
	if err := s.store.Visits.Create(queryCtx, v); err != nil {
		return nil, store.Status("frontdesk.scheduleVisit", err, "visit")
	}

	logger.Info().Str("visit_id", v.ID.Hex()).Str("type", v.VisitType).Msg("visit requested")

	// 3. Notify
	s.dispatcher.Go("visit-confirmation", notify.TemplateVisitConfirmation, v.Email, visitVars(v))
	if s.opts.AdminEmail != "" {
		vars := visitVars(v)
		vars["VISITOR_EMAIL"] = v.Email
		vars["VISITOR_PHONE"] = v.Phone
		vars["INTERESTS"] = strings.Join(v.Interests, ", ")
		vars["SPECIAL_REQUESTS"] = v.Message
		s.dispatcher.Go("visit-notification", notify.TemplateVisitNotification, s.opts.AdminEmail, vars)
	}
	return v, nil
}

func visitVars(v *shared.Visit) map[string]string {
	return map[string]string{
		"VISITOR_NAME": v.FullName(),
		"VISIT_TYPE":   v.VisitType,
		"VISIT_DATE":   v.VisitDate.Format("Monday, January 2, 2006"),
		"VISIT_TIME":   v.VisitTime,
		"GROUP_SIZE":   strconv.Itoa(v.GroupSize),
		"STATUS":       v.Status,
		"ADMIN_NOTES":  v.AdminNotes,
	}
}

// ListVisits pages through visit requests
func (s *FrontDeskService) ListVisits(ctx context.Context, f VisitFilter) (*VisitList, error) {
	p := shared.NewPage(f.Page, f.Limit)
	filter := store.VisitFilter{
		Skip:     p.Skip(),
		Limit:    int64(p.Limit),
		SortBy:   "visitDate",
		SortDesc: strings.EqualFold(f.SortOrder, "desc"),
	}
	if f.SortBy == "createdAt" {
		filter.SortBy = "createdAt"
	}
	if f.Status != "" {
		if !shared.OneOf(f.Status, shared.VisitStatuses) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", f.Status)
		}
		filter.Status = f.Status
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	visits, total, err := s.store.Visits.List(queryCtx, filter)
	if err != nil {
		return nil, store.Status("frontdesk.listVisits", err, "visit")
	}
	return &VisitList{
		Visits:      visits,
		TotalVisits: total,
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages(total),
		HasNext:     int64(p.Page*p.Limit) < total,
		HasPrev:     p.Page > 1,
	}, nil
}

// GetVisit returns one visit request
func (s *FrontDeskService) GetVisit(ctx context.Context, id string) (*shared.Visit, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid visit id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	v, err := s.store.Visits.Get(queryCtx, oid)
	if err != nil {
		return nil, store.Status("frontdesk.getVisit", err, "visit request")
	}
	return v, nil
}

// UpdateVisitStatus moves a visit to a new status and tells the visitor
func (s *FrontDeskService) UpdateVisitStatus(ctx context.Context, id, newStatus, adminNotes string) (*shared.Visit, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid visit id")
	}
	if !shared.OneOf(newStatus, shared.VisitStatuses) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status, must be one of: %s", strings.Join(shared.VisitStatuses, ", "))
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	v, err := s.store.Visits.UpdateStatus(queryCtx, oid, newStatus, strings.TrimSpace(adminNotes))
	if err != nil {
		return nil, store.Status("frontdesk.updateVisitStatus", err, "visit request")
	}

	s.dispatcher.Go("visit-status-update", notify.TemplateVisitStatusUpdate, v.Email, visitVars(v))
	return v, nil
}

// DeleteVisit removes a visit request and tells the visitor it was cancelled
func (s *FrontDeskService) DeleteVisit(ctx context.Context, id string) error {
	v, err := s.GetVisit(ctx, id)
	if err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Visits.Delete(queryCtx, v.ID); err != nil {
		return store.Status("frontdesk.deleteVisit", err, "visit request")
	}

	// a visit already in the past needs no cancellation notice
	if v.VisitDate.After(s.now()) && v.Status != shared.VisitCancelled {
		s.dispatcher.Go("visit-cancellation", notify.TemplateVisitCancellation, v.Email, visitVars(v))
	}
	return nil
}

// VisitStats counts visits by status and the upcoming ones
func (s *FrontDeskService) VisitStats(ctx context.Context) (*store.VisitStats, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats, err := s.store.Visits.Stats(queryCtx, s.now())
	if err != nil {
		return nil, store.Status("frontdesk.visitStats", err, "visit")
	}
	for _, st := range shared.VisitStatuses {
		if _, ok := stats.ByStatus[st]; !ok {
			stats.ByStatus[st] = 0
		}
	}
	return stats, nil
}

// ============================================================================
// Contact
// ============================================================================

// ContactInput is the public contact form
type ContactInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SubmitContact stores a contact form message
func (s *FrontDeskService) SubmitContact(ctx context.Context, in ContactInput) (*shared.Contact, error) {
	c := &shared.Contact{
		Name:      strings.TrimSpace(in.Name),
		Email:     shared.NormalizeEmail(in.Email),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: s.now(),
	}
	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return nil, status.Error(codes.InvalidArgument, "name, email, subject and message are required")
	}
	if !validEmail(c.Email) {
		return nil, status.Error(codes.InvalidArgument, "invalid email address")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Contacts.Create(queryCtx, c); err != nil {
		return nil, store.Status("frontdesk.submitContact", err, "contact")
	}
	return c, nil
}

// ListContacts returns the newest contact messages
func (s *FrontDeskService) ListContacts(ctx context.Context) ([]shared.Contact, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	contacts, err := s.store.Contacts.List(queryCtx, MaxContacts)
	if err != nil {
		return nil, store.Status("frontdesk.listContacts", err, "contact")
	}
	return contacts, nil
}

// DeleteContact removes a contact message
func (s *FrontDeskService) DeleteContact(ctx context.Context, id string) error {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return status.Error(codes.InvalidArgument, "invalid contact id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Contacts.Delete(queryCtx, oid); err != nil {
		return store.Status("frontdesk.deleteContact", err, "contact")
	}
	return nil
}

// ============================================================================
// Support
// ============================================================================

// SupportInput is a support request from a signed-in student
type SupportInput struct {
	Subject  string `json:"subject" validate:"required"`
	Category string `json:"category" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SubmitSupport files a support ticket for the student behind userID
func (s *FrontDeskService) SubmitSupport(ctx context.Context, userID string, in SupportInput) (*shared.SupportTicket, error) {
	oid, ok := shared.ParseObjectID(userID)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid student id")
	}
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	category := strings.TrimSpace(in.Category)
	if subject == "" || message == "" {
		return nil, status.Error(codes.InvalidArgument, "subject and message are required")
	}
	if !shared.OneOf(category, shared.SupportCategories) {
		return nil, status.Errorf(codes.InvalidArgument, "category must be one of: %s", strings.Join(shared.SupportCategories, ", "))
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.store.Students.Get(queryCtx, oid)
	if err != nil {
		return nil, store.Status("frontdesk.submitSupport", err, "student")
	}

	now := s.now()
	ticket := &shared.SupportTicket{
		StudentID:    student.StudentID,
		StudentName:  student.FullName(),
		StudentEmail: student.Email,
		Subject:      subject,
		Category:     category,
		Message:      message,
		Status:       shared.SupportPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Support.Create(queryCtx, ticket); err != nil {
		return nil, store.Status("frontdesk.submitSupport", err, "support request")
	}

	logger.Info().Str("student_id", ticket.StudentID).Str("category", category).Msg("support request filed")

	vars := map[string]string{
		"NAME":     ticket.StudentName,
		"CATEGORY": category,
		"SUBJECT":  subject,
		"MESSAGE":  message,
	}
	s.dispatcher.Go("support-request", notify.TemplateSupportRequest, ticket.StudentEmail, vars)
	if s.opts.SupportEmail != "" {
		s.dispatcher.Go("support-request-copy", notify.TemplateSupportRequest, s.opts.SupportEmail, vars)
	}
	return ticket, nil
}

// ListSupport lists tickets, optionally by status
func (s *FrontDeskService) ListSupport(ctx context.Context, st string) ([]shared.SupportTicket, error) {
	if st != "" && !shared.OneOf(st, shared.SupportStatuses) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status %q", st)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tickets, err := s.store.Support.List(queryCtx, st)
	if err != nil {
		return nil, store.Status("frontdesk.listSupport", err, "support request")
	}
	return tickets, nil
}

// UpdateSupportStatus moves a ticket to a new status
func (s *FrontDeskService) UpdateSupportStatus(ctx context.Context, id, newStatus string) (*shared.SupportTicket, error) {
	oid, ok := shared.ParseObjectID(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid support request id")
	}
	if !shared.OneOf(newStatus, shared.SupportStatuses) {
		return nil, status.Errorf(codes.InvalidArgument, "status must be one of: %s", strings.Join(shared.SupportStatuses, ", "))
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ticket, err := s.store.Support.UpdateStatus(queryCtx, oid, newStatus)
	if err != nil {
		return nil, store.Status("frontdesk.updateSupportStatus", err, "support request")
	}
	return ticket, nil
}
