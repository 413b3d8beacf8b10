package frontdesk

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/memstore"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *FrontDeskService
	store  *store.Store
	mailer *notify.ConsoleMailer
	disp   *notify.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	mailer := notify.NewConsoleMailer(zerolog.Nop())
	n, err := notify.NewTemplateNotifier(mailer, notify.Defaults{SchoolName: "Test School"})
	require.NoError(t, err)
	disp := notify.NewDispatcher(n, notify.DispatcherOptions{MaxAttempts: 1, Logger: zerolog.Nop()})

	svc := NewFrontDeskService(st, disp, Options{AdminEmail: "admissions@school.edu"})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, store: st, mailer: mailer, disp: disp}
}

func (f *fixture) sent() []notify.Message {
	f.disp.Wait()
	return f.mailer.Sent()
}

func visitInput() VisitInput {
	return VisitInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Phone:     "555-0100",
		VisitDate: "2026-03-10",
		VisitTime: "morning",
		VisitType: "individual",
		Interests: []string{"campus_tour"},
		Message:   "Wheelchair access please",
	}
}

func TestScheduleVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.ScheduleVisit(ctx, visitInput())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", v.Email)
	assert.Equal(t, shared.VisitPending, v.Status)
	assert.Equal(t, 1, v.GroupSize)
	assert.Equal(t, 10, v.VisitDate.Day())

	sent := f.sent()
	require.Len(t, sent, 2)
	byTemplate := map[string]notify.Message{}
	for _, m := range sent {
		byTemplate[m.Template] = m
	}
	assert.Equal(t, "ada@example.com", byTemplate[notify.TemplateVisitConfirmation].To)
	admin := byTemplate[notify.TemplateVisitNotification]
	assert.Equal(t, "admissions@school.edu", admin.To)
	assert.Contains(t, admin.HTML, "Wheelchair access please")

	tests := []struct {
		name   string
		mutate func(*VisitInput)
	}{
		{"missing name", func(in *VisitInput) { in.FirstName = "" }},
		{"bad email", func(in *VisitInput) { in.Email = "not-an-email" }},
		{"past date", func(in *VisitInput) { in.VisitDate = "2026-02-01" }},
		{"unparseable date", func(in *VisitInput) { in.VisitDate = "next tuesday" }},
		{"bad time", func(in *VisitInput) { in.VisitTime = "midnight" }},
		{"bad type", func(in *VisitInput) { in.VisitType = "drive-by" }},
		{"group too large", func(in *VisitInput) { in.GroupSize = 51 }},
		{"negative group", func(in *VisitInput) { in.GroupSize = -2 }},
		{"unknown interest", func(in *VisitInput) { in.Interests = []string{"Karaoke"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := visitInput()
			tt.mutate(&in)
			_, err := f.svc.ScheduleVisit(ctx, in)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	t.Run("interests ignore case", func(t *testing.T) {
		in := visitInput()
		in.Interests = []string{"Campus_Tour", " FINANCIAL_AID ", "academic_programs"}
		v, err := f.svc.ScheduleVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []string{"campus_tour", "financial_aid", "academic_programs"}, v.Interests)
	})

	t.Run("interest spelling is exact", func(t *testing.T) {
		in := visitInput()
		in.Interests = []string{"campus-tour"}
		_, err := f.svc.ScheduleVisit(ctx, in)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("rfc3339 date", func(t *testing.T) {
		in := visitInput()
		in.VisitDate = "2026-04-01T15:00:00Z"
		in.GroupSize = 12
		in.VisitType = "group"
		v, err := f.svc.ScheduleVisit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 12, v.GroupSize)
		assert.Equal(t, time.April, v.VisitDate.Month())
	})
}

func TestListVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-20", "2026-03-05", "2026-03-12"} {
		in := visitInput()
		in.VisitDate = d
		_, err := f.svc.ScheduleVisit(ctx, in)
		require.NoError(t, err)
	}

	list, err := f.svc.ListVisits(ctx, VisitFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.TotalVisits)
	assert.Equal(t, 2, list.TotalPages)
	assert.True(t, list.HasNext)
	assert.False(t, list.HasPrev)
	require.Len(t, list.Visits, 2)
	assert.Equal(t, 5, list.Visits[0].VisitDate.Day())
	assert.Equal(t, 12, list.Visits[1].VisitDate.Day())

	list, err = f.svc.ListVisits(ctx, VisitFilter{SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 20, list.Visits[0].VisitDate.Day())

	list, err = f.svc.ListVisits(ctx, VisitFilter{Status: shared.VisitConfirmed})
	require.NoError(t, err)
	assert.Empty(t, list.Visits)

	_, err = f.svc.ListVisits(ctx, VisitFilter{Status: "lost"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestVisitStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.ScheduleVisit(ctx, visitInput())
	require.NoError(t, err)
	f.sent()

	updated, err := f.svc.UpdateVisitStatus(ctx, v.ID.Hex(), shared.VisitConfirmed, "See you at the gate")
	require.NoError(t, err)
	assert.Equal(t, shared.VisitConfirmed, updated.Status)
	assert.Equal(t, "See you at the gate", updated.AdminNotes)

	_, err = f.svc.UpdateVisitStatus(ctx, v.ID.Hex(), "maybe", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = f.svc.UpdateVisitStatus(ctx, "64b000000000000000000000", shared.VisitConfirmed, "")
	assert.Equal(t, codes.NotFound, status.Code(err))

	stats, err := f.svc.VisitStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.Upcoming)
	assert.EqualValues(t, 1, stats.ByStatus[shared.VisitConfirmed])
	assert.Len(t, stats.ByStatus, len(shared.VisitStatuses))

	require.NoError(t, f.svc.DeleteVisit(ctx, v.ID.Hex()))
	_, err = f.svc.GetVisit(ctx, v.ID.Hex())
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = f.svc.GetVisit(ctx, "bogus")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	var templates []string
	for _, m := range f.sent() {
		templates = append(templates, m.Template)
	}
	assert.ElementsMatch(t, []string{
		notify.TemplateVisitConfirmation,
		notify.TemplateVisitNotification,
		notify.TemplateVisitStatusUpdate,
		notify.TemplateVisitCancellation,
	}, templates)
}

func TestContacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.SubmitContact(ctx, ContactInput{Name: "Bob", Email: "bob@example.com", Subject: "Hi", Message: "Hello"})
	require.NoError(t, err)
	assert.False(t, c.ID.IsZero())

	_, err = f.svc.SubmitContact(ctx, ContactInput{Name: "Bob", Email: "bob@example.com", Subject: "Hi"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = f.svc.SubmitContact(ctx, ContactInput{Name: "Bob", Email: "bob", Subject: "Hi", Message: "Hello"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	list, err := f.svc.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.DeleteContact(ctx, c.ID.Hex()))
	assert.Equal(t, codes.NotFound, status.Code(f.svc.DeleteContact(ctx, c.ID.Hex())))
	assert.Equal(t, codes.InvalidArgument, status.Code(f.svc.DeleteContact(ctx, "nope")))
}

func TestSupport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	student := &shared.Student{StudentID: "STU001", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100"}
	require.NoError(t, f.store.Students.Create(ctx, student))

	ticket, err := f.svc.SubmitSupport(ctx, student.ID.Hex(), SupportInput{Subject: "Login", Category: "Technical", Message: "Cannot sign in"})
	require.NoError(t, err)
	assert.Equal(t, "STU001", ticket.StudentID)
	assert.Equal(t, "Ada Lovelace", ticket.StudentName)
	assert.Equal(t, shared.SupportPending, ticket.Status)

	_, err = f.svc.SubmitSupport(ctx, student.ID.Hex(), SupportInput{Subject: "Login", Category: "Gossip", Message: "x"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = f.svc.SubmitSupport(ctx, "64b000000000000000000000", SupportInput{Subject: "Login", Category: "General", Message: "x"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	sent := f.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.TemplateSupportRequest, sent[0].Template)
	assert.Equal(t, "ada@example.com", sent[0].To)

	updated, err := f.svc.UpdateSupportStatus(ctx, ticket.ID.Hex(), shared.SupportResolved)
	require.NoError(t, err)
	assert.Equal(t, shared.SupportResolved, updated.Status)
	_, err = f.svc.UpdateSupportStatus(ctx, ticket.ID.Hex(), "Ignored")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	pending, err := f.svc.ListSupport(ctx, shared.SupportPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	resolved, err := f.svc.ListSupport(ctx, shared.SupportResolved)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}
