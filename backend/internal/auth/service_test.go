package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/memstore"
)

const testSecret = "test-secret"

type fixture struct {
	svc    *AuthService
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

	tokens := NewTokenService(shared.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "test", JWTExpirationHours: 1})
	svc := NewAuthService(st, tokens, disp, Options{
		BCryptCost:           bcrypt.MinCost,
		OTPTTL:               10 * time.Minute,
		AdminRegistrationKey: "let-me-in",
	})
	return &fixture{svc: svc, store: st, mailer: mailer, disp: disp}
}

func (f *fixture) register(t *testing.T, email, phone string) *shared.Student {
	t.Helper()
	s, err := f.svc.RegisterStudent(context.Background(), RegisterInput{
		FirstName:       "Grace",
		LastName:        "Hopper",
		Email:           email,
		Phone:           phone,
		Age:             20,
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	return s
}

// lastOTP returns the OTP currently stored for email
func (f *fixture) lastOTP(t *testing.T, email string) string {
	t.Helper()
	f.disp.Wait()
	s, err := f.store.Students.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotEmpty(t, s.OTP)
	return s.OTP
}

func TestTokenService(t *testing.T) {
	tokens := NewTokenService(shared.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "test", JWTExpirationHours: 2})

	t.Run("round trip", func(t *testing.T) {
		tok, exp, err := tokens.Issue("abc", "a@example.com", shared.RoleStudent)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, time.Minute)

		claims, err := tokens.Parse(tok)
		require.NoError(t, err)
		assert.Equal(t, "abc", claims.UserID)
		assert.Equal(t, shared.RoleStudent, claims.Role)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("staff tokens are short lived", func(t *testing.T) {
		_, exp, err := tokens.Issue("abc", "a@example.com", shared.RoleStaff)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(8*time.Hour), exp, time.Minute)
	})

	t.Run("unique jti", func(t *testing.T) {
		a, _, _ := tokens.Issue("abc", "a@example.com", shared.RoleStudent)
		b, _, _ := tokens.Issue("abc", "a@example.com", shared.RoleStudent)
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService(shared.SecurityConfig{JWTSecret: "other"})
		tok, _, err := other.Issue("abc", "a@example.com", shared.RoleStudent)
		require.NoError(t, err)
		_, err = tokens.Parse(tok)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("expired", func(t *testing.T) {
		claims := CustomClaims{
			UserID: "abc",
			Role:   shared.RoleStudent,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tokens.Parse(tok)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("non-hmac algorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{UserID: "abc", Role: "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(tok)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		_, err = tokens.Parse("")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

func TestRegisterStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.register(t, "Grace@Example.com", "555-0001")
	assert.Equal(t, "grace@example.com", s.Email)
	assert.True(t, strings.HasPrefix(s.StudentID, "STU"))
	assert.NotEqual(t, "secret123", s.PasswordHash)

	_, err := f.svc.RegisterStudent(ctx, RegisterInput{
		FirstName: "G", LastName: "H", Email: "grace@example.com", Phone: "555-0002",
		Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = f.svc.RegisterStudent(ctx, RegisterInput{
		FirstName: "G", LastName: "H", Email: "other@example.com", Phone: "555-0001",
		Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = f.svc.RegisterStudent(ctx, RegisterInput{
		FirstName: "G", LastName: "H", Email: "short@example.com", Phone: "555-0003",
		Password: "abc", ConfirmPassword: "abc",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.svc.RegisterStudent(ctx, RegisterInput{
		FirstName: "G", LastName: "H", Email: "mismatch@example.com", Phone: "555-0004",
		Password: "secret123", ConfirmPassword: "secret124",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	f.disp.Wait()
	require.NotEmpty(t, f.mailer.Sent())
	assert.Equal(t, notify.TemplateWelcome, f.mailer.Sent()[0].Template)
}

func TestRegisterStudentDisabled(t *testing.T) {
	f := newFixture(t)
	settings := shared.DefaultSettings()
	settings.SystemPreferences.AllowStudentRegistration = false
	require.NoError(t, f.store.Settings.Save(context.Background(), &settings))

	_, err := f.svc.RegisterStudent(context.Background(), RegisterInput{
		FirstName: "G", LastName: "H", Email: "closed@example.com", Phone: "555-0009",
		Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestLoginStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.register(t, "grace@example.com", "555-0001")

	res, err := f.svc.LoginStudent(ctx, LoginInput{Email: "GRACE@example.com", Password: "secret123"}, ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleStudent, res.Role)

	claims, err := f.svc.Tokens().Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, s.ID.Hex(), claims.UserID)

	stored, err := f.store.Students.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, wrongPw := f.svc.LoginStudent(ctx, LoginInput{Email: "grace@example.com", Password: "nope"}, ClientInfo{})
	_, unknown := f.svc.LoginStudent(ctx, LoginInput{Email: "nobody@example.com", Password: "nope"}, ClientInfo{})
	assert.Equal(t, codes.Unauthenticated, status.Code(wrongPw))
	assert.Equal(t, status.Convert(wrongPw).Message(), status.Convert(unknown).Message())

	require.NoError(t, f.store.Students.SetAdmin(ctx, s.ID, true))
	res, err = f.svc.LoginStudent(ctx, LoginInput{Email: "grace@example.com", Password: "secret123"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, res.Role)

	claims, err = f.svc.Tokens().Parse(res.Token)
	require.NoError(t, err)
	assert.True(t, f.svc.IsAdminUser(ctx, claims))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.register(t, "grace@example.com", "555-0001")

	err := f.svc.ForgotPassword(ctx, "missing@example.com")
	assert.Equal(t, codes.NotFound, status.Code(err))

	// reset before verification is refused
	err = f.svc.ResetPassword(ctx, s.ID.Hex(), "newpass1", "newpass1")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, f.svc.ForgotPassword(ctx, "grace@example.com"))
	otp := f.lastOTP(t, "grace@example.com")
	assert.Len(t, otp, 6)

	_, err = f.svc.VerifyOTP(ctx, "grace@example.com", "000000x")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	id, err := f.svc.VerifyOTP(ctx, "grace@example.com", otp)
	require.NoError(t, err)
	assert.Equal(t, s.ID.Hex(), id)

	// single use
	_, err = f.svc.VerifyOTP(ctx, "grace@example.com", otp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = f.svc.ResetPassword(ctx, id, "newpass1", "different")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	require.NoError(t, f.svc.ResetPassword(ctx, id, "newpass1", "newpass1"))

	_, err = f.svc.LoginStudent(ctx, LoginInput{Email: "grace@example.com", Password: "newpass1"}, ClientInfo{})
	require.NoError(t, err)

	// the verified flag is consumed by the reset
	err = f.svc.ResetPassword(ctx, id, "another1", "another1")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestExpiredOTPIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "grace@example.com", "555-0001")

	require.NoError(t, f.svc.ForgotPassword(ctx, "grace@example.com"))
	otp := f.lastOTP(t, "grace@example.com")

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, err := f.svc.VerifyOTP(ctx, "grace@example.com", otp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "555-0001")
	f.register(t, "b@example.com", "555-0002")

	p, err := f.svc.GetProfile(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)

	updated, err := f.svc.UpdateProfile(ctx, a.ID.Hex(), ProfileInput{FirstName: "Ann", LastName: "Lee", Phone: "555-0100", Age: 21})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.FirstName)
	assert.Equal(t, 21, updated.Age)

	_, err = f.svc.UpdateProfile(ctx, a.ID.Hex(), ProfileInput{FirstName: "Ann", LastName: "Lee", Phone: "555-0002"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestStaffLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("temp-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	staff := &shared.Staff{
		FirstName: "Alan", LastName: "Turing", Email: "alan@school.edu", Phone: "555-0200",
		PasswordHash: string(hash), Role: shared.StaffRoleTeacher, IsActive: true, MustChangePassword: true,
	}
	require.NoError(t, f.store.Staff.Create(ctx, staff))

	res, err := f.svc.LoginStaff(ctx, LoginInput{Email: "alan@school.edu", Password: "temp-pass"})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleStaff, res.Role)
	assert.True(t, res.MustChangePassword)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), res.ExpiresAt, time.Minute)

	err = f.svc.ChangeStaffPassword(ctx, staff.ID.Hex(), "wrong", "brand-new", "brand-new")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, f.svc.ChangeStaffPassword(ctx, staff.ID.Hex(), "temp-pass", "brand-new", "brand-new"))
	res, err = f.svc.LoginStaff(ctx, LoginInput{Email: "alan@school.edu", Password: "brand-new"})
	require.NoError(t, err)
	assert.False(t, res.MustChangePassword)

	current, err := f.store.Staff.Get(ctx, staff.ID)
	require.NoError(t, err)
	current.IsActive = false
	require.NoError(t, f.store.Staff.Update(ctx, current))
	_, err = f.svc.LoginStaff(ctx, LoginInput{Email: "alan@school.edu", Password: "brand-new"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestAdminRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterAdmin(ctx, AdminRegisterInput{Name: "Root", Email: "root@school.edu", Password: "secret123", RegistrationKey: "wrong"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	admin, err := f.svc.RegisterAdmin(ctx, AdminRegisterInput{Name: "Root", Email: "root@school.edu", Password: "secret123", RegistrationKey: "let-me-in"})
	require.NoError(t, err)

	_, err = f.svc.RegisterAdmin(ctx, AdminRegisterInput{Name: "Root", Email: "root@school.edu", Password: "secret123", RegistrationKey: "let-me-in"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	res, err := f.svc.LoginAdmin(ctx, LoginInput{Email: "root@school.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, res.Role)

	claims, err := f.svc.Tokens().Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID.Hex(), claims.UserID)
	assert.True(t, f.svc.IsAdminUser(ctx, claims))

	_, err = f.svc.LoginAdmin(ctx, LoginInput{Email: "root@school.edu", Password: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestDescribeUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "Unknown device"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", "Chrome 120.0 on Windows"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15", "Safari 17.1 on macOS"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", "Firefox 121.0 on Linux"},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36", "Chrome 120.0 on Android 14"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DescribeUserAgent(tt.ua))
	}
}
