package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// Options tune password hashing, OTPs and admin self-registration
type Options struct {
	BCryptCost           int
	OTPTTL               time.Duration
	AdminRegistrationKey string
	AppURL               string
}

// AuthService handles student, staff and admin identities
type AuthService struct {
	store      *store.Store
	tokens     *TokenService
	dispatcher *notify.Dispatcher
	opts       Options
	now        func() time.Time
}

// NewAuthService creates a new AuthService instance
func NewAuthService(st *store.Store, tokens *TokenService, dispatcher *notify.Dispatcher, opts Options) *AuthService {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	return &AuthService{store: st, tokens: tokens, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// Tokens exposes the token service to the HTTP middleware
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// RegisterInput is the student sign-up body
type RegisterInput struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	Age             int    `json:"age" validate:"gte=0"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginInput is an email/password pair
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ClientInfo describes where a login came from
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Token              string      `json:"token"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	Role               string      `json:"role"`
	MustChangePassword bool        `json:"mustChangePassword,omitempty"`
	User               interface{} `json:"user"`
}

// ProfileInput holds the self-editable profile fields
type ProfileInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Age       int    `json:"age" validate:"gte=0"`
}

// AdminRegisterInput creates an administrator account
type AdminRegisterInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	RegistrationKey string `json:"registrationKey" validate:"required"`
}

func (s *AuthService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BCryptCost)
	if err != nil {
		return "", store.Internal("auth.hash", err)
	}
	return string(h), nil
}

func checkPassword(password, confirm string) error {
	if len(password) < shared.MinPasswordLength {
		return status.Errorf(codes.InvalidArgument, "password must be at least %d characters", shared.MinPasswordLength)
	}
	if password != confirm {
		return status.Error(codes.InvalidArgument, "passwords do not match")
	}
	return nil
}

// ============================================================================
// Students
// ============================================================================

// RegisterStudent creates a student account
func (s *AuthService) RegisterStudent(ctx context.Context, in RegisterInput) (*shared.Student, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = shared.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Phone == "" {
		return nil, status.Error(codes.InvalidArgument, "firstName, lastName, email and phone are required")
	}
	if in.Age < 0 {
		return nil, status.Error(codes.InvalidArgument, "age must not be negative")
	}
	if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Registration may be switched off by the administrators
	settings, err := s.store.Settings.Get(queryCtx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("auth.register", err, "settings")
	}
	if settings == nil {
		defaults := shared.DefaultSettings()
		settings = &defaults
	}
	if !settings.SystemPreferences.AllowStudentRegistration {
		return nil, status.Error(codes.PermissionDenied, "student registration is currently disabled")
	}

	// 2. Unique email and phone
	if _, err := s.store.Students.GetByEmail(queryCtx, in.Email); err == nil {
		return nil, status.Error(codes.AlreadyExists, "a student with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("auth.register", err, "student")
	}
	if _, err := s.store.Students.GetByPhone(queryCtx, in.Phone); err == nil {
		return nil, status.Error(codes.AlreadyExists, "a student with this phone number already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, store.Status("auth.register", err, "student")
	}

	// 3. Persist
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	student := &shared.Student{
		StudentID:      shared.GenerateStudentID(now),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Age:            in.Age,
		PasswordHash:   hash,
		Courses:        []shared.CourseSnapshot{},
		Exams:          []shared.ExamRegistration{},
		RecentActivity: []shared.Activity{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Students.Create(queryCtx, student); err != nil {
		return nil, store.Status("auth.register", err, "student")
	}

	logger.Info().Str("student_id", student.StudentID).Msg("student registered")

	s.dispatcher.Go("welcome", notify.TemplateWelcome, student.Email, map[string]string{
		"STUDENT_NAME": student.FullName(),
		"STUDENT_ID":   student.StudentID,
		"LOGIN_URL":    s.opts.AppURL + "/login",
	})
	return student, nil
}

// LoginStudent authenticates a student. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) LoginStudent(ctx context.Context, in LoginInput, client ClientInfo) (*LoginResult, error) {
	email := shared.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Find student
	student, err := s.store.Students.GetByEmail(queryCtx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, store.Status("auth.login", err, "student")
	}

	// 2. Check password
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(in.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	// 3. Issue token
	role := shared.RoleStudent
	if student.IsAdmin {
		role = shared.RoleAdmin
	}
	token, expiresAt, err := s.tokens.Issue(student.ID.Hex(), student.Email, role)
	if err != nil {
		return nil, store.Internal("auth.login", err)
	}

	now := s.now()
	if err := s.store.Students.TouchLogin(queryCtx, student.ID, now); err != nil {
		logger.Warn().Err(err).Str("student_id", student.StudentID).Msg("failed to record last login")
	}

	s.dispatcher.Go("login-alert", notify.TemplateLoginAlert, student.Email, map[string]string{
		"STUDENT_NAME": student.FullName(),
		"LOGIN_TIME":   now.Format(time.RFC1123),
		"IP_ADDRESS":   orUnknown(client.IP),
		"DEVICE_INFO":  DescribeUserAgent(client.UserAgent),
	})

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Role: role, User: student}, nil
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

// ForgotPassword stores a fresh single-use OTP and mails it to the student
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = shared.NormalizeEmail(email)
	if email == "" {
		return status.Error(codes.InvalidArgument, "email is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.store.Students.GetByEmail(queryCtx, email)
	if err != nil {
		return store.Status("auth.forgotPassword", err, "student")
	}

	otp := shared.GenerateOTP()
	if err := s.store.Students.SetOTP(queryCtx, student.ID, otp, s.now().Add(s.opts.OTPTTL)); err != nil {
		return store.Status("auth.forgotPassword", err, "student")
	}

	s.dispatcher.Go("otp", notify.TemplateOTPVerification, student.Email, map[string]string{
		"STUDENT_NAME":   student.FullName(),
		"OTP":            otp,
		"EXPIRY_MINUTES": formatMinutes(s.opts.OTPTTL),
	})
	return nil
}

func formatMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		m = 1
	}
	return strconv.Itoa(m)
}

// VerifyOTP checks the OTP for email and marks the account as allowed to
// reset its password. It returns the student's record id.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email = shared.NormalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return "", status.Error(codes.InvalidArgument, "email and otp are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.store.Students.GetByEmail(queryCtx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", status.Error(codes.InvalidArgument, "invalid or expired OTP")
		}
		return "", store.Status("auth.verifyOTP", err, "student")
	}
	if student.OTP == "" || student.OTP != otp {
		return "", status.Error(codes.InvalidArgument, "invalid or expired OTP")
	}
	if student.OTPExpiresAt == nil || !s.now().Before(*student.OTPExpiresAt) {
		return "", status.Error(codes.InvalidArgument, "invalid or expired OTP")
	}

	if err := s.store.Students.MarkOTPVerified(queryCtx, student.ID); err != nil {
		return "", store.Status("auth.verifyOTP", err, "student")
	}
	return student.ID.Hex(), nil
}

// ResetPassword sets a new password after a verified OTP
func (s *AuthService) ResetPassword(ctx context.Context, studentRef, newPassword, confirmPassword string) error {
	if strings.TrimSpace(studentRef) == "" {
		return status.Error(codes.InvalidArgument, "student id is required")
	}
	if err := checkPassword(newPassword, confirmPassword); err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.findStudent(queryCtx, studentRef)
	if err != nil {
		return store.Status("auth.resetPassword", err, "student")
	}
	if !student.OTPVerified {
		return status.Error(codes.FailedPrecondition, "OTP not verified")
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Students.SetPassword(queryCtx, student.ID, hash); err != nil {
		return store.Status("auth.resetPassword", err, "student")
	}

	s.dispatcher.Go("password-reset", notify.TemplatePasswordResetConfirmation, student.Email, map[string]string{
		"STUDENT_NAME": student.FullName(),
		"RESET_TIME":   s.now().Format(time.RFC1123),
	})
	return nil
}

// findStudent resolves an ObjectID hex or a business studentId
func (s *AuthService) findStudent(ctx context.Context, ref string) (*shared.Student, error) {
	if id, ok := shared.ParseObjectID(ref); ok {
		return s.store.Students.Get(ctx, id)
	}
	return s.store.Students.GetByStudentID(ctx, strings.TrimSpace(ref))
}

// GetProfile returns the student behind the token
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*shared.Student, error) {
	oid, ok := shared.ParseObjectID(userID)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid student id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	student, err := s.store.Students.Get(queryCtx, oid)
	if err != nil {
		return nil, store.Status("auth.profile", err, "student")
	}
	return student, nil
}

// UpdateProfile changes name, phone and age
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*shared.Student, error) {
	oid, ok := shared.ParseObjectID(userID)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "invalid student id")
	}
	profile := store.StudentProfile{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Age:       in.Age,
	}
	if profile.FirstName == "" || profile.LastName == "" || profile.Phone == "" {
		return nil, status.Error(codes.InvalidArgument, "firstName, lastName and phone are required")
	}
	if profile.Age < 0 {
		return nil, status.Error(codes.InvalidArgument, "age must not be negative")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Students.UpdateProfile(queryCtx, oid, profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "phone number is already in use")
		}
		return nil, store.Status("auth.updateProfile", err, "student")
	}
	return s.store.Students.Get(queryCtx, oid)
}

// Logout acknowledges a logout. Tokens are stateless and expire on their own.
func (s *AuthService) Logout(_ context.Context, claims *CustomClaims) {
	if claims != nil {
		logger.Info().Str("user_id", claims.UserID).Str("role", claims.Role).Msg("logout")
	}
}

// ============================================================================
// Staff
// ============================================================================

// LoginStaff authenticates a staff member with the shorter staff token TTL
func (s *AuthService) LoginStaff(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := shared.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	staff, err := s.store.Staff.GetByEmail(queryCtx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, store.Status("auth.staffLogin", err, "staff")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(in.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if !staff.IsActive {
		return nil, status.Error(codes.PermissionDenied, "account is inactive")
	}

	token, expiresAt, err := s.tokens.Issue(staff.ID.Hex(), staff.Email, shared.RoleStaff)
	if err != nil {
		return nil, store.Internal("auth.staffLogin", err)
	}
	if err := s.store.Staff.TouchLogin(queryCtx, staff.ID, s.now()); err != nil {
		logger.Warn().Err(err).Str("staff", staff.Email).Msg("failed to record last login")
	}

	return &LoginResult{
		Token:              token,
		ExpiresAt:          expiresAt,
		Role:               shared.RoleStaff,
		MustChangePassword: staff.MustChangePassword,
		User:               staff,
	}, nil
}

// ChangeStaffPassword replaces the password after checking the current one
func (s *AuthService) ChangeStaffPassword(ctx context.Context, staffID, current, next, confirm string) error {
	oid, ok := shared.ParseObjectID(staffID)
	if !ok {
		return status.Error(codes.InvalidArgument, "invalid staff id")
	}
	if current == "" {
		return status.Error(codes.InvalidArgument, "current password is required")
	}
	if err := checkPassword(next, confirm); err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	staff, err := s.store.Staff.Get(queryCtx, oid)
	if err != nil {
		return store.Status("auth.changeStaffPassword", err, "staff")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(current)); err != nil {
		return status.Error(codes.Unauthenticated, "current password is incorrect")
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := s.store.Staff.SetPassword(queryCtx, oid, hash, false); err != nil {
		return store.Status("auth.changeStaffPassword", err, "staff")
	}
	return nil
}

// ============================================================================
// Admins
// ============================================================================

// RegisterAdmin creates an administrator when the registration key matches
func (s *AuthService) RegisterAdmin(ctx context.Context, in AdminRegisterInput) (*shared.Admin, error) {
	if s.opts.AdminRegistrationKey == "" || in.RegistrationKey != s.opts.AdminRegistrationKey {
		return nil, status.Error(codes.PermissionDenied, "invalid registration key")
	}
	name := strings.TrimSpace(in.Name)
	email := shared.NormalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, status.Error(codes.InvalidArgument, "name and email are required")
	}
	if len(in.Password) < shared.MinPasswordLength {
		return nil, status.Errorf(codes.InvalidArgument, "password must be at least %d characters", shared.MinPasswordLength)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := s.now()
	admin := &shared.Admin{Name: name, Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Admins.Create(queryCtx, admin); err != nil {
		return nil, store.Status("auth.registerAdmin", err, "admin")
	}

	logger.Info().Str("admin", admin.Email).Msg("admin registered")

	s.dispatcher.Go("admin-registration", notify.TemplateAdminRegistration, admin.Email, map[string]string{
		"ADMIN_NAME":  admin.Name,
		"ADMIN_EMAIL": admin.Email,
		"ADMIN_URL":   s.opts.AppURL + "/admin",
	})
	return admin, nil
}

// LoginAdmin authenticates an administrator account
func (s *AuthService) LoginAdmin(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := shared.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	admin, err := s.store.Admins.GetByEmail(queryCtx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, store.Status("auth.adminLogin", err, "admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(in.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	token, expiresAt, err := s.tokens.Issue(admin.ID.Hex(), admin.Email, shared.RoleAdmin)
	if err != nil {
		return nil, store.Internal("auth.adminLogin", err)
	}
	if err := s.store.Admins.TouchLogin(queryCtx, admin.ID, s.now()); err != nil {
		logger.Warn().Err(err).Str("admin", admin.Email).Msg("failed to record last login")
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Role: shared.RoleAdmin, User: admin}, nil
}

// IsAdminUser reports whether the token subject still holds admin rights.
// Promoted students carry the admin role in their token.
func (s *AuthService) IsAdminUser(ctx context.Context, claims *CustomClaims) bool {
	if claims == nil || claims.Role != shared.RoleAdmin {
		return false
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return false
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.store.Admins.Get(queryCtx, oid); err == nil {
		return true
	}
	student, err := s.store.Students.Get(queryCtx, oid)
	return err == nil && student.IsAdmin
}
