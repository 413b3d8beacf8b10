// ============================================================================
// backend/internal/shared/models.go
// Document models shared by the services and the stores
// ============================================================================

package shared

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ============================================================================
// Applications
// ============================================================================

// Applicant is an admission application
type Applicant struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID      string             `bson:"studentId" json:"studentId"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone" json:"phone"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	HighSchool     string             `bson:"highSchool" json:"highSchool"`
	GPA            *float64           `bson:"gpa,omitempty" json:"gpa,omitempty"`
	SATScore       *int               `bson:"satScore,omitempty" json:"satScore,omitempty"`
	ACTScore       *int               `bson:"actScore,omitempty" json:"actScore,omitempty"`
	DepartmentID   primitive.ObjectID `bson:"departmentId" json:"departmentId"`
	FacultyID      primitive.ObjectID `bson:"facultyId" json:"facultyId"`
	DepartmentName string             `bson:"departmentName" json:"departmentName"`
	FacultyName    string             `bson:"facultyName" json:"facultyName"`
	Course         string             `bson:"course" json:"course"`
	Essay          string             `bson:"essay,omitempty" json:"essay,omitempty"`
	Status         string             `bson:"status" json:"status"`
	Remarks        string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
	ReviewedAt     *time.Time         `bson:"reviewedAt,omitempty" json:"reviewedAt"`
	SubmissionDate time.Time          `bson:"submissionDate" json:"submissionDate"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ============================================================================
// Catalog
// ============================================================================

// Faculty groups departments
type Faculty struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FacultyID   string             `bson:"facultyId" json:"facultyId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgramCourse is a degree programme embedded in a department
type ProgramCourse struct {
	Name     string `bson:"name" json:"name"`
	Code     string `bson:"code" json:"code"`
	Type     string `bson:"type" json:"type"`
	IsActive bool   `bson:"isActive" json:"isActive"`
}

// Department belongs to a faculty and owns its programme list
type Department struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DepartmentID string             `bson:"departmentId" json:"departmentId"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Faculty      primitive.ObjectID `bson:"faculty" json:"faculty"`
	Courses      []ProgramCourse    `bson:"courses" json:"courses"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	Order        int                `bson:"order" json:"order"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActiveCourse returns the active programme whose name matches (case-insensitive)
func (d *Department) ActiveCourse(name string) (ProgramCourse, bool) {
	for _, c := range d.Courses {
		if c.IsActive && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return ProgramCourse{}, false
}

// ============================================================================
// Identities
// ============================================================================

// CourseSnapshot is the denormalized copy of a course kept on a student
type CourseSnapshot struct {
	CourseID     string    `bson:"courseId" json:"courseId"`
	Name         string    `bson:"name" json:"name"`
	Description  string    `bson:"description" json:"description"`
	Materials    []string  `bson:"materials" json:"materials"`
	RegisteredAt time.Time `bson:"registeredAt" json:"registeredAt"`
}

// ExamRegistration is a student's registration for a course exam
type ExamRegistration struct {
	CourseID     string    `bson:"courseId" json:"courseId"`
	Name         string    `bson:"name" json:"name"`
	RegisteredAt time.Time `bson:"registeredAt" json:"registeredAt"`
}

// Activity is an entry of a student's activity log
type Activity struct {
	Action    string    `bson:"action" json:"action"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Details   string    `bson:"details" json:"details"`
}

// Student is an enrolled student account
type Student struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID      string             `bson:"studentId" json:"studentId"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone" json:"phone"`
	Age            int                `bson:"age" json:"age"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	IsAdmin        bool               `bson:"isAdmin" json:"isAdmin"`
	OTP            string             `bson:"otp,omitempty" json:"-"`
	OTPVerified    bool               `bson:"otpVerified" json:"-"`
	OTPExpiresAt   *time.Time         `bson:"otpExpiresAt,omitempty" json:"-"`
	Courses        []CourseSnapshot   `bson:"courses" json:"courses"`
	Exams          []ExamRegistration `bson:"exams" json:"exams"`
	RecentActivity []Activity         `bson:"recentActivity" json:"recentActivity"`
	LastLogin      *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// HasCourse reports whether the student's own course list holds courseID
func (s *Student) HasCourse(courseID string) bool {
	for _, c := range s.Courses {
		if c.CourseID == courseID {
			return true
		}
	}
	return false
}

// HasExam reports whether the student is registered for the exam of courseID
func (s *Student) HasExam(courseID string) bool {
	for _, e := range s.Exams {
		if e.CourseID == courseID {
			return true
		}
	}
	return false
}

// Staff is a teacher, administrator or other employee
type Staff struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName          string             `bson:"firstName" json:"firstName"`
	LastName           string             `bson:"lastName" json:"lastName"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone" json:"phone"`
	PasswordHash       string             `bson:"passwordHash" json:"-"`
	Role               string             `bson:"role" json:"role"`
	Department         string             `bson:"department" json:"department"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	MustChangePassword bool               `bson:"mustChangePassword" json:"mustChangePassword"`
	LastLogin          *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	HireDate           time.Time          `bson:"hireDate" json:"hireDate"`
	Salary             float64            `bson:"salary,omitempty" json:"salary,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (s *Staff) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Admin is a back-office administrator account
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ============================================================================
// Courses
// ============================================================================

// Schedule is the weekly timetable of a course
type Schedule struct {
	Days      []string `bson:"days" json:"days"`
	StartTime string   `bson:"startTime" json:"startTime"`
	EndTime   string   `bson:"endTime" json:"endTime"`
}

// Course is an enrollable course
type Course struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CourseID    string               `bson:"courseId" json:"courseId"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Instructor  *primitive.ObjectID  `bson:"instructor,omitempty" json:"instructor,omitempty"`
	Students    []primitive.ObjectID `bson:"students" json:"students"`
	MaxStudents int                  `bson:"maxStudents" json:"maxStudents"`
	Duration    int                  `bson:"duration" json:"duration"`
	Schedule    Schedule             `bson:"schedule" json:"schedule"`
	Materials   []string             `bson:"materials" json:"materials"`
	IsActive    bool                 `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasStudent reports whether the student is on the course roster
func (c *Course) HasStudent(id primitive.ObjectID) bool {
	for _, s := range c.Students {
		if s == id {
			return true
		}
	}
	return false
}

// SeatsAvailable returns the remaining capacity
func (c *Course) SeatsAvailable() int {
	if left := c.MaxStudents - len(c.Students); left > 0 {
		return left
	}
	return 0
}

// IsFull reports whether the roster reached maxStudents
func (c *Course) IsFull() bool {
	return len(c.Students) >= c.MaxStudents
}

// Snapshot copies the fields kept on a student record
func (c *Course) Snapshot(at time.Time) CourseSnapshot {
	materials := make([]string, len(c.Materials))
	copy(materials, c.Materials)
	return CourseSnapshot{
		CourseID:     c.CourseID,
		Name:         c.Name,
		Description:  c.Description,
		Materials:    materials,
		RegisteredAt: at,
	}
}

// ============================================================================
// Front desk
// ============================================================================

// Visit is a campus visit request
type Visit struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"firstName" json:"firstName"`
	LastName   string             `bson:"lastName" json:"lastName"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone" json:"phone"`
	VisitDate  time.Time          `bson:"visitDate" json:"visitDate"`
	VisitTime  string             `bson:"visitTime" json:"visitTime"`
	VisitType  string             `bson:"visitType" json:"visitType"`
	GroupSize  int                `bson:"groupSize" json:"groupSize"`
	Interests  []string           `bson:"interests" json:"interests"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Status     string             `bson:"status" json:"status"`
	AdminNotes string             `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (v *Visit) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// Contact is a message from the public contact form
type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// SupportTicket is a student support request
type SupportTicket struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID    string             `bson:"studentId" json:"studentId"`
	StudentName  string             `bson:"studentName" json:"studentName"`
	StudentEmail string             `bson:"studentEmail" json:"studentEmail"`
	Subject      string             `bson:"subject" json:"subject"`
	Category     string             `bson:"category" json:"category"`
	Message      string             `bson:"message" json:"message"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ============================================================================
// Settings
// ============================================================================

// Address is a postal address
type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// SystemPreferences toggles system-wide behaviour
type SystemPreferences struct {
	AllowStudentRegistration bool `bson:"allowStudentRegistration" json:"allowStudentRegistration"`
	RequireEmailVerification bool `bson:"requireEmailVerification" json:"requireEmailVerification"`
	MaxStudentsPerCourse     int  `bson:"maxStudentsPerCourse" json:"maxStudentsPerCourse"`
	SessionTimeout           int  `bson:"sessionTimeout" json:"sessionTimeout"` // minutes
}

// NotificationSettings toggles administrative alerts
type NotificationSettings struct {
	EmailNotifications      bool `bson:"emailNotifications" json:"emailNotifications"`
	NewStudentAlerts        bool `bson:"newStudentAlerts" json:"newStudentAlerts"`
	CourseUpdateAlerts      bool `bson:"courseUpdateAlerts" json:"courseUpdateAlerts"`
	SystemMaintenanceAlerts bool `bson:"systemMaintenanceAlerts" json:"systemMaintenanceAlerts"`
}

// Settings is the singleton school configuration document
type Settings struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	SchoolName           string               `bson:"schoolName" json:"schoolName"`
	SchoolEmail          string               `bson:"schoolEmail" json:"schoolEmail"`
	Phone                string               `bson:"phone" json:"phone"`
	Address              Address              `bson:"address" json:"address"`
	SystemPreferences    SystemPreferences    `bson:"systemPreferences" json:"systemPreferences"`
	NotificationSettings NotificationSettings `bson:"notificationSettings" json:"notificationSettings"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// DefaultSettings is created on first read
func DefaultSettings() Settings {
	return Settings{
		SchoolName:  "School Management System",
		SchoolEmail: "admin@school.local",
		SystemPreferences: SystemPreferences{
			AllowStudentRegistration: true,
			MaxStudentsPerCourse:     30,
			SessionTimeout:           60,
		},
		NotificationSettings: NotificationSettings{
			EmailNotifications: true,
			NewStudentAlerts:   true,
			CourseUpdateAlerts: true,
		},
	}
}

// ============================================================================
// Constants
// ============================================================================

const (
	ApplicationPending     = "Pending"
	ApplicationUnderReview = "Under Review"
	ApplicationApproved    = "Approved"
	ApplicationRejected    = "Rejected"
	ApplicationAccepted    = "Accepted"
)

// ApplicationStatuses lists the valid application states
var ApplicationStatuses = []string{
	ApplicationPending, ApplicationUnderReview, ApplicationApproved, ApplicationRejected, ApplicationAccepted,
}

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
)

const (
	StaffRoleTeacher       = "teacher"
	StaffRoleAdministrator = "administrator"
	StaffRoleStaff         = "staff"
)

// StaffRoles lists the valid staff roles
var StaffRoles = []string{StaffRoleTeacher, StaffRoleAdministrator, StaffRoleStaff}

// ProgramTypes lists the degree levels of department programmes
var ProgramTypes = []string{
	"BSc", "MSc", "PhD", "BEng", "MEng", "BBA", "MBA", "BA", "MA", "LLB", "LLM", "MBBS", "B.Ed", "M.Ed",
}

// WeekDays lists the valid schedule days
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

const (
	VisitPending   = "pending"
	VisitConfirmed = "confirmed"
	VisitCancelled = "cancelled"
	VisitCompleted = "completed"
)

var (
	VisitStatuses  = []string{VisitPending, VisitConfirmed, VisitCancelled, VisitCompleted}
	VisitTimes     = []string{"morning", "afternoon", "evening"}
	VisitTypes     = []string{"individual", "group", "virtual"}
	VisitInterests = []string{
		"undergraduate", "graduate", "transfer", "international", "campus_tour",
		"admissions_info", "financial_aid", "housing", "academic_programs",
	}
)

const (
	SupportPending    = "Pending"
	SupportInProgress = "In Progress"
	SupportResolved   = "Resolved"
	SupportClosed     = "Closed"
)

var (
	SupportStatuses   = []string{SupportPending, SupportInProgress, SupportResolved, SupportClosed}
	SupportCategories = []string{"General", "Technical", "Billing", "Academic"}
)

const (
	MaxEssayLength      = 2000
	MinPasswordLength   = 6
	MaxVisitGroupSize   = 50
	MaxRecentActivities = 20
)

// OneOf reports whether value is in allowed
func OneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}
